// Package signalsvc wires the long-running analysis service: the OKX candle
// source with its Redis cache and SQLite archive, the HTTP API, the
// websocket hub, the watchlist scanner and the metrics server.
package signalsvc

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"okx-analysis/config"
	"okx-analysis/internal/analysis"
	"okx-analysis/internal/api"
	"okx-analysis/internal/gateway"
	"okx-analysis/internal/marketdata/okx"
	"okx-analysis/internal/metrics"
	"okx-analysis/internal/model"
	"okx-analysis/internal/notification"
	"okx-analysis/internal/scanner"
	redisstore "okx-analysis/internal/store/redis"
	sqlitestore "okx-analysis/internal/store/sqlite"
)

// Service is the top-level orchestrator. It wires all dependencies, manages
// lifecycle, and coordinates goroutines.
type Service struct {
	cfg *config.Config

	prom    *metrics.Metrics
	health  *metrics.HealthStatus
	rdb     *goredis.Client
	archive *sqlitestore.Archive

	analyzer *analysis.Analyzer
	hub      *gateway.Hub
	scanner  *scanner.Scanner
}

// New builds the service. Redis and SQLite are optional: when either is
// unavailable the service runs without the cache or the archive.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	svc := &Service{
		cfg:    cfg,
		prom:   metrics.NewMetrics(),
		health: metrics.NewHealthStatus(),
	}

	// ---- Candle source chain: OKX -> SQLite archive -> Redis cache ----
	var source model.CandleSource = okx.NewClient(okx.Config{
		BaseURL:      cfg.OKXBaseURL,
		Timeout:      cfg.UpstreamTimeout,
		MaxFailures:  cfg.BreakerMaxFailures,
		ResetTimeout: cfg.BreakerReset,
	}, svc.prom, svc.health)

	if cfg.SQLitePath != "" {
		archive, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			log.Printf("[signalsvc] WARNING: sqlite archive init failed: %v (continuing without archive)", err)
		} else {
			svc.archive = archive
			source = sqlitestore.NewRecorder(source, archive)
		}
	}

	var publishers []model.ReportPublisher
	if cfg.RedisAddr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err != nil {
			log.Printf("[signalsvc] WARNING: %v (continuing without Redis)", err)
		} else {
			svc.rdb = rdb
			source = redisstore.NewCandleCache(rdb, source, cfg.CandleCacheTTL, svc.prom)
			publishers = append(publishers, redisstore.NewPublisher(rdb))
		}
	}

	svc.analyzer = analysis.New(source, svc.prom)
	svc.hub = gateway.NewHub(svc.prom)

	// With Redis the hub is fed by the pattern subscription; without it the
	// scanner publishes to the hub directly.
	if svc.rdb == nil {
		publishers = append(publishers, svc.hub)
	}

	watchlist, err := scanner.LoadWatchlist(cfg.WatchlistPath)
	if err != nil {
		log.Printf("[signalsvc] WARNING: watchlist: %v (scanner disabled)", err)
	}
	publishers = append(publishers, notification.NewAlerter(svc.notifiers()))

	svc.scanner = scanner.New(svc.analyzer, watchlist, cfg.ScanInterval, svc.prom, svc.health, publishers...)

	return svc, nil
}

// notifiers builds the alert fan-out from the configured backends.
func (svc *Service) notifiers() notification.Multi {
	n := notification.Multi{notification.NewLogNotifier()}
	if svc.cfg.AlertWebhookURL != "" {
		n = append(n, notification.NewWebhookNotifier(svc.cfg.AlertWebhookURL))
	}
	if svc.cfg.TelegramBotToken != "" && svc.cfg.TelegramChatID != "" {
		n = append(n, notification.NewTelegramNotifier(svc.cfg.TelegramBotToken, svc.cfg.TelegramChatID))
	}
	return n
}

// Run starts all subsystems and blocks until ctx is cancelled.
func (svc *Service) Run(ctx context.Context) error {
	cfg := svc.cfg
	log.Println("[signalsvc] starting analysis service...")

	metricsSrv := metrics.NewServer(cfg.MetricsAddr, svc.health)
	metricsSrv.Start()

	var sqlDB *sql.DB
	if svc.archive != nil {
		sqlDB = svc.archive.DB()
	}
	svc.health.StartLivenessChecker(ctx, svc.rdb, sqlDB, 15*time.Second)

	if svc.rdb != nil {
		go svc.hub.RunRedis(ctx, svc.rdb)
	}
	go svc.scanner.Run(ctx)

	apiSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(svc.analyzer, svc.hub),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[signalsvc] api listening on %s", cfg.HTTPAddr)
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[signalsvc] api server error: %v", err)
		}
	}()

	log.Printf("[signalsvc] upstream=%s scan every %s, redis=%t, archive=%t",
		cfg.OKXBaseURL, cfg.ScanInterval, svc.rdb != nil, svc.archive != nil)
	log.Println("[signalsvc] ✅ all systems running. Press Ctrl+C to stop.")

	<-ctx.Done()

	// ---- Graceful shutdown ----
	log.Println("[signalsvc] shutdown signal received...")
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := apiSrv.Shutdown(shutCtx); err != nil {
		log.Printf("[signalsvc] WARNING: api shutdown: %v", err)
	}
	svc.hub.Close()
	if err := metricsSrv.Stop(shutCtx); err != nil {
		log.Printf("[signalsvc] WARNING: metrics shutdown: %v", err)
	}
	if svc.archive != nil {
		if err := svc.archive.Close(); err != nil {
			log.Printf("[signalsvc] WARNING: archive close: %v", err)
		}
	}
	if svc.rdb != nil {
		if err := svc.rdb.Close(); err != nil {
			log.Printf("[signalsvc] WARNING: redis close: %v", err)
		}
	}

	log.Println("[signalsvc] shutdown complete.")
	return nil
}
