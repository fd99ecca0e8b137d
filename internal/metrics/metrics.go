package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the analysis service.
type Metrics struct {
	// Upstream market data
	UpstreamFetchDur prometheus.Histogram
	UpstreamErrors   *prometheus.CounterVec // labels: reason
	CandlesFetched   prometheus.Counter

	// Candle cache
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Analysis pipeline
	AnalysisDur    *prometheus.HistogramVec // labels: action
	AnalysisTotal  *prometheus.CounterVec   // labels: action, status
	Recommendation *prometheus.CounterVec   // labels: recommendation
	LastScore      *prometheus.GaugeVec     // labels: inst_id, bar

	// Upstream circuit breaker
	BreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	BreakerTrips prometheus.Counter

	// Websocket fan-out
	WSClients prometheus.Gauge
	WSDrops   prometheus.Counter

	// Watchlist scanner
	ScanRuns prometheus.Counter
}

// NewMetrics registers all metrics on the default Prometheus registry.
func NewMetrics() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

// New registers all metrics on reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UpstreamFetchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "okxa_upstream_fetch_duration_seconds",
			Help:    "Candle fetch latency against the market-data endpoint",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "okxa_upstream_errors_total",
			Help: "Failed candle fetches (by reason)",
		}, []string{"reason"}),
		CandlesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "okxa_candles_fetched_total",
			Help: "Total candles received from upstream",
		}),

		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "okxa_candle_cache_hits_total",
			Help: "Candle requests served from Redis",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "okxa_candle_cache_misses_total",
			Help: "Candle requests that fell through to upstream",
		}),

		AnalysisDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "okxa_analysis_duration_seconds",
			Help:    "End-to-end analysis latency including the candle fetch",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
		AnalysisTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "okxa_analysis_total",
			Help: "Analysis requests (by action and outcome)",
		}, []string{"action", "status"}),
		Recommendation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "okxa_recommendations_total",
			Help: "Signal reports produced (by recommendation)",
		}, []string{"recommendation"}),
		LastScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "okxa_signal_score",
			Help: "Most recent composite signal score",
		}, []string{"inst_id", "bar"}),

		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "okxa_upstream_circuit_breaker_state",
			Help: "Upstream circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		BreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "okxa_upstream_circuit_breaker_trips_total",
			Help: "Times the upstream circuit breaker tripped open",
		}),

		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "okxa_ws_clients",
			Help: "Connected websocket clients",
		}),
		WSDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "okxa_ws_drops_total",
			Help: "Messages dropped because a client send buffer was full",
		}),

		ScanRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "okxa_scan_runs_total",
			Help: "Completed watchlist scan passes",
		}),
	}

	reg.MustRegister(
		m.UpstreamFetchDur,
		m.UpstreamErrors,
		m.CandlesFetched,
		m.CacheHits,
		m.CacheMisses,
		m.AnalysisDur,
		m.AnalysisTotal,
		m.Recommendation,
		m.LastScore,
		m.BreakerState,
		m.BreakerTrips,
		m.WSClients,
		m.WSDrops,
		m.ScanRuns,
	)

	return m
}

// HealthStatus represents the service health.
type HealthStatus struct {
	mu sync.RWMutex

	UpstreamOK     bool      `json:"upstream_ok"`
	LastFetchTime  time.Time `json:"last_fetch_time"`
	RedisConnected bool      `json:"redis_connected"`
	SQLiteOK       bool      `json:"sqlite_ok"`
	LastScanAt     time.Time `json:"last_scan_at"`
	Watchlist      int       `json:"watchlist"`

	// Liveness probe results
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

// RecordFetch notes the outcome of an upstream candle fetch.
func (h *HealthStatus) RecordFetch(ok bool) {
	h.mu.Lock()
	h.UpstreamOK = ok
	if ok {
		h.LastFetchTime = time.Now()
	}
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastScan(t time.Time) {
	h.mu.Lock()
	h.LastScanAt = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetWatchlist(n int) {
	h.mu.Lock()
	h.Watchlist = n
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the archive database and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks. Nil dependencies
// are skipped.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint. Only the upstream is required;
// Redis and SQLite are optional accelerators and only degrade the status.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	switch {
	case !h.UpstreamOK && !h.LastFetchTime.IsZero():
		overallStatus = "unhealthy"
		httpCode = http.StatusServiceUnavailable
	case !h.RedisConnected:
		overallStatus = "degraded"
	}

	fetchAge := ""
	if !h.LastFetchTime.IsZero() {
		fetchAge = time.Since(h.LastFetchTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		UpstreamOK      bool    `json:"upstream_ok"`
		LastFetchTime   string  `json:"last_fetch_time"`
		FetchAge        string  `json:"fetch_age"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		LastScanAt      string  `json:"last_scan_at"`
		Watchlist       int     `json:"watchlist"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		UpstreamOK:      h.UpstreamOK,
		LastFetchTime:   h.LastFetchTime.Format(time.RFC3339),
		FetchAge:        fetchAge,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastScanAt:      h.LastScanAt.Format(time.RFC3339),
		Watchlist:       h.Watchlist,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
