// Package scanner periodically runs the signal action over a watchlist and
// fans each report out to the configured publishers.
package scanner

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"okx-analysis/internal/analysis"
	"okx-analysis/internal/metrics"
	"okx-analysis/internal/model"
)

// Runner executes one analysis request.
type Runner interface {
	Run(ctx context.Context, req analysis.Request) analysis.Result
}

// Scanner drives periodic watchlist scans.
type Scanner struct {
	runner     Runner
	watchlist  []analysis.Request
	interval   time.Duration
	publishers []model.ReportPublisher
	metrics    *metrics.Metrics
	health     *metrics.HealthStatus
}

// New creates a Scanner. m and health may be nil.
func New(runner Runner, watchlist []analysis.Request, interval time.Duration, m *metrics.Metrics, health *metrics.HealthStatus, pubs ...model.ReportPublisher) *Scanner {
	if health != nil {
		health.SetWatchlist(len(watchlist))
	}
	return &Scanner{
		runner:     runner,
		watchlist:  watchlist,
		interval:   interval,
		publishers: pubs,
		metrics:    m,
		health:     health,
	}
}

// Run scans immediately, then every interval, until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) {
	if len(s.watchlist) == 0 {
		log.Println("[scanner] empty watchlist, not scanning")
		return
	}

	s.ScanOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ScanOnce(ctx)
		}
	}
}

// ScanOnce runs every watchlist entry once and returns how many reports were
// produced. A failing entry is logged and skipped.
func (s *Scanner) ScanOnce(ctx context.Context) int {
	produced := 0
	for _, req := range s.watchlist {
		if ctx.Err() != nil {
			break
		}

		res := s.runner.Run(ctx, req)
		if !res.Success {
			log.Printf("[scanner] %s %s: %s", req.InstID, req.Bar, res.Error)
			continue
		}

		payload, err := json.Marshal(res.Data)
		if err != nil {
			log.Printf("[scanner] %s %s: marshal: %v", req.InstID, req.Bar, err)
			continue
		}

		channel := model.SignalChannel(req.InstID, req.BarValue())
		for _, p := range s.publishers {
			if err := p.Publish(ctx, channel, payload); err != nil {
				log.Printf("[scanner] publish %s: %v", channel, err)
			}
		}
		produced++
	}

	if s.metrics != nil {
		s.metrics.ScanRuns.Inc()
	}
	if s.health != nil {
		s.health.SetLastScan(time.Now())
	}
	return produced
}
