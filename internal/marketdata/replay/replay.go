// Package replay re-scores archived candle history bar by bar, emitting the
// signal report each bar would have produced live.
package replay

import (
	"context"
	"fmt"
	"log"
	"time"

	"okx-analysis/internal/analysis"
	"okx-analysis/internal/indicator"
	"okx-analysis/internal/model"
)

// Replayer reads archived candles and replays their reports at a
// configurable speed.
type Replayer struct {
	archive model.CandleArchive
}

// New creates a Replayer backed by a candle archive.
func New(archive model.CandleArchive) *Replayer {
	return &Replayer{archive: archive}
}

// Options selects what to replay.
type Options struct {
	InstID string
	Bar    model.Bar
	FromTS int64   // emit reports for bars with TS >= FromTS (0 = all)
	Warmup int     // leading archived bars to skip before emitting reports
	Speed  float64 // 1.0 = real time, 10.0 = 10x, 0 = as fast as possible
}

// Run emits one report per archived bar into outCh, oldest first. The full
// archive feeds the indicators; FromTS and Warmup only limit which bars are
// emitted. It returns the number of reports emitted.
func (r *Replayer) Run(ctx context.Context, opts Options, outCh chan<- analysis.SignalData) (int, error) {
	candles, err := r.archive.ReadCandles(ctx, opts.InstID, opts.Bar, 0)
	if err != nil {
		return 0, fmt.Errorf("read archive: %w", err)
	}
	if len(candles) == 0 {
		log.Printf("[replay] no archived candles for %s", model.Key(opts.InstID, opts.Bar))
		return 0, nil
	}

	// Each index depends only on candles up to it, so one pass over the
	// full history gives the per-bar reports.
	set := indicator.Compute(candles)

	log.Printf("[replay] loaded %d candles for %s, speed=%.1fx",
		len(candles), model.Key(opts.InstID, opts.Bar), opts.Speed)

	emitted := 0
	var prevTS int64
	for i := max(0, opts.Warmup); i < len(candles); i++ {
		if candles[i].TS < opts.FromTS {
			continue
		}
		if opts.Speed > 0 && prevTS != 0 {
			gap := time.Duration(candles[i].TS-prevTS) * time.Millisecond
			scaled := time.Duration(float64(gap) / opts.Speed)
			// cap so sparse history does not stall the replay
			if scaled > 5*time.Second {
				scaled = 5 * time.Second
			}
			if scaled > 0 {
				select {
				case <-ctx.Done():
					return emitted, ctx.Err()
				case <-time.After(scaled):
				}
			}
		}
		prevTS = candles[i].TS

		select {
		case <-ctx.Done():
			log.Printf("[replay] cancelled after %d reports", emitted)
			return emitted, ctx.Err()
		case outCh <- analysis.SignalAt(opts.InstID, opts.Bar, candles, set, i):
			emitted++
		}
	}

	log.Printf("[replay] completed: %d reports replayed", emitted)
	return emitted, nil
}
