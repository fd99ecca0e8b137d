package sqlite

import (
	"context"
	"log"

	"okx-analysis/internal/model"
)

// Recorder is a CandleSource that archives every successful fetch. Archive
// failures are logged and never fail the fetch.
type Recorder struct {
	source  model.CandleSource
	archive model.CandleArchive
}

var _ model.CandleSource = (*Recorder)(nil)

// NewRecorder wraps source so every fetch is saved to archive.
func NewRecorder(source model.CandleSource, archive model.CandleArchive) *Recorder {
	return &Recorder{source: source, archive: archive}
}

// FetchCandles fetches from the wrapped source and archives the result.
func (r *Recorder) FetchCandles(ctx context.Context, instID string, bar model.Bar, limit int) ([]model.Candle, error) {
	candles, err := r.source.FetchCandles(ctx, instID, bar, limit)
	if err != nil {
		return nil, err
	}
	if err := r.archive.SaveCandles(ctx, instID, bar, candles); err != nil {
		log.Printf("[sqlite] archive %s: %v", model.Key(instID, bar), err)
	}
	return candles, nil
}
