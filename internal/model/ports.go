package model

import (
	"context"
)

// ── Port Interfaces ──
// These interfaces decouple the analysis pipeline from concrete market-data
// and storage implementations (OKX REST, Redis, SQLite).

// CandleSource supplies an ordered candle sequence for an instrument.
type CandleSource interface {
	// FetchCandles returns up to limit candles for instID at the given bar,
	// oldest first. Any upstream failure is returned as an error and no
	// partial result is produced.
	FetchCandles(ctx context.Context, instID string, bar Bar, limit int) ([]Candle, error)
}

// CandleArchive stores and replays candle history.
type CandleArchive interface {
	// SaveCandles upserts candles for instID/bar.
	SaveCandles(ctx context.Context, instID string, bar Bar, candles []Candle) error

	// ReadCandles returns archived candles with TS > afterTS, oldest first.
	ReadCandles(ctx context.Context, instID string, bar Bar, afterTS int64) ([]Candle, error)

	// Close releases underlying resources.
	Close() error
}

// ReportPublisher fans out a serialized report on a named channel.
type ReportPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}
