package model

import "time"

// Candle represents one OHLCV bar as delivered by the exchange.
// TS is the bucket start in exchange-native epoch milliseconds.
// Sequences of candles are always ordered oldest first.
type Candle struct {
	TS     int64   `json:"ts"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"vol"`
}

// Time returns the bucket start as a UTC time.
func (c *Candle) Time() time.Time {
	return time.UnixMilli(c.TS).UTC()
}

// Closes extracts the close prices of a candle sequence, preserving order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = candles[i].Close
	}
	return out
}
