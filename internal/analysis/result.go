package analysis

import (
	"okx-analysis/internal/indicator"
	"okx-analysis/internal/model"
	"okx-analysis/internal/signal"
)

// Result is the outcome of one Run. Exactly one of Data or Error is set.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`

	// Err keeps the typed failure for callers that map it to a status code.
	Err error `json:"-"`
}

// KlineData is the kline action payload.
type KlineData struct {
	InstID string         `json:"instId"`
	Bar    model.Bar      `json:"bar"`
	Count  int            `json:"count"`
	Latest *model.Candle  `json:"latest"`
	Klines []model.Candle `json:"klines"`
}

// MA trend labels.
const (
	TrendBullish = "bullish alignment"
	TrendBearish = "bearish alignment"
	TrendRanging = "ranging"
)

// MAData is the ma action payload.
type MAData struct {
	InstID string          `json:"instId"`
	Price  indicator.Value `json:"price"`
	MA5    indicator.Value `json:"ma5"`
	MA10   indicator.Value `json:"ma10"`
	MA20   indicator.Value `json:"ma20"`
	Trend  string          `json:"trend"`
}

// RSI labels.
const (
	RSIOverbought = "overbought"
	RSIOversold   = "oversold"
	RSIStrong     = "strong"
	RSIWeak       = "weak"
	RSINeutral    = "neutral"
)

// RSIData is the rsi action payload.
type RSIData struct {
	InstID string          `json:"instId"`
	RSI    indicator.Value `json:"rsi"`
	Signal string          `json:"signal"`
}

// MACD labels.
const (
	MACDGoldenCross     = "golden cross"
	MACDDeathCross      = "death cross"
	MACDBullishMomentum = "bullish momentum"
	MACDBearishMomentum = "bearish momentum"
	MACDWait            = "wait"
)

// MACDData is the macd action payload. MACD is the histogram.
type MACDData struct {
	InstID string          `json:"instId"`
	DIF    indicator.Value `json:"dif"`
	DEA    indicator.Value `json:"dea"`
	MACD   indicator.Value `json:"macd"`
	Signal string          `json:"signal"`
}

// Indicators is the indicator block of a signal payload.
type Indicators struct {
	MA5      indicator.Value `json:"ma5"`
	MA10     indicator.Value `json:"ma10"`
	MA20     indicator.Value `json:"ma20"`
	RSI      indicator.Value `json:"rsi"`
	MACDDif  indicator.Value `json:"macdDif"`
	MACDDea  indicator.Value `json:"macdDea"`
	MACDHist indicator.Value `json:"macdHist"`
}

// SignalData is the signal action payload.
type SignalData struct {
	InstID string          `json:"instId"`
	Bar    model.Bar       `json:"bar"`
	TS     int64           `json:"ts,omitempty"`
	Price  indicator.Value `json:"price"`
	signal.Report
	Indicators Indicators `json:"indicators"`
}
