package analysis

import (
	"okx-analysis/internal/indicator"
	"okx-analysis/internal/signal"
)

// Trend classifies moving-average alignment. Any undefined input yields
// TrendRanging.
func Trend(s indicator.Snapshot) string {
	switch {
	case s.Price.Greater(s.MA5) && s.MA5.Greater(s.MA10) && s.MA10.Greater(s.MA20):
		return TrendBullish
	case s.Price.Less(s.MA5) && s.MA5.Less(s.MA10) && s.MA10.Less(s.MA20):
		return TrendBearish
	default:
		return TrendRanging
	}
}

// RSILabel classifies an RSI reading.
func RSILabel(rsi indicator.Value) string {
	switch {
	case !rsi.OK:
		return RSINeutral
	case rsi.V > signal.RSIOverbought:
		return RSIOverbought
	case rsi.V < signal.RSIOversold:
		return RSIOversold
	case rsi.V > signal.RSIMidline:
		return RSIStrong
	default:
		return RSIWeak
	}
}

// MACDLabel classifies the latest MACD state, crossovers first.
func MACDLabel(s indicator.Snapshot) string {
	zero := indicator.Some(0)
	switch {
	case s.MACDDif.Greater(s.MACDDea) && s.PrevDif.LessEq(s.PrevDea):
		return MACDGoldenCross
	case s.MACDDif.Less(s.MACDDea) && s.PrevDif.GreaterEq(s.PrevDea):
		return MACDDeathCross
	case s.MACDHist.Greater(zero) && s.MACDHist.Greater(s.PrevHist):
		return MACDBullishMomentum
	case s.MACDHist.Less(zero) && s.MACDHist.Less(s.PrevHist):
		return MACDBearishMomentum
	default:
		return MACDWait
	}
}
