package indicator

import (
	"okx-analysis/internal/model"
)

// Periods used by the analysis pipeline.
const (
	PeriodMA5  = 5
	PeriodMA10 = 10
	PeriodMA20 = 20
	PeriodRSI  = 14
)

// Set holds every indicator series computed for one candle sequence.
type Set struct {
	Closes []float64
	MA5    Series
	MA10   Series
	MA20   Series
	RSI14  Series
	MACD   MACDSeries
}

// Compute runs the full indicator pipeline over a candle sequence
// (moving averages, RSI, then MACD). An empty sequence yields an empty Set
// whose snapshot is entirely undefined.
func Compute(candles []model.Candle) Set {
	closes := model.Closes(candles)

	// Periods are constants >= 1, so the primitives cannot fail here.
	ma5, _ := MA(closes, PeriodMA5)
	ma10, _ := MA(closes, PeriodMA10)
	ma20, _ := MA(closes, PeriodMA20)
	rsi, _ := RSI(closes, PeriodRSI)

	return Set{
		Closes: closes,
		MA5:    ma5,
		MA10:   ma10,
		MA20:   ma20,
		RSI14:  rsi,
		MACD:   MACD(closes),
	}
}

// Len returns the number of aligned indices.
func (s Set) Len() int { return len(s.Closes) }

// At returns the snapshot at index i. Out-of-range indices produce a fully
// undefined snapshot.
func (s Set) At(i int) Snapshot {
	if i < 0 || i >= s.Len() {
		return Snapshot{}
	}
	return Snapshot{
		Price:    Some(s.Closes[i]),
		MA5:      s.MA5.At(i),
		MA10:     s.MA10.At(i),
		MA20:     s.MA20.At(i),
		RSI14:    s.RSI14.At(i),
		MACDDif:  at(s.MACD.DIF, i),
		MACDDea:  at(s.MACD.DEA, i),
		MACDHist: at(s.MACD.Hist, i),
		PrevDif:  at(s.MACD.DIF, i-1),
		PrevDea:  at(s.MACD.DEA, i-1),
		PrevHist: at(s.MACD.Hist, i-1),
	}
}

// Latest returns the snapshot at the most recent index.
func (s Set) Latest() Snapshot { return s.At(s.Len() - 1) }

func at(xs []float64, i int) Value {
	if i < 0 || i >= len(xs) {
		return Undefined
	}
	return Some(xs[i])
}
