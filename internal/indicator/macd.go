package indicator

// MACDParams holds the fast, slow and signal EMA periods.
type MACDParams struct {
	Fast   int
	Slow   int
	Signal int
}

// DefaultMACD is the classic 12/26/9 configuration.
var DefaultMACD = MACDParams{Fast: 12, Slow: 26, Signal: 9}

// MACDSeries holds the three MACD lines, each aligned with the input closes.
type MACDSeries struct {
	DIF  []float64
	DEA  []float64
	Hist []float64
}

// MACD computes DIF, DEA and histogram with the default periods.
//
// Rounding happens at every stage boundary: DIF is rounded before the signal
// EMA runs over it, and the histogram is computed from the rounded DIF and
// DEA. Rounding only the final output yields different numbers.
func MACD(closes []float64) MACDSeries {
	m, _ := MACDWith(closes, DefaultMACD)
	return m
}

// MACDWith computes MACD with custom periods.
func MACDWith(closes []float64, p MACDParams) (MACDSeries, error) {
	fast, err := EMA(closes, p.Fast)
	if err != nil {
		return MACDSeries{}, err
	}
	slow, err := EMA(closes, p.Slow)
	if err != nil {
		return MACDSeries{}, err
	}

	dif := make([]float64, len(closes))
	for i := range closes {
		dif[i] = Round2(fast[i] - slow[i])
	}

	dea, err := EMA(dif, p.Signal)
	if err != nil {
		return MACDSeries{}, err
	}
	hist := make([]float64, len(closes))
	for i := range dea {
		dea[i] = Round2(dea[i])
		hist[i] = Round2((dif[i] - dea[i]) * 2)
	}

	return MACDSeries{DIF: dif, DEA: dea, Hist: hist}, nil
}
