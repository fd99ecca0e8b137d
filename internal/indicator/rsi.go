package indicator

// rsSentinel stands in for RS when the average loss is zero. It caps RSI at
// 100 - 100/101 (99.01) instead of 100; existing consumers depend on it.
const rsSentinel = 100.0

// rsiAcc is the Wilder-smoothing state carried from one close to the next.
// It is threaded through the series by value; step never mutates its
// receiver.
type rsiAcc struct {
	period  int
	n       int // closes consumed so far
	prev    float64
	sumGain float64
	sumLoss float64
	avgGain float64
	avgLoss float64
}

// step folds one close into the accumulator and returns the next state and
// the RSI reading at that index.
func (a rsiAcc) step(close float64) (rsiAcc, Value) {
	i := a.n
	a.n++
	if i == 0 {
		a.prev = close
		return a, Undefined
	}

	gain, loss := 0.0, 0.0
	if change := close - a.prev; change > 0 {
		gain = change
	} else if change < 0 {
		loss = -change
	}
	a.prev = close

	p := float64(a.period)
	switch {
	case i < a.period:
		// Accumulation phase: build initial sums
		a.sumGain += gain
		a.sumLoss += loss
		return a, Undefined
	case i == a.period:
		a.sumGain += gain
		a.sumLoss += loss
		a.avgGain = a.sumGain / p
		a.avgLoss = a.sumLoss / p
	default:
		// Wilder's smoothing: avg = (prevAvg*(period-1) + x) / period
		a.avgGain = (a.avgGain*(p-1) + gain) / p
		a.avgLoss = (a.avgLoss*(p-1) + loss) / p
	}
	return a, Some(rsiFromAverages(a.avgGain, a.avgLoss))
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	rs := rsSentinel
	if avgLoss != 0 {
		rs = avgGain / avgLoss
	}
	return Round2(100 - 100/(1+rs))
}

// RSI calculates the Relative Strength Index using Wilder's smoothing.
// Index 0 and every index below period are undefined; the first reading
// appears at index period.
func RSI(closes []float64, period int) (Series, error) {
	if period < 1 {
		return nil, ErrInvalidPeriod
	}
	out := make(Series, len(closes))
	acc := rsiAcc{period: period}
	for i, c := range closes {
		acc, out[i] = acc.step(c)
	}
	return out, nil
}
