package indicator

// EMA calculates the exponential moving average of xs with multiplier
// 2/(period+1). Unlike MA it is defined from index 0: the first raw value
// seeds the average.
func EMA(xs []float64, period int) ([]float64, error) {
	if period < 1 {
		return nil, ErrInvalidPeriod
	}
	k := 2.0 / float64(period+1)
	out := make([]float64, len(xs))
	for i, x := range xs {
		if i == 0 {
			out[i] = x
			continue
		}
		// EMA = (Price * multiplier) + (EMA_prev * (1 - multiplier))
		out[i] = x*k + out[i-1]*(1-k)
	}
	return out, nil
}
