package indicator

// MA calculates the simple moving average of closes over a trailing window.
// Indices before period-1 are undefined. Each defined value is the mean of
// closes[i-period+1..i] rounded to 2 decimals.
//
// The window is re-summed at every index rather than maintained as a rolling
// sum so that no subtraction drift leaks into the rounded output.
func MA(closes []float64, period int) (Series, error) {
	if period < 1 {
		return nil, ErrInvalidPeriod
	}
	out := make(Series, len(closes))
	for i := range closes {
		if i < period-1 {
			continue
		}
		sum := 0.0
		for _, c := range closes[i-period+1 : i+1] {
			sum += c
		}
		out[i] = Some(Round2(sum / float64(period)))
	}
	return out, nil
}
