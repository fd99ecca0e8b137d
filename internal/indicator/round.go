package indicator

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds x to 2 decimal places, half away from zero, working on the
// shortest decimal representation of x so that 1.005 rounds to 1.01.
// Rounding the binary value instead gives 1.00 there, so results can differ
// from such implementations in the last place on ties.
// Non-finite inputs are returned unchanged.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}
