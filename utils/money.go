package utils

import "math"

// Round2 rounds a monetary amount to 2 decimal places. Applied once at the
// point of persistence so intermediate multiplications keep full precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
