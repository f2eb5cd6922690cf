// Package mathutil provides utility functions for mathematical operations.
package mathutil

import "math"

// RoundTo2Decimals rounds a float64 value to 2 decimal places, ties away
// from zero. Decimal ties such as 1.005 are stored just below the exact tie
// in binary; the epsilon nudge keeps them on the away-from-zero side. The
// nudge is only safe while |amount| stays far below 1e7, which CPMs and
// scores do.
func RoundTo2Decimals(amount float64) float64 {
	return math.Round((amount+math.Copysign(1e-9, amount))*100) / 100
}
