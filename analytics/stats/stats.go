// Package stats computes summary statistics over the CPM values collected
// during a single auction.
package stats

import (
	"sort"

	"github.com/demandsignal/telemetry/util/mathutil"
)

// CpmStats is the summary of all positive CPM values seen in one auction.
// Every field is rounded to 2 decimal places; all fields are zero when the
// auction received no usable bids.
type CpmStats struct {
	Avg    float64 `json:"avg"`
	Max    float64 `json:"max"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
}

// ComputeCpmStats derives CpmStats from values. The input slice is not
// modified.
func ComputeCpmStats(values []float64) CpmStats {
	if len(values) == 0 {
		return CpmStats{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return CpmStats{
		Avg:    mathutil.RoundTo2Decimals(sum / float64(len(sorted))),
		Max:    mathutil.RoundTo2Decimals(sorted[len(sorted)-1]),
		Min:    mathutil.RoundTo2Decimals(sorted[0]),
		Median: mathutil.RoundTo2Decimals(median(sorted)),
	}
}

// median expects sorted to be non-empty and ascending.
func median(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
