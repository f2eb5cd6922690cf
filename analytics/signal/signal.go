// Package signal condenses an auction's demand telemetry into a single
// normalized score that can be shared without exposing raw bid values.
package signal

import (
	"github.com/demandsignal/telemetry/util/mathutil"
)

// Weights and ceilings of the demand-quality formula. A $10 average CPM and
// ten unique bidders are treated as the respective "excellent" ceilings.
const (
	fillRateWeight  = 0.4
	cpmWeight       = 0.4
	diversityWeight = 0.2

	cpmCeiling       = 10.0
	diversityCeiling = 10.0
)

// ComputeSignal combines fill rate, average CPM and bidder diversity into a
// score in [0, 1], rounded to 2 decimal places.
//
// fillRate must be the unrounded ratio of bid responses to bid requests (0
// when there were no requests). The rounded fill rate shown in payloads is a
// display concern and must not be fed back in here. avgCpm is the rounded
// average from stats.ComputeCpmStats.
func ComputeSignal(fillRate float64, avgCpm float64, uniqueBidders int) float64 {
	fillRateScore := clamp01(fillRate) * fillRateWeight
	cpmScore := clamp01(avgCpm/cpmCeiling) * cpmWeight
	diversityScore := clamp01(float64(uniqueBidders)/diversityCeiling) * diversityWeight

	return mathutil.RoundTo2Decimals(fillRateScore + cpmScore + diversityScore)
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
