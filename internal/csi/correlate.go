package csi

import "math"

// windowSpanUs is the 1-second lookback spec.md §4.2 uses to filter a
// window before computing its Pearson correlation.
const windowSpanUs = 1_000_000

// Pearson computes the Pearson correlation coefficient between a and b
// (spec.md §4.2). NaN inputs propagate, matching the original's reliance
// on a correlation-matrix library where a constant vector yields NaN.
func Pearson(a, b AmplitudeVector) float32 {
	n := float64(len(a))

	var sumA, sumB float64
	for i := range a {
		sumA += float64(a[i])
		sumB += float64(b[i])
	}
	meanA, meanB := sumA/n, sumB/n

	var cov, varA, varB float64
	for i := range a {
		da := float64(a[i]) - meanA
		db := float64(b[i]) - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}

	denom := math.Sqrt(varA * varB)
	if denom == 0 {
		return float32(math.NaN())
	}
	return float32(cov / denom)
}

// WindowPearson computes the Pearson correlation between the first and
// last observations in window, keeping only observations up to
// window[0].TimestampUs+1s (the scan stops at the first later one) and
// skipping any observation whose timestamp is earlier than the last one
// kept (spec.md §4.2).
func WindowPearson(window []Observation) float32 {
	if len(window) == 0 {
		return float32(math.NaN())
	}

	first := window[0]
	cutoff := first.TimestampUs + windowSpanUs

	filtered := make([]Observation, 0, len(window))
	prevTs := uint64(0)
	for i, obs := range window {
		if i > 0 && obs.TimestampUs < prevTs {
			continue // out of order, skip
		}
		if obs.TimestampUs > cutoff {
			break
		}
		filtered = append(filtered, obs)
		prevTs = obs.TimestampUs
	}

	if len(filtered) == 0 {
		return float32(math.NaN())
	}
	return Pearson(filtered[0].Matrix, filtered[len(filtered)-1].Matrix)
}
