package snapshot

import (
	"math"
	"sort"
)

// round2 rounds to two decimal places for stored rates and averages.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// rate returns numerator/denominator as a percentage rounded to two decimals,
// yielding 0 when the denominator is 0.
func rate(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return round2(float64(numerator) / float64(denominator) * 100)
}

// safeDiv divides guarding the zero denominator.
func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// meanCents averages a cents series, rounding to the nearest cent.
func meanCents(values []int64) int64 {
	if len(values) == 0 {
		return 0
	}
	var sum int64
	for _, v := range values {
		sum += v
	}
	return int64(math.Round(float64(sum) / float64(len(values))))
}

// meanFloat averages a float series, 0 when empty.
func meanFloat(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// percentileCents picks the nearest-rank percentile from an unsorted cents
// series: index floor(n*p) on a value-sorted copy, clamped to the last
// element. This matches the historical reporting behaviour and is kept for
// comparability of stored snapshots.
func percentileCents(values []int64, p float64) int64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Floor(float64(len(sorted)) * p))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topKey returns the most frequent key of a tally, breaking ties
// alphabetically so repeated runs stay deterministic. Empty tally yields "".
func topKey(tally map[string]int) string {
	best := ""
	bestCount := 0
	for key, count := range tally {
		if key == "" {
			continue
		}
		if count > bestCount || (count == bestCount && (best == "" || key < best)) {
			best = key
			bestCount = count
		}
	}
	return best
}
