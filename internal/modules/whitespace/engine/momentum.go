package engine

import "time"

const (
	// MomentumWindow is how far back from the newest item a filing counts as recent.
	MomentumWindow = 90 * 24 * time.Hour

	recentContribution = 1.0
	staleContribution  = -0.25
)

// Momentum scores each cluster's recent growth: +1 per item dated within
// MomentumWindow of the newest item, -0.25 per older item, floored at zero
// and divided by the largest cluster total. Undated items count as older, so a
// cluster with no dated items has momentum 0.
func Momentum(labels []int, dates []*time.Time) []float64 {
	out := make([]float64, ClusterCount(labels))
	var latest time.Time
	for _, d := range dates {
		if d != nil && d.After(latest) {
			latest = *d
		}
	}
	if latest.IsZero() {
		return out
	}
	cutoff := latest.Add(-MomentumWindow)

	for i, l := range labels {
		if l < 0 {
			continue
		}
		if i < len(dates) && dates[i] != nil && !dates[i].Before(cutoff) {
			out[l] += recentContribution
		} else {
			out[l] += staleContribution
		}
	}
	var top float64
	for c, v := range out {
		if v < 0 {
			out[c] = 0
			continue
		}
		if v > top {
			top = v
		}
	}
	if top > 0 {
		for c := range out {
			out[c] /= top
		}
	}
	return out
}
