package grouping

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

const (
	minWindowDays     = 60
	minSpanDays       = 180
	maxSpanDays       = 365
	maxMonthlyBuckets = 12
)

// Window is an inclusive date range used for a group's time series.
type Window struct {
	Start time.Time
	End   time.Time
}

func days(d time.Duration) int { return int(d.Hours() / 24) }

// WindowBounds picks a rolling window ending at the group's latest date (or
// dateTo when earlier). The span is the requested range clamped to
// [180, 365] days, never earlier than the group's first date. ok is false
// for groups without dated nodes or when fewer than 60 days remain.
func WindowBounds(nodes []NodeDatum, dateFrom, dateTo *time.Time) (Window, bool) {
	var latest, earliest time.Time
	dated := 0
	for _, n := range nodes {
		if n.PubDate == nil {
			continue
		}
		d := *n.PubDate
		if dated == 0 || d.After(latest) {
			latest = d
		}
		if dated == 0 || d.Before(earliest) {
			earliest = d
		}
		dated++
	}
	if dated == 0 {
		return Window{}, false
	}

	end := latest
	if dateTo != nil && dateTo.Before(end) {
		end = *dateTo
	}
	var start time.Time
	if dateFrom != nil && !dateFrom.After(end) {
		span := days(end.Sub(*dateFrom))
		spanDays := maxSpanDays
		if span > 0 {
			spanDays = min(max(span, minSpanDays), maxSpanDays)
		}
		start = end.AddDate(0, 0, -spanDays)
		if dateFrom.After(start) {
			start = *dateFrom
		}
	} else {
		start = end.AddDate(0, 0, -maxSpanDays)
	}
	if start.Before(earliest) {
		start = earliest
	}
	if days(end.Sub(start)) < minWindowDays {
		return Window{}, false
	}
	return Window{Start: start, End: end}, true
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Series holds per-month means for a group, oldest bucket first.
type Series struct {
	Months   []time.Time `json:"months"`
	Distance []float64   `json:"dist_series"`
	Share    []float64   `json:"share_series"`
	Score    []float64   `json:"whitespace_series"`
	Density  []float64   `json:"density_series"`
	Momentum []float64   `json:"momentum_series"`
	Samples  int         `json:"samples"`
	// Latest is the node set of the newest bucket.
	Latest []NodeDatum `json:"-"`
}

func monthFloor(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// BuildSeries buckets the dated nodes inside w by calendar month and keeps the
// most recent twelve buckets.
func BuildSeries(nodes []NodeDatum, w Window) Series {
	buckets := map[time.Time][]NodeDatum{}
	for _, n := range nodes {
		if n.PubDate == nil || !w.Contains(*n.PubDate) {
			continue
		}
		m := monthFloor(*n.PubDate)
		buckets[m] = append(buckets[m], n)
	}
	months := make([]time.Time, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Slice(months, func(a, b int) bool { return months[a].Before(months[b]) })
	if len(months) > maxMonthlyBuckets {
		months = months[len(months)-maxMonthlyBuckets:]
	}

	var s Series
	for _, m := range months {
		bucket := buckets[m]
		count := len(bucket)
		dist := make([]float64, count)
		score := make([]float64, count)
		dens := make([]float64, count)
		mom := make([]float64, count)
		focus := 0
		for i, n := range bucket {
			dist[i], score[i], dens[i], mom[i] = n.Distance, n.Score, n.Density, n.Momentum
			if n.IsFocus {
				focus++
			}
		}
		s.Months = append(s.Months, m)
		s.Distance = append(s.Distance, stat.Mean(dist, nil))
		s.Share = append(s.Share, float64(focus)/float64(count))
		s.Score = append(s.Score, stat.Mean(score, nil))
		s.Density = append(s.Density, stat.Mean(dens, nil))
		s.Momentum = append(s.Momentum, stat.Mean(mom, nil))
		s.Samples += count
		s.Latest = bucket
	}
	return s
}

// NeighborMomentum is the mean momentum of the newest bucket.
func (s Series) NeighborMomentum() float64 {
	if len(s.Momentum) == 0 {
		return 0
	}
	return s.Momentum[len(s.Momentum)-1]
}
