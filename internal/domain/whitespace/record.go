package whitespace

import "time"

// EmbeddingRecord is one loaded item. Vector is unit length once the loader
// returns it and shares storage with the population matrix row.
type EmbeddingRecord struct {
	ID       string
	Vector   []float64
	PubDate  *time.Time
	Assignee string
	Title    string
	Abstract string
	IsFocus  bool
}

// DateFromInt converts a YYYYMMDD integer to a UTC date. ok is false when the
// value does not name a real calendar day.
func DateFromInt(v int) (time.Time, bool) {
	if v <= 0 {
		return time.Time{}, false
	}
	y, m, d := v/10000, (v/100)%100, v%100
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// DateToInt is the inverse of DateFromInt.
func DateToInt(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}
