package whitespace

import (
	"fmt"
	"strings"
	"time"
)

const (
	SearchKeywords = "keywords"
	SearchAssignee = "assignee"

	MaxLimit           = 2000
	MaxNeighbors       = 50
	MinLayoutNeighbors = 2
	MaxLayoutNeighbors = 50

	dateLayout = "2006-01-02"
)

// Request is one whitespace analysis as submitted by a client. Start from
// DefaultRequest so omitted JSON fields keep their defaults.
type Request struct {
	DateFrom        string   `json:"date_from"`
	DateTo          string   `json:"date_to"`
	Neighbors       int      `json:"neighbors"`
	Resolution      float64  `json:"resolution"`
	Alpha           float64  `json:"alpha"`
	Beta            float64  `json:"beta"`
	Limit           int      `json:"limit"`
	FocusKeywords   []string `json:"focus_keywords"`
	FocusCPCLike    []string `json:"focus_cpc_like"`
	SearchMode      string   `json:"search_mode"`
	AssigneeQuery   string   `json:"assignee_query"`
	Layout          bool     `json:"layout"`
	LayoutMinDist   float64  `json:"layout_min_dist"`
	LayoutNeighbors int      `json:"layout_neighbors"`
	Debug           bool     `json:"debug"`
}

func DefaultRequest() Request {
	return Request{
		Neighbors:       15,
		Resolution:      0.5,
		Alpha:           0.8,
		Beta:            0.5,
		Limit:           MaxLimit,
		SearchMode:      SearchKeywords,
		Layout:          true,
		LayoutMinDist:   0.1,
		LayoutNeighbors: 25,
	}
}

// dateRange is the parsed form of DateFrom/DateTo.
type dateRange struct {
	From *time.Time
	To   *time.Time
}

// Validate checks every static constraint and reports all violations at once.
func (r Request) Validate() error {
	_, err := r.validate()
	return err
}

func (r Request) validate() (dateRange, error) {
	var (
		v     []string
		dates dateRange
	)
	if r.Limit < 1 || r.Limit > MaxLimit {
		v = append(v, fmt.Sprintf("limit must be between 1 and %d", MaxLimit))
	}
	if r.Neighbors < 1 || r.Neighbors > MaxNeighbors {
		v = append(v, fmt.Sprintf("neighbors must be between 1 and %d", MaxNeighbors))
	}
	if r.LayoutNeighbors < MinLayoutNeighbors || r.LayoutNeighbors > MaxLayoutNeighbors {
		v = append(v, fmt.Sprintf("layout_neighbors must be between %d and %d", MinLayoutNeighbors, MaxLayoutNeighbors))
	}
	switch r.mode() {
	case SearchKeywords:
	case SearchAssignee:
		if strings.TrimSpace(r.AssigneeQuery) == "" {
			v = append(v, "assignee_query is required when search_mode is assignee")
		}
	default:
		v = append(v, fmt.Sprintf("search_mode must be %q or %q", SearchKeywords, SearchAssignee))
	}
	var err error
	if dates.From, err = parseDate(r.DateFrom); err != nil {
		v = append(v, "date_from must be a YYYY-MM-DD date")
	}
	if dates.To, err = parseDate(r.DateTo); err != nil {
		v = append(v, "date_to must be a YYYY-MM-DD date")
	}
	if len(v) > 0 {
		return dateRange{}, &ValidationError{Violations: v}
	}
	return dates, nil
}

func (r Request) mode() string {
	m := strings.ToLower(strings.TrimSpace(r.SearchMode))
	if m == "" {
		return SearchKeywords
	}
	return m
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// scopeText describes what the analysis was anchored on.
func (r Request) scopeText() string {
	if r.mode() == SearchAssignee {
		if q := strings.TrimSpace(r.AssigneeQuery); q != "" {
			return q
		}
	}
	if s := joinNonEmpty(r.FocusKeywords); s != "" {
		return s
	}
	if s := joinNonEmpty(r.FocusCPCLike); s != "" {
		return s
	}
	return "Selected scope"
}

func joinNonEmpty(xs []string) string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if x = strings.TrimSpace(x); x != "" {
			out = append(out, x)
		}
	}
	return strings.Join(out, ", ")
}
