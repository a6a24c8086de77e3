package whitespace

import (
	"errors"
	"testing"
)

func TestDefaultRequestIsValid(t *testing.T) {
	if err := DefaultRequest().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateListsEveryViolation(t *testing.T) {
	req := DefaultRequest()
	req.Limit = 0
	req.Neighbors = 51
	req.LayoutNeighbors = 1
	req.SearchMode = SearchAssignee
	req.DateFrom = "2024/01/01"

	err := req.Validate()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("errors.Is(ErrValidation): %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("not a ValidationError: %T", err)
	}
	want := []string{
		"limit must be between 1 and 2000",
		"neighbors must be between 1 and 50",
		"layout_neighbors must be between 2 and 50",
		"assignee_query is required when search_mode is assignee",
		"date_from must be a YYYY-MM-DD date",
	}
	if len(ve.Violations) != len(want) {
		t.Fatalf("violations: got=%q", ve.Violations)
	}
	for i := range want {
		if ve.Violations[i] != want[i] {
			t.Fatalf("violation %d: got=%q want=%q", i, ve.Violations[i], want[i])
		}
	}
}

func TestValidateBounds(t *testing.T) {
	cases := []struct {
		name string
		edit func(*Request)
		ok   bool
	}{
		{"limit low edge", func(r *Request) { r.Limit = 1 }, true},
		{"limit high edge", func(r *Request) { r.Limit = 2000 }, true},
		{"limit over", func(r *Request) { r.Limit = 2001 }, false},
		{"neighbors zero", func(r *Request) { r.Neighbors = 0 }, false},
		{"layout neighbors edge", func(r *Request) { r.LayoutNeighbors = 2 }, true},
		{"unknown mode", func(r *Request) { r.SearchMode = "semantic" }, false},
		{"assignee with query", func(r *Request) { r.SearchMode = "Assignee"; r.AssigneeQuery = "acme" }, true},
		{"blank query", func(r *Request) { r.SearchMode = SearchAssignee; r.AssigneeQuery = "  " }, false},
		{"dates", func(r *Request) { r.DateFrom = "2023-01-01"; r.DateTo = "2024-01-01" }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := DefaultRequest()
			tc.edit(&r)
			if err := r.Validate(); (err == nil) != tc.ok {
				t.Fatalf("Validate: err=%v wantOK=%v", err, tc.ok)
			}
		})
	}
}

func TestScopeText(t *testing.T) {
	cases := []struct {
		req  Request
		want string
	}{
		{Request{FocusKeywords: []string{"lidar", " ", "radar"}}, "lidar, radar"},
		{Request{FocusCPCLike: []string{"G01S%"}}, "G01S%"},
		{Request{}, "Selected scope"},
		{Request{SearchMode: SearchAssignee, AssigneeQuery: " Acme ", FocusKeywords: []string{"lidar"}}, "Acme"},
	}
	for _, tc := range cases {
		if got := tc.req.scopeText(); got != tc.want {
			t.Fatalf("scopeText(%+v): got=%q want=%q", tc.req, got, tc.want)
		}
	}
}
