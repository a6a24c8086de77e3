package whitespace

import (
	"errors"
	"strings"
)

var (
	ErrValidation       = errors.New("invalid request")
	ErrInsufficientData = errors.New("insufficient data")
	ErrNoAssigneeMatch  = errors.New("no assignee matched the query")
)

// ValidationError lists every constraint a request violated.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + strings.Join(e.Violations, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
