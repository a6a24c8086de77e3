package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter marks a precondition the caller should have enforced,
// such as asking for more neighbors than there are points.
var ErrInvalidParameter = errors.New("invalid parameter")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}
