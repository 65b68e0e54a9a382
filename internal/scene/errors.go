package scene

import (
	"errors"
	"fmt"
)

// ParseError reports a layout payload that cannot be turned into a scene.
// Index is the offending object's position in the list, or -1 when the
// problem is at payload level.
type ParseError struct {
	Index  int
	Field  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	where := "payload"
	if e.Index >= 0 {
		where = fmt.Sprintf("object %d", e.Index)
	}
	if e.Field != "" {
		where += " (" + e.Field + ")"
	}
	return fmt.Sprintf("scene: parse %s: %s", where, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError reports whether err wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
