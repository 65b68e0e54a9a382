// Package layout adapts wherever layout records live (a directory, an HTTP
// API, a SQLite file) to one fetch interface. Records are returned as opaque
// bytes; interpreting them is the scene package's job.
package layout

import (
	"context"
	"errors"
	"fmt"
)

// Summary identifies one layout record for the lobby list.
type Summary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Source lists and fetches layout records.
type Source interface {
	List(ctx context.Context) ([]Summary, error)
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// ErrNotFound is wrapped by FetchError when a record does not exist.
var ErrNotFound = errors.New("layout not found")

// FetchError reports that a layout record could not be retrieved.
type FetchError struct {
	ID  string // empty for list operations
	Op  string // "list" or "fetch"
	Err error
}

func (e *FetchError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("layout: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("layout: %s %q: %v", e.Op, e.ID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchError reports whether err wraps a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

func fetchErr(id string, err error) error {
	return &FetchError{ID: id, Op: "fetch", Err: err}
}

func listErr(err error) error {
	return &FetchError{Op: "list", Err: err}
}
