package storage

import (
	"errors"
	"fmt"
)

// ErrSnapshotMissing is reported when a profile has no snapshot file to read.
var ErrSnapshotMissing = errors.New("snapshot missing")

// QueryError wraps a failure to open or query a profile's snapshot.
type QueryError struct {
	Profile string
	Op      string
	Err     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Profile, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// InputParseError describes a request parameter that was replaced by its
// default. It is informational; parsing never fails because of it.
type InputParseError struct {
	Field string
	Value string
	Err   error
}

func (e *InputParseError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *InputParseError) Unwrap() error {
	return e.Err
}
