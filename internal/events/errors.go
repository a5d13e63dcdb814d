package events

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no event has the requested id.
	ErrNotFound = errors.New("event not found")
	// ErrAmbiguousResult means more than one row matched an id lookup.
	// Ids are primary keys, so this is an invariant violation.
	ErrAmbiguousResult = errors.New("more than one event matched id")
	// ErrMalformedRequest covers unparseable bodies and a missing or null
	// description.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrPersistence is matched by every *PersistenceError.
	ErrPersistence = errors.New("persistence error")
)

// PersistenceError wraps a failure from the database driver. Code carries
// the Postgres condition name when the driver reported one.
type PersistenceError struct {
	Op   string
	Code string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Err, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// Malformed returns an error matching ErrMalformedRequest with a reason.
func Malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedRequest, fmt.Sprintf(format, args...))
}
