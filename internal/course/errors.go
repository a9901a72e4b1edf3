package course

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("course not found")
	ErrInvalidID     = errors.New("invalid course id")
	ErrInvalidFilter = errors.New("invalid course filter")
	ErrDuplicateID   = errors.New("course id already exists")
)

// OperationError reports a failed course operation. Op is the operation name
// (create, list, get, update, delete) and ID the target record when known.
type OperationError struct {
	Op  string
	ID  string
	Err error
}

func (e *OperationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("course %s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("course %s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// IsClientError reports whether err was caused by bad input rather than by
// the store.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidID) || errors.Is(err, ErrInvalidFilter)
}
