package projects

import (
	"errors"
	"fmt"
)

// Sentinel errors for store mutations and lookups.
var (
	// ErrNotFound indicates an id, compiler key or file that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a duplicate compiler key on add.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnsupported indicates a file whose extension is not a project or source kind.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrInUse indicates a compiler profile still referenced by a workspace or the group project.
	ErrInUse = errors.New("in use")
	// ErrInconsistent indicates a store that violates a referential or ordering invariant.
	ErrInconsistent = errors.New("inconsistent store")
)

// OpError records the failing operation and the entity it targeted.
type OpError struct {
	Op  string // e.g. "move project link"
	ID  int    // targeted entity id, 0 when the target is not an id
	Err error
}

// Error returns the operation name followed by the underlying error.
func (e *OpError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *OpError) Unwrap() error {
	return e.Err
}

func opErr(op string, id int, err error) error {
	return &OpError{Op: op, ID: id, Err: err}
}

func missing(kind string, id any) error {
	return fmt.Errorf("%s %v: %w", kind, id, ErrNotFound)
}
