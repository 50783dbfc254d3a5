package migrator

import (
	"errors"
	"fmt"
	"strings"
)

// Error classes a migration run distinguishes.
var (
	ErrConnection      = errors.New("store connection failed")
	ErrIndexNotFound   = errors.New("index not found")
	ErrIndexOperation  = errors.New("index operation failed")
	ErrRenameOperation = errors.New("field rename failed")
	ErrFieldConflict   = errors.New("documents carry both the deprecated and current field")
)

// Error provides detailed error information
type Error struct {
	Kind       error  // One of the error classes above
	Op         string // Operation that failed
	Collection string // Collection involved
	Index      string // Index name (if applicable)
	Err        error  // Underlying error
}

func (e *Error) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("migrator: %s", e.Op))

	if e.Collection != "" {
		parts = append(parts, fmt.Sprintf("collection=%s", e.Collection))
	}

	if e.Index != "" {
		parts = append(parts, fmt.Sprintf("index=%s", e.Index))
	}

	if e.Kind != nil {
		parts = append(parts, e.Kind.Error())
	}

	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for Error type
func (e *Error) Is(target error) bool {
	return e.Kind != nil && e.Kind == target
}

// Fatal reports whether err must abort the run.
func Fatal(err error) bool {
	return errors.Is(err, ErrConnection) || errors.Is(err, ErrRenameOperation)
}
