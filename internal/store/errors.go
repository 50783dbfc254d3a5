package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// Common errors
var (
	ErrNotFound         = errors.New("document not found")
	ErrDuplicateKey     = errors.New("duplicate key violation")
	ErrIndexNotFound    = errors.New("index not found")
	ErrInvalidID        = errors.New("invalid object id")
	ErrConnectionFailed = errors.New("database connection failed")
	ErrTimeout          = errors.New("operation timeout")
)

// Server error codes the store distinguishes.
const (
	codeNamespaceNotFound = 26
	codeIndexNotFound     = 27
)

// Error provides detailed error information
type Error struct {
	Op         string // Operation that failed
	Collection string // Collection involved
	Index      string // Index name (if applicable)
	Kind       error  // One of the sentinel errors above, or nil
	Err        error  // Underlying driver error
	Retryable  bool   // Whether the operation can be retried
}

func (e *Error) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("store: %s", e.Op))

	if e.Collection != "" {
		parts = append(parts, fmt.Sprintf("collection=%s", e.Collection))
	}

	if e.Index != "" {
		parts = append(parts, fmt.Sprintf("index=%s", e.Index))
	}

	switch {
	case e.Kind != nil && e.Err != nil:
		parts = append(parts, fmt.Sprintf("%s (%s)", e.Kind, e.Err))
	case e.Kind != nil:
		parts = append(parts, e.Kind.Error())
	case e.Err != nil:
		parts = append(parts, e.Err.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for Error type
func (e *Error) Is(target error) bool {
	if e.Kind != nil && e.Kind == target {
		return true
	}

	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Op != "" && e.Op == t.Op
}

// parseMongoError converts driver errors to store errors
func parseMongoError(err error, op, collection string) error {
	if err == nil {
		return nil
	}

	var storeErr *Error
	if errors.As(err, &storeErr) {
		return err
	}

	e := &Error{Op: op, Collection: collection, Err: err}

	var cmdErr mongo.CommandError
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		e.Kind = ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		e.Kind = ErrDuplicateKey
	case errors.As(err, &cmdErr) && isIndexNotFound(cmdErr):
		e.Kind = ErrIndexNotFound
	case mongo.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		e.Kind = ErrTimeout
		e.Retryable = true
	case mongo.IsNetworkError(err), errors.Is(err, mongo.ErrClientDisconnected):
		e.Kind = ErrConnectionFailed
		e.Retryable = true
	}

	return e
}

// isIndexNotFound covers a missing index and a missing collection; in both
// cases the index cannot exist.
func isIndexNotFound(err mongo.CommandError) bool {
	return err.Code == codeIndexNotFound ||
		err.Code == codeNamespaceNotFound ||
		err.Name == "IndexNotFound" ||
		err.Name == "NamespaceNotFound"
}

// IsNotFound reports whether err means the requested document is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}

// IsRetryable reports whether the failed operation may succeed on retry.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
