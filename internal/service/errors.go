package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies user-facing failures so the transport layer can map
// them to statuses without inspecting messages.
type ErrorKind int

const (
	// KindValidation marks missing/invalid input; no partial side effects.
	KindValidation ErrorKind = iota + 1
	// KindNotFound marks a referenced entity that does not exist.
	KindNotFound
	// KindPermission marks an actor whose role or visible set does not cover
	// the target.
	KindPermission
	// KindConflict marks uniqueness violations such as duplicate names.
	KindConflict
)

// Error is a typed, user-facing service failure.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

// NewValidationError builds a KindValidation error.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError builds a KindNotFound error.
func NewNotFoundError(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewPermissionError builds a KindPermission error.
func NewPermissionError(format string, args ...any) *Error {
	return &Error{Kind: KindPermission, Message: fmt.Sprintf(format, args...)}
}

// NewConflictError builds a KindConflict error.
func NewConflictError(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from err, or 0 when err carries none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
