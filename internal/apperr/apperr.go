// Package apperr defines the error taxonomy shared by the services and
// the HTTP layer. Every failure a handler can report carries one of the
// kinds below so status mapping happens in exactly one place.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
)

// Error is an application error with a stable kind and a user-facing
// message. It optionally wraps an underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the kind from err, defaulting to KindInternal for
// errors that did not originate in this package.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// NotFound reports an absent entity. It is also used when an entity
// exists but is scoped away from the caller, so callers cannot probe
// for existence.
func NotFound(resource string) error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// BadRequest reports malformed input or an illegal state transition.
func BadRequest(format string, args ...any) error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Authentication reports a missing, invalid or expired credential.
func Authentication(message string) error {
	return &Error{Kind: KindAuthentication, Message: message}
}

// Authorization reports that the actor lacks the role or ownership
// relation required for this action.
func Authorization(message string) error {
	return &Error{Kind: KindAuthorization, Message: message}
}

// Conflict reports a uniqueness violation.
func Conflict(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

// Internal wraps an unexpected failure from a collaborator.
func Internal(message string, err error) error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}
