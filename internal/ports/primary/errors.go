package primary

import "errors"

// ErrorKind classifies failures at the service boundary.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindInvalidArgument
	KindUnauthenticated
	KindPermissionDenied
	KindNotFound
	KindFailedPrecondition
)

// String returns the callable-style name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid-argument"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindPermissionDenied:
		return "permission-denied"
	case KindNotFound:
		return "not-found"
	case KindFailedPrecondition:
		return "failed-precondition"
	default:
		return "internal"
	}
}

// Error is a service error carrying a kind and a user-facing message.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error // underlying cause, never shown to callers
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates a service error without an underlying cause.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapInternal wraps an unexpected failure with a generic message.
func WrapInternal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal for errors not created here.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message of err.
// Foreign errors get a generic message so internals do not leak.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
