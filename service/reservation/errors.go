package reservation

import "errors"

// errors used by controllers

type ErrCode string

const (
	ErrInvalidInput          ErrCode = "INVALID_INPUT"
	ErrUnauthorized          ErrCode = "UNAUTHORIZED"
	ErrForbidden             ErrCode = "FORBIDDEN"
	ErrNotFound              ErrCode = "NOT_FOUND"
	ErrConflict              ErrCode = "CONFLICT"
	ErrInvalidTransition     ErrCode = "INVALID_TRANSITION"
	ErrDependencyUnavailable ErrCode = "DEPENDENCY_UNAVAILABLE"
)

type codedError struct {
	code   ErrCode
	reason string
	cause  error
}

func (e codedError) Error() string {
	if e.reason == "" {
		return string(e.code)
	}
	return string(e.code) + ": " + e.reason
}
func (e codedError) Code() ErrCode           { return e.code }
func (e codedError) Reason() string          { return e.reason }
func (e codedError) Unwrap() error           { return e.cause }
func makeErr(c ErrCode, reason string) error { return codedError{code: c, reason: reason} }
func wrapErr(c ErrCode, reason string, cause error) error {
	return codedError{code: c, reason: reason, cause: cause}
}

// NewError builds a coded error outside this package (handlers, tests).
func NewError(c ErrCode, reason string) error { return makeErr(c, reason) }

// Code extracts error code; empty means internal.
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Reason is the caller-facing text of a coded error.
func Reason(err error) string {
	var ce interface{ Reason() string }
	if errors.As(err, &ce) {
		return ce.Reason()
	}
	return "internal error"
}
