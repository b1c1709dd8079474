package storage

import (
	"errors"
	"fmt"
)

// Kind classifies every failure reported by the gateway.
type Kind string

const (
	KindQuotaExceeded Kind = "quota_exceeded"
	KindParseError    Kind = "parse_error"
	KindNotFound      Kind = "not_found"
	KindUnknown       Kind = "unknown"
)

type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the kind-only sentinels below, so callers can write
// errors.Is(err, storage.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message != "" {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrQuotaExceeded = &Error{Kind: KindQuotaExceeded}
	ErrParse         = &Error{Kind: KindParseError}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrUnknown       = &Error{Kind: KindUnknown}
)

func newError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// KindOf reports the gateway kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var storageErr *Error
	if errors.As(err, &storageErr) {
		return storageErr.Kind
	}
	return KindUnknown
}
