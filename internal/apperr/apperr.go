// Package apperr classifies domain failures so callers can decide how to react
// without matching on individual sentinel errors.
package apperr

import "errors"

type Kind uint8

const (
	KindUnknown Kind = iota
	// KindValidation is malformed or out-of-range input, caught before any store call.
	KindValidation
	KindConflict
	KindNotFound
	// KindState means the target exists but is not in a state that allows the operation.
	KindState
	// KindTransient is a connection or timeout failure. Safe to retry.
	KindTransient
	// KindInvariant means the store accepted something the schema should have rejected.
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindState:
		return "state"
	case KindTransient:
		return "transient"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) ErrorCode() string {
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind and code so a wrapped copy still matches its sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// Wrap returns a copy of e carrying err as its cause.
func (e *Error) Wrap(err error) error {
	if err == nil {
		return e
	}
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: err}
}

var (
	ErrStoreUnavailable   = New(KindTransient, "store_unavailable", "store unavailable")
	ErrInvariantViolation = New(KindInvariant, "invariant_violation", "invariant violation")
)

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// MessageOf returns the user-facing message of the outermost classified error.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

func Retryable(err error) bool {
	return KindOf(err) == KindTransient
}
