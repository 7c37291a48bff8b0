package geocode

import (
	"context"
	"errors"
	"fmt"
)

// Kind represents the category of a gateway error
type Kind int

const (
	// KindUnknown is the default error kind when none is specified
	KindUnknown Kind = iota
	// KindCancelled means the caller cancelled the request; never surfaced to users
	KindCancelled
	// KindGeocode means the provider failed: bad status, transport error or malformed payload
	KindGeocode
	// KindInvalidInput means the request was rejected before reaching the provider
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindCancelled:
		return "cancelled"
	case KindGeocode:
		return "geocode"
	case KindInvalidInput:
		return "invalid input"
	default:
		return "unknown"
	}
}

// Error is a gateway error with a typed Kind
type Error struct {
	Kind   Kind
	Op     string // operation that failed (optional)
	Status int    // upstream HTTP status, when there was one
	Err    error  // underlying error (optional)
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrCancelled    = &Error{Kind: KindCancelled}
	ErrGeocode      = &Error{Kind: KindGeocode}
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
)

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: upstream status %d", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors by kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Status == 0 && t.Kind == e.Kind
}

// IsCancelled reports whether err is a cancellation outcome
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

func cancelled(op string, err error) *Error {
	return &Error{Kind: KindCancelled, Op: op, Err: err}
}

func failed(op string, status int, err error) *Error {
	return &Error{Kind: KindGeocode, Op: op, Status: status, Err: err}
}

func invalid(op string, err error) *Error {
	return &Error{Kind: KindInvalidInput, Op: op, Err: err}
}

// ctxCancelled reports whether the context was cancelled by its owner.
// A passed deadline is a provider failure, not a supersession.
func ctxCancelled(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}
