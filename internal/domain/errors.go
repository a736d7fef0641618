package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can decide how to present them.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindInputFormat
	KindUnavailable
	KindNoPending
	KindUpstream
)

func (k ErrorKind) String() string {
	switch k {
	case KindInputFormat:
		return "input_format"
	case KindUnavailable:
		return "unavailable"
	case KindNoPending:
		return "no_pending"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

type Error struct {
	Kind      ErrorKind
	Op        string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

var (
	ErrInvalidDate      = NewError(KindInputFormat, "parse date", errors.New("expected YYYY-MM-DD"))
	ErrInvalidRange     = NewError(KindInputFormat, "validate range", errors.New("check-out must be after check-in"))
	ErrUnavailable      = NewError(KindUnavailable, "book", errors.New("dates are not available"))
	ErrNoPendingBooking = NewError(KindNoPending, "confirm", errors.New("no pending booking"))
)

// KindOf returns the kind of the first *Error in the chain, KindInternal otherwise.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
