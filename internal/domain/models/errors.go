package models

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies why a research section produced no value.
type ErrorKind string

const (
	ErrNotFound    ErrorKind = "NotFound"
	ErrRateLimited ErrorKind = "RateLimited"
	ErrUnavailable ErrorKind = "Unavailable"
	ErrNoData      ErrorKind = "NoData"
	ErrTimedOut    ErrorKind = "TimedOut"
	ErrMalformed   ErrorKind = "Malformed"
	ErrInternal    ErrorKind = "Internal"
)

// ProviderError is returned by collaborators to signal a classified failure.
type ProviderError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func NewProviderError(kind ErrorKind, op string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Op: op, Err: err}
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// KindOf maps an arbitrary error to an ErrorKind.
// Unclassified errors are treated as transient.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Kind != "" {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimedOut
	}
	return ErrUnavailable
}
