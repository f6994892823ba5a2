package models

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the failure taxonomy. Callers classify failures with
// errors.Is; user-visible errors additionally carry a machine-readable kind
// via AppError.
var (
	// ErrValidation marks bad user input. It never reaches data access.
	ErrValidation = errors.New("validation failed")
	// ErrUnavailable marks a persistent store failure. Fatal to the current run.
	ErrUnavailable = errors.New("data unavailable")
	// ErrStrategy marks an internal strategy fault. Fatal to the current run only.
	ErrStrategy = errors.New("strategy error")
	// ErrCacheDegraded marks a remote cache tier failure. Logged, never fatal.
	ErrCacheDegraded = errors.New("cache tier degraded")
	// ErrNotFound marks a missing record.
	ErrNotFound = errors.New("record not found")
)

// ErrorKind is the machine-readable classification reported to callers.
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation_error"
	KindDataUnavailable ErrorKind = "data_unavailable"
	KindStrategy        ErrorKind = "strategy_error"
	KindInternal        ErrorKind = "internal_error"
)

// AppError pairs an error kind with a human-readable message for the
// presentation boundary.
type AppError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	wrapped error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.wrapped
}

// ClassifyError maps an error onto the taxonomy for reporting upward.
func ClassifyError(err error) *AppError {
	if err == nil {
		return nil
	}
	var app *AppError
	if errors.As(err, &app) {
		return app
	}
	kind := KindInternal
	switch {
	case errors.Is(err, ErrValidation):
		kind = KindValidation
	case errors.Is(err, ErrUnavailable):
		kind = KindDataUnavailable
	case errors.Is(err, ErrStrategy):
		kind = KindStrategy
	}
	return &AppError{Kind: kind, Message: err.Error(), wrapped: err}
}
