// Package errors defines the failure taxonomy shared by the resolvers and
// the HTTP layer. Sentinels classify a failure as fatal (no answer
// possible), validation (rejected before I/O), or not-found; degraded
// failures are logged and swallowed at the call site and never reach this
// package.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrStoreUnavailable means the durable store (system of record) could
	// not be reached. Always fatal.
	ErrStoreUnavailable = errors.New("durable store unavailable")
	// ErrTextSourceUnavailable means no passage text could be fetched, so
	// there is nothing to ingest.
	ErrTextSourceUnavailable = errors.New("text source unavailable")
	// ErrIndexUnavailable means the search index could not answer a query.
	// Fatal for search requests; degraded during ingestion.
	ErrIndexUnavailable = errors.New("search index unavailable")
	// ErrNoWords means the frequency table is empty, so no ranking exists.
	ErrNoWords = errors.New("no words ingested")
	// ErrInvalidInput covers malformed operators, empty word lists, and
	// out-of-range limits.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned for lookups of absent passages.
	ErrNotFound = errors.New("not found")
	// ErrInternal is the catch-all for unclassified failures.
	ErrInternal = errors.New("internal error")
)

// AppError pairs a sentinel with a human-readable message and an HTTP
// status override.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New wraps a sentinel in an AppError.
func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Newf wraps a sentinel in an AppError with a formatted message.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the status code the HTTP layer should
// return.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoWords):
		return http.StatusNotFound
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrTextSourceUnavailable),
		errors.Is(err, ErrIndexUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
