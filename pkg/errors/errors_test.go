package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCodeSentinels(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrNoWords, http.StatusNotFound},
		{ErrStoreUnavailable, http.StatusServiceUnavailable},
		{ErrTextSourceUnavailable, http.StatusServiceUnavailable},
		{ErrIndexUnavailable, http.StatusServiceUnavailable},
		{ErrInternal, http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatusCode(tt.err); got != tt.want {
			t.Errorf("HTTPStatusCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHTTPStatusCodeWrappedSentinel(t *testing.T) {
	err := fmt.Errorf("querying ranking: %w", ErrStoreUnavailable)
	if got := HTTPStatusCode(err); got != http.StatusServiceUnavailable {
		t.Errorf("HTTPStatusCode = %d, want 503", got)
	}
}

func TestAppErrorOverridesStatus(t *testing.T) {
	err := New(ErrInvalidInput, http.StatusUnprocessableEntity, "limit out of range")
	if got := HTTPStatusCode(err); got != http.StatusUnprocessableEntity {
		t.Errorf("HTTPStatusCode = %d, want AppError override 422", got)
	}
}

func TestAppErrorUnwrapsToSentinel(t *testing.T) {
	err := Newf(ErrNoWords, http.StatusNotFound, "table empty after %d ingests", 0)
	if !errors.Is(err, ErrNoWords) {
		t.Error("AppError must unwrap to its sentinel")
	}
	if got := err.Error(); got != "no words ingested: table empty after 0 ingests" {
		t.Errorf("Error() = %q", got)
	}
}

func TestAppErrorWrappedFurther(t *testing.T) {
	inner := New(ErrIndexUnavailable, http.StatusServiceUnavailable, "cluster red")
	outer := fmt.Errorf("search: %w", inner)
	if got := HTTPStatusCode(outer); got != http.StatusServiceUnavailable {
		t.Errorf("HTTPStatusCode = %d, want 503 from wrapped AppError", got)
	}
	if !errors.Is(outer, ErrIndexUnavailable) {
		t.Error("wrapped AppError must still match its sentinel")
	}
}
