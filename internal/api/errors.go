package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error represents an HTTP error response from the backend. Detail
// carries the server's human-readable message when one was provided.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("request failed (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("request failed (status %d)", e.StatusCode)
}

// errorBody matches the error payloads the backend emits. FastAPI-style
// backends use "detail", gin-style backends use "error".
type errorBody struct {
	Detail string `json:"detail"`
	Err    string `json:"error"`
}

func (b errorBody) message() string {
	if b.Detail != "" {
		return b.Detail
	}
	return b.Err
}

// IsUnauthorized reports whether err is a genuine HTTP 401 from the
// backend. Transport failures never count.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsForbidden reports whether err is an HTTP 403.
func IsForbidden(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether err is an HTTP 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsTransport reports whether err was a network-level failure: the
// request never produced an HTTP response. Timeouts and cancellations
// count as transport errors, never as authentication failures.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return false
	}
	return true
}

// IsCanceled reports whether err stems from a canceled context. Callers
// that cancel on teardown treat this as a silent outcome, not a failure.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Detail extracts the server's error message from err, falling back to
// the given message when none is available.
func Detail(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
