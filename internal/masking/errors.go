package masking

import (
	"errors"
	"fmt"
	"net/http"
)

// Masking client errors.
//
// Design decision: Callers branch on the error class (skip the chunk, retry
// the poll, abort the run) rather than on the concrete cause, so every
// failure is wrapped in one of these sentinels and the cause stays
// reachable through errors.As (e.g. *UpstreamError).
var (
	// ErrSubmission is returned when a chunk could not be submitted.
	// The pipeline keeps the original text of such a chunk.
	ErrSubmission = errors.New("masking submission failed")

	// ErrTransientPoll is returned when a poll failed in a way that may
	// succeed on the next attempt.
	ErrTransientPoll = errors.New("transient masking poll failure")

	// ErrValidation is returned when the service rejects the configured
	// endpoint or credentials.
	ErrValidation = errors.New("masking service validation failed")

	// ErrMalformedResponse is returned when a response body does not have
	// the expected shape.
	ErrMalformedResponse = errors.New("malformed masking service response")

	// ErrInvalidProxyAddress is returned when the egress proxy address is
	// not in "host:port" format.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// UpstreamError describes a non-2xx response from the masking service.
type UpstreamError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the (truncated) response body or status text.
	Message string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("masking service returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("masking service returned %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether the status code is worth retrying:
// 408, 429 and every 5xx.
func (e *UpstreamError) Temporary() bool {
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}
