package model

import (
	"strings"
	"time"
)

// TrackingRecord represents one in-flight masking request.
// It is created by the dispatcher at submission and mutated only by the
// poller afterwards.
type TrackingRecord struct {
	// Sequence is the chunk sequence number this record belongs to.
	Sequence int `json:"sequence"`

	// TrackingID is the opaque handle issued by the masking service.
	// Empty when submission failed or the chunk was never sent.
	TrackingID string `json:"tracking_id,omitempty"`

	// State is the current lifecycle state.
	State State `json:"state"`

	// SubmittedAt is when the submit call returned.
	SubmittedAt time.Time `json:"submitted_at"`

	// ResolvedAt is when the record reached a terminal state.
	ResolvedAt time.Time `json:"resolved_at,omitempty"`

	// Polls is the number of poll calls made for this record, including
	// calls that failed transiently.
	Polls int `json:"polls"`

	// MaskedText is the text returned by the service once Completed.
	MaskedText string `json:"-"`

	// Reason explains a Failed or TimedOut state for audit.
	Reason string `json:"reason,omitempty"`
}

// Resolve moves the record into a terminal state.
func (r *TrackingRecord) Resolve(state State, maskedText, reason string, at time.Time) {
	r.State = state
	r.MaskedText = maskedText
	r.Reason = reason
	r.ResolvedAt = at
}

// MaskedResult is the resolved text of one chunk.
type MaskedResult struct {
	// Sequence is the chunk sequence number.
	Sequence int `json:"sequence"`

	// State is the terminal state the chunk ended in.
	State State `json:"state"`

	// MaskedText is present only when State is StateCompleted.
	MaskedText string `json:"-"`

	// FallbackText is the original chunk text, always available.
	FallbackText string `json:"-"`

	// Reason carries the failure or timeout reason, if any.
	Reason string `json:"reason,omitempty"`
}

// Text returns the text to reassemble: the trimmed masked text when the
// chunk completed, the original chunk text otherwise.
func (r MaskedResult) Text() string {
	if r.State == StateCompleted {
		return strings.TrimSpace(r.MaskedText)
	}
	return r.FallbackText
}

// UsedFallback reports whether the original text was substituted.
func (r MaskedResult) UsedFallback() bool {
	return r.State != StateCompleted
}
