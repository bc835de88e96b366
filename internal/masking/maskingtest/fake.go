// Package maskingtest provides an in-memory masking service for tests.
package maskingtest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/docmask/internal/masking"
)

// Behavior scripts how the fake answers for one submitted text.
type Behavior struct {
	// PendingPolls is the number of polls answered with StatusPending before
	// the final answer.
	PendingPolls int

	// TransientErrors is the number of polls, counted before PendingPolls,
	// that fail with masking.ErrTransientPoll.
	TransientErrors int

	// Never keeps the request pending forever.
	Never bool

	// Fail makes the final answer StatusFailed with FailReason.
	Fail       bool
	FailReason string

	// SubmitError makes Submit fail with masking.ErrSubmission.
	SubmitError bool

	// Masked overrides the masked text; Mask(text) is used when empty.
	Masked string
}

// Mask is the default masking transformation of the fake: it upper-cases
// the text and brackets it, so tests can tell masked output from originals.
func Mask(text string) string {
	return "[" + strings.ToUpper(text) + "]"
}

type ticket struct {
	text     string
	behavior Behavior
	polls    int
}

// Service is a scripted masking.Client. It is safe for concurrent use.
type Service struct {
	mu          sync.Mutex
	byText      map[string]Behavior
	fallback    Behavior
	tickets     map[string]*ticket
	submitted   []string
	submits     int
	polls       int
	inFlight    int
	maxInFlight int
	submitDelay time.Duration
}

var _ masking.Client = (*Service)(nil)

// NewService returns a fake whose requests complete on the first poll.
func NewService() *Service {
	return &Service{
		byText:  make(map[string]Behavior),
		tickets: make(map[string]*ticket),
	}
}

// On sets the behavior for one exact submitted text.
func (s *Service) On(text string, b Behavior) *Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byText[text] = b
	return s
}

// Default sets the behavior for texts without a specific one.
func (s *Service) Default(b Behavior) *Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = b
	return s
}

// SubmitDelay makes every Submit take d, so concurrency limits can be observed.
func (s *Service) SubmitDelay(d time.Duration) *Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitDelay = d
	return s
}

// Submit implements masking.Client.
func (s *Service) Submit(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	s.submits++
	s.submitted = append(s.submitted, text)
	s.inFlight++
	s.maxInFlight = max(s.maxInFlight, s.inFlight)
	delay := s.submitDelay
	b, ok := s.byText[text]
	if !ok {
		b = s.fallback
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %w", masking.ErrSubmission, ctx.Err())
		}
	}
	if b.SubmitError {
		return "", fmt.Errorf("%w: scripted failure", masking.ErrSubmission)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("trk-%04d", len(s.tickets))
	s.tickets[id] = &ticket{text: text, behavior: b}
	return id, nil
}

// Poll implements masking.Client.
func (s *Service) Poll(ctx context.Context, trackingID string) (masking.PollResult, error) {
	if err := ctx.Err(); err != nil {
		return masking.PollResult{}, fmt.Errorf("%w: %w", masking.ErrTransientPoll, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++

	t, ok := s.tickets[trackingID]
	if !ok {
		return masking.PollResult{Status: masking.StatusFailed, Reason: "unknown tracking id"}, nil
	}
	t.polls++
	b := t.behavior

	switch {
	case t.polls <= b.TransientErrors:
		return masking.PollResult{}, fmt.Errorf("%w: %w", masking.ErrTransientPoll, errors.New("scripted transient failure"))
	case b.Never || t.polls <= b.TransientErrors+b.PendingPolls:
		return masking.PollResult{Status: masking.StatusPending}, nil
	case b.Fail:
		return masking.PollResult{Status: masking.StatusFailed, Reason: b.FailReason}, nil
	}

	masked := b.Masked
	if masked == "" {
		masked = Mask(t.text)
	}
	return masking.PollResult{Status: masking.StatusCompleted, MaskedText: masked}, nil
}

// Submits returns the number of Submit calls.
func (s *Service) Submits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submits
}

// Polls returns the number of Poll calls.
func (s *Service) Polls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

// PollsFor returns the number of polls made for the ticket of text.
func (s *Service) PollsFor(text string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tickets {
		if t.text == text {
			n += t.polls
		}
	}
	return n
}

// Submitted returns the submitted texts in call order.
func (s *Service) Submitted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.submitted...)
}

// MaxInFlight returns the highest number of concurrent Submit calls seen.
func (s *Service) MaxInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInFlight
}
