package pipeline

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/nao1215/docmask/internal/config"
	"github.com/nao1215/docmask/internal/masking/maskingtest"
	"github.com/nao1215/docmask/internal/model"
)

func testSchedule() PollSchedule {
	return PollSchedule{
		Interval:      time.Second,
		Backoff:       1,
		MaxInterval:   time.Second,
		GlobalTimeout: time.Minute,
		MaxWait:       time.Minute,
		Concurrency:   2,
	}
}

// TestPoller_CompletesImmediately tests that a first-round answer needs no wait.
func TestPoller_CompletesImmediately(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	svc := maskingtest.NewService()
	records := submitAll(t, svc, clock, "alpha", "beta")

	p := NewPoller(svc, testSchedule(), WithPollerClock(clock), WithPollerLogger(discardLogger()))
	if err := p.Poll(context.Background(), records); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	for _, r := range records {
		if r.State != model.StateCompleted || r.Polls != 1 {
			t.Errorf("record = %+v", r)
		}
	}
	if r := records[0]; r.MaskedText != "[ALPHA]" || r.ResolvedAt.IsZero() {
		t.Errorf("unexpected record: %+v", r)
	}
	if waits := clock.Waits(); len(waits) != 0 {
		t.Errorf("expected no waits, got %v", waits)
	}
}

// TestPoller_Backoff tests interval growth and its cap.
func TestPoller_Backoff(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	svc := maskingtest.NewService().Default(maskingtest.Behavior{PendingPolls: 5})
	records := submitAll(t, svc, clock, "slow")

	schedule := testSchedule()
	schedule.Backoff = 2
	schedule.MaxInterval = 4 * time.Second

	p := NewPoller(svc, schedule, WithPollerClock(clock), WithPollerLogger(discardLogger()))
	if err := p.Poll(context.Background(), records); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 4 * time.Second, 4 * time.Second}
	if got := clock.Waits(); !slices.Equal(got, want) {
		t.Errorf("waits = %v, expected %v", got, want)
	}
	if records[0].State != model.StateCompleted || records[0].Polls != 6 {
		t.Errorf("record = %+v", records[0])
	}
}

// TestPoller_GlobalDeadline tests that leftovers time out after a final round
// and that no wait runs past the deadline.
func TestPoller_GlobalDeadline(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	svc := maskingtest.NewService().
		On("never", maskingtest.Behavior{Never: true}).
		On("quick", maskingtest.Behavior{PendingPolls: 1})
	records := submitAll(t, svc, clock, "never", "quick")

	schedule := testSchedule()
	schedule.Interval = 3 * time.Second
	schedule.MaxInterval = 3 * time.Second
	schedule.GlobalTimeout = 10 * time.Second
	schedule.MaxWait = 10 * time.Second

	p := NewPoller(svc, schedule, WithPollerClock(clock), WithPollerLogger(discardLogger()))
	if err := p.Poll(context.Background(), records); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	want := []time.Duration{3 * time.Second, 3 * time.Second, 3 * time.Second, time.Second}
	if got := clock.Waits(); !slices.Equal(got, want) {
		t.Errorf("waits = %v, expected %v", got, want)
	}
	never := records[0]
	if never.State != model.StateTimedOut || never.Reason != reasonDeadline {
		t.Errorf("never record = %+v", never)
	}
	if never.Polls != 5 {
		t.Errorf("expected 5 polls including the final round, got %d", never.Polls)
	}
	if records[1].State != model.StateCompleted {
		t.Errorf("quick record = %+v", records[1])
	}
}

// TestPoller_MaxWait tests the per-record wait budget.
func TestPoller_MaxWait(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	svc := maskingtest.NewService().
		On("stuck", maskingtest.Behavior{Never: true}).
		On("later", maskingtest.Behavior{PendingPolls: 2})
	records := submitAll(t, svc, clock, "stuck", "later")

	schedule := testSchedule()
	schedule.MaxWait = 4 * time.Second

	p := NewPoller(svc, schedule, WithPollerClock(clock), WithPollerLogger(discardLogger()))
	if err := p.Poll(context.Background(), records); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	stuck := records[0]
	if stuck.State != model.StateTimedOut || stuck.Reason != reasonMaxWait {
		t.Errorf("stuck record = %+v", stuck)
	}
	if got := stuck.ResolvedAt.Sub(stuck.SubmittedAt); got != 5*time.Second {
		t.Errorf("stuck record timed out after %v, expected 5s", got)
	}
	if records[1].State != model.StateCompleted {
		t.Errorf("later record = %+v", records[1])
	}
}

// TestPoller_FailedAndTransient tests rejection and transient errors.
func TestPoller_FailedAndTransient(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	svc := maskingtest.NewService().
		On("rejected", maskingtest.Behavior{Fail: true, FailReason: "unsupported language"}).
		On("flaky", maskingtest.Behavior{TransientErrors: 2})
	records := submitAll(t, svc, clock, "rejected", "flaky")

	p := NewPoller(svc, testSchedule(), WithPollerClock(clock), WithPollerLogger(discardLogger()))
	if err := p.Poll(context.Background(), records); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	if r := records[0]; r.State != model.StateFailed || r.Reason != "unsupported language" || r.Polls != 1 {
		t.Errorf("rejected record = %+v", r)
	}
	if r := records[1]; r.State != model.StateCompleted || r.Polls != 3 || r.MaskedText != "[FLAKY]" {
		t.Errorf("flaky record = %+v", r)
	}
}

// TestPoller_TransientUntilDeadline tests that a record whose polls keep
// failing transiently times out at the deadline and keeps its original text.
func TestPoller_TransientUntilDeadline(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	svc := maskingtest.NewService().On("unstable text", maskingtest.Behavior{TransientErrors: 1000})
	records := submitAll(t, svc, clock, "steady", "unstable text")

	schedule := testSchedule()
	schedule.Interval = 2 * time.Second
	schedule.MaxInterval = 2 * time.Second
	schedule.GlobalTimeout = 6 * time.Second

	p := NewPoller(svc, schedule, WithPollerClock(clock), WithPollerLogger(discardLogger()))
	if err := p.Poll(context.Background(), records); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	unstable := records[1]
	if unstable.State != model.StateTimedOut || unstable.Reason != reasonDeadline {
		t.Errorf("unstable record = %+v", unstable)
	}
	if unstable.Polls != 4 {
		t.Errorf("expected 4 polls before the deadline, got %d", unstable.Polls)
	}
	if records[0].State != model.StateCompleted {
		t.Errorf("steady record = %+v", records[0])
	}

	chunks := []model.Chunk{
		{Sequence: 0, ParagraphIndex: 0, EndsParagraph: true, Text: "steady", Words: 1},
		{Sequence: 1, ParagraphIndex: 1, EndsParagraph: true, Text: "unstable text", Words: 2},
	}
	results, err := BuildResults(chunks, records)
	if err != nil {
		t.Fatalf("BuildResults() error = %v", err)
	}
	got, err := Assemble(chunks, results)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if want := "[STEADY]\nunstable text"; got != want {
		t.Errorf("Assemble() = %q, expected %q", got, want)
	}
}

// TestPoller_LeavesOtherStates tests that non-pending records are not polled.
func TestPoller_LeavesOtherStates(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	svc := maskingtest.NewService()
	records := []*model.TrackingRecord{
		{Sequence: 0, State: model.StateFailed, Reason: "submit failed"},
		{Sequence: 1, State: model.StateCompleted},
	}

	p := NewPoller(svc, testSchedule(), WithPollerClock(clock), WithPollerLogger(discardLogger()))
	if err := p.Poll(context.Background(), records); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if svc.Polls() != 0 {
		t.Errorf("expected no polls, got %d", svc.Polls())
	}
	if records[0].Reason != "submit failed" || records[1].State != model.StateCompleted {
		t.Errorf("records modified: %+v %+v", records[0], records[1])
	}
}

// TestPoller_Cancelled tests that cancellation aborts polling.
func TestPoller_Cancelled(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	svc := maskingtest.NewService().Default(maskingtest.Behavior{Never: true})
	records := submitAll(t, svc, clock, "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPoller(svc, testSchedule(), WithPollerClock(clock), WithPollerLogger(discardLogger()))
	if err := p.Poll(ctx, records); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if records[0].State != model.StatePending {
		t.Errorf("record state = %v, expected pending", records[0].State)
	}
}

// TestNewPollSchedule tests the mapping from configuration.
func TestNewPollSchedule(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	s := NewPollSchedule(cfg)
	if s.Interval != cfg.PollInterval || s.MaxInterval != cfg.MaxPollInterval || s.Backoff != cfg.PollBackoff {
		t.Errorf("unexpected schedule: %+v", s)
	}
	if s.MaxWait != cfg.GlobalTimeout {
		t.Errorf("MaxWait = %v, expected global timeout %v", s.MaxWait, cfg.GlobalTimeout)
	}
	if s.Concurrency != cfg.MaxConcurrency {
		t.Errorf("Concurrency = %d", s.Concurrency)
	}
}

// TestPollScheduleNext tests interval growth.
func TestPollScheduleNext(t *testing.T) {
	t.Parallel()

	s := PollSchedule{Backoff: 1.5, MaxInterval: 10 * time.Second}
	testCases := []struct {
		current time.Duration
		want    time.Duration
	}{
		{2 * time.Second, 3 * time.Second},
		{8 * time.Second, 10 * time.Second},
		{10 * time.Second, 10 * time.Second},
	}
	for _, tc := range testCases {
		if got := s.next(tc.current); got != tc.want {
			t.Errorf("next(%v) = %v, expected %v", tc.current, got, tc.want)
		}
	}
}
