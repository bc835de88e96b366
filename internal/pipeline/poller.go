package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/docmask/internal/config"
	"github.com/nao1215/docmask/internal/masking"
	"github.com/nao1215/docmask/internal/model"
)

// Timeout reasons recorded on TrackingRecord.Reason.
const (
	reasonMaxWait  = "no result within the per-chunk wait budget"
	reasonDeadline = "no result before the polling deadline"
)

// PollSchedule controls how often and for how long the poller queries the
// masking service.
type PollSchedule struct {
	// Interval is the wait after the first round.
	Interval time.Duration

	// Backoff multiplies the interval after every round (>= 1).
	Backoff float64

	// MaxInterval caps the interval.
	MaxInterval time.Duration

	// GlobalTimeout bounds polling, measured from its start.
	GlobalTimeout time.Duration

	// MaxWait bounds each record, measured from its SubmittedAt.
	MaxWait time.Duration

	// Concurrency bounds the concurrent poll calls within a round.
	Concurrency int
}

// NewPollSchedule builds a PollSchedule from the configuration.
func NewPollSchedule(cfg *config.Config) PollSchedule {
	return PollSchedule{
		Interval:      cfg.PollInterval,
		Backoff:       cfg.PollBackoff,
		MaxInterval:   cfg.MaxPollInterval,
		GlobalTimeout: cfg.GlobalTimeout,
		MaxWait:       cfg.EffectiveMaxWait(),
		Concurrency:   cfg.MaxConcurrency,
	}
}

// next returns the interval that follows current.
func (s PollSchedule) next(current time.Duration) time.Duration {
	grown := time.Duration(float64(current) * max(s.Backoff, 1))
	if s.MaxInterval > 0 {
		grown = min(grown, s.MaxInterval)
	}
	return max(grown, current)
}

// Poller drives pending tracking records to a terminal state.
//
// Every round polls all pending records (concurrently, bounded by the
// schedule's concurrency), waits for the whole round, and only then applies
// the transitions. Records therefore change state on the poller's goroutine
// alone. Between rounds the poller waits the current interval, never past
// the global deadline. After the deadline one last round runs and whatever
// is still pending is marked TimedOut.
type Poller struct {
	client   masking.Client
	schedule PollSchedule
	logger   *slog.Logger
	clock    Clock
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithPollerLogger sets a custom logger for the poller.
func WithPollerLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = logger
	}
}

// WithPollerClock sets the time source of the poller.
func WithPollerClock(clock Clock) PollerOption {
	return func(p *Poller) {
		p.clock = clock
	}
}

// NewPoller creates a Poller.
func NewPoller(client masking.Client, schedule PollSchedule, opts ...PollerOption) *Poller {
	schedule.Concurrency = max(schedule.Concurrency, 1)
	p := &Poller{
		client:   client,
		schedule: schedule,
		logger:   slog.Default(),
		clock:    realClock{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// pollOutcome is the answer to one poll call within a round.
type pollOutcome struct {
	result masking.PollResult
	err    error
}

// Poll resolves every Pending record in records. It returns when no record
// is pending, or with the context's error after cancellation. Records in
// other states are left untouched.
func (p *Poller) Poll(ctx context.Context, records []*model.TrackingRecord) error {
	start := p.clock.Now()
	deadline := start.Add(p.schedule.GlobalTimeout)
	interval := p.schedule.Interval

	for round := 1; ; round++ {
		pending := pendingRecords(records)
		if len(pending) == 0 {
			return nil
		}

		polled := len(pending)
		if err := p.sweep(ctx, pending); err != nil {
			return err
		}

		now := p.clock.Now()
		expired := p.expire(records, now)
		pending = pendingRecords(records)

		p.logger.Debug("poll round finished",
			"round", round,
			"polled", polled,
			"expired", expired,
			"still_pending", len(pending),
		)

		if len(pending) == 0 {
			return nil
		}
		if !now.Before(deadline) {
			for _, r := range pending {
				r.Resolve(model.StateTimedOut, "", reasonDeadline, now)
			}
			p.logger.Warn("polling deadline reached, original text will be kept",
				"timed_out", len(pending),
				"elapsed", now.Sub(start),
			)
			return nil
		}

		wait := min(interval, deadline.Sub(now))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.clock.After(wait):
		}
		interval = p.schedule.next(interval)
	}
}

// sweep polls every record once and applies the outcomes.
func (p *Poller) sweep(ctx context.Context, pending []*model.TrackingRecord) error {
	outcomes := make([]pollOutcome, len(pending))

	var g errgroup.Group
	g.SetLimit(p.schedule.Concurrency)
	for i, r := range pending {
		g.Go(func() error {
			res, err := p.client.Poll(ctx, r.TrackingID)
			outcomes[i] = pollOutcome{result: res, err: err}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // poll goroutines never return an error

	if err := ctx.Err(); err != nil {
		return err
	}

	now := p.clock.Now()
	for i, r := range pending {
		r.Polls++
		o := outcomes[i]

		if o.err != nil {
			if !errors.Is(o.err, masking.ErrTransientPoll) {
				p.logger.Warn("unexpected poll error, retrying next round",
					"sequence", r.Sequence,
					"error", o.err,
				)
				continue
			}
			p.logger.Debug("transient poll failure",
				"sequence", r.Sequence,
				"tracking_id", r.TrackingID,
				"error", o.err,
			)
			continue
		}

		switch o.result.Status {
		case masking.StatusCompleted:
			r.Resolve(model.StateCompleted, o.result.MaskedText, "", now)
		case masking.StatusFailed:
			reason := o.result.Reason
			if reason == "" {
				reason = "rejected by the masking service"
			}
			r.Resolve(model.StateFailed, "", reason, now)
			p.logger.Warn("chunk rejected by masking service, original text will be kept",
				"sequence", r.Sequence,
				"tracking_id", r.TrackingID,
				"reason", reason,
			)
		case masking.StatusPending:
			// retried next round
		}
	}
	return nil
}

// expire times out records that exceeded their own wait budget and returns
// how many it expired.
func (p *Poller) expire(records []*model.TrackingRecord, now time.Time) int {
	if p.schedule.MaxWait <= 0 {
		return 0
	}
	n := 0
	for _, r := range records {
		if r.State == model.StatePending && now.Sub(r.SubmittedAt) > p.schedule.MaxWait {
			r.Resolve(model.StateTimedOut, "", reasonMaxWait, now)
			p.logger.Warn("chunk wait budget exhausted, original text will be kept",
				"sequence", r.Sequence,
				"tracking_id", r.TrackingID,
			)
			n++
		}
	}
	return n
}

func pendingRecords(records []*model.TrackingRecord) []*model.TrackingRecord {
	var pending []*model.TrackingRecord
	for _, r := range records {
		if r != nil && r.State == model.StatePending {
			pending = append(pending, r)
		}
	}
	return pending
}
