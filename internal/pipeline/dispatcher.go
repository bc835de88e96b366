package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/docmask/internal/masking"
	"github.com/nao1215/docmask/internal/model"
)

// Dispatcher submits chunks to the masking service with bounded concurrency.
//
// Design decision: We use errgroup.SetLimit rather than a hand-written worker
// pool. Every chunk gets its own goroutine but at most concurrency of them
// run at once, and Wait gives a clean point after which the records are
// owned by the caller again.
type Dispatcher struct {
	client      masking.Client
	concurrency int
	logger      *slog.Logger
	clock       Clock
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets a custom logger for the dispatcher.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithDispatcherClock sets the time source used for SubmittedAt.
func WithDispatcherClock(clock Clock) DispatcherOption {
	return func(d *Dispatcher) {
		d.clock = clock
	}
}

// NewDispatcher creates a Dispatcher that runs at most concurrency
// submissions at once. Non-positive values are treated as 1.
func NewDispatcher(client masking.Client, concurrency int, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		client:      client,
		concurrency: max(concurrency, 1),
		logger:      slog.Default(),
		clock:       realClock{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch submits every non-empty chunk and returns one tracking record per
// chunk, indexed by sequence number.
//
// Successful submissions leave the record Pending. A failed submission
// leaves it Failed with the error as reason and is logged at warn level;
// the other chunks are still submitted. Zero-length chunks are never sent
// and resolve immediately as Completed with empty text.
//
// The only error returned is the context's, after cancellation.
func (d *Dispatcher) Dispatch(ctx context.Context, chunks []model.Chunk) ([]*model.TrackingRecord, error) {
	for i, c := range chunks {
		if c.Sequence != i {
			return nil, fmt.Errorf("%w: chunk at position %d has sequence %d", ErrSequenceInvalid, i, c.Sequence)
		}
	}

	records := make([]*model.TrackingRecord, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for i, chunk := range chunks {
		if chunk.IsEmpty() {
			now := d.clock.Now()
			records[i] = &model.TrackingRecord{
				Sequence:    chunk.Sequence,
				State:       model.StateCompleted,
				SubmittedAt: now,
				ResolvedAt:  now,
			}
			continue
		}

		// Each goroutine writes only records[i].
		g.Go(func() error {
			rec := &model.TrackingRecord{Sequence: chunk.Sequence, State: model.StateSubmitted}
			records[i] = rec

			if err := gctx.Err(); err != nil {
				rec.Resolve(model.StateFailed, "", "not submitted: "+err.Error(), d.clock.Now())
				return err
			}

			id, err := d.client.Submit(gctx, chunk.Text)
			rec.SubmittedAt = d.clock.Now()
			if err != nil {
				rec.Resolve(model.StateFailed, "", err.Error(), rec.SubmittedAt)
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				d.logger.Warn("chunk submission failed, original text will be kept",
					"sequence", chunk.Sequence,
					"paragraph_index", chunk.ParagraphIndex,
					"error", err,
				)
				return nil
			}

			rec.TrackingID = id
			rec.State = model.StatePending
			d.logger.Debug("chunk submitted",
				"sequence", chunk.Sequence,
				"tracking_id", id,
				"words", chunk.Words,
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return records, ctxErr
		}
		return records, err
	}
	return records, nil
}
