package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/docmask/internal/masking/maskingtest"
	"github.com/nao1215/docmask/internal/model"
)

// fakeClock advances instantly: After moves the clock forward by d and
// fires immediately, so polling schedules run without real waiting.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	waits []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.waits = append(c.waits, d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func (c *fakeClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// submitAll submits texts to svc and returns pending records stamped with
// the clock's current time.
func submitAll(t *testing.T, svc *maskingtest.Service, clock Clock, texts ...string) []*model.TrackingRecord {
	t.Helper()

	records := make([]*model.TrackingRecord, len(texts))
	for i, text := range texts {
		id, err := svc.Submit(context.Background(), text)
		if err != nil {
			t.Fatalf("Submit(%q) error = %v", text, err)
		}
		records[i] = &model.TrackingRecord{
			Sequence:    i,
			TrackingID:  id,
			State:       model.StatePending,
			SubmittedAt: clock.Now(),
		}
	}
	return records
}
