package pipeline

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/nao1215/docmask/internal/masking/maskingtest"
	"github.com/nao1215/docmask/internal/model"
)

// resultsFor builds one result per chunk, all in the given state.
func resultsFor(chunks []model.Chunk, state model.State) []model.MaskedResult {
	results := make([]model.MaskedResult, len(chunks))
	for i, c := range chunks {
		results[i] = model.MaskedResult{Sequence: c.Sequence, State: state, FallbackText: c.Text}
		if state == model.StateCompleted && !c.IsEmpty() {
			results[i].MaskedText = maskingtest.Mask(c.Text)
		}
	}
	return results
}

// TestAssemble_Scenario tests reassembly of the five-chunk example.
func TestAssemble_Scenario(t *testing.T) {
	t.Parallel()

	chunks := scenarioChunks(t)

	testCases := []struct {
		name     string
		results  func() []model.MaskedResult
		expected string
	}{
		{
			name:     "all completed",
			results:  func() []model.MaskedResult { return resultsFor(chunks, model.StateCompleted) },
			expected: "[HELLO WORLD]\n\n[THIS IS A] [TEST PARAGRAPH WITH] [SEVEN WORDS]",
		},
		{
			name:     "all failed",
			results:  func() []model.MaskedResult { return resultsFor(chunks, model.StateFailed) },
			expected: "Hello world\n\nThis is a test paragraph with seven words",
		},
		{
			name:     "all timed out",
			results:  func() []model.MaskedResult { return resultsFor(chunks, model.StateTimedOut) },
			expected: "Hello world\n\nThis is a test paragraph with seven words",
		},
		{
			name: "one chunk failed",
			results: func() []model.MaskedResult {
				r := resultsFor(chunks, model.StateCompleted)
				r[3] = model.MaskedResult{Sequence: 3, State: model.StateFailed, FallbackText: chunks[3].Text}
				return r
			},
			expected: "[HELLO WORLD]\n\n[THIS IS A] test paragraph with [SEVEN WORDS]",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Assemble(chunks, tc.results())
			if err != nil {
				t.Fatalf("Assemble() error = %v", err)
			}
			if got != tc.expected {
				t.Errorf("Assemble() = %q, expected %q", got, tc.expected)
			}
			if n := len(strings.Split(got, "\n")); n != 3 {
				t.Errorf("expected 3 paragraphs, got %d", n)
			}
		})
	}
}

// TestAssemble_OrderIndependent tests that result order does not matter.
func TestAssemble_OrderIndependent(t *testing.T) {
	t.Parallel()

	chunks := scenarioChunks(t)
	results := resultsFor(chunks, model.StateCompleted)
	results[2].State = model.StateTimedOut

	want, err := Assemble(chunks, results)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	rng := rand.New(rand.NewPCG(1, 2))
	for range 20 {
		shuffled := append([]model.MaskedResult(nil), results...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := Assemble(chunks, shuffled)
		if err != nil {
			t.Fatalf("Assemble() error = %v", err)
		}
		if got != want {
			t.Fatalf("order changed the output: %q vs %q", got, want)
		}
	}
}

// TestAssemble_InvalidResults tests sequence validation.
func TestAssemble_InvalidResults(t *testing.T) {
	t.Parallel()

	chunks := scenarioChunks(t)

	testCases := []struct {
		name   string
		mutate  func([]model.MaskedResult) []model.MaskedResult
	}{
		{"missing result", func(r []model.MaskedResult) []model.MaskedResult { return r[:4] }},
		{"extra result", func(r []model.MaskedResult) []model.MaskedResult { return append(r, model.MaskedResult{Sequence: 5}) }},
		{"duplicate sequence", func(r []model.MaskedResult) []model.MaskedResult { r[4].Sequence = 3; return r }},
		{"out of range", func(r []model.MaskedResult) []model.MaskedResult { r[0].Sequence = 9; return r }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Assemble(chunks, tc.mutate(resultsFor(chunks, model.StateCompleted)))
			if !errors.Is(err, ErrSequenceInvalid) {
				t.Errorf("expected ErrSequenceInvalid, got %v", err)
			}
		})
	}
}

// TestAssemble_FlattensLineBreaks tests that masked text cannot add paragraphs.
func TestAssemble_FlattensLineBreaks(t *testing.T) {
	t.Parallel()

	chunks := []model.Chunk{{Sequence: 0, EndsParagraph: true, Text: "a b", Words: 2}}
	results := []model.MaskedResult{{Sequence: 0, State: model.StateCompleted, MaskedText: " x\ny\r\nz "}}

	got, err := Assemble(chunks, results)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if got != "x y z" {
		t.Errorf("Assemble() = %q", got)
	}
}

// TestAssemble_Empty tests an empty document.
func TestAssemble_Empty(t *testing.T) {
	t.Parallel()

	got, err := Assemble(nil, nil)
	if err != nil || got != "" {
		t.Errorf("Assemble(nil, nil) = %q, %v", got, err)
	}
}

// TestBuildResults tests conversion of records into results.
func TestBuildResults(t *testing.T) {
	t.Parallel()

	chunks := scenarioChunks(t)
	records := []*model.TrackingRecord{
		{Sequence: 0, State: model.StateCompleted, MaskedText: "[HELLO WORLD]"},
		{Sequence: 1, State: model.StateCompleted},
		{Sequence: 2, State: model.StateFailed, Reason: "rejected"},
		{Sequence: 3, State: model.StateTimedOut, Reason: "deadline"},
		{Sequence: 4, State: model.StateCompleted, MaskedText: "[SEVEN WORDS]"},
	}

	t.Run("terminal records", func(t *testing.T) {
		t.Parallel()

		results, err := BuildResults(chunks, records)
		if err != nil {
			t.Fatalf("BuildResults() error = %v", err)
		}
		for i, r := range results {
			if r.Sequence != i || r.FallbackText != chunks[i].Text || r.State != records[i].State {
				t.Errorf("result %d = %+v", i, r)
			}
		}
		if results[2].Reason != "rejected" || results[3].Text() != "test paragraph with" {
			t.Errorf("unexpected fallback results: %+v %+v", results[2], results[3])
		}
	})

	t.Run("pending record", func(t *testing.T) {
		t.Parallel()

		pending := append([]*model.TrackingRecord(nil), records...)
		pending[2] = &model.TrackingRecord{Sequence: 2, State: model.StatePending}
		if _, err := BuildResults(chunks, pending); !errors.Is(err, ErrUnresolved) {
			t.Errorf("expected ErrUnresolved, got %v", err)
		}
	})

	t.Run("missing record", func(t *testing.T) {
		t.Parallel()

		if _, err := BuildResults(chunks, records[:3]); !errors.Is(err, ErrSequenceInvalid) {
			t.Errorf("expected ErrSequenceInvalid, got %v", err)
		}
	})
}
