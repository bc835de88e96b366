package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/docmask/internal/chunker"
	"github.com/nao1215/docmask/internal/config"
	"github.com/nao1215/docmask/internal/masking"
	"github.com/nao1215/docmask/internal/model"
)

// Step names, as recorded in MaskJob.PerformedSteps and PipelineError.Stage.
const (
	StepChunk    = "chunk"
	StepDispatch = "dispatch"
	StepPoll     = "poll"
	StepAssemble = "assemble"
)

// ChunkStep splits the job's paragraphs into chunks.
type ChunkStep struct {
	wordLimit int
	logger    *slog.Logger
}

// NewChunkStep creates a ChunkStep with the given word limit.
func NewChunkStep(wordLimit int, logger *slog.Logger) *ChunkStep {
	return &ChunkStep{wordLimit: wordLimit, logger: logger}
}

// Name returns the step name.
func (s *ChunkStep) Name() string { return StepChunk }

// Do implements Step.
func (s *ChunkStep) Do(_ context.Context, job *model.MaskJob) error {
	chunks, err := chunker.Chunk(job.Paragraphs, s.wordLimit)
	if err != nil {
		return err
	}
	job.Chunks = chunks

	stats := chunker.NewStats(chunks)
	s.logger.Info("document chunked",
		"document", job.DocumentID,
		"paragraphs", stats.Paragraphs,
		"chunks", stats.Chunks,
		"blank", stats.Blank,
		"split_paragraphs", stats.Split,
		"words", stats.Words,
	)
	return nil
}

// DispatchStep submits the job's chunks.
type DispatchStep struct {
	dispatcher *Dispatcher
}

// NewDispatchStep creates a DispatchStep.
func NewDispatchStep(dispatcher *Dispatcher) *DispatchStep {
	return &DispatchStep{dispatcher: dispatcher}
}

// Name returns the step name.
func (s *DispatchStep) Name() string { return StepDispatch }

// Do implements Step.
func (s *DispatchStep) Do(ctx context.Context, job *model.MaskJob) error {
	records, err := s.dispatcher.Dispatch(ctx, job.Chunks)
	job.Records = records
	return err
}

// PollStep waits for the job's pending records to resolve.
type PollStep struct {
	poller *Poller
}

// NewPollStep creates a PollStep.
func NewPollStep(poller *Poller) *PollStep {
	return &PollStep{poller: poller}
}

// Name returns the step name.
func (s *PollStep) Name() string { return StepPoll }

// Do implements Step.
func (s *PollStep) Do(ctx context.Context, job *model.MaskJob) error {
	return s.poller.Poll(ctx, job.Records)
}

// AssembleStep builds the results and the output text.
type AssembleStep struct {
	logger *slog.Logger
}

// NewAssembleStep creates an AssembleStep.
func NewAssembleStep(logger *slog.Logger) *AssembleStep {
	return &AssembleStep{logger: logger}
}

// Name returns the step name.
func (s *AssembleStep) Name() string { return StepAssemble }

// Do implements Step.
func (s *AssembleStep) Do(_ context.Context, job *model.MaskJob) error {
	results, err := BuildResults(job.Chunks, job.Records)
	if err != nil {
		return err
	}
	output, err := Assemble(job.Chunks, results)
	if err != nil {
		return err
	}
	job.Results = results
	job.Output = output

	fallbacks := 0
	for _, r := range results {
		if r.UsedFallback() {
			fallbacks++
		}
	}
	if fallbacks > 0 {
		s.logger.Warn("document assembled with unmasked chunks",
			"document", job.DocumentID,
			"unmasked_chunks", fallbacks,
			"chunks", len(results),
		)
	} else {
		s.logger.Info("document assembled",
			"document", job.DocumentID,
			"chunks", len(results),
		)
	}
	return nil
}

// DefaultPipeline builds the chunk, dispatch, poll and assemble pipeline
// for client using the tunables in cfg.
func DefaultPipeline(client masking.Client, cfg *config.Config, opts ...Option) *Pipeline {
	p := New(opts...)

	dispatcher := NewDispatcher(client, cfg.MaxConcurrency,
		WithDispatcherLogger(p.logger),
		WithDispatcherClock(p.clock),
	)
	poller := NewPoller(client, NewPollSchedule(cfg),
		WithPollerLogger(p.logger),
		WithPollerClock(p.clock),
	)

	p.AddSteps(
		NewChunkStep(cfg.WordLimit, p.logger),
		NewDispatchStep(dispatcher),
		NewPollStep(poller),
		NewAssembleStep(p.logger),
	)
	return p
}
