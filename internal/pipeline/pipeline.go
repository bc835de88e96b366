package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/docmask/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each receiving the job as the previous
// steps left it.
//
// Design decision: We use an interface rather than function types so steps
// can carry their collaborators (client, dispatcher, poller) and report a
// Name() for logging and for MaskJob.PerformedSteps.
type Step interface {
	// Do executes the step. Per-chunk problems are recorded in the job and
	// Do returns nil; a returned error aborts the document.
	Do(ctx context.Context, job *model.MaskJob) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of steps for one document at a time.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
	clock  Clock
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline and the steps created by
// DefaultPipeline. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithClock sets the time source used by the steps created by DefaultPipeline.
func WithClock(clock Clock) Option {
	return func(p *Pipeline) {
		p.clock = clock
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.clock == nil {
		p.clock = realClock{}
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in order and stops at the first error.
// The error is recorded on the job and returned as *PipelineError.
//
// Design decision: Cancellation is checked before each step rather than
// inside it; the long-running steps (dispatch, poll) watch the context
// themselves.
func (p *Pipeline) Execute(ctx context.Context, job *model.MaskJob) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"document", job.DocumentID,
				"reason", err,
			)
			return p.fail(job, step, err)
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"document", job.DocumentID,
		)

		if err := step.Do(ctx, job); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"document", job.DocumentID,
				"error", err,
			)
			return p.fail(job, step, err)
		}

		job.PerformedSteps = append(job.PerformedSteps, step.Name())
	}
	return nil
}

func (p *Pipeline) fail(job *model.MaskJob, step Step, err error) error {
	perr := &PipelineError{Stage: step.Name(), DocumentID: job.DocumentID, Err: err}
	job.Fail(perr)
	return perr
}

// Process runs one document through the pipeline.
// The returned job is never nil; on error it describes how far the
// document got and its Output is empty.
func (p *Pipeline) Process(ctx context.Context, documentID string, paragraphs []model.Paragraph) (*model.MaskJob, error) {
	job := model.NewMaskJob(documentID, paragraphs)
	err := p.Execute(ctx, job)
	job.Finish()
	return job, err
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
