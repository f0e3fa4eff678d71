package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/showcase/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each receiving the load report filled in
// by the steps before it.
type Step interface {
	// Do executes the step. Problems that do not stop the load, such as an
	// unreadable body file, are recorded as report warnings and Do returns
	// nil.
	Do(ctx context.Context, report *model.LoadReport) error

	// Name returns the step's name. It becomes the LoadError stage.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
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

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence and stamps the report as finished.
//
// A load is attempted once. The first failing step stops the pipeline; its
// error is recorded in the report and returned as a *model.LoadError whose
// Stage is the step name. Cancellation is checked before each step.
func (p *Pipeline) Execute(ctx context.Context, report *model.LoadReport) error {
	defer func() { report.Finish(report.Collection) }()

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("load cancelled",
				"step", step.Name(),
				"gallery", report.Gallery,
				"reason", ctx.Err(),
			)
			return p.fail(report, step.Name(), ctx.Err())
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"gallery", report.Gallery,
		)

		if err := step.Do(ctx, report); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"gallery", report.Gallery,
				"source", report.Source,
				"error", err,
			)
			return p.fail(report, step.Name(), err)
		}

		report.Steps = append(report.Steps, step.Name())
	}

	return nil
}

func (p *Pipeline) fail(report *model.LoadReport, stage string, err error) error {
	report.Collection = nil
	var le *model.LoadError
	if !errors.As(err, &le) {
		le = model.NewLoadError(report.Gallery, report.Source, stage, err)
	}
	report.Error = le.Error()
	return le
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
