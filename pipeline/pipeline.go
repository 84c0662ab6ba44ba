// Package pipeline runs the training steps in order over shared Artifacts.
//
// A run is all-or-nothing: the first failing step aborts it and the error
// names that step. A panicking step is reported as an errors.PanicError.
package pipeline

import (
	"context"
	"time"

	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/YuminosukeSato/fraudflow/pkg/log"
)

// Step is one stage of the pipeline.
type Step interface {
	Name() string
	Run(ctx context.Context, a *Artifacts) error
}

// StepFunc adapts a function to the Step interface.
type StepFunc struct {
	StepName string
	Fn       func(ctx context.Context, a *Artifacts) error
}

// Name implements Step.
func (s StepFunc) Name() string { return s.StepName }

// Run implements Step.
func (s StepFunc) Run(ctx context.Context, a *Artifacts) error { return s.Fn(ctx, a) }

// Recorder receives per-step measurements. internal/telemetry provides a
// Prometheus implementation.
type Recorder interface {
	ObserveStep(step string, d time.Duration, err error)
	SetRows(step string, rows int)
}

// StepResult is the outcome of one executed step.
type StepResult struct {
	Name     string        `yaml:"name"`
	Duration time.Duration `yaml:"duration"`
	Rows     int           `yaml:"rows"`
	Error    string        `yaml:"error,omitempty"`
}

// Result is the outcome of a run. Steps holds every step that ran,
// including the failed one.
type Result struct {
	Artifacts *Artifacts
	Steps     []StepResult
}

// Pipeline executes steps in order.
type Pipeline struct {
	name     string
	steps    []Step
	logger   log.Logger
	recorder Recorder
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// New returns a pipeline running steps in the given order.
func New(name string, steps []Step, opts ...Option) *Pipeline {
	p := &Pipeline{
		name:   name,
		steps:  steps,
		logger: log.GetLoggerWithName("pipeline"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Steps returns the step names in execution order.
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return names
}

// Run executes every step against artifacts. A nil artifacts starts from
// an empty set. The context is checked before each step.
func (p *Pipeline) Run(ctx context.Context, artifacts *Artifacts) (*Result, error) {
	if artifacts == nil {
		artifacts = &Artifacts{}
	}
	if artifacts.RunID == "" {
		artifacts.RunID = p.now().UTC().Format("20060102T150405Z")
	}
	res := &Result{Artifacts: artifacts}
	logger := p.logger.With(log.RunIDKey, artifacts.RunID, "pipeline.name", p.name)
	logger.Info("Pipeline started", "pipeline.steps", len(p.steps))

	start := p.now()
	for _, step := range p.steps {
		name := step.Name()
		if err := ctx.Err(); err != nil {
			logger.Warn("Pipeline cancelled", log.StepKey, name, log.ErrAttrKey, err)
			return res, errors.Wrapf(err, "pipeline %s: before step %s", p.name, name)
		}

		stepLogger := logger.With(log.StepKey, name)
		stepLogger.Info("Step started")
		stepStart := p.now()
		err := errors.SafeExecute(name, func() error {
			return step.Run(ctx, artifacts)
		})
		elapsed := p.now().Sub(stepStart)

		sr := StepResult{Name: name, Duration: elapsed, Rows: artifacts.Data.Nrow()}
		if p.recorder != nil {
			p.recorder.ObserveStep(name, elapsed, err)
		}
		if err != nil {
			sr.Error = err.Error()
			res.Steps = append(res.Steps, sr)
			stepLogger.Error("Step failed", err, log.DurationMsKey, elapsed.Milliseconds())
			return res, errors.Wrapf(err, "pipeline %s: step %s", p.name, name)
		}
		if p.recorder != nil {
			p.recorder.SetRows(name, sr.Rows)
		}
		res.Steps = append(res.Steps, sr)
		stepLogger.Info("Step completed",
			log.DurationMsKey, elapsed.Milliseconds(),
			log.SamplesKey, sr.Rows,
		)
	}

	logger.Info("Pipeline completed", log.DurationMsKey, p.now().Sub(start).Milliseconds())
	return res, nil
}
