package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/wasmpack/internal/artifact"
	"github.com/roach88/wasmpack/internal/process"
)

// Report summarizes a run. It is returned for failed runs too, with Stage
// set to StageFailed and FailedStage naming where the run stopped.
type Report struct {
	// Stage is the final stage: StageCleanedUp or StageFailed.
	Stage Stage

	// FailedStage is the stage that could not be entered. Empty on success.
	FailedStage Stage

	// Branch is the optimize stage outcome. Empty if the run never got there.
	Branch Branch

	// OptimizeCause is the recovered optimizer failure, if any.
	OptimizeCause error

	BinarySize    int64
	OptimizedSize int64
	ModuleSize    int64

	// Digests are domain-separated SHA-256 hex strings (see package artifact).
	BinaryDigest    string
	OptimizedDigest string
	ModuleDigest    string

	// ModulePath is the Generated Module.
	ModulePath string

	// Warnings holds the messages passed to Reporter.Warn.
	Warnings []string
}

// Succeeded reports whether the run reached CleanedUp.
func (r *Report) Succeeded() bool {
	return r != nil && r.Stage == StageCleanedUp
}

// Pipeline runs a Plan against a process.Runner.
type Pipeline struct {
	runner   process.Runner
	plan     *Plan
	reporter Reporter
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithReporter sets the Reporter that receives progress and warnings.
func WithReporter(r Reporter) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.reporter = r
		}
	}
}

// New creates a Pipeline.
func New(runner process.Runner, plan *Plan, opts ...Option) *Pipeline {
	p := &Pipeline{
		runner:   runner,
		plan:     plan,
		reporter: NopReporter{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one full pipeline run. Each call is an independent run that
// starts again from StageStart.
//
// The returned error is a *Error for stage failures. The Report is never nil.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	m := newMachine()
	report := &Report{ModulePath: p.plan.Paths.Module}
	reporter := &recordingReporter{next: p.reporter, report: report}

	fail := func(err error) (*Report, error) {
		var pe *Error
		if errors.As(err, &pe) {
			report.FailedStage = pe.Stage
		}
		// Every non-terminal stage may fail, so this cannot be refused.
		_ = m.advance(StageFailed)
		report.Stage = m.stage
		return report, err
	}

	// Start → Compiled
	size, err := Compile(ctx, p.runner, p.plan)
	if err != nil {
		return fail(err)
	}
	binary, err := artifact.Read(p.plan.Paths.Binary)
	if err != nil {
		return fail(newIOError(StageCompiled, "reading compiler output", p.plan.Paths.Binary, err))
	}
	report.BinarySize = size
	report.BinaryDigest = artifact.Digest(artifact.DomainBinary, binary)
	if err := p.transition(m, StageCompiled, reporter, p.plan.Compile.String()); err != nil {
		return fail(err)
	}

	// Compiled → Optimized | FallbackCopied
	opt, err := Optimize(ctx, p.runner, p.plan, reporter)
	if err != nil {
		return fail(err)
	}
	report.Branch = opt.Branch
	report.OptimizeCause = opt.Cause
	report.OptimizedSize = opt.Size
	if err := p.transition(m, opt.Branch.Stage(), reporter, fmt.Sprintf("%s (%d bytes)", opt.Path, opt.Size)); err != nil {
		return fail(err)
	}

	// → Encoded
	enc, err := Encode(p.plan)
	if err != nil {
		return fail(err)
	}
	report.OptimizedDigest = enc.PayloadDigest
	report.ModuleDigest = enc.ModuleDigest
	report.ModuleSize = enc.Size
	if err := p.transition(m, StageEncoded, reporter, enc.Path); err != nil {
		return fail(err)
	}

	// Encoded → CleanedUp
	if err := Cleanup(p.plan); err != nil {
		return fail(err)
	}
	if err := p.transition(m, StageCleanedUp, reporter, p.plan.Paths.Optimized); err != nil {
		return fail(err)
	}

	report.Stage = m.stage
	return report, nil
}

func (p *Pipeline) transition(m *machine, next Stage, reporter Reporter, detail string) error {
	if err := m.advance(next); err != nil {
		return err
	}
	reporter.Progress(next, detail)
	return nil
}

// recordingReporter copies warnings into the report before forwarding them.
type recordingReporter struct {
	next   Reporter
	report *Report
}

func (r *recordingReporter) Progress(stage Stage, detail string) {
	r.next.Progress(stage, detail)
}

func (r *recordingReporter) Warn(message string, err error) {
	if err != nil {
		r.report.Warnings = append(r.report.Warnings, fmt.Sprintf("%s: %v", message, err))
	} else {
		r.report.Warnings = append(r.report.Warnings, message)
	}
	r.next.Warn(message, err)
}
