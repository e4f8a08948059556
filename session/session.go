// Package session runs several suite definitions one after another and
// collects a report for each.
//
// Every suite runs on a fresh snapshot of its registry, so consecutive or
// repeated sessions never observe each other's cached results. A failing
// suite does not stop the session; all failures are returned together.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nomis52/goexample/example"
	"github.com/nomis52/goexample/logging"
	"github.com/nomis52/goexample/report"
	"github.com/nomis52/goexample/runner"
	"github.com/nomis52/goexample/suite"
)

// ErrExamplesFailed marks a suite in which at least one example failed.
var ErrExamplesFailed = errors.New("examples failed")

// SuiteRun is the outcome of one suite.
type SuiteRun struct {
	Suite   string
	Results []example.Result
	// Report is nil when the suite could not run.
	Report *report.Report
	// Err is a configuration error from the runner, or wraps
	// ErrExamplesFailed. Skipped examples never set it.
	Err error
}

// Outcome collects every suite run of a session.
type Outcome struct {
	Runs     []SuiteRun
	Started  time.Time
	Finished time.Time
}

// Failed returns the number of suites with a non-nil Err.
func (o *Outcome) Failed() int {
	n := 0
	for _, r := range o.Runs {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Reports returns the reports of every suite that ran.
func (o *Outcome) Reports() []*report.Report {
	out := make([]*report.Report, 0, len(o.Runs))
	for _, r := range o.Runs {
		if r.Report != nil {
			out = append(out, r.Report)
		}
	}
	return out
}

// Error combines the failures of a session.
type Error struct {
	Failures []error
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, err := range e.Failures {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d suite(s) failed:\n  - %s", len(e.Failures), strings.Join(msgs, "\n  - "))
}

func (e *Error) Unwrap() []error {
	return e.Failures
}

// Option configures Run.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	runnerOpts []runner.Option
	capture    bool
	now        func() time.Time
}

// WithLogger sets the logger for the session and its runners.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRunnerOptions forwards options to every runner.
func WithRunnerOptions(opts ...runner.Option) Option {
	return func(o *options) {
		o.runnerOpts = append(o.runnerOpts, opts...)
	}
}

// WithLogCapture attaches the log lines each example emitted to its report entry.
func WithLogCapture(enabled bool) Option {
	return func(o *options) {
		o.capture = enabled
	}
}

// WithClock overrides the time source for session and report timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Run executes defs in order. The returned Outcome is always non-nil; the
// error is a *Error when any suite failed.
func Run(ctx context.Context, defs []*suite.Definition, opts ...Option) (*Outcome, error) {
	o := options{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With("component", "session")

	outcome := &Outcome{Started: o.now(), Runs: make([]SuiteRun, 0, len(defs))}
	var failures []error

	for _, def := range defs {
		run := runOne(ctx, def, o)
		if run.Err != nil {
			logger.Warn("suite failed", "suite", run.Suite, "error", run.Err)
			failures = append(failures, fmt.Errorf("suite %s: %w", run.Suite, run.Err))
		} else {
			logger.Info("suite passed", "suite", run.Suite)
		}
		outcome.Runs = append(outcome.Runs, run)
	}
	outcome.Finished = o.now()

	if len(failures) > 0 {
		return outcome, &Error{Failures: failures}
	}
	return outcome, nil
}

func runOne(ctx context.Context, def *suite.Definition, o options) SuiteRun {
	snap := def.Snapshot()
	run := SuiteRun{Suite: def.Name}

	runnerOpts := append([]runner.Option{runner.WithLogger(o.logger)}, o.runnerOpts...)
	var collector *logging.LogCollector
	if o.capture {
		collector = logging.NewLogCollector()
		runnerOpts = append(runnerOpts, runner.WithLoggerHook(logging.NewCapturingLoggerHook(collector)))
	}

	results, err := runner.New(snap.Registry, runnerOpts...).Run(ctx, snap)
	if err != nil {
		run.Err = err
		return run
	}
	run.Results = results

	rep, err := report.FromRun(def.Name, snap.Registry, results, report.WithClock(o.now))
	if err != nil {
		run.Err = fmt.Errorf("building report: %w", err)
		return run
	}
	if collector != nil {
		report.AttachLogs(rep, collector)
	}
	run.Report = rep

	if rep.Failed() {
		run.Err = fmt.Errorf("%w: %d of %d", ErrExamplesFailed, rep.Summary.Failed, rep.Summary.Total)
	}
	return run
}
