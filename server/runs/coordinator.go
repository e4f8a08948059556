// Package runs coordinates suite runs for the goexample server.
//
// The coordinator handles:
//   - Starting runs in the background on request
//   - Running suites synchronously for the scheduler
//   - Preventing concurrent runs
//   - Tracking current run status and the last reports
//   - Maintaining a bounded history of finished runs
//
// # Example
//
//	c := runs.New(logger, func(ctx context.Context, names []string) (*session.Outcome, error) {
//		defs, err := suites.Select(names)
//		if err != nil {
//			return nil, err
//		}
//		return session.Run(ctx, defs)
//	})
//
//	if err := c.Start(ctx, []string{"MoneyExample"}); errors.Is(err, runs.ErrRunInProgress) {
//		// Handle concurrent run attempt
//	}
package runs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nomis52/goexample/report"
	"github.com/nomis52/goexample/session"
)

const defaultMaxHistorySize = 50

// ErrRunInProgress is returned when attempting to start a run while one is already running.
var ErrRunInProgress = errors.New("suite run already in progress")

// ExecuteFunc runs the named suites. A non-nil Outcome is recorded even
// when err is set.
type ExecuteFunc func(ctx context.Context, suites []string) (*session.Outcome, error)

// Coordinator serialises suite runs and records their outcomes.
type Coordinator struct {
	logger  *slog.Logger
	execute ExecuteFunc
	store   Store
	now     func() time.Time

	mu      sync.Mutex
	status  RunStatus
	reports []*report.Report
	wg      sync.WaitGroup
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithStore replaces the default in-memory history.
func WithStore(store Store) Option {
	return func(c *Coordinator) {
		c.store = store
	}
}

// WithClock sets the time source. Used for testing.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// New creates a new Coordinator.
func New(logger *slog.Logger, execute ExecuteFunc, opts ...Option) *Coordinator {
	c := &Coordinator{
		logger:  logger.With("component", "runs"),
		execute: execute,
		store:   NewMemoryStore(defaultMaxHistorySize),
		now:     time.Now,
		status:  RunStatus{State: RunStateIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start runs suites in the background. The run outlives ctx cancellation
// so that a finished HTTP request does not abort it.
// Returns ErrRunInProgress if a run is already in progress.
func (c *Coordinator) Start(ctx context.Context, suites []string) error {
	if !c.tryStart(suites, TriggerManual) {
		return ErrRunInProgress
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runStarted(context.WithoutCancel(ctx), suites)
	}()
	return nil
}

// Run runs suites and blocks until they finish. It implements
// schedule.Runnable.
func (c *Coordinator) Run(ctx context.Context, suites []string) error {
	if !c.tryStart(suites, TriggerSchedule) {
		return ErrRunInProgress
	}
	return c.runStarted(ctx, suites)
}

// Wait blocks until background runs have finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Status returns the current run status, or the last finished one when idle.
func (c *Coordinator) Status() RunStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status.Copy()
}

// IsRunning returns true if a run is in progress.
func (c *Coordinator) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status.State == RunStateRunning
}

// History returns finished runs, most recent first.
func (c *Coordinator) History() []RunStatus {
	return c.store.Runs()
}

// Reports returns the reports of the last finished run.
func (c *Coordinator) Reports() []*report.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*report.Report(nil), c.reports...)
}

// runStarted executes a run that tryStart admitted. The run is always
// finished, even when execute panics.
func (c *Coordinator) runStarted(ctx context.Context, suites []string) (err error) {
	c.logger.Info("starting run", "suites", suites)

	var outcome *session.Outcome
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run panicked: %v", r)
		}
		c.finish(outcome, err)
	}()

	outcome, err = c.execute(ctx, suites)
	return err
}

// tryStart attempts to transition from idle to running.
// Returns true if successful, false if already running.
func (c *Coordinator) tryStart(suites []string, trigger Trigger) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status.State == RunStateRunning {
		return false
	}

	now := c.now()
	c.status = RunStatus{
		State:     RunStateRunning,
		Trigger:   trigger,
		Suites:    append([]string(nil), suites...),
		StartedAt: &now,
	}
	return true
}

// finish transitions from running to idle and records the outcome.
func (c *Coordinator) finish(outcome *session.Outcome, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	endTime := c.now()
	duration := endTime.Sub(*c.status.StartedAt)

	c.status.State = RunStateIdle
	c.status.EndedAt = &endTime
	c.status.Results = summarize(outcome)
	c.status.ID = c.status.CalculateID()

	if err != nil {
		c.status.Error = err.Error()
		c.logger.Error("run failed", "error", err, "duration", duration)
	} else {
		c.logger.Info("run completed", "duration", duration)
	}

	if outcome != nil {
		c.reports = outcome.Reports()
	} else {
		c.reports = nil
	}

	if err := c.store.Save(c.status); err != nil {
		c.logger.Error("failed to save run to store", "error", err)
	}
}

func summarize(outcome *session.Outcome) []SuiteSummary {
	if outcome == nil {
		return nil
	}
	out := make([]SuiteSummary, 0, len(outcome.Runs))
	for _, run := range outcome.Runs {
		s := SuiteSummary{Suite: run.Suite}
		if run.Report != nil {
			s.Passed = run.Report.Summary.Passed
			s.Failed = run.Report.Summary.Failed
			s.Skipped = run.Report.Summary.Skipped
			s.Fingerprint = run.Report.Fingerprint
		}
		if run.Err != nil {
			s.Error = run.Err.Error()
		}
		out = append(out, s)
	}
	return out
}
