// Package schedule re-runs suites according to cron expressions.
//
// A Trigger wraps a single callback and schedule; a Manager builds one
// Trigger per entry of a multi-trigger spec:
//
//	m, err := schedule.NewManager("MoneyExample:@every 15m", runnable, logger, available)
//	if err != nil {
//		log.Fatal(err)
//	}
//	m.Start(ctx) // returns immediately, runs in background
//	<-ctx.Done()
package schedule

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidCronSpec is returned when the cron specification cannot be parsed.
var ErrInvalidCronSpec = errors.New("invalid cron spec")

// Trigger executes a callback according to a cron schedule.
type Trigger struct {
	spec     string
	schedule cron.Schedule
	callback func(ctx context.Context) error
	logger   *slog.Logger
	now      func() time.Time
	after    func(time.Duration) <-chan time.Time
	runs     atomic.Int64
}

// TriggerOption configures a Trigger.
type TriggerOption func(*Trigger)

// WithClock overrides the time source used to compute the next run.
func WithClock(now func() time.Time) TriggerOption {
	return func(t *Trigger) {
		t.now = now
	}
}

// WithTimer overrides how the trigger waits for the next run.
func WithTimer(after func(time.Duration) <-chan time.Time) TriggerOption {
	return func(t *Trigger) {
		t.after = after
	}
}

// NewTrigger creates a Trigger for spec, which is either a five field cron
// expression or a descriptor such as "@daily".
// Returns ErrInvalidCronSpec if the specification cannot be parsed.
func NewTrigger(spec string, callback func(ctx context.Context) error, logger *slog.Logger, opts ...TriggerOption) (*Trigger, error) {
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, errors.Join(ErrInvalidCronSpec, err)
	}

	t := &Trigger{
		spec:     spec,
		schedule: schedule,
		callback: callback,
		logger:   logger,
		now:      time.Now,
		after:    time.After,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Spec returns the schedule expression.
func (t *Trigger) Spec() string {
	return t.spec
}

// Runs returns the number of completed callback invocations.
func (t *Trigger) Runs() int64 {
	return t.runs.Load()
}

// Start launches a goroutine that triggers runs according to the schedule.
// Returns immediately. The goroutine exits when ctx is cancelled.
func (t *Trigger) Start(ctx context.Context) {
	go t.loop(ctx)
}

// NextRun returns the next scheduled run time from now.
func (t *Trigger) NextRun() time.Time {
	return t.schedule.Next(t.now())
}

func (t *Trigger) loop(ctx context.Context) {
	for {
		nextRun := t.NextRun()
		wait := nextRun.Sub(t.now())

		t.logger.Debug("waiting for next scheduled run",
			"schedule", t.spec,
			"next_run", nextRun,
			"wait_duration", wait,
		)

		select {
		case <-ctx.Done():
			t.logger.Info("schedule trigger shutting down", "schedule", t.spec)
			return
		case <-t.after(wait):
			t.execute(ctx)
		}
	}
}

func (t *Trigger) execute(ctx context.Context) {
	t.logger.Info("starting scheduled run", "schedule", t.spec)

	if err := t.callback(ctx); err != nil {
		t.logger.Warn("scheduled run completed with error", "schedule", t.spec, "error", err)
	} else {
		t.logger.Info("scheduled run completed successfully", "schedule", t.spec)
	}
	t.runs.Add(1)
}
