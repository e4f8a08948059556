package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Runnable runs the named suites.
type Runnable interface {
	Run(ctx context.Context, suites []string) error
}

// RunnableFunc adapts a function to Runnable.
type RunnableFunc func(ctx context.Context, suites []string) error

// Run calls f.
func (f RunnableFunc) Run(ctx context.Context, suites []string) error {
	return f(ctx, suites)
}

// Manager owns one Trigger per entry of a multi-trigger spec.
type Manager struct {
	triggers []*Trigger
	specs    []TriggerSpec
	logger   *slog.Logger
}

// NewManager creates a Manager from a multi-trigger specification.
// The spec format is: suite1,suite2:cron_expression;suite3:cron_expression2
//
// Returns an error if the spec cannot be parsed (see ParseTriggerSpecs).
func NewManager(spec string, runnable Runnable, logger *slog.Logger, available map[string]bool, opts ...TriggerOption) (*Manager, error) {
	specs, err := ParseTriggerSpecs(spec, available)
	if err != nil {
		return nil, err
	}
	logger = logger.With("component", "schedule")

	triggers := make([]*Trigger, 0, len(specs))
	for _, s := range specs {
		suites := s.Suites
		callback := func(ctx context.Context) error {
			return runnable.Run(ctx, suites)
		}

		trigger, err := NewTrigger(s.CronSpec, callback, logger.With("suites", suites), opts...)
		if err != nil {
			return nil, fmt.Errorf("creating trigger for '%s:%s': %w",
				strings.Join(s.Suites, suiteListSeparator), s.CronSpec, err)
		}
		triggers = append(triggers, trigger)
	}

	logger.Info("schedule manager created", "trigger_count", len(triggers))
	for i, trigger := range triggers {
		logger.Info("trigger registered",
			"index", i,
			"suites", specs[i].Suites,
			"schedule", specs[i].CronSpec,
			"next_run", trigger.NextRun(),
		)
	}

	return &Manager{triggers: triggers, specs: specs, logger: logger}, nil
}

// Specs returns the parsed trigger specifications.
func (m *Manager) Specs() []TriggerSpec {
	return m.specs
}

// Start launches all triggers. Each trigger runs in its own goroutine.
// Returns immediately. All goroutines exit when ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	for _, trigger := range m.triggers {
		trigger.Start(ctx)
	}
}

// NextRun returns the earliest scheduled run time across all triggers.
// Returns zero time if there are no triggers.
func (m *Manager) NextRun() time.Time {
	var earliest time.Time
	for i, trigger := range m.triggers {
		next := trigger.NextRun()
		if i == 0 || next.Before(earliest) {
			earliest = next
		}
	}
	return earliest
}
