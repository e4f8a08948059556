// Package adapter binds suite definitions to a host test reporting
// mechanism.
//
// A host only has to understand one shape: a named group with a setup step
// that runs once, followed by checks that each read a precomputed result by
// index. The Go testing binding lives in package edtest.
package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/nomis52/goexample/example"
	"github.com/nomis52/goexample/graph"
	"github.com/nomis52/goexample/runner"
	"github.com/nomis52/goexample/suite"
)

// ErrSetupNotRun is reported by checks verified before their group's setup
// completed successfully.
var ErrSetupNotRun = errors.New("group setup has not completed")

// Outcome is the host-facing result of one check.
type Outcome int

const (
	// Pass means the example passed.
	Pass Outcome = iota
	// Fail means the example failed. The host must surface it as a failure.
	Fail
	// Skip means the example was skipped. The host must not treat it as a failure.
	Skip
)

// String returns a human-readable representation of the Outcome
func (o Outcome) String() string {
	switch o {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	case Skip:
		return "skip"
	default:
		return "unknown"
	}
}

// Verdict is what a check reports to its host.
type Verdict struct {
	Outcome Outcome
	// Err is the captured failure, passed through unmodified. Set for Fail.
	Err error
	// Reason explains a Skip.
	Reason string
}

// Check is one named example within a group.
type Check struct {
	Name string
	// Index is the position of the example's result in execution order.
	Index int
	// Verify reads the result produced by setup.
	Verify func() Verdict
}

// Host registers groups with a concrete test runner. A host calls setup
// exactly once before verifying any check; when setup fails the whole group
// is reported as failed and no check is verified.
type Host interface {
	Group(name string, setup func() error, checks []Check)
}

// Option configures Register.
type Option func(*options)

type options struct {
	ctx        context.Context
	runnerOpts []runner.Option
	onResults  func([]example.Result)
}

// WithContext sets the context passed to every example.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// WithRunnerOptions forwards options to the runner.
func WithRunnerOptions(opts ...runner.Option) Option {
	return func(o *options) {
		o.runnerOpts = append(o.runnerOpts, opts...)
	}
}

// WithResults registers a callback invoked with the results once setup succeeds.
func WithResults(fn func([]example.Result)) Option {
	return func(o *options) {
		o.onResults = fn
	}
}

// Register exposes def to host as a single group. The group's setup runs
// the whole suite on a fresh snapshot of its registry.
func Register(host Host, def *suite.Definition, opts ...Option) {
	o := options{ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}

	snapshot := def.Snapshot()
	order, err := graph.TopologicalOrder(snapshot.Registry.All())
	if err != nil {
		// Setup will report the cycle; checks keep registration order.
		order = snapshot.Registry.Names()
	}

	var results []example.Result
	setup := func() error {
		got, err := runner.New(snapshot.Registry, o.runnerOpts...).Run(o.ctx, snapshot)
		if err != nil {
			return err
		}
		if len(got) != len(order) {
			return fmt.Errorf("%w: %d results for %d examples", runner.ErrInvariant, len(got), len(order))
		}
		for i, r := range got {
			if r.Name != order[i] {
				return fmt.Errorf("%w: result %d is %q, expected %q", runner.ErrInvariant, i, r.Name, order[i])
			}
		}
		results = got
		if o.onResults != nil {
			o.onResults(got)
		}
		return nil
	}

	checks := make([]Check, len(order))
	for i, name := range order {
		checks[i] = Check{
			Name:  name,
			Index: i,
			Verify: func() Verdict {
				if results == nil {
					return Verdict{Outcome: Fail, Err: ErrSetupNotRun}
				}
				return verdictFor(name, results[i])
			},
		}
	}

	host.Group(def.Name, setup, checks)
}

func verdictFor(name string, r example.Result) Verdict {
	switch r.Status {
	case example.Passed:
		return Verdict{Outcome: Pass}
	case example.Skipped:
		return Verdict{Outcome: Skip, Reason: fmt.Sprintf("example %q skipped: a producer did not pass", name)}
	default:
		err := r.Err
		if err == nil {
			err = fmt.Errorf("example %q failed", name)
		}
		return Verdict{Outcome: Fail, Err: err}
	}
}
