// Package edtest runs suite definitions as Go subtests.
//
//	func TestMoney(t *testing.T) {
//		edtest.Run(t, suites.Money())
//	}
//
// The suite becomes one subtest with a nested subtest per example, in
// execution order. Failed examples fail their subtest with the captured
// error, skipped examples are reported with t.Skip, and configuration
// errors fail the suite subtest before any example subtest is created.
package edtest

import (
	"testing"

	"github.com/nomis52/goexample/adapter"
	"github.com/nomis52/goexample/logging"
	"github.com/nomis52/goexample/runner"
	"github.com/nomis52/goexample/suite"
)

// Run registers def as a subtest of t. Runner logs go to the test log.
func Run(t *testing.T, def *suite.Definition, opts ...adapter.Option) {
	t.Helper()
	logger, err := logging.NewWithWriter(testWriter{t}, "text", nil, false)
	if err != nil {
		t.Fatalf("creating test logger: %v", err)
	}

	opts = append([]adapter.Option{adapter.WithRunnerOptions(runner.WithLogger(logger))}, opts...)
	adapter.Register(Host{T: t}, def, opts...)
}

// Host implements adapter.Host on top of testing.T.
type Host struct {
	T *testing.T
}

// Group runs setup and checks inside a subtest named after the group.
func (h Host) Group(name string, setup func() error, checks []adapter.Check) {
	h.T.Run(name, func(t *testing.T) {
		if err := setup(); err != nil {
			t.Fatalf("suite %s: %v", name, err)
		}
		for _, c := range checks {
			t.Run(c.Name, func(t *testing.T) {
				v := c.Verify()
				switch v.Outcome {
				case adapter.Fail:
					t.Fatal(v.Err)
				case adapter.Skip:
					t.Skip(v.Reason)
				}
			})
		}
	})
}

// testWriter forwards log output to t.Log.
type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
