// Package example defines the data model shared by the registry, graph,
// runner and report packages.
//
// An example is a named unit of work that produces a fixture value. It may
// declare producers (other examples) whose values it receives as positional
// arguments:
//
//	example.Metadata{Name: "addTen", Method: "AddTen", Given: []string{"root"}}
//
// Metadata is created once at registration time and never mutated. A Result
// is written by the runner each time the example executes.
package example

import (
	"context"
	"fmt"
	"time"
)

// Func is the callable behind an example. Args carry one value per producer
// named in Metadata.Given, in the same order. A returned error marks the
// example as failed.
type Func func(ctx context.Context, args ...any) (any, error)

// Metadata describes one registered example.
type Metadata struct {
	// Name is the unique public name of the example.
	Name string `yaml:"name" json:"name"`
	// Method identifies the callable invoked to produce the value.
	// It defaults to Name but may differ to allow renaming.
	Method string `yaml:"method" json:"method"`
	// Given lists the producers this example depends on, in argument order.
	Given []string `yaml:"given" json:"given"`
	// Description is informational only.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// Tags are informational only.
	Tags []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Copy returns a copy of m that shares no slices with it.
func (m Metadata) Copy() Metadata {
	out := m
	out.Given = append(make([]string, 0, len(m.Given)), m.Given...)
	if m.Tags != nil {
		out.Tags = append([]string(nil), m.Tags...)
	}
	return out
}

// Result is the outcome of executing one example.
type Result struct {
	// Name is the example this result belongs to.
	Name string
	// Value is the produced fixture. Nil unless Status is Passed.
	Value any
	// Status is the terminal state of the execution.
	Status Status
	// Err is the failure cause. Non-nil iff Status is Failed.
	Err error
	// Duration is the wall-clock execution time. Zero for skipped examples.
	Duration time.Duration
}

// DurationMs returns the execution time in milliseconds.
func (r Result) DurationMs() float64 {
	return float64(r.Duration) / float64(time.Millisecond)
}

// IsSuccess reports whether the example passed.
func (r Result) IsSuccess() bool {
	return r.Status == Passed
}

// PassedResult builds a passed result.
func PassedResult(name string, value any, d time.Duration) Result {
	return Result{Name: name, Value: value, Status: Passed, Duration: d}
}

// FailedResult builds a failed result. A nil err is replaced so that Err is
// always set on failures.
func FailedResult(name string, err error, d time.Duration) Result {
	if err == nil {
		err = fmt.Errorf("example %q failed", name)
	}
	return Result{Name: name, Status: Failed, Err: err, Duration: d}
}

// SkippedResult builds a skipped result.
func SkippedResult(name string) Result {
	return Result{Name: name, Status: Skipped}
}
