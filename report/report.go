// Package report turns the results of a run into a structured summary that
// can be written as YAML, JSON or a console table.
package report

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/nomis52/goexample/example"
	"github.com/nomis52/goexample/graph"
	"github.com/nomis52/goexample/logging"
	"github.com/nomis52/goexample/registry"
	"golang.org/x/crypto/blake2b"
)

// ErrLengthMismatch is returned when examples and results do not pair up.
var ErrLengthMismatch = errors.New("examples and results must have the same length")

// Summary counts outcomes across a suite.
type Summary struct {
	Total      int     `yaml:"total" json:"total"`
	Passed     int     `yaml:"passed" json:"passed"`
	Failed     int     `yaml:"failed" json:"failed"`
	Skipped    int     `yaml:"skipped" json:"skipped"`
	DurationMs float64 `yaml:"duration_ms" json:"duration_ms"`
}

// Entry describes one executed example.
type Entry struct {
	Name        string             `yaml:"name" json:"name"`
	Description string             `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string           `yaml:"tags,omitempty" json:"tags,omitempty"`
	Status      example.Status     `yaml:"status" json:"status"`
	Given       []string           `yaml:"given" json:"given"`
	DurationMs  float64            `yaml:"duration_ms" json:"duration_ms"`
	Error       string             `yaml:"error,omitempty" json:"error,omitempty"`
	Logs        []logging.LogEntry `yaml:"logs,omitempty" json:"logs,omitempty"`
}

// Report is the outcome of one suite run.
type Report struct {
	Suite     string    `yaml:"suite" json:"suite"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	Summary   Summary   `yaml:"summary" json:"summary"`
	Examples  []Entry   `yaml:"examples" json:"examples"`
	// Graph is the Mermaid flowchart of the suite's dependencies.
	Graph string `yaml:"graph" json:"graph"`
	// Fingerprint is the hex BLAKE2b-256 digest of Graph. It changes only
	// when the dependency shape of the suite changes.
	Fingerprint string `yaml:"fingerprint" json:"fingerprint"`
}

// Failed reports whether any example failed. Skipped examples do not count.
func (r *Report) Failed() bool {
	return r.Summary.Failed > 0
}

// Option configures Build.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source for the report timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Build pairs examples[i] with results[i]. Both are expected in execution
// order.
func Build(suite string, examples []example.Metadata, results []example.Result, opts ...Option) (*Report, error) {
	if len(examples) != len(results) {
		return nil, fmt.Errorf("%w: %d examples, %d results", ErrLengthMismatch, len(examples), len(results))
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	entries := make([]Entry, 0, len(examples))
	var summary Summary
	for i, meta := range examples {
		result := results[i]

		switch result.Status {
		case example.Passed:
			summary.Passed++
		case example.Failed:
			summary.Failed++
		default:
			summary.Skipped++
		}
		summary.DurationMs += result.DurationMs()

		entry := Entry{
			Name:        meta.Name,
			Description: meta.Description,
			Tags:        meta.Tags,
			Status:      result.Status,
			Given:       meta.Given,
			DurationMs:  result.DurationMs(),
		}
		if entry.Given == nil {
			entry.Given = []string{}
		}
		if result.Err != nil {
			entry.Error = result.Err.Error()
		}
		entries = append(entries, entry)
	}
	summary.Total = len(examples)

	diagram := graph.RenderDiagram(examples)
	return &Report{
		Suite:       suite,
		Timestamp:   o.now().UTC(),
		Summary:     summary,
		Examples:    entries,
		Graph:       diagram,
		Fingerprint: Fingerprint(diagram),
	}, nil
}

// FromRun builds a report for results produced by running reg.
func FromRun(suite string, reg *registry.Registry, results []example.Result, opts ...Option) (*Report, error) {
	order := make([]string, len(results))
	for i, r := range results {
		order[i] = r.Name
	}
	examples, err := Ordered(reg, order)
	if err != nil {
		return nil, err
	}
	return Build(suite, examples, results, opts...)
}

// Ordered returns the metadata of the named examples in the given order.
func Ordered(reg *registry.Registry, order []string) ([]example.Metadata, error) {
	out := make([]example.Metadata, 0, len(order))
	for _, name := range order {
		meta, ok := reg.Get(name)
		if !ok {
			return nil, fmt.Errorf("example %q is not registered", name)
		}
		out = append(out, meta)
	}
	return out, nil
}

// AttachLogs copies the log lines captured for each example into its entry.
func AttachLogs(r *Report, c *logging.LogCollector) {
	for i := range r.Examples {
		r.Examples[i].Logs = c.Logs(r.Examples[i].Name)
	}
}

// Fingerprint returns the hex BLAKE2b-256 digest of a rendered diagram.
func Fingerprint(diagram string) string {
	sum := blake2b.Sum256([]byte(diagram))
	return hex.EncodeToString(sum[:])
}
