package runner

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingProducer is wrapped by MissingProducerError.
	ErrMissingProducer = errors.New("missing producer")
	// ErrCycle is wrapped by CycleError.
	ErrCycle = errors.New("circular dependency detected")
	// ErrMethodNotFound is returned by suites that have no callable for a
	// method. It fails the example, not the run.
	ErrMethodNotFound = errors.New("method not found")
	// ErrInvariant aborts a run when an example is reached before one of its
	// producers has a cached result.
	ErrInvariant = errors.New("runner invariant violated")
)

// MissingProducerError reports a Given entry that names no registered example.
type MissingProducerError struct {
	Example  string
	Producer string
}

func (e *MissingProducerError) Error() string {
	return fmt.Sprintf("example %q depends on %q which is not registered", e.Example, e.Producer)
}

func (e *MissingProducerError) Unwrap() error {
	return ErrMissingProducer
}

// CycleError reports a dependency cycle. Path starts and ends with the same
// example name.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycle.Error(), strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycle
}

// PanicError is the failure recorded for an example that panicked.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("example panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// IsConfigError reports whether err prevented a run from starting.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrMissingProducer) || errors.Is(err, ErrCycle)
}
