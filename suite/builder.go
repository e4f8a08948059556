// Package suite collects examples into a Definition that the runner can
// execute.
//
// Examples are registered explicitly through a Builder:
//
//	b := suite.NewBuilder("MoneyExample")
//	b.Example("zero", func(ctx context.Context, _ ...any) (any, error) {
//		return Money{}, nil
//	})
//	b.Example("addTen", addTen, suite.Given("zero"))
//	def, err := b.Build()
//
// or bound by method name to a struct with FromStruct. Each Builder owns its
// own registry, so suites never share registration state.
package suite

import (
	"context"
	"errors"
	"fmt"

	"github.com/nomis52/goexample/example"
	"github.com/nomis52/goexample/registry"
	"github.com/nomis52/goexample/runner"
)

var (
	// ErrEmptyName is returned for examples or suites registered without a name.
	ErrEmptyName = errors.New("name must not be empty")
	// ErrNilFunc is returned for examples registered without a callable.
	ErrNilFunc = errors.New("example function must not be nil")
	// ErrMethodBound is returned when two examples bind different callables
	// to the same method identifier.
	ErrMethodBound = errors.New("method already bound")
)

// Option customises the metadata of a single example.
type Option func(*example.Metadata)

// Given declares the producers of an example, in argument order.
func Given(producers ...string) Option {
	return func(m *example.Metadata) {
		m.Given = append(m.Given, producers...)
	}
}

// Method sets the method identifier, which otherwise defaults to the
// example name.
func Method(id string) Option {
	return func(m *example.Metadata) {
		m.Method = id
	}
}

// Description attaches a human readable description.
func Description(s string) Option {
	return func(m *example.Metadata) {
		m.Description = s
	}
}

// Tags attaches informational tags.
func Tags(tags ...string) Option {
	return func(m *example.Metadata) {
		m.Tags = append(m.Tags, tags...)
	}
}

// Builder collects examples for one suite. Errors are deferred to Build so
// that definitions read as a flat list of Example calls.
type Builder struct {
	name  string
	reg   *registry.Registry
	funcs map[string]example.Func
	errs  []error
}

// NewBuilder creates a builder for the named suite.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:  name,
		reg:   registry.New(),
		funcs: make(map[string]example.Func),
	}
}

// Example registers an example backed by fn.
func (b *Builder) Example(name string, fn example.Func, opts ...Option) *Builder {
	meta := example.Metadata{Name: name}
	for _, opt := range opts {
		opt(&meta)
	}
	if meta.Method == "" {
		meta.Method = name
	}

	switch {
	case name == "":
		b.errs = append(b.errs, fmt.Errorf("example: %w", ErrEmptyName))
		return b
	case fn == nil:
		b.errs = append(b.errs, fmt.Errorf("example %q: %w", name, ErrNilFunc))
		return b
	}

	if _, bound := b.funcs[meta.Method]; bound {
		if _, exists := b.reg.Get(name); exists {
			b.errs = append(b.errs, fmt.Errorf("example %q: %w", name, registry.ErrDuplicateName))
		} else {
			b.errs = append(b.errs, fmt.Errorf("example %q: %w: %q", name, ErrMethodBound, meta.Method))
		}
		return b
	}

	if err := b.reg.Register(meta); err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.funcs[meta.Method] = fn
	return b
}

// Build returns the collected definition, or every registration error
// joined together.
func (b *Builder) Build() (*Definition, error) {
	errs := b.errs
	if b.name == "" {
		errs = append([]error{fmt.Errorf("suite: %w", ErrEmptyName)}, errs...)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("building suite %q: %w", b.name, err)
	}
	return &Definition{Name: b.name, Registry: b.reg, funcs: b.funcs}, nil
}

// MustBuild is like Build but panics on error. It is meant for suites
// defined in package variables and tests.
func (b *Builder) MustBuild() *Definition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// Definition is a named set of examples together with their callables.
type Definition struct {
	Name     string
	Registry *registry.Registry
	funcs    map[string]example.Func
}

// Invoke calls the callable bound to method.
func (d *Definition) Invoke(ctx context.Context, method string, args []any) (any, error) {
	fn, ok := d.funcs[method]
	if !ok {
		return nil, fmt.Errorf("suite %q: %w: %q", d.Name, runner.ErrMethodNotFound, method)
	}
	return fn(ctx, args...)
}

// SuiteName returns the suite name used in logs and metrics.
func (d *Definition) SuiteName() string {
	return d.Name
}

// Snapshot returns a definition sharing the same callables over a fresh
// registry with no cached results.
func (d *Definition) Snapshot() *Definition {
	return &Definition{Name: d.Name, Registry: d.Registry.Snapshot(), funcs: d.funcs}
}
