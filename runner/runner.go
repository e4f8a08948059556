package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nomis52/goexample/clone"
	"github.com/nomis52/goexample/example"
	"github.com/nomis52/goexample/graph"
	"github.com/nomis52/goexample/logging"
	"github.com/nomis52/goexample/registry"
)

// DefaultSuiteName labels metrics and logs for suites that do not name themselves.
const DefaultSuiteName = "suite"

// Suite resolves method identifiers to callables. Invoke must block until the
// example's value is available.
type Suite interface {
	Invoke(ctx context.Context, method string, args []any) (any, error)
}

// namedSuite is implemented by suites that carry a display name.
type namedSuite interface {
	SuiteName() string
}

// Runner executes the examples held by a registry.
// A Runner must not be used for concurrent runs.
type Runner struct {
	registry *registry.Registry
	logger   *slog.Logger
	strategy clone.Strategy
	hook     logging.LoggerHook
	metrics  *Metrics
	now      func() time.Time
}

// Option is a function that configures a Runner.
type Option func(*Runner)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger.With("component", "runner")
	}
}

// WithCloneStrategy replaces the default cloning of producer values.
func WithCloneStrategy(strategy clone.Strategy) Option {
	return func(r *Runner) {
		r.strategy = strategy
	}
}

// WithLoggerHook sets how the per-example logger is derived from the base logger.
func WithLoggerHook(hook logging.LoggerHook) Option {
	return func(r *Runner) {
		r.hook = hook
	}
}

// WithMetrics records example outcomes into m.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithClock overrides the time source used for durations.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// New creates a runner over reg.
func New(reg *registry.Registry, opts ...Option) *Runner {
	r := &Runner{
		registry: reg,
		logger:   slog.Default().With("component", "runner"),
		hook:     logging.TaggingHook,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run validates the registry, then executes every example in topological
// order. A non-nil error means nothing was executed, or the run was aborted
// because of a runner bug; per-example failures are reported in the results.
//
// Cached results from a previous run are discarded before execution starts.
func (r *Runner) Run(ctx context.Context, s Suite) ([]example.Result, error) {
	suiteName := DefaultSuiteName
	if named, ok := s.(namedSuite); ok && named.SuiteName() != "" {
		suiteName = named.SuiteName()
	}
	logger := r.logger.With("suite", suiteName)

	examples := r.registry.All()
	if len(examples) == 0 {
		logger.Info("no examples to run")
		return []example.Result{}, nil
	}

	if err := r.validate(examples); err != nil {
		logger.Error("validation failed", "error", err)
		return nil, err
	}

	if path := graph.DetectCycle(examples); path != nil {
		err := &CycleError{Path: path}
		logger.Error("validation failed", "error", err)
		return nil, err
	}

	order, err := graph.TopologicalOrder(examples)
	if err != nil {
		return nil, fmt.Errorf("ordering examples: %w", err)
	}

	r.registry.ClearResults()
	logger.Info("starting run", "examples", len(order))

	results := make([]example.Result, 0, len(order))
	for _, name := range order {
		meta, ok := r.registry.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q is ordered but not registered", ErrInvariant, name)
		}

		result, err := r.execute(ctx, s, meta, logger)
		if err != nil {
			logger.Error("run aborted", "example", name, "error", err)
			return nil, err
		}

		r.registry.SetCachedResult(name, result)
		r.metrics.observe(suiteName, result)
		results = append(results, result)
	}

	summary := summarize(results)
	logger.Info("run finished",
		"passed", summary[example.Passed],
		"failed", summary[example.Failed],
		"skipped", summary[example.Skipped])
	r.metrics.finished(suiteName, float64(r.now().Unix()))

	return results, nil
}

// validate requires every Given entry to name a registered example. The
// first violation in registration order is returned.
func (r *Runner) validate(examples []example.Metadata) error {
	for _, ex := range examples {
		for _, producer := range ex.Given {
			if _, ok := r.registry.Get(producer); !ok {
				return &MissingProducerError{Example: ex.Name, Producer: producer}
			}
		}
	}
	return nil
}

func (r *Runner) execute(ctx context.Context, s Suite, meta example.Metadata, logger *slog.Logger) (example.Result, error) {
	blocked, err := r.blockingProducer(meta)
	if err != nil {
		return example.Result{}, err
	}
	if blocked != "" {
		logger.Info("example skipped", "example", meta.Name, "producer", blocked)
		return example.SkippedResult(meta.Name), nil
	}

	args := make([]any, len(meta.Given))
	for i, producer := range meta.Given {
		cached, _ := r.registry.CachedResult(producer)
		args[i] = clone.Value(cached.Value, r.strategy)
	}

	method := meta.Method
	if method == "" {
		method = meta.Name
	}

	exampleLogger := r.hook.LoggerForExample(logger, meta.Name)
	start := r.now()
	value, err := invoke(ContextWithLogger(ctx, exampleLogger), s, method, args)
	elapsed := r.now().Sub(start)

	if err != nil {
		logger.Warn("example failed", "example", meta.Name, "duration", elapsed, "error", err)
		return example.FailedResult(meta.Name, err, elapsed), nil
	}
	logger.Info("example passed", "example", meta.Name, "duration", elapsed)
	return example.PassedResult(meta.Name, value, elapsed), nil
}

// blockingProducer returns the first producer of meta that did not pass, or
// "" when every producer passed. A producer without a cached result means
// the execution order is broken and is reported as ErrInvariant.
func (r *Runner) blockingProducer(meta example.Metadata) (string, error) {
	for _, producer := range meta.Given {
		cached, ok := r.registry.CachedResult(producer)
		if !ok {
			return "", fmt.Errorf("%w: %q reached before its producer %q ran", ErrInvariant, meta.Name, producer)
		}
		if cached.Status != example.Passed {
			return producer, nil
		}
	}
	return "", nil
}

func invoke(ctx context.Context, s Suite, method string, args []any) (value any, err error) {
	defer func() {
		if p := recover(); p != nil {
			value = nil
			err = &PanicError{Value: p}
		}
	}()
	return s.Invoke(ctx, method, args)
}

func summarize(results []example.Result) map[example.Status]int {
	counts := make(map[example.Status]int, 3)
	for _, res := range results {
		counts[res.Status]++
	}
	return counts
}
