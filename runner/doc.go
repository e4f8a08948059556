// Package runner executes the examples of a registry in dependency order.
//
// A run has two phases. Validation happens first and fails the whole run
// without executing anything:
//
//   - every name in an example's Given list must be registered
//     (*MissingProducerError)
//   - the dependency graph must be acyclic (*CycleError)
//
// Execution then visits the examples one at a time in topological order.
// For each example:
//
//   - if any producer did not pass, the example is skipped without being
//     invoked; the skip cascades to every descendant
//   - otherwise each producer's cached value is cloned into a positional
//     argument and the suite is asked to invoke the example's method
//   - a returned error or a panic marks the example failed; the run
//     continues
//   - the result is cached in the registry before the next example starts
//
// Results are returned in execution order, not registration order.
//
// Example:
//
//	r := runner.New(def.Registry, runner.WithLogger(logger))
//	results, err := r.Run(ctx, def)
//	if err != nil {
//		// configuration error: nothing ran
//	}
package runner
