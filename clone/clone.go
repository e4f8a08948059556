// Package clone copies fixture values as they cross from a producer to a
// consumer, so that no consumer can mutate the value cached for its producer
// or shared with a sibling argument.
//
// Dispatch order for Value:
//
//  1. nil and immutable primitives are returned as-is
//  2. an explicit Strategy, when supplied, is used verbatim
//  3. values implementing Cloneable clone themselves (type identity preserved)
//  4. everything else is structurally deep-copied, cycles included
package clone

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	goclone "github.com/huandu/go-clone"
)

// ErrUnknownStrategy is returned by Lookup when no strategy has the given name.
var ErrUnknownStrategy = errors.New("unknown clone strategy")

// Cloneable is implemented by fixtures that know how to copy themselves.
// Clone must return a value of the receiver's own type.
type Cloneable interface {
	Clone() any
}

// Strategy replaces the default cloning logic. Its return value is used as-is.
type Strategy func(v any) any

// Names of the built-in strategies accepted by Lookup.
const (
	DeepName   = "deep"
	FastName   = "fast"
	SharedName = "shared"
)

// Deep performs a cycle-safe structural deep copy. It is the default.
func Deep(v any) any {
	return goclone.Slowly(v)
}

// Fast performs a structural deep copy that does not track visited
// pointers. Values containing reference cycles must not use it.
func Fast(v any) any {
	return goclone.Clone(v)
}

// Shared hands out the original value untouched. Consumers then share the
// producer's canonical value.
func Shared(v any) any {
	return v
}

var strategies = map[string]Strategy{
	DeepName:   Deep,
	FastName:   Fast,
	SharedName: Shared,
}

// Lookup resolves a strategy by name. The empty name resolves to nil,
// meaning the default dispatch of Value.
func Lookup(name string) (Strategy, error) {
	if name == "" {
		return nil, nil
	}
	s, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid: %v)", ErrUnknownStrategy, name, Names())
	}
	return s, nil
}

// Names returns the sorted names of the built-in strategies.
func Names() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Value clones v for handing to a consumer.
func Value(v any, strategy Strategy) any {
	if isImmutable(v) {
		return v
	}

	if strategy != nil {
		return strategy(v)
	}

	if c, ok := v.(Cloneable); ok {
		return c.Clone()
	}

	return Deep(v)
}

// isImmutable reports whether v needs no cloning: nil, typed nils and
// primitive kinds that are copied by value anyway.
func isImmutable(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
