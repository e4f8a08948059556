// Package suites bundles the demonstration suites run by the goexample CLI.
//
// Each suite is available by name through Catalog and Select:
//
//	defs, err := suites.Select([]string{"MoneyExample", "VectorExample"})
//
// BrokenChainExample fails on purpose to show how a failing producer skips
// its consumers.
package suites

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/nomis52/goexample/suite"
)

// ErrUnknownSuite is returned by Select for names missing from the catalog.
var ErrUnknownSuite = errors.New("unknown suite")

// Constructor builds a fresh suite definition.
type Constructor func() (*suite.Definition, error)

var catalog = map[string]Constructor{
	MoneyName:          Money,
	VectorName:         Vector,
	BrokenChainName:    BrokenChain,
	MoneyCloneableName: MoneyCloneable,
	WalletName:         Wallet,
}

// Catalog returns the bundled suites by name. The map is a copy.
func Catalog() map[string]Constructor {
	return maps.Clone(catalog)
}

// Names returns the sorted names of the bundled suites.
func Names() []string {
	return slices.Sorted(maps.Keys(catalog))
}

// Select builds the named suites in the order given. No names selects every
// bundled suite in Names order.
func Select(names []string) ([]*suite.Definition, error) {
	if len(names) == 0 {
		names = Names()
	}

	var errs []error
	defs := make([]*suite.Definition, 0, len(names))
	for _, name := range names {
		build, ok := catalog[name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %q (available: %s)", ErrUnknownSuite, name, strings.Join(Names(), ", ")))
			continue
		}
		def, err := build()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		defs = append(defs, def)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return defs, nil
}

// expect returns an error built from format when ok is false.
func expect(ok bool, format string, args ...any) error {
	if ok {
		return nil
	}
	return fmt.Errorf(format, args...)
}
