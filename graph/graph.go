// Package graph provides pure functions over the dependency relation between
// examples. An edge producer -> consumer exists whenever the consumer lists
// the producer in its Given field.
//
// Every choice point (frontier order, edge order, node listing) breaks ties
// lexicographically, so results depend only on the set of examples and not on
// the order they were registered in. The functions hold no state and never
// mutate their input.
package graph

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/nomis52/goexample/example"
)

// ErrCycleDetected is returned by TopologicalOrder when the relation contains
// a cycle. Use DetectCycle to obtain the offending path.
var ErrCycleDetected = errors.New("cycle detected")

// DiagramHeader is the first line of every rendered diagram.
const DiagramHeader = "graph TD\n"

// Adjacency maps each producer name to the names of its consumers.
//
// Every example gets an entry, even with no consumers. A Given reference to
// a name outside the input set is still added as a key so that its consumers
// are captured; rejecting such references is the runner's job.
func Adjacency(examples []example.Metadata) map[string][]string {
	adjacency := make(map[string][]string, len(examples))

	for _, ex := range examples {
		if _, ok := adjacency[ex.Name]; !ok {
			adjacency[ex.Name] = []string{}
		}
	}

	for _, ex := range examples {
		for _, producer := range ex.Given {
			adjacency[producer] = append(adjacency[producer], ex.Name)
		}
	}

	return adjacency
}

// TopologicalOrder returns every node of the relation so that each producer
// precedes all of its consumers. It uses Kahn's algorithm, always taking the
// lexicographically smallest ready node next.
func TopologicalOrder(examples []example.Metadata) ([]string, error) {
	if len(examples) == 0 {
		return []string{}, nil
	}

	adjacency := Adjacency(examples)

	// In-degree: number of producers each node depends on.
	inDegree := make(map[string]int, len(adjacency))
	for name := range adjacency {
		inDegree[name] = 0
	}
	for _, consumers := range adjacency {
		for _, consumer := range consumers {
			inDegree[consumer]++
		}
	}

	var frontier []string
	for name, degree := range inDegree {
		if degree == 0 {
			frontier = append(frontier, name)
		}
	}
	slices.Sort(frontier)

	order := make([]string, 0, len(inDegree))
	for len(frontier) > 0 {
		node := frontier[0]
		frontier = frontier[1:]
		order = append(order, node)

		for _, consumer := range sortedCopy(adjacency[node]) {
			inDegree[consumer]--
			if inDegree[consumer] == 0 {
				frontier = insertSorted(frontier, consumer)
			}
		}
	}

	if len(order) != len(inDegree) {
		return nil, fmt.Errorf("%w: ordered %d of %d examples", ErrCycleDetected, len(order), len(inDegree))
	}

	return order, nil
}

// DetectCycle returns a dependency cycle as a path that starts and ends with
// the same name, or nil if the relation is acyclic.
//
// The search follows the "depends on" direction: each node visits its own
// producers. Every node is used as a starting point, in input order, so
// cycles in components unreachable from the first node are found too.
func DetectCycle(examples []example.Metadata) []string {
	const (
		unvisited = iota
		inProgress
		done
	)

	deps := make(map[string][]string, len(examples))
	names := make([]string, 0, len(examples))
	for _, ex := range examples {
		if _, seen := deps[ex.Name]; !seen {
			names = append(names, ex.Name)
		}
		deps[ex.Name] = ex.Given
	}

	color := make(map[string]int, len(names))
	var stack []string

	var visit func(name string) []string
	visit = func(name string) []string {
		color[name] = inProgress
		stack = append(stack, name)

		for _, producer := range deps[name] {
			switch color[producer] {
			case inProgress:
				start := indexOf(stack, producer)
				cycle := make([]string, 0, len(stack)-start+1)
				cycle = append(cycle, stack[start:]...)
				return append(cycle, producer)
			case unvisited:
				if _, known := deps[producer]; !known {
					// Dangling reference: cannot be part of a cycle.
					continue
				}
				if cycle := visit(producer); cycle != nil {
					return cycle
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[name] = done
		return nil
	}

	for _, name := range names {
		if color[name] == unvisited {
			if cycle := visit(name); cycle != nil {
				return cycle
			}
		}
	}

	return nil
}

// RenderDiagram renders the relation as a Mermaid flowchart.
//
// Nodes are listed in lexicographic order. A node with neither producers nor
// consumers is written on its own line; any other node contributes one line
// per outgoing edge, edges sorted by consumer name.
func RenderDiagram(examples []example.Metadata) string {
	if len(examples) == 0 {
		return DiagramHeader
	}

	adjacency := Adjacency(examples)

	hasIncoming := make(map[string]bool)
	for _, consumers := range adjacency {
		for _, consumer := range consumers {
			hasIncoming[consumer] = true
		}
	}

	nodes := slices.Sorted(maps.Keys(adjacency))

	var b strings.Builder
	b.WriteString(DiagramHeader)
	for _, node := range nodes {
		consumers := adjacency[node]
		if len(consumers) == 0 {
			if !hasIncoming[node] {
				fmt.Fprintf(&b, "  %s\n", node)
			}
			continue
		}
		for _, consumer := range sortedCopy(consumers) {
			fmt.Fprintf(&b, "  %s --> %s\n", node, consumer)
		}
	}

	return b.String()
}

func sortedCopy(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}

// insertSorted inserts s into the sorted slice, keeping it sorted.
func insertSorted(sorted []string, s string) []string {
	i, _ := slices.BinarySearch(sorted, s)
	return slices.Insert(sorted, i, s)
}

func indexOf(stack []string, name string) int {
	for i, s := range stack {
		if s == name {
			return i
		}
	}
	return -1
}
