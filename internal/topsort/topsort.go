// Package topsort orders property references and reports reference cycles.
package topsort

import (
	"fmt"
	"sort"
	"strings"
)

// Graph maps a property key to the keys its value references. References to
// keys that are not nodes of the graph are external and ignored.
type Graph map[string][]string

// Sort returns the nodes in reference order: a key appears after every key it
// references. Returns an error naming the cycle if one is found.
//
// The nodes parameter specifies which nodes to sort. If nil, all nodes in the graph are sorted.
// When nodes is provided, only those nodes and their transitive references are included.
func Sort(g Graph, nodes []string) ([]string, error) {
	if nodes == nil {
		nodes = g.keys()
	}

	var result []string
	visited := make(map[string]bool)
	var stack []string
	onStack := make(map[string]bool)

	var visit func(name string) error
	visit = func(name string) error {
		if onStack[name] {
			return fmt.Errorf("circular reference: %s", FormatCycle(cycleFrom(stack, name)))
		}
		if visited[name] {
			return nil
		}
		deps, exists := g[name]
		if !exists {
			return nil
		}

		onStack[name] = true
		stack = append(stack, name)
		for _, dep := range deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		onStack[name] = false
		visited[name] = true
		result = append(result, name)
		return nil
	}

	for _, name := range nodes {
		if _, ok := g[name]; !ok {
			return nil, fmt.Errorf("node %q not found in graph", name)
		}
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Cycles returns every reference cycle reachable in g, each starting at its
// smallest key. Nodes are visited in key order so the result is stable.
func Cycles(g Graph) [][]string {
	var cycles [][]string
	seen := make(map[string]bool)
	visited := make(map[string]bool)
	var stack []string
	onStack := make(map[string]bool)

	var visit func(name string)
	visit = func(name string) {
		onStack[name] = true
		stack = append(stack, name)
		for _, dep := range g[name] {
			if _, ok := g[dep]; !ok {
				continue
			}
			if onStack[dep] {
				c := normalize(cycleFrom(stack, dep))
				if id := strings.Join(c, "\x00"); !seen[id] {
					seen[id] = true
					cycles = append(cycles, c)
				}
				continue
			}
			if !visited[dep] {
				visit(dep)
			}
		}
		stack = stack[:len(stack)-1]
		onStack[name] = false
		visited[name] = true
	}

	for _, name := range g.keys() {
		if !visited[name] {
			visit(name)
		}
	}
	return cycles
}

// FormatCycle renders a cycle as "a -> b -> a".
func FormatCycle(cycle []string) string {
	if len(cycle) == 0 {
		return ""
	}
	return strings.Join(append(append([]string(nil), cycle...), cycle[0]), " -> ")
}

func (g Graph) keys() []string {
	keys := make([]string, 0, len(g))
	for name := range g {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}

func cycleFrom(stack []string, start string) []string {
	for i, name := range stack {
		if name == start {
			return append([]string(nil), stack[i:]...)
		}
	}
	return []string{start}
}

// normalize rotates a cycle so it starts at its smallest key.
func normalize(cycle []string) []string {
	lo := 0
	for i := range cycle {
		if cycle[i] < cycle[lo] {
			lo = i
		}
	}
	return append(append([]string(nil), cycle[lo:]...), cycle[:lo]...)
}
