package depgraph

import (
	"sort"
	"strings"

	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/errors"
)

// Graph maps a node id to the ids it depends on. Edges pointing at ids
// absent from the map are tolerated by CheckAcyclic (partial graphs are
// legal at registration time) and rejected by StartOrder (every dependency
// must be registered before it can be started).
type Graph map[string][]string

type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

// CheckAcyclic verifies that the dependency relation forms a DAG. On a
// cycle it returns a CyclicDependencyError naming the participating ids.
// Pure: no side effects, safe to call repeatedly with partial graphs.
func CheckAcyclic(graph Graph) error {
	states := make(map[string]visitState, len(graph))

	// Deterministic traversal order keeps cycle reports stable.
	nodes := make([]string, 0, len(graph))
	for id := range graph {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)

	var stack []string
	var walk func(id string) error
	walk = func(id string) error {
		states[id] = visiting
		stack = append(stack, id)

		for _, dep := range graph[id] {
			if _, known := graph[dep]; !known {
				continue
			}
			switch states[dep] {
			case visiting:
				return errors.NewCyclicDependencyError(
					"cyclic dependency detected: "+strings.Join(cycleFrom(stack, dep), " -> "),
					nil,
				).WithContext("cycle", cycleFrom(stack, dep))
			case unvisited:
				if err := walk(dep); err != nil {
					return err
				}
			}
		}

		stack = stack[:len(stack)-1]
		states[id] = visited
		return nil
	}

	for _, id := range nodes {
		if states[id] == unvisited {
			if err := walk(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// cycleFrom extracts the cycle members from the visiting stack, starting
// at the revisited node, and closes the loop.
func cycleFrom(stack []string, repeated string) []string {
	start := 0
	for i, id := range stack {
		if id == repeated {
			start = i
			break
		}
	}
	cycle := make([]string, 0, len(stack)-start+1)
	cycle = append(cycle, stack[start:]...)
	cycle = append(cycle, repeated)
	return cycle
}

// StartOrder returns the transitive dependencies of id, deduplicated, in
// dependencies-before-dependents order, excluding id itself. Every id in
// the result must be running before id may start. A dependency missing
// from the graph yields a NotFoundError.
func StartOrder(id string, graph Graph) ([]string, error) {
	if _, ok := graph[id]; !ok {
		return nil, errors.NewNotFoundError("service not found in graph", nil).WithContext("service_id", id)
	}

	seen := make(map[string]bool)
	var order []string

	var walk func(node string) error
	walk = func(node string) error {
		for _, dep := range graph[node] {
			if seen[dep] {
				continue
			}
			if _, known := graph[dep]; !known {
				return errors.NewNotFoundError("dependency not registered", nil).
					WithContext("service_id", node).WithContext("dependency_id", dep)
			}
			seen[dep] = true
			if err := walk(dep); err != nil {
				return err
			}
			order = append(order, dep)
		}
		return nil
	}

	if err := walk(id); err != nil {
		return nil, err
	}
	return order, nil
}

// Order returns every node of the graph in dependencies-before-dependents
// order. Used to stop services in reverse dependency order. Assumes the
// graph is acyclic (enforced at registration).
func Order(graph Graph) []string {
	nodes := make([]string, 0, len(graph))
	for id := range graph {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)

	seen := make(map[string]bool, len(graph))
	order := make([]string, 0, len(graph))

	var walk func(node string)
	walk = func(node string) {
		if seen[node] {
			return
		}
		seen[node] = true
		for _, dep := range graph[node] {
			if _, known := graph[dep]; known {
				walk(dep)
			}
		}
		order = append(order, node)
	}

	for _, id := range nodes {
		walk(id)
	}
	return order
}
