package dag

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrCycle is matched by every CycleError.
var ErrCycle = errors.New("dependency cycle detected")

// CycleError reports the nodes that could not be ordered because they sit on
// or behind a cycle.
type CycleError struct {
	Remaining []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s among: %s", ErrCycle, strings.Join(e.Remaining, ", "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycle
}

// Graph is a collection of nodes and their dependencies.
// All operations on the graph are concurrency-safe.
type Graph struct {
	// mutex protects the nodes map during concurrent access.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by their unique ID.
	nodes map[string]*node
	// order holds node IDs in insertion order.
	order []string
}

// node represents a single vertex in the graph. It is un-exported to
// enforce interaction with the graph via the public API (using string IDs),
// not by direct struct manipulation.
type node struct {
	id    string
	index int
	// deps holds the set of nodes that this node depends on (predecessors).
	deps map[string]*node
	// dependents holds the set of nodes that depend on this node (successors).
	dependents map[string]*node
}
