package dag

import (
	"cmp"
	"fmt"
	"slices"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{
		id:         id,
		index:      len(g.order),
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	g.order = append(g.order, id)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.order)
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode

	return nil
}

// TopologicalSort orders all nodes so that every node comes after the nodes
// it depends on, using Kahn's algorithm. Ready nodes are taken in insertion
// order. If some nodes cannot be ordered, a *CycleError listing them is returned.
func (g *Graph) TopologicalSort() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	inDegree := make(map[string]int, len(g.nodes))
	var queue []*node
	for _, id := range g.order {
		n := g.nodes[id]
		inDegree[id] = len(n.deps)
		if len(n.deps) == 0 {
			queue = append(queue, n)
		}
	}

	sorted := make([]string, 0, len(g.order))
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		sorted = append(sorted, cur.id)

		for _, dep := range sortedNodes(cur.dependents) {
			inDegree[dep.id]--
			if inDegree[dep.id] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(sorted) < len(g.order) {
		var remaining []string
		for _, id := range g.order {
			if inDegree[id] > 0 {
				remaining = append(remaining, id)
			}
		}
		return nil, &CycleError{Remaining: remaining}
	}
	return sorted, nil
}

func sortedNodes(m map[string]*node) []*node {
	out := make([]*node, 0, len(m))
	for _, n := range m {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b *node) int { return cmp.Compare(a.index, b.index) })
	return out
}
