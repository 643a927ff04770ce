package engine

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/vk/blockgraph/internal/node"
)

// Entry and exit markers. They cannot collide with document node names, which
// use the upper-case START and END sentinels instead.
const (
	Start = "__start__"
	End   = "__end__"
)

// DefaultStepLimit bounds the number of supersteps per invocation.
const DefaultStepLimit = 25

// ErrInvalidGraph is returned by Compile for structurally broken graphs.
var ErrInvalidGraph = errors.New("invalid state graph")

type branch struct {
	label string
	to    string
}

// StateGraph is the mutable builder for an Executable.
type StateGraph struct {
	nodes    map[string]*node.Runnable
	order    []string
	edges    map[string][]string
	branches map[string][]branch
	errs     []error
}

// NewStateGraph creates an empty graph.
func NewStateGraph() *StateGraph {
	return &StateGraph{
		nodes:    make(map[string]*node.Runnable),
		edges:    make(map[string][]string),
		branches: make(map[string][]branch),
	}
}

// AddNode adds r under r.Name.
func (g *StateGraph) AddNode(r *node.Runnable) error {
	switch {
	case r == nil || r.Fn == nil:
		return fmt.Errorf("%w: node must have a function", ErrInvalidGraph)
	case r.Name == Start || r.Name == End:
		return fmt.Errorf("%w: node name %q is reserved", ErrInvalidGraph, r.Name)
	}
	if _, exists := g.nodes[r.Name]; exists {
		return fmt.Errorf("%w: node %q already added", ErrInvalidGraph, r.Name)
	}
	g.nodes[r.Name] = r
	g.order = append(g.order, r.Name)
	return nil
}

// AddEdge adds an unconditional transition. Endpoints are checked by Compile.
func (g *StateGraph) AddEdge(from, to string) {
	if !slices.Contains(g.edges[from], to) {
		g.edges[from] = append(g.edges[from], to)
	}
}

// AddConditionalEdge adds a transition taken when the state's route field
// equals label after from has run.
func (g *StateGraph) AddConditionalEdge(from, label, to string) {
	if label == "" {
		g.errs = append(g.errs, fmt.Errorf("%w: conditional edge %s -> %s has an empty label", ErrInvalidGraph, from, to))
		return
	}
	g.branches[from] = append(g.branches[from], branch{label: label, to: to})
}

// Option configures an Executable.
type Option func(*Executable)

// WithStepLimit overrides DefaultStepLimit.
func WithStepLimit(n int) Option {
	return func(e *Executable) {
		if n > 0 {
			e.stepLimit = n
		}
	}
}

// WithName labels the executable in logs.
func WithName(name string) Option {
	return func(e *Executable) { e.name = name }
}

// Compile checks the graph and freezes it into an Executable.
func (g *StateGraph) Compile(opts ...Option) (*Executable, error) {
	errs := slices.Clone(g.errs)
	checkFrom := func(from string) {
		if from != Start && g.nodes[from] == nil {
			errs = append(errs, fmt.Errorf("%w: edge source %q is not a node", ErrInvalidGraph, from))
		}
	}
	checkTo := func(from, to string) {
		if to != End && g.nodes[to] == nil {
			errs = append(errs, fmt.Errorf("%w: edge %s -> %s targets an unknown node", ErrInvalidGraph, from, to))
		}
	}

	for _, from := range slices.Sorted(maps.Keys(g.edges)) {
		checkFrom(from)
		for _, to := range g.edges[from] {
			checkTo(from, to)
		}
	}
	for _, from := range slices.Sorted(maps.Keys(g.branches)) {
		checkFrom(from)
		for _, b := range g.branches[from] {
			checkTo(from, b.to)
		}
	}
	if len(g.edges[Start]) == 0 && len(g.branches[Start]) == 0 {
		errs = append(errs, fmt.Errorf("%w: no edge leaves the entry point", ErrInvalidGraph))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	e := &Executable{
		nodes:     maps.Clone(g.nodes),
		order:     slices.Clone(g.order),
		edges:     cloneLists(g.edges),
		branches:  cloneLists(g.branches),
		stepLimit: DefaultStepLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func cloneLists[V any](m map[string][]V) map[string][]V {
	out := make(map[string][]V, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}
