package compiler

import (
	"context"
	"errors"
	"slices"

	"github.com/vk/blockgraph/internal/document"
	"github.com/vk/blockgraph/internal/engine"
	"github.com/vk/blockgraph/internal/node"
	"github.com/vk/blockgraph/internal/resolver"
	"github.com/vk/blockgraph/internal/state"
)

// Graph is a compiled document.
type Graph struct {
	path     string
	doc      *document.Document
	refs     *resolver.Set
	nodes    []*node.Runnable
	children []*Graph
	// subgraphs maps sub-graph node names to their compiled graphs.
	subgraphs map[string]*Graph
	keys      state.KeySet
	exe       *engine.Executable
}

// Path is the identity of the compiled document.
func (g *Graph) Path() string {
	return g.path
}

// StateKeys returns the sorted set of state keys the graph and all its
// sub-graphs read or write.
func (g *Graph) StateKeys() []string {
	return g.keys.Sorted()
}

// References returns the built reference values by name.
func (g *Graph) References() map[string]any {
	return g.refs.Resources
}

// Invoke runs the graph on initial and returns the final state. A document
// without nodes returns a copy of initial.
func (g *Graph) Invoke(ctx context.Context, initial state.State) (state.State, error) {
	if g.exe == nil {
		return initial.Clone(), nil
	}
	return g.exe.Invoke(ctx, initial)
}

// Close releases the references of every sub-graph and then of this graph,
// in reverse build order.
func (g *Graph) Close() error {
	var errs []error
	for _, child := range slices.Backward(g.children) {
		errs = append(errs, child.Close())
	}
	errs = append(errs, g.refs.Close())
	return errors.Join(errs...)
}

// Summary is a printable description of a compiled graph.
type Summary struct {
	Path       string        `json:"path" yaml:"path"`
	References []string      `json:"references,omitempty" yaml:"references,omitempty"`
	Nodes      []NodeSummary `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Edges      []string      `json:"edges,omitempty" yaml:"edges,omitempty"`
	StateKeys  []string      `json:"state_keys" yaml:"state_keys"`
}

// NodeSummary describes one node. Subgraph is set for sub-graph nodes.
type NodeSummary struct {
	Name     string   `json:"name" yaml:"name"`
	Type     string   `json:"type" yaml:"type"`
	Inputs   []string `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs  []string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Subgraph *Summary `json:"subgraph,omitempty" yaml:"subgraph,omitempty"`
}

// Describe summarises the graph, recursing into sub-graphs.
func (g *Graph) Describe() Summary {
	s := Summary{
		Path:       g.path,
		References: slices.Clone(g.refs.Order),
		StateKeys:  g.StateKeys(),
	}

	for _, n := range g.nodes {
		ns := NodeSummary{Name: n.Name, Type: n.Type, Inputs: n.InputKeys, Outputs: n.OutputKeys}
		if child, ok := g.subgraphs[n.Name]; ok {
			sub := child.Describe()
			ns.Subgraph = &sub
		}
		s.Nodes = append(s.Nodes, ns)
	}
	for _, e := range g.doc.Edges {
		s.Edges = append(s.Edges, e.String())
	}
	return s
}
