// Package node defines the runnable unit the execution engine drives and the
// shared lifecycle of function-backed nodes.
package node

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/blockgraph/internal/ctxlog"
	"github.com/vk/blockgraph/internal/state"
)

// Func computes a partial state update from the current state.
type Func func(ctx context.Context, s state.State) (state.State, error)

// Resources maps reference names to the values built for them.
type Resources map[string]any

// Runnable is one vertex of an executable graph.
type Runnable struct {
	// Name is the node name from the document.
	Name string
	// Type is the node's type tag.
	Type string
	// InputKeys are the state keys the node reads.
	InputKeys []string
	// OutputKeys are the state keys the node writes.
	OutputKeys []string
	// ExtraKeys are further state keys the node touches, such as the keys of
	// an embedded sub-graph.
	ExtraKeys []string
	Fn        Func
}

// StateKeys returns every state key the node reads or writes.
func (r *Runnable) StateKeys() state.KeySet {
	ks := state.NewKeySet(r.InputKeys...)
	ks.Add(r.OutputKeys...)
	ks.Add(r.ExtraKeys...)
	return ks
}

// Invoke runs the node against s.
func (r *Runnable) Invoke(ctx context.Context, s state.State) (state.State, error) {
	logger := ctxlog.FromContext(ctx).With("node", r.Name, "type", r.Type)
	logger.Debug("Node invoked.")
	update, err := r.Fn(ctx, s)
	if err != nil {
		return nil, err
	}
	logger.Debug("Node finished.", "updated_keys", len(update))
	return update, nil
}

// MissingInputError is returned when declared input keys are absent from the state.
type MissingInputError struct {
	Node string
	Keys []string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("node %q: missing input keys in state: %s", e.Node, strings.Join(e.Keys, ", "))
}

// ArityError is returned when a result cannot be paired with the declared
// output keys. Actual is -1 when the result was not a sequence at all.
type ArityError struct {
	Node     string
	Expected int
	Keys     []string
	Actual   int
}

func (e *ArityError) Error() string {
	if e.Actual < 0 {
		return fmt.Sprintf("node %q: expected %d outputs %v, got a non-sequence", e.Node, e.Expected, e.Keys)
	}
	return fmt.Sprintf("node %q: expected %d outputs %v, got %d", e.Node, e.Expected, e.Keys, e.Actual)
}
