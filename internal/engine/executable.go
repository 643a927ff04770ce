package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/vk/blockgraph/internal/ctxlog"
	"github.com/vk/blockgraph/internal/node"
	"github.com/vk/blockgraph/internal/state"
)

var (
	// ErrNoRoute is returned when a node has only conditional edges and none
	// matches the current route.
	ErrNoRoute = errors.New("no conditional edge matches route")
	// ErrStepLimit is returned when an invocation runs more supersteps than allowed.
	ErrStepLimit = errors.New("step limit exceeded")
)

// NodeError wraps a failure raised by a node.
type NodeError struct {
	Node string
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q failed: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// Executable is a compiled, immutable StateGraph. It is safe for concurrent
// invocations as long as its nodes are.
type Executable struct {
	name      string
	nodes     map[string]*node.Runnable
	order     []string
	edges     map[string][]string
	branches  map[string][]branch
	stepLimit int
}

// Nodes returns node names in the order they were added.
func (e *Executable) Nodes() []string {
	return slices.Clone(e.order)
}

// Invoke runs the graph from the entry point until every path reaches the
// exit or no successors remain. initial is not modified.
func (e *Executable) Invoke(ctx context.Context, initial state.State) (state.State, error) {
	runID := uuid.NewString()
	logger := ctxlog.FromContext(ctx).With("run_id", runID)
	if e.name != "" {
		logger = logger.With("graph", e.name)
	}
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Graph invocation started.", "state_keys", len(initial))

	s, err := e.run(ctx, initial.Clone())
	if err != nil {
		graphInvocations.WithLabelValues(resultError).Inc()
		logger.Debug("Graph invocation failed.", "error", err)
		return nil, err
	}
	graphInvocations.WithLabelValues(resultOK).Inc()
	logger.Debug("Graph invocation finished.", "state_keys", len(s))
	return s, nil
}

func (e *Executable) run(ctx context.Context, s state.State) (state.State, error) {
	frontier, err := e.successors(Start, s)
	if err != nil {
		return nil, err
	}

	for step := 1; len(frontier) > 0; step++ {
		if step > e.stepLimit {
			return nil, fmt.Errorf("%w: %d supersteps (pending: %v)", ErrStepLimit, e.stepLimit, frontier)
		}

		var next []string
		for _, name := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := e.runNode(ctx, name, s); err != nil {
				return nil, err
			}
			succ, err := e.successors(name, s)
			if err != nil {
				return nil, err
			}
			for _, n := range succ {
				if !slices.Contains(next, n) {
					next = append(next, n)
				}
			}
		}
		frontier = next
	}
	return s, nil
}

func (e *Executable) runNode(ctx context.Context, name string, s state.State) error {
	r := e.nodes[name]
	started := time.Now()
	update, err := r.Invoke(ctx, s)
	nodeDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())
	if err != nil {
		nodeExecutions.WithLabelValues(name, resultError).Inc()
		return &NodeError{Node: name, Err: err}
	}
	nodeExecutions.WithLabelValues(name, resultOK).Inc()
	s.Merge(update)
	return nil
}

// successors lists the nodes to run after from, given the state after from ran.
// The exit marker is dropped since it has nothing to run.
func (e *Executable) successors(from string, s state.State) ([]string, error) {
	var out []string
	for _, to := range e.edges[from] {
		if to != End {
			out = append(out, to)
		}
	}

	branches := e.branches[from]
	if len(branches) == 0 {
		return out, nil
	}

	route, _ := s.Route()
	matched := false
	for _, b := range branches {
		if b.label != route {
			continue
		}
		matched = true
		if b.to != End && !slices.Contains(out, b.to) {
			out = append(out, b.to)
		}
	}
	if !matched && len(e.edges[from]) == 0 {
		return nil, fmt.Errorf("%w: node %q has route %q", ErrNoRoute, from, route)
	}
	return out, nil
}
