package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/blockgraph/internal/document"
	"github.com/vk/blockgraph/internal/node"
	"github.com/vk/blockgraph/internal/nodetype"
)

// NodeStrategy builds a runnable node from its definition.
type NodeStrategy interface {
	BuildNode(ctx context.Context, def document.NodeDef, baseDir string, res Resources) (*node.Runnable, error)
}

// ReferenceStrategy builds the shared value a reference stands for.
type ReferenceStrategy interface {
	BuildReference(ctx context.Context, def document.ReferenceDef, baseDir string, res Resources) (any, error)
}

// NodeStrategyFunc adapts a function to NodeStrategy.
type NodeStrategyFunc func(ctx context.Context, def document.NodeDef, baseDir string, res Resources) (*node.Runnable, error)

func (f NodeStrategyFunc) BuildNode(ctx context.Context, def document.NodeDef, baseDir string, res Resources) (*node.Runnable, error) {
	return f(ctx, def, baseDir, res)
}

// ReferenceStrategyFunc adapts a function to ReferenceStrategy.
type ReferenceStrategyFunc func(ctx context.Context, def document.ReferenceDef, baseDir string, res Resources) (any, error)

func (f ReferenceStrategyFunc) BuildReference(ctx context.Context, def document.ReferenceDef, baseDir string, res Resources) (any, error) {
	return f(ctx, def, baseDir, res)
}

// RegisterNode registers the strategy for an execution tag.
func (r *Registry) RegisterNode(tag string, s NodeStrategy) {
	if nodetype.Classify(tag) != nodetype.Execution {
		panic(fmt.Sprintf("'%s' is not an execution node type", tag))
	}
	if _, exists := r.nodes[tag]; exists {
		panic(fmt.Sprintf("node strategy for '%s' already registered", tag))
	}
	slog.Debug("Registering node strategy.", "type", tag)
	r.nodes[tag] = s
}

// RegisterReference registers the strategy for a non-execution tag.
func (r *Registry) RegisterReference(tag string, s ReferenceStrategy) {
	if nodetype.Classify(tag) != nodetype.NonExecution {
		panic(fmt.Sprintf("'%s' is not a reference type", tag))
	}
	if _, exists := r.refs[tag]; exists {
		panic(fmt.Sprintf("reference strategy for '%s' already registered", tag))
	}
	slog.Debug("Registering reference strategy.", "type", tag)
	r.refs[tag] = s
}
