// Package textsplitter provides the "text_splitter" node type backed by
// langchaingo splitters.
package textsplitter

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/vk/blockgraph/internal/docset"
	"github.com/vk/blockgraph/internal/document"
	"github.com/vk/blockgraph/internal/node"
	"github.com/vk/blockgraph/internal/nodetype"
	"github.com/vk/blockgraph/internal/registry"
)

// Splitter kinds.
const (
	RecursiveCharacter = "recursive_character"
	Character          = "character"
	Markdown           = "markdown"
	Token              = "token"
)

// Defaults for chunking.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the text_splitter node strategy.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNode(nodetype.TextSplitter, registry.NodeStrategyFunc(
		func(ctx context.Context, def document.NodeDef, baseDir string, res registry.Resources) (*node.Runnable, error) {
			return node.BuildFunction(ctx, def, baseDir, res, &splitterNode{})
		}))
}

type splitterNode struct {
	args     []string
	splitter textsplitter.TextSplitter
}

func (n *splitterNode) ParseConfig(def document.NodeDef, _ string) error {
	keys, err := node.ParseInputKeys(def.InputKeys)
	if err != nil {
		return err
	}
	for _, k := range keys {
		n.args = append(n.args, k.Dest)
	}

	param := def.Config.Param()
	size := param.Int("chunk_size", DefaultChunkSize)
	overlap := param.Int("chunk_overlap", DefaultChunkOverlap)
	if size <= 0 {
		return fmt.Errorf("param.chunk_size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("param.chunk_overlap must be in [0, %d), got %d", size, overlap)
	}
	opts := []textsplitter.Option{
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
	}

	switch kind := param.String("splitter"); kind {
	case RecursiveCharacter, "":
		if seps := param.StringSlice("separators"); len(seps) > 0 {
			opts = append(opts, textsplitter.WithSeparators(seps))
		}
		n.splitter = textsplitter.NewRecursiveCharacter(opts...)
	case Character:
		sep := param.String("separator")
		if sep == "" {
			sep = "\n\n"
		}
		n.splitter = textsplitter.NewRecursiveCharacter(append(opts, textsplitter.WithSeparators([]string{sep}))...)
	case Markdown:
		n.splitter = textsplitter.NewMarkdownTextSplitter(opts...)
	case Token:
		n.splitter = textsplitter.NewTokenSplitter(opts...)
	default:
		return fmt.Errorf("unsupported splitter %q", kind)
	}
	return nil
}

func (n *splitterNode) ImportTargetFunction(context.Context, node.Resources) error {
	return nil
}

// CallTargetFunction splits the documents of every input, in input order.
// Chunks keep the metadata of the document they came from.
func (n *splitterNode) CallTargetFunction(_ context.Context, inputs map[string]any) (any, error) {
	values := make([]any, len(n.args))
	for i, arg := range n.args {
		values[i] = inputs[arg]
	}
	docs, err := docset.FromValues(values...)
	if err != nil {
		return nil, err
	}
	chunks, err := textsplitter.SplitDocuments(n.splitter, docs)
	if err != nil {
		return nil, fmt.Errorf("failed to split documents: %w", err)
	}
	return chunks, nil
}
