package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"

	"github.com/vk/blockgraph/internal/ctxlog"
	"github.com/vk/blockgraph/internal/docset"
	"github.com/vk/blockgraph/internal/document"
	"github.com/vk/blockgraph/internal/node"
	"github.com/vk/blockgraph/internal/registry"
)

// DefaultK is the number of documents a retriever returns by default.
const DefaultK = 4

// storeNode holds what data_saver and retriever share: the bound store and
// the argument names in declaration order.
type storeNode struct {
	storeName string
	args      []string
	store     vectorstores.VectorStore
}

func (s *storeNode) parse(def document.NodeDef) error {
	s.storeName = def.Config.Reference(RoleVectorStore)
	if s.storeName == "" {
		return fmt.Errorf("config.reference.%s is required", RoleVectorStore)
	}
	keys, err := node.ParseInputKeys(def.InputKeys)
	if err != nil {
		return err
	}
	for _, k := range keys {
		s.args = append(s.args, k.Dest)
	}
	return nil
}

func (s *storeNode) ImportTargetFunction(_ context.Context, res node.Resources) error {
	store, err := registry.Lookup[vectorstores.VectorStore](res, s.storeName)
	if err != nil {
		return err
	}
	s.store = store
	return nil
}

type saver struct {
	storeNode
}

func buildSaver(ctx context.Context, def document.NodeDef, baseDir string, res registry.Resources) (*node.Runnable, error) {
	return node.BuildFunction(ctx, def, baseDir, res, &saver{})
}

func (n *saver) ParseConfig(def document.NodeDef, _ string) error {
	return n.parse(def)
}

// CallTargetFunction stores every document found in the inputs, in input
// order.
func (n *saver) CallTargetFunction(ctx context.Context, inputs map[string]any) (any, error) {
	var docs []schema.Document
	for _, arg := range n.args {
		found, err := docset.FromValue(inputs[arg])
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", arg, err)
		}
		docs = append(docs, found...)
	}
	if _, err := n.store.AddDocuments(ctx, docs); err != nil {
		return nil, fmt.Errorf("failed to save documents: %w", err)
	}
	ctxlog.FromContext(ctx).Info("Documents saved.", "count", len(docs))
	return map[string]any{"status": "saved", "num_docs": len(docs)}, nil
}

type retriever struct {
	storeNode
	k int
}

func buildRetriever(ctx context.Context, def document.NodeDef, baseDir string, res registry.Resources) (*node.Runnable, error) {
	return node.BuildFunction(ctx, def, baseDir, res, &retriever{})
}

func (n *retriever) ParseConfig(def document.NodeDef, _ string) error {
	if err := n.parse(def); err != nil {
		return err
	}
	if len(n.args) == 0 {
		return errors.New("a retriever needs an input key holding the query")
	}
	n.k = def.Config.Param().Int("k", DefaultK)
	if n.k <= 0 {
		return fmt.Errorf("param.k must be positive, got %d", n.k)
	}
	return nil
}

// CallTargetFunction searches with the first input as the query.
func (n *retriever) CallTargetFunction(ctx context.Context, inputs map[string]any) (any, error) {
	query, ok := inputs[n.args[0]].(string)
	if !ok {
		return nil, fmt.Errorf("query %q must be a string, got %T", n.args[0], inputs[n.args[0]])
	}
	docs, err := n.store.SimilaritySearch(ctx, query, n.k)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	return docs, nil
}
