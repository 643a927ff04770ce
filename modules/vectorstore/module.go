// Package vectorstore provides the "vector_store" reference type and the
// "data_saver" and "retriever" nodes that use it.
package vectorstore

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/tmc/langchaingo/embeddings"

	"github.com/vk/blockgraph/internal/ctxlog"
	"github.com/vk/blockgraph/internal/document"
	"github.com/vk/blockgraph/internal/nodetype"
	"github.com/vk/blockgraph/internal/registry"
)

// Providers.
const (
	ProviderMemory   = "memory"
	ProviderWeaviate = "weaviate"
)

// Reference roles.
const (
	RoleEmbedding   = "embedding"
	RoleVectorStore = "vector_store"
)

var defaultCache = NewCache()

// Module implements the registry.Module interface for this package.
type Module struct {
	// Cache shares persisted memory stores. Nil uses a process-wide cache.
	Cache *Cache
}

// Register registers the vector_store reference and the data_saver and
// retriever nodes.
func (m *Module) Register(r *registry.Registry) {
	cache := m.Cache
	if cache == nil {
		cache = defaultCache
	}
	r.RegisterReference(nodetype.VectorStore, registry.ReferenceStrategyFunc(
		func(ctx context.Context, def document.ReferenceDef, baseDir string, res registry.Resources) (any, error) {
			return buildStore(ctx, cache, def, baseDir, res)
		}))
	r.RegisterNode(nodetype.DataSaver, registry.NodeStrategyFunc(buildSaver))
	r.RegisterNode(nodetype.Retriever, registry.NodeStrategyFunc(buildRetriever))
}

func buildStore(ctx context.Context, cache *Cache, def document.ReferenceDef, baseDir string, res registry.Resources) (any, error) {
	name := def.Config.Reference(RoleEmbedding)
	if name == "" {
		return nil, fmt.Errorf("config.reference.%s is required", RoleEmbedding)
	}
	embedder, err := registry.Lookup[embeddings.Embedder](res, name)
	if err != nil {
		return nil, err
	}

	param := def.Config.Param()
	switch provider := def.Config.String("provider"); provider {
	case ProviderMemory, "":
		path := param.String("path")
		if path == "" {
			return NewMemory(embedder), nil
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		ctxlog.FromContext(ctx).Debug("Opening persisted vector store.", "path", path)
		return cache.Acquire(cacheKey(path, embedder), func() (*Memory, error) {
			return OpenMemory(embedder, path)
		})
	case ProviderWeaviate:
		return NewWeaviate(embedder, param.String("url"), param.String("class"))
	default:
		return nil, fmt.Errorf("unsupported vector store provider %q", provider)
	}
}
