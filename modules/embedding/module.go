// Package embedding provides the "embedding" reference type. Every provider
// builds a langchaingo embeddings.Embedder.
package embedding

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/vk/blockgraph/internal/document"
	"github.com/vk/blockgraph/internal/nodetype"
	"github.com/vk/blockgraph/internal/openaiclient"
	"github.com/vk/blockgraph/internal/registry"
)

// Providers.
const (
	ProviderOpenAI = "openai"
	ProviderDummy  = "dummy"
)

// Defaults of the dummy provider.
const (
	DefaultDimension = 3
	DummyVectorValue = 0.1
)

// DefaultOpenAIModel is used when param.model is empty.
const DefaultOpenAIModel = openai.SmallEmbedding3

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the embedding reference strategy.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterReference(nodetype.Embedding, registry.ReferenceStrategyFunc(build))
}

func build(_ context.Context, def document.ReferenceDef, _ string, _ registry.Resources) (any, error) {
	param := def.Config.Param()
	switch provider := def.Config.String("provider"); provider {
	case ProviderDummy:
		dim := param.Int("dimension", DefaultDimension)
		if dim <= 0 {
			return nil, fmt.Errorf("param.dimension must be positive, got %d", dim)
		}
		return &Dummy{Dimension: dim}, nil
	case ProviderOpenAI, "":
		client, err := openaiclient.New(def.Config)
		if err != nil {
			return nil, err
		}
		model := openai.EmbeddingModel(param.String("model"))
		if model == "" {
			model = DefaultOpenAIModel
		}
		return &OpenAI{client: client, model: model}, nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", provider)
	}
}

// Dummy returns the same constant vector for every text.
type Dummy struct {
	Dimension int
}

var _ embeddings.Embedder = (*Dummy)(nil)

func (d *Dummy) vector() []float32 {
	v := make([]float32, d.Dimension)
	for i := range v {
		v[i] = DummyVectorValue
	}
	return v
}

// Identity names the provider and dimension.
func (d *Dummy) Identity() string {
	return fmt.Sprintf("%s/%d", ProviderDummy, d.Dimension)
}

func (d *Dummy) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = d.vector()
	}
	return out, nil
}

func (d *Dummy) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return d.vector(), nil
}

// OpenAI embeds texts through the embeddings endpoint.
type OpenAI struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

var _ embeddings.Embedder = (*OpenAI)(nil)

// Identity names the provider and model.
func (o *OpenAI) Identity() string {
	return fmt.Sprintf("%s/%s", ProviderOpenAI, o.model)
}

func (o *OpenAI) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{Input: texts, Model: o.model})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embeddings call failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("OpenAI returned %d embeddings for %d texts", len(resp.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, e := range resp.Data {
		if e.Index < 0 || e.Index >= len(out) {
			return nil, fmt.Errorf("OpenAI returned embedding index %d out of range", e.Index)
		}
		out[e.Index] = e.Embedding
	}
	return out, nil
}

func (o *OpenAI) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vs, err := o.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}
