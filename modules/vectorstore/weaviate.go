package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

// DefaultClass is the Weaviate class used when param.class is empty.
const DefaultClass = "Document"

// Weaviate stores documents as objects of one class with client-side vectors.
// Metadata is kept as a JSON text property.
type Weaviate struct {
	client   *weaviate.Client
	class    string
	embedder embeddings.Embedder
}

var _ vectorstores.VectorStore = (*Weaviate)(nil)

// NewWeaviate connects to the Weaviate instance at rawURL.
func NewWeaviate(embedder embeddings.Embedder, rawURL, class string) (*Weaviate, error) {
	u, err := url.Parse(strings.Trim(rawURL, "\"' "))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid weaviate url %q", rawURL)
	}
	client, err := weaviate.NewClient(weaviate.Config{Host: u.Host, Scheme: u.Scheme})
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}
	if class == "" {
		class = DefaultClass
	}
	return &Weaviate{client: client, class: class, embedder: embedder}, nil
}

func (w *Weaviate) AddDocuments(ctx context.Context, docs []schema.Document, _ ...vectorstores.Option) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.PageContent
	}
	vectors, err := w.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}

	objects, ids, err := w.objects(docs, vectors)
	if err != nil {
		return nil, err
	}
	result, err := w.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("batch import failed: %w", err)
	}
	for _, obj := range result {
		if obj.Result != nil && obj.Result.Errors != nil {
			var msgs []string
			for _, item := range obj.Result.Errors.Error {
				msgs = append(msgs, item.Message)
			}
			return nil, fmt.Errorf("batch import of %s failed: %s", obj.ID, strings.Join(msgs, "; "))
		}
	}
	return ids, nil
}

func (w *Weaviate) objects(docs []schema.Document, vectors [][]float32) ([]*models.Object, []string, error) {
	if len(vectors) != len(docs) {
		return nil, nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}
	objects := make([]*models.Object, len(docs))
	ids := make([]string, len(docs))
	for i, d := range docs {
		meta, err := json.Marshal(d.Metadata)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode metadata: %w", err)
		}
		ids[i] = uuid.NewString()
		objects[i] = &models.Object{
			Class:  w.class,
			ID:     strfmt.UUID(ids[i]),
			Vector: vectors[i],
			Properties: map[string]any{
				"content":  d.PageContent,
				"metadata": string(meta),
			},
		}
	}
	return objects, ids, nil
}

func (w *Weaviate) SimilaritySearch(ctx context.Context, query string, k int, _ ...vectorstores.Option) ([]schema.Document, error) {
	vec, err := w.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "metadata"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
	}
	result, err := w.client.GraphQL().Get().
		WithClassName(w.class).
		WithFields(fields...).
		WithNearVector(w.client.GraphQL().NearVectorArgBuilder().WithVector(vec)).
		WithLimit(k).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate search failed: %w", err)
	}
	return parseSearch(result, w.class)
}

func parseSearch(result *models.GraphQLResponse, class string) ([]schema.Document, error) {
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("search error: %s", result.Errors[0].Message)
	}
	data, ok := result.Data["Get"].(map[string]any)
	if !ok {
		return nil, nil
	}
	objects, ok := data[class].([]any)
	if !ok {
		return nil, nil
	}

	docs := make([]schema.Document, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]any)
		if !ok {
			continue
		}
		doc := schema.Document{}
		doc.PageContent, _ = m["content"].(string)
		if raw, _ := m["metadata"].(string); raw != "" && raw != "null" {
			if err := json.Unmarshal([]byte(raw), &doc.Metadata); err != nil {
				return nil, fmt.Errorf("bad metadata on search hit: %w", err)
			}
		}
		if add, ok := m["_additional"].(map[string]any); ok {
			if c, ok := add["certainty"].(float64); ok {
				doc.Score = float32(c)
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
