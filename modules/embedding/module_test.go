package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/vk/blockgraph/internal/document"
	"github.com/vk/blockgraph/internal/nodetype"
	"github.com/vk/blockgraph/internal/registry"
)

func buildRef(t *testing.T, cfg document.Config) (any, error) {
	t.Helper()
	r := registry.New()
	r.Install(&Module{})
	s, err := r.ReferenceStrategy(nodetype.Embedding)
	require.NoError(t, err)
	return s.BuildReference(context.Background(), document.ReferenceDef{Name: "emb", Type: nodetype.Embedding, Config: cfg}, "", registry.Resources{})
}

func TestDummy(t *testing.T) {
	v, err := buildRef(t, document.Config{"provider": ProviderDummy})
	require.NoError(t, err)
	emb, ok := v.(embeddings.Embedder)
	require.True(t, ok)

	q, err := emb.EmbedQuery(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.1, 0.1}, q)

	docs, err := emb.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	v, err = buildRef(t, document.Config{"provider": ProviderDummy, "param": map[string]any{"dimension": 5}})
	require.NoError(t, err)
	q, _ = v.(*Dummy).EmbedQuery(context.Background(), "")
	assert.Len(t, q, 5)
	assert.Equal(t, "dummy/5", v.(*Dummy).Identity())

	_, err = buildRef(t, document.Config{"provider": ProviderDummy, "param": map[string]any{"dimension": 0}})
	assert.ErrorContains(t, err, "must be positive")
}

func TestUnsupportedProvider(t *testing.T) {
	_, err := buildRef(t, document.Config{"provider": "word2vec"})
	assert.ErrorContains(t, err, `unsupported embedding provider "word2vec"`)
}

func TestOpenAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-test", req.Model)

		resp := openai.EmbeddingResponse{}
		for i := range req.Input {
			// Reverse order to check results are placed by index.
			idx := len(req.Input) - 1 - i
			resp.Data = append(resp.Data, openai.Embedding{Index: idx, Embedding: []float32{float32(idx), 1}})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	t.Setenv("EMB_TEST_KEY", "sk-test")
	v, err := buildRef(t, document.Config{
		"provider":    ProviderOpenAI,
		"api_key_env": "EMB_TEST_KEY",
		"base_url":    srv.URL,
		"param":       map[string]any{"model": "text-embedding-test"},
	})
	require.NoError(t, err)
	emb := v.(embeddings.Embedder)

	vs, err := emb.EmbedDocuments(context.Background(), []string{"x", "y", "z"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 1}, {1, 1}, {2, 1}}, vs)

	q, err := emb.EmbedQuery(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, q)
	assert.Equal(t, "openai/text-embedding-test", v.(*OpenAI).Identity())
}
