package vectorstore

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/vk/blockgraph/internal/document"
	"github.com/vk/blockgraph/internal/nodetype"
	"github.com/vk/blockgraph/internal/registry"
	"github.com/vk/blockgraph/internal/state"
	"github.com/vk/blockgraph/modules/embedding"
)

// letterEmbedder maps a text to (count of 'a', count of 'b').
type letterEmbedder struct{}

func (letterEmbedder) vec(s string) []float32 {
	return []float32{float32(strings.Count(s, "a")), float32(strings.Count(s, "b"))}
}

func (e *letterEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vec(t)
	}
	return out, nil
}

func (e *letterEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.vec(text), nil
}

func contents(docs []schema.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.PageContent
	}
	return out
}

func TestMemory_SimilaritySearch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(&letterEmbedder{})
	_, err := m.AddDocuments(ctx, []schema.Document{
		{PageContent: "aaa"},
		{PageContent: "bbb", Metadata: map[string]any{"source": "b.txt"}},
		{PageContent: "ab"},
		{PageContent: "ba"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, m.Len())

	docs, err := m.SimilaritySearch(ctx, "bbbb", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"bbb", "ab"}, contents(docs))
	assert.Equal(t, "b.txt", docs[0].Metadata["source"])
	assert.InDelta(t, 0.5, docs[0].Score, 1e-6)

	// Ties keep insertion order.
	docs, err = m.SimilaritySearch(ctx, "ab", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"ab", "ba", "aaa"}, contents(docs))

	docs, err = m.SimilaritySearch(ctx, "a", 10)
	require.NoError(t, err)
	assert.Len(t, docs, 4)
}

func TestMemory_Persistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	emb := &letterEmbedder{}

	m, err := OpenMemory(emb, dir)
	require.NoError(t, err)
	_, err = m.AddDocuments(ctx, []schema.Document{{PageContent: "aa"}, {PageContent: "bb", Metadata: map[string]any{"n": "1"}}})
	require.NoError(t, err)
	require.NoError(t, m.Close())

	m, err = OpenMemory(emb, dir)
	require.NoError(t, err)
	defer m.Close()
	assert.Equal(t, 2, m.Len())

	docs, err := m.SimilaritySearch(ctx, "b", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"bb"}, contents(docs))
	assert.Equal(t, "1", docs[0].Metadata["n"])
}

func TestCacheKey(t *testing.T) {
	a := &embedding.Dummy{Dimension: 3}
	b := &embedding.Dummy{Dimension: 3}
	assert.Equal(t, cacheKey("/idx", a), cacheKey("/idx", b), "equal configurations share a store")
	assert.NotEqual(t, cacheKey("/idx", a), cacheKey("/idx", &embedding.Dummy{Dimension: 4}))
	assert.NotEqual(t, cacheKey("/idx", a), cacheKey("/other", b))

	e1, e2 := new(int), new(int)
	assert.NotEqual(t, cacheKey("/idx", e1), cacheKey("/idx", e2), "embedders without an identity are told apart by pointer")
}

func TestCache_SharesAndReleases(t *testing.T) {
	dir := t.TempDir()
	emb := &letterEmbedder{}
	c := NewCache()
	key := cacheKey(dir, emb)

	var mu sync.Mutex
	opens := 0
	open := func() (*Memory, error) {
		mu.Lock()
		opens++
		mu.Unlock()
		return OpenMemory(emb, dir)
	}

	var wg sync.WaitGroup
	handles := make([]*Shared, 8)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := c.Acquire(key, open)
			assert.NoError(t, err)
			handles[i] = h
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, opens)
	assert.Equal(t, 1, c.Len())
	for _, h := range handles[1:] {
		assert.Same(t, handles[0].Memory, h.Memory)
	}

	for _, h := range handles[:7] {
		require.NoError(t, h.Close())
	}
	assert.Equal(t, 1, c.Len())
	require.NoError(t, handles[7].Close())
	require.NoError(t, handles[7].Close())
	assert.Equal(t, 0, c.Len())

	// The directory can be opened again once released.
	h, err := c.Acquire(key, open)
	require.NoError(t, err)
	assert.Equal(t, 2, opens)
	require.NoError(t, h.Close())
}

func newRegistry(cache *Cache) *registry.Registry {
	r := registry.New()
	r.Install(&Module{Cache: cache})
	return r
}

func TestBuildStore(t *testing.T) {
	r := newRegistry(NewCache())
	s, err := r.ReferenceStrategy(nodetype.VectorStore)
	require.NoError(t, err)
	res := registry.Resources{"emb": &letterEmbedder{}}

	v, err := s.BuildReference(context.Background(), document.ReferenceDef{
		Name:   "store",
		Config: document.Config{"reference": map[string]any{"embedding": "emb"}},
	}, "", res)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, v)

	baseDir := t.TempDir()
	v, err = s.BuildReference(context.Background(), document.ReferenceDef{
		Name: "store",
		Config: document.Config{
			"provider":  ProviderMemory,
			"reference": map[string]any{"embedding": "emb"},
			"param":     map[string]any{"path": "index"},
		},
	}, baseDir, res)
	require.NoError(t, err)
	shared, ok := v.(*Shared)
	require.True(t, ok)
	require.NoError(t, shared.Close())

	_, err = s.BuildReference(context.Background(), document.ReferenceDef{Name: "store"}, "", res)
	assert.ErrorContains(t, err, "config.reference.embedding is required")

	_, err = s.BuildReference(context.Background(), document.ReferenceDef{
		Name:   "store",
		Config: document.Config{"reference": map[string]any{"embedding": "missing"}},
	}, "", res)
	assert.ErrorContains(t, err, `reference "missing" has not been built`)

	_, err = s.BuildReference(context.Background(), document.ReferenceDef{
		Name:   "store",
		Config: document.Config{"provider": "pinecone", "reference": map[string]any{"embedding": "emb"}},
	}, "", res)
	assert.ErrorContains(t, err, `unsupported vector store provider "pinecone"`)

	_, err = s.BuildReference(context.Background(), document.ReferenceDef{
		Name: "store",
		Config: document.Config{
			"provider":  ProviderWeaviate,
			"reference": map[string]any{"embedding": "emb"},
			"param":     map[string]any{"url": "not a url"},
		},
	}, "", res)
	assert.ErrorContains(t, err, "invalid weaviate url")
}

func TestSaverAndRetriever(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(NewCache())
	store := NewMemory(&letterEmbedder{})
	var vs vectorstores.VectorStore = store
	res := registry.Resources{"store": vs}
	refs := map[string]any{"vector_store": "store"}

	saverStrategy, err := r.NodeStrategy(nodetype.DataSaver)
	require.NoError(t, err)
	saver, err := saverStrategy.BuildNode(ctx, document.NodeDef{
		Name:      "save",
		Type:      nodetype.DataSaver,
		InputKeys: []string{"chunks", "extra"},
		OutputKey: document.SingleOutput("save_result"),
		Config:    document.Config{"reference": refs},
	}, "", res)
	require.NoError(t, err)

	update, err := saver.Invoke(ctx, state.State{
		"chunks": []schema.Document{{PageContent: "aaaa"}, {PageContent: "bbbb"}},
		"extra":  []any{"ab", map[string]any{"page_content": "abab", "metadata": map[string]any{"k": "v"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "saved", "num_docs": 4}, update["save_result"])
	assert.Equal(t, 4, store.Len())

	retrieverStrategy, err := r.NodeStrategy(nodetype.Retriever)
	require.NoError(t, err)
	ret, err := retrieverStrategy.BuildNode(ctx, document.NodeDef{
		Name:      "retrieve",
		Type:      nodetype.Retriever,
		InputKeys: []string{"question -> query"},
		OutputKey: document.SingleOutput("docs"),
		Config:    document.Config{"reference": refs, "param": map[string]any{"k": 2}},
	}, "", res)
	require.NoError(t, err)

	update, err = ret.Invoke(ctx, state.State{"question": "bbb"})
	require.NoError(t, err)
	docs, ok := update["docs"].([]schema.Document)
	require.True(t, ok)
	assert.Equal(t, []string{"bbbb", "ab"}, contents(docs))

	_, err = ret.Invoke(ctx, state.State{"question": 42})
	assert.ErrorContains(t, err, "must be a string")

	_, err = retrieverStrategy.BuildNode(ctx, document.NodeDef{
		Name:   "retrieve",
		Type:   nodetype.Retriever,
		Config: document.Config{"reference": refs},
	}, "", res)
	assert.ErrorContains(t, err, "needs an input key")

	_, err = saverStrategy.BuildNode(ctx, document.NodeDef{Name: "save", Type: nodetype.DataSaver}, "", res)
	assert.ErrorContains(t, err, "config.reference.vector_store is required")
}

func TestParseSearch(t *testing.T) {
	resp := &models.GraphQLResponse{Data: map[string]models.JSONObject{
		"Get": map[string]any{
			"Document": []any{
				map[string]any{
					"content":     "hello",
					"metadata":    `{"source":"a.txt"}`,
					"_additional": map[string]any{"certainty": 0.9},
				},
				map[string]any{"content": "bare", "metadata": "null"},
			},
		},
	}}
	docs, err := parseSearch(resp, "Document")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "hello", docs[0].PageContent)
	assert.Equal(t, "a.txt", docs[0].Metadata["source"])
	assert.InDelta(t, 0.9, docs[0].Score, 1e-6)
	assert.Nil(t, docs[1].Metadata)

	_, err = parseSearch(&models.GraphQLResponse{Errors: []*models.GraphQLError{{Message: "boom"}}}, "Document")
	assert.ErrorContains(t, err, "boom")
}

func TestWeaviateObjects(t *testing.T) {
	w := &Weaviate{class: "Doc"}
	objs, ids, err := w.objects([]schema.Document{{PageContent: "x", Metadata: map[string]any{"a": 1}}}, [][]float32{{1, 2}})
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "Doc", objs[0].Class)
	assert.Equal(t, ids[0], objs[0].ID.String())
	assert.Equal(t, models.C11yVector{1, 2}, objs[0].Vector)
	assert.Equal(t, `{"a":1}`, objs[0].Properties.(map[string]any)["metadata"])

	_, _, err = w.objects([]schema.Document{{PageContent: "x"}}, nil)
	assert.ErrorContains(t, err, "0 vectors for 1 documents")
}
