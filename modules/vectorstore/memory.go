package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// keyPrefix namespaces stored entries. Keys carry a zero-padded sequence so
// badger's sorted iteration yields insertion order.
const keyPrefix = "doc/"

type entry struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Vector   []float32      `json:"vector"`
}

// Memory is a brute-force vector index ranked by Euclidean distance. When it
// has a badger database every added entry is also written there.
type Memory struct {
	mu       sync.RWMutex
	embedder embeddings.Embedder
	entries  []entry
	db       *badger.DB
}

var _ vectorstores.VectorStore = (*Memory)(nil)

// NewMemory returns an empty in-memory index.
func NewMemory(embedder embeddings.Embedder) *Memory {
	return &Memory{embedder: embedder}
}

// OpenMemory opens or creates a badger database at path and loads the
// entries stored there.
func OpenMemory(embedder embeddings.Embedder, path string) (*Memory, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store at %s: %w", path, err)
	}
	m := &Memory{embedder: embedder, db: db}
	if err := m.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

func (m *Memory) load() error {
	return m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var e entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return fmt.Errorf("corrupt vector store entry %s: %w", it.Item().Key(), err)
			}
			m.entries = append(m.entries, e)
		}
		return nil
	})
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// AddDocuments embeds docs and stores them. It returns the new entry ids.
func (m *Memory) AddDocuments(ctx context.Context, docs []schema.Document, _ ...vectorstores.Option) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.PageContent
	}
	vectors, err := m.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	added := make([]entry, len(docs))
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = uuid.NewString()
		added[i] = entry{ID: ids[i], Content: d.PageContent, Metadata: d.Metadata, Vector: vectors[i]}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db != nil {
		if err := m.persist(len(m.entries), added); err != nil {
			return nil, err
		}
	}
	m.entries = append(m.entries, added...)
	return ids, nil
}

func (m *Memory) persist(seq int, added []entry) error {
	wb := m.db.NewWriteBatch()
	defer wb.Cancel()
	for i, e := range added {
		val, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode document %s: %w", e.ID, err)
		}
		key := fmt.Sprintf("%s%016d", keyPrefix, seq+i)
		if err := wb.Set([]byte(key), val); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// SimilaritySearch returns up to k documents closest to query. Score is
// 1/(1+d) for Euclidean distance d. Equal distances keep insertion order.
func (m *Memory) SimilaritySearch(ctx context.Context, query string, k int, _ ...vectorstores.Option) ([]schema.Document, error) {
	if k <= 0 {
		return nil, nil
	}
	q, err := m.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	type hit struct {
		idx  int
		dist float64
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	hits := make([]hit, 0, len(m.entries))
	for i, e := range m.entries {
		d, err := l2(q, e.Vector)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		hits = append(hits, hit{idx: i, dist: d})
	}
	slices.SortStableFunc(hits, func(a, b hit) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		}
		return 0
	})

	out := make([]schema.Document, 0, min(k, len(hits)))
	for _, h := range hits[:min(k, len(hits))] {
		e := m.entries[h.idx]
		out = append(out, schema.Document{
			PageContent: e.Content,
			Metadata:    e.Metadata,
			Score:       float32(1 / (1 + h.dist)),
		})
	}
	return out, nil
}

// Close closes the backing database, if any.
func (m *Memory) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}

var errDimension = errors.New("vector dimension mismatch")

func l2(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", errDimension, len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}
