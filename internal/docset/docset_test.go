package docset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

func TestFromValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []schema.Document
	}{
		{name: "nil", in: nil, want: nil},
		{name: "string", in: "x", want: []schema.Document{{PageContent: "x"}}},
		{name: "document", in: schema.Document{PageContent: "d"}, want: []schema.Document{{PageContent: "d"}}},
		{name: "pointer", in: &schema.Document{PageContent: "p"}, want: []schema.Document{{PageContent: "p"}}},
		{name: "strings", in: []string{"a", "b"}, want: []schema.Document{{PageContent: "a"}, {PageContent: "b"}}},
		{
			name: "mixed list",
			in:   []any{"a", []any{"b"}, map[string]any{"page_content": "c", "metadata": map[string]any{"k": "v"}}},
			want: []schema.Document{{PageContent: "a"}, {PageContent: "b"}, {PageContent: "c", Metadata: map[string]any{"k": "v"}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromValue_Rejects(t *testing.T) {
	_, err := FromValue(42)
	assert.ErrorContains(t, err, "cannot use int as a document")
	_, err = FromValue(map[string]any{"text": "x"})
	assert.ErrorContains(t, err, "page_content")
	_, err = FromValues("ok", 1.5)
	assert.ErrorContains(t, err, "float64")
}

func TestFromValues(t *testing.T) {
	docs, err := FromValues("a", nil, []string{"b", "c"})
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}
