package nodetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		tag  string
		want Class
	}{
		{LLM, Execution},
		{FunctionFromFile, Execution},
		{FunctionFromLibrary, Execution},
		{Retriever, Execution},
		{DataLoader, Execution},
		{DataSaver, Execution},
		{TextSplitter, Execution},
		{Subgraph, Execution},
		{LegacySubgraph, Execution},
		{Embedding, NonExecution},
		{VectorStore, NonExecution},
		{"mystery", Unsupported},
		{"", Unsupported},
	}

	for _, tc := range testCases {
		t.Run(tc.tag, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.tag))
		})
	}
}

func TestTags(t *testing.T) {
	assert.ElementsMatch(t, []string{Embedding, VectorStore}, Tags(NonExecution))
	assert.Len(t, Tags(Execution), 9)
	assert.True(t, IsSubgraph(LegacySubgraph))
	assert.False(t, IsSubgraph(LLM))
}
