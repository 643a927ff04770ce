package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlDoc = `
references:
  - name: emb
    type: embedding
    config:
      provider: dummy
      param:
        dimension: 4
nodes:
  - name: split
    type: function_from_library
    input_keys: ["text -> body"]
    output_key: [head, tail]
    config:
      from_library: "text:split_lines"
edges:
  - from: START
    to: split
  - from: split
    to: END
    condition: done
`

const hclDoc = `
reference "emb" {
  type   = "embedding"
  config = { provider = "dummy", param = { dimension = 4 } }
}

node "split" {
  type       = "function_from_library"
  input_keys = ["text -> body"]
  output_key = ["head", "tail"]
  config     = { from_library = "text:split_lines" }
}

edge {
  from = "START"
  to   = "split"
}

edge {
  from      = "split"
  to        = "END"
  condition = "done"
}
`

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile_FormatsAgree(t *testing.T) {
	for _, tc := range []struct{ name, content string }{
		{"graph.yaml", yamlDoc},
		{"graph.hcl", hclDoc},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := writeDoc(t, tc.name, tc.content)

			src, err := LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, path, src.Path)
			assert.Equal(t, filepath.Dir(path), src.BaseDir)

			doc, err := src.Decode()
			require.NoError(t, err)

			require.Len(t, doc.References, 1)
			ref := doc.References[0]
			assert.Equal(t, "emb", ref.Name)
			assert.Equal(t, "embedding", ref.Type)
			assert.Equal(t, "dummy", ref.Config.String("provider"))
			assert.Equal(t, 4, ref.Config.Param().Int("dimension", 0))

			require.Len(t, doc.Nodes, 1)
			n := doc.Nodes[0]
			assert.Equal(t, "split", n.Name)
			assert.Equal(t, []string{"text -> body"}, n.InputKeys)
			assert.Equal(t, MultiOutput("head", "tail"), n.OutputKey)
			assert.Equal(t, "text:split_lines", n.Config.String("from_library"))

			require.Len(t, doc.Edges, 2)
			assert.Equal(t, Start, doc.Edges[0].From)
			assert.Nil(t, doc.Edges[0].Condition)
			require.NotNil(t, doc.Edges[1].Condition)
			assert.Equal(t, "done", *doc.Edges[1].Condition)
			assert.Equal(t, "split -[done]-> END", doc.Edges[1].String())
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("unsupported extension", func(t *testing.T) {
		_, err := Parse([]byte("{}"), "graph.json")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("non-mapping yaml", func(t *testing.T) {
		_, err := Parse([]byte("- a\n- b\n"), "graph.yaml")
		assert.ErrorContains(t, err, "must be a mapping")
	})

	t.Run("empty yaml is an empty document", func(t *testing.T) {
		raw, err := Parse([]byte(""), "graph.yml")
		require.NoError(t, err)
		assert.Empty(t, raw)
	})

	t.Run("invalid hcl", func(t *testing.T) {
		_, err := Parse([]byte(`node "a" {`), "graph.hcl")
		assert.ErrorContains(t, err, "failed to parse HCL file")
	})

	t.Run("unknown hcl blocks surface as top-level keys", func(t *testing.T) {
		raw, err := Parse([]byte("variable \"x\" {\n}\nversion = 2\n"), "graph.hcl")
		require.NoError(t, err)
		assert.Contains(t, raw, "variable")
		assert.Contains(t, raw, "version")
	})

	t.Run("hcl node needs one label", func(t *testing.T) {
		_, err := Parse([]byte("node {\n type = \"llm\"\n}\n"), "graph.hcl")
		assert.ErrorContains(t, err, "exactly one name label")
	})
}

func TestOutputKey_Single(t *testing.T) {
	src := FromMap(map[string]any{
		"nodes": []any{map[string]any{"name": "a", "type": "llm", "output_key": "answer"}},
	}, "mem", "")
	doc, err := src.Decode()
	require.NoError(t, err)
	assert.Equal(t, SingleOutput("answer"), doc.Nodes[0].OutputKey)
	assert.Equal(t, "answer", doc.Nodes[0].OutputKey.String())
}

func TestConfig_Accessors(t *testing.T) {
	cfg := Config{
		"name":  "x",
		"count": 3.0,
		"ratio": "0.5",
		"list":  []any{"a", 1, "b"},
		"reference": map[string]any{
			"vector_store": "vs",
			"embedding":    "emb",
			"extra":        []any{"r1", "r2"},
		},
	}

	assert.Equal(t, "x", cfg.String("name"))
	assert.Equal(t, "", cfg.String("count"))
	assert.Equal(t, 3, cfg.Int("count", 0))
	assert.Equal(t, 9, cfg.Int("missing", 9))
	assert.InDelta(t, 0.5, cfg.Float("ratio", 0), 1e-9)
	assert.Equal(t, []string{"a", "b"}, cfg.StringSlice("list"))
	assert.Equal(t, "vs", cfg.Reference("vector_store"))
	assert.Equal(t, []string{"emb", "r1", "r2", "vs"}, cfg.ReferenceNames())
	assert.Nil(t, cfg.Param())
}
