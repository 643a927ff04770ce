package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vk/blockgraph/internal/testutil"
)

const doublerYAML = `
nodes:
  - name: doubler
    type: function_from_library
    input_keys: ["p -> x"]
    output_key: q
    config: {from_library: "math:double"}
edges:
  - {from: START, to: doubler}
  - {from: doubler, to: END}
`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Execute(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	return exitErr.Code
}

func TestRootCommand(t *testing.T) {
	root := NewRootCommand(&bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, "blockgraph", root.Use)
	assert.NotEmpty(t, root.Short)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"validate", "run", "inspect"})
}

func TestHelp(t *testing.T) {
	out, _, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "validate")
}

func TestUsageErrors(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{"main.yaml": doublerYAML})
	doc := filepath.Join(dir, "main.yaml")

	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"unknown flag", []string{"run", "--bogus", doc}, "unknown flag: --bogus"},
		{"unknown command", []string{"explode"}, `unknown command "explode"`},
		{"missing path", []string{"run"}, "unexpected number of arguments 0"},
		{"bad log level", []string{"--log-level", "loud", "validate", doc}, `invalid LogLevel "loud"`},
		{"bad output", []string{"run", "-o", "xml", doc}, `invalid output format "xml"`},
		{"bad input", []string{"run", "--input", "[1, 2", doc}, "invalid --input"},
		{"missing input file", []string{"run", "--input-file", filepath.Join(dir, "nope.yaml"), doc}, "cannot read input file"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, tc.args...)
			require.Error(t, err)
			assert.Equal(t, ExitUsage, exitCode(t, err))
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestRun(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"main.yaml":  doublerYAML,
		"input.yaml": "p: 1\nkeep: true\n",
	})
	doc := filepath.Join(dir, "main.yaml")

	t.Run("json", func(t *testing.T) {
		out, logs, err := execute(t, "run", "--input", `{"p": 5}`, doc)
		require.NoError(t, err)
		var final map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &final))
		assert.Equal(t, float64(10), final["q"])
		assert.Contains(t, logs, "Run finished.")
	})

	t.Run("yaml with input file", func(t *testing.T) {
		out, _, err := execute(t, "run", "-o", "yaml", "--input-file", filepath.Join(dir, "input.yaml"), "-i", "p: 3", doc)
		require.NoError(t, err)
		var final map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(out), &final))
		assert.Equal(t, 6, final["q"])
		assert.Equal(t, 3, final["p"])
		assert.Equal(t, true, final["keep"])
	})

	t.Run("execution failure", func(t *testing.T) {
		_, _, err := execute(t, "run", doc)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, exitCode(t, err))
		assert.Contains(t, err.Error(), "missing input keys in state: p")
	})
}

func TestValidate(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"good/main.yaml": doublerYAML,
		"bad/main.yaml":  "nodes: []\nextra: 1\n",
	})

	out, _, err := execute(t, "validate", filepath.Join(dir, "good"))
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	_, _, err = execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, exitCode(t, err))
	assert.Contains(t, err.Error(), `unknown top-level field "extra"`)
}

func TestInspect(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{"main.yaml": doublerYAML})

	out, _, err := execute(t, "inspect", filepath.Join(dir, "main.yaml"))
	require.NoError(t, err)

	var summary struct {
		Nodes []struct {
			Name string `yaml:"name"`
			Type string `yaml:"type"`
		} `yaml:"nodes"`
		StateKeys []string `yaml:"state_keys"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &summary))
	require.Len(t, summary.Nodes, 1)
	assert.Equal(t, "doubler", summary.Nodes[0].Name)
	assert.Equal(t, "function_from_library", summary.Nodes[0].Type)
	assert.Equal(t, []string{"p", "q"}, summary.StateKeys)
}
