package function

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/blockgraph/internal/document"
	"github.com/vk/blockgraph/internal/funcloader"
	"github.com/vk/blockgraph/internal/node"
	"github.com/vk/blockgraph/internal/nodetype"
	"github.com/vk/blockgraph/internal/registry"
	"github.com/vk/blockgraph/internal/state"
)

type fakeModule map[string]any

func (m fakeModule) Lookup(name string) (any, error) {
	sym, ok := m[name]
	if !ok {
		return nil, errors.New("symbol not found")
	}
	return sym, nil
}

func newRegistry(t *testing.T, open funcloader.Opener) *registry.Registry {
	t.Helper()
	r := registry.New()
	r.Install(&Module{Opener: open})
	return r
}

func build(t *testing.T, r *registry.Registry, def document.NodeDef, baseDir string) (*node.Runnable, error) {
	t.Helper()
	s, err := r.NodeStrategy(def.Type)
	require.NoError(t, err)
	return s.BuildNode(context.Background(), def, baseDir, registry.Resources{})
}

func TestFromLibrary_Remap(t *testing.T) {
	r := newRegistry(t, nil)
	n, err := build(t, r, document.NodeDef{
		Name:      "doubler",
		Type:      nodetype.FunctionFromLibrary,
		InputKeys: []string{"p -> x"},
		OutputKey: document.SingleOutput("q"),
		Config:    document.Config{KeyFromLibrary: "math:double"},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"p"}, n.InputKeys)
	assert.Equal(t, []string{"q"}, n.OutputKeys)

	update, err := n.Invoke(context.Background(), state.State{"p": 5})
	require.NoError(t, err)
	assert.Equal(t, state.State{"q": 10}, update)
}

func TestFromLibrary_ParamsOverrideInputs(t *testing.T) {
	r := newRegistry(t, nil)
	n, err := build(t, r, document.NodeDef{
		Name:      "adder",
		Type:      nodetype.FunctionFromLibrary,
		InputKeys: []string{"a", "b"},
		OutputKey: document.SingleOutput("sum"),
		Config: document.Config{
			KeyFromLibrary:    "math:add",
			document.KeyParam: map[string]any{"b": 100},
		},
	}, "")
	require.NoError(t, err)

	update, err := n.Invoke(context.Background(), state.State{"a": 1, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, 101, update["sum"])
}

func TestFromLibrary_MultiOutput(t *testing.T) {
	r := newRegistry(t, nil)
	n, err := build(t, r, document.NodeDef{
		Name:      "split",
		Type:      nodetype.FunctionFromLibrary,
		InputKeys: []string{"text"},
		OutputKey: document.MultiOutput("head", "tail"),
		Config:    document.Config{KeyFromLibrary: "text:split_lines"},
	}, "")
	require.NoError(t, err)

	update, err := n.Invoke(context.Background(), state.State{"text": "one\ntwo\nthree"})
	require.NoError(t, err)
	assert.Equal(t, "one", update["head"])
	assert.Equal(t, "two\nthree", update["tail"])

	single, err := build(t, r, document.NodeDef{
		Name:      "split_one",
		Type:      nodetype.FunctionFromLibrary,
		InputKeys: []string{"text"},
		OutputKey: document.MultiOutput("only"),
		Config:    document.Config{KeyFromLibrary: "text:split_lines"},
	}, "")
	require.NoError(t, err)
	_, err = single.Invoke(context.Background(), state.State{"text": "a\nb"})
	var arity *node.ArityError
	require.ErrorAs(t, err, &arity)
	assert.Equal(t, 1, arity.Expected)
	assert.Equal(t, 2, arity.Actual)
}

func TestFromLibrary_MissingInput(t *testing.T) {
	r := newRegistry(t, nil)
	n, err := build(t, r, document.NodeDef{
		Name:      "upper",
		Type:      nodetype.FunctionFromLibrary,
		InputKeys: []string{"text"},
		OutputKey: document.SingleOutput("loud"),
		Config:    document.Config{KeyFromLibrary: "text:upper"},
	}, "")
	require.NoError(t, err)

	_, err = n.Invoke(context.Background(), state.State{})
	var missing *node.MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"text"}, missing.Keys)
}

func TestFromLibrary_ConfigErrors(t *testing.T) {
	r := newRegistry(t, nil)
	tests := []struct {
		name string
		def  document.NodeDef
		want error
		msg  string
	}{
		{
			name: "missing locator",
			def:  document.NodeDef{Name: "f", Type: nodetype.FunctionFromLibrary, OutputKey: document.SingleOutput("o")},
			msg:  "config.from_library is required",
		},
		{
			name: "missing output key",
			def:  document.NodeDef{Name: "f", Type: nodetype.FunctionFromLibrary, Config: document.Config{KeyFromLibrary: "math:double"}},
			msg:  "output_key is required",
		},
		{
			name: "unknown module",
			def:  document.NodeDef{Name: "f", Type: nodetype.FunctionFromLibrary, OutputKey: document.SingleOutput("o"), Config: document.Config{KeyFromLibrary: "nope:double"}},
			want: funcloader.ErrModuleNotFound,
		},
		{
			name: "unknown symbol",
			def:  document.NodeDef{Name: "f", Type: nodetype.FunctionFromLibrary, OutputKey: document.SingleOutput("o"), Config: document.Config{KeyFromLibrary: "math:triple"}},
			want: funcloader.ErrSymbolNotFound,
		},
		{
			name: "bad input key",
			def:  document.NodeDef{Name: "f", Type: nodetype.FunctionFromLibrary, InputKeys: []string{"a -> b -> c"}, OutputKey: document.SingleOutput("o"), Config: document.Config{KeyFromLibrary: "math:double"}},
			msg:  "at most one '->'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := build(t, r, tt.def, "")
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestFromFile(t *testing.T) {
	baseDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "funcs.so"), []byte("stub"), 0o600))

	var opened string
	r := newRegistry(t, func(path string) (funcloader.Module, error) {
		opened = path
		return fakeModule{
			"Greet": func(_ context.Context, args map[string]any) (any, error) {
				return "hello " + args["name"].(string), nil
			},
		}, nil
	})

	n, err := build(t, r, document.NodeDef{
		Name:      "greet",
		Type:      nodetype.FunctionFromFile,
		InputKeys: []string{"who -> name"},
		OutputKey: document.SingleOutput("greeting"),
		Config:    document.Config{KeyFunctionPath: "funcs:Greet"},
	}, baseDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(baseDir, "funcs.so"), opened)

	update, err := n.Invoke(context.Background(), state.State{"who": "world"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", update["greeting"])

	_, err = build(t, r, document.NodeDef{
		Name:      "missing",
		Type:      nodetype.FunctionFromFile,
		OutputKey: document.SingleOutput("o"),
		Config:    document.Config{KeyFunctionPath: "absent:Greet"},
	}, baseDir)
	assert.ErrorIs(t, err, funcloader.ErrModuleNotFound)

	_, err = build(t, r, document.NodeDef{
		Name:      "nosym",
		Type:      nodetype.FunctionFromFile,
		OutputKey: document.SingleOutput("o"),
		Config:    document.Config{KeyFunctionPath: "funcs:Wave"},
	}, baseDir)
	assert.ErrorIs(t, err, funcloader.ErrSymbolNotFound)
}

func TestBuiltins(t *testing.T) {
	ctx := context.Background()

	out, err := textJoin(ctx, map[string]any{"items": []any{"a", 1, true}, "separator": "-"})
	require.NoError(t, err)
	assert.Equal(t, "a-1-true", out)

	out, err = textTemplate(ctx, map[string]any{"template": "{greeting}, {name}!", "greeting": "Hi", "name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Hi, Ada!", out)

	out, err = mathDivmod(ctx, map[string]any{"a": 7, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, []any{3, 1}, out)

	_, err = mathDivmod(ctx, map[string]any{"a": 7, "b": 0})
	assert.ErrorContains(t, err, "division by zero")

	out, err = mathAdd(ctx, map[string]any{"a": 0.5, "b": 1})
	require.NoError(t, err)
	assert.Equal(t, 1.5, out)

	for x, want := range map[int]string{-3: "negative", 0: "zero", 4: "positive"} {
		out, err := mathRouteBySign(ctx, map[string]any{"x": x})
		require.NoError(t, err)
		assert.Equal(t, want, out)
	}

	_, err = textUpper(ctx, map[string]any{"text": 3})
	assert.ErrorContains(t, err, "must be a string")
}
