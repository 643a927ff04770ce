// Package function provides the function_from_file and function_from_library
// node types together with the built-in "text" and "math" library modules.
package function

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/blockgraph/internal/document"
	"github.com/vk/blockgraph/internal/funclib"
	"github.com/vk/blockgraph/internal/funcloader"
	"github.com/vk/blockgraph/internal/node"
	"github.com/vk/blockgraph/internal/nodetype"
	"github.com/vk/blockgraph/internal/registry"
)

// Config keys holding the function locator.
const (
	KeyFunctionPath = "function_path"
	KeyFromLibrary  = "from_library"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Opener overrides how plugin files are opened. Nil uses Go plugins.
	Opener funcloader.Opener
}

// Register registers both function node types and the built-in library modules.
func (m *Module) Register(r *registry.Registry) {
	registerBuiltins(r.Library())

	var opts []funcloader.Option
	if m.Opener != nil {
		opts = append(opts, funcloader.WithOpener(m.Opener))
	}
	loader := funcloader.New(r.Library(), opts...)

	r.RegisterNode(nodetype.FunctionFromFile, &strategy{loader: loader, fromFile: true})
	r.RegisterNode(nodetype.FunctionFromLibrary, &strategy{loader: loader})
}

type strategy struct {
	loader   *funcloader.Loader
	fromFile bool
}

func (s *strategy) BuildNode(ctx context.Context, def document.NodeDef, baseDir string, res registry.Resources) (*node.Runnable, error) {
	return node.BuildFunction(ctx, def, baseDir, res, &functionNode{loader: s.loader, fromFile: s.fromFile})
}

// functionNode wraps one loaded callable. Fixed parameters from config.param
// are merged over the extracted inputs on every call.
type functionNode struct {
	loader   *funcloader.Loader
	fromFile bool

	locator string
	baseDir string
	params  map[string]any
	fn      funclib.Func
}

func (f *functionNode) ParseConfig(def document.NodeDef, baseDir string) error {
	key := KeyFromLibrary
	if f.fromFile {
		key = KeyFunctionPath
	}
	f.locator = def.Config.String(key)
	if f.locator == "" {
		return fmt.Errorf("config.%s is required", key)
	}
	if len(def.OutputKey.Keys) == 0 {
		return errors.New("output_key is required")
	}
	f.baseDir = baseDir
	f.params = def.Config.Param()
	return nil
}

func (f *functionNode) ImportTargetFunction(_ context.Context, _ node.Resources) error {
	var err error
	if f.fromFile {
		f.fn, err = f.loader.LoadFromFile(f.locator, f.baseDir)
	} else {
		f.fn, err = f.loader.LoadFromLibrary(f.locator)
	}
	return err
}

func (f *functionNode) CallTargetFunction(ctx context.Context, inputs map[string]any) (any, error) {
	return f.fn(ctx, node.MergeParams(inputs, f.params))
}
