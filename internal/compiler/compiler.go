package compiler

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vk/blockgraph/internal/ctxlog"
	"github.com/vk/blockgraph/internal/document"
	"github.com/vk/blockgraph/internal/engine"
	"github.com/vk/blockgraph/internal/node"
	"github.com/vk/blockgraph/internal/nodetype"
	"github.com/vk/blockgraph/internal/registry"
	"github.com/vk/blockgraph/internal/resolver"
	"github.com/vk/blockgraph/internal/schema"
	"github.com/vk/blockgraph/internal/state"
)

// DefaultMaxDepth bounds sub-graph nesting.
const DefaultMaxDepth = 16

// Compiler compiles documents against a registry.
type Compiler struct {
	registry  *registry.Registry
	maxDepth  int
	stepLimit int
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(c *Compiler) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithStepLimit sets the superstep limit of every compiled graph.
func WithStepLimit(n int) Option {
	return func(c *Compiler) { c.stepLimit = n }
}

// New creates a Compiler.
func New(reg *registry.Registry, opts ...Option) *Compiler {
	c := &Compiler{registry: reg, maxDepth: DefaultMaxDepth, stepLimit: engine.DefaultStepLimit}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompileFile loads and compiles the document at path.
func (c *Compiler) CompileFile(ctx context.Context, path string) (*Graph, error) {
	src, err := document.LoadFile(path)
	if err != nil {
		return nil, &Error{Stage: Unvalidated, Document: path, Err: err}
	}
	return c.CompileSource(ctx, src)
}

// CompileSource compiles an already loaded document.
func (c *Compiler) CompileSource(ctx context.Context, src *document.Source) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	g, err := c.compile(ctx, src, nil)
	if err != nil {
		return nil, err
	}
	logger.Info("Graph compiled.", "document", src.Path, "nodes", len(g.nodes), "references", len(g.refs.Order), "state_keys", len(g.keys))
	return g, nil
}

// compile runs every stage for src. stack holds the identities of the
// documents currently being compiled, outermost first.
func (c *Compiler) compile(ctx context.Context, src *document.Source, stack []string) (*Graph, error) {
	logger := ctxlog.FromContext(ctx).With("document", src.Path, "depth", len(stack))
	ctx = ctxlog.WithLogger(ctx, logger)
	fail := func(stage Stage, err error) error {
		logger.Debug("Compilation failed.", "stage", stage.String(), "error", err)
		return &Error{Stage: stage, Document: src.Path, Err: err}
	}

	if slices.Contains(stack, src.Path) {
		return nil, fail(Unvalidated, fmt.Errorf("%w: %s -> %s", ErrRecursiveSubgraph, strings.Join(stack, " -> "), src.Path))
	}
	if len(stack) >= c.maxDepth {
		return nil, fail(Unvalidated, fmt.Errorf("%w: limit is %d", ErrDepthExceeded, c.maxDepth))
	}
	stack = append(slices.Clone(stack), src.Path)

	if err := schema.Validate(src.Raw); err != nil {
		return nil, fail(Unvalidated, err)
	}
	logger.Debug("Document validated.")

	doc, err := src.Decode()
	if err != nil {
		return nil, fail(Validated, err)
	}

	refs, err := resolver.Resolve(ctx, doc.References, src.BaseDir, c.registry)
	if err != nil {
		return nil, fail(Validated, err)
	}
	logger.Debug("References resolved.", "order", refs.Order)

	g := &Graph{path: src.Path, doc: doc, refs: refs, keys: state.KeySet{}, subgraphs: map[string]*Graph{}}
	if err := c.buildNodes(ctx, g, src, stack); err != nil {
		_ = g.Close()
		return nil, fail(ReferencesResolved, err)
	}
	logger.Debug("Nodes built.", "count", len(g.nodes))

	for _, n := range g.nodes {
		g.keys.Union(n.StateKeys())
	}

	if len(g.nodes) == 0 {
		logger.Debug("Document declares no nodes; nothing to assemble.")
		return g, nil
	}
	exe, err := c.assemble(g, src.Path)
	if err != nil {
		_ = g.Close()
		return nil, fail(NodesBuilt, err)
	}
	g.exe = exe
	logger.Debug("Graph assembled.", "edges", len(doc.Edges))
	return g, nil
}

func (c *Compiler) buildNodes(ctx context.Context, g *Graph, src *document.Source, stack []string) error {
	for _, def := range g.doc.Nodes {
		if nodetype.IsSubgraph(def.Type) {
			r, child, err := c.buildSubgraph(ctx, def, src, stack)
			if err != nil {
				return fmt.Errorf("sub-graph node %q: %w", def.Name, err)
			}
			g.children = append(g.children, child)
			g.subgraphs[def.Name] = child
			g.nodes = append(g.nodes, r)
			continue
		}

		strategy, err := c.registry.NodeStrategy(def.Type)
		if err != nil {
			return fmt.Errorf("node %q: %w", def.Name, err)
		}
		r, err := strategy.BuildNode(ctx, def, src.BaseDir, g.refs.Resources)
		if err != nil {
			return fmt.Errorf("failed to build node %q (%s): %w", def.Name, def.Type, err)
		}
		if r == nil || r.Name != def.Name {
			return fmt.Errorf("strategy for %q returned a node not named %q", def.Type, def.Name)
		}
		g.nodes = append(g.nodes, r)
	}
	return nil
}

// buildSubgraph compiles the document a sub-graph node points at and wraps it
// as a single node that runs the child graph on the parent's state.
func (c *Compiler) buildSubgraph(ctx context.Context, def document.NodeDef, src *document.Source, stack []string) (*node.Runnable, *Graph, error) {
	var childSrc *document.Source
	if from := def.Config.String(document.KeyFromFile); from != "" {
		if !filepath.IsAbs(from) {
			from = filepath.Join(src.BaseDir, from)
		}
		loaded, err := document.LoadFile(from)
		if err != nil {
			return nil, nil, err
		}
		childSrc = loaded
	} else {
		childSrc = document.FromMap(map[string]any(def.Config.Map(document.KeyGraph)), src.Path+"#"+def.Name, src.BaseDir)
	}

	child, err := c.compile(ctx, childSrc, stack)
	if err != nil {
		return nil, nil, err
	}

	r := &node.Runnable{
		Name:      def.Name,
		Type:      def.Type,
		ExtraKeys: child.StateKeys(),
		Fn: func(ctx context.Context, s state.State) (state.State, error) {
			return child.Invoke(ctx, s)
		},
	}
	return r, child, nil
}

func (c *Compiler) assemble(g *Graph, name string) (*engine.Executable, error) {
	sg := engine.NewStateGraph()
	for _, n := range g.nodes {
		if err := sg.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, e := range g.doc.Edges {
		from, to := endpoint(e.From), endpoint(e.To)
		if e.Condition != nil {
			sg.AddConditionalEdge(from, *e.Condition, to)
		} else {
			sg.AddEdge(from, to)
		}
	}
	return sg.Compile(engine.WithName(name), engine.WithStepLimit(c.stepLimit))
}

func endpoint(name string) string {
	switch name {
	case document.Start:
		return engine.Start
	case document.End:
		return engine.End
	}
	return name
}
