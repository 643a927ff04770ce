package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vk/blockgraph/internal/compiler"
	"github.com/vk/blockgraph/internal/state"
)

// Run compiles the document at path, invokes it once on input and returns
// the final state. When a health check port is configured the server runs
// for the duration of the invocation.
func (a *App) Run(ctx context.Context, path string, input state.State) (state.State, error) {
	ctx = a.context(ctx)
	a.logger.Debug("App.Run method started.", "path", path)

	g, err := a.compiler.CompileFile(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := g.Close(); cerr != nil {
			a.logger.Warn("Failed to release references.", "error", cerr)
		}
	}()

	if a.config.HealthcheckPort <= 0 {
		return a.invoke(ctx, g, input)
	}

	grp, gctx := errgroup.WithContext(ctx)
	serverCtx, stopServer := context.WithCancel(gctx)
	defer stopServer()

	var out state.State
	grp.Go(func() error {
		return a.serveHealthcheck(serverCtx, a.config.HealthcheckPort)
	})
	grp.Go(func() error {
		defer stopServer()
		var err error
		out, err = a.invoke(gctx, g, input)
		return err
	})
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *App) invoke(ctx context.Context, g *compiler.Graph, input state.State) (state.State, error) {
	a.logger.Info("🚀 Starting run...", "document", g.Path())
	start := time.Now()
	out, err := g.Invoke(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Run finished.", "duration", time.Since(start), "state_keys", len(out))
	return out, nil
}

// Inspect compiles the document at path and describes it. References are
// built and released again.
func (a *App) Inspect(ctx context.Context, path string) (compiler.Summary, error) {
	ctx = a.context(ctx)
	g, err := a.compiler.CompileFile(ctx, path)
	if err != nil {
		return compiler.Summary{}, err
	}
	defer g.Close()
	return g.Describe(), nil
}
