package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/blockgraph/internal/compiler"
	"github.com/vk/blockgraph/internal/ctxlog"
	"github.com/vk/blockgraph/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	compiler *compiler.Compiler
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and registry. With no
// modules given, the core modules are installed.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules()
	}
	reg.Install(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules))

	// Documents using a type without a strategy fail when they are compiled,
	// so a partial registry is only worth a warning.
	if err := reg.Validate(ctx); err != nil {
		logger.Warn("Registry is incomplete.", "error", err)
	}

	var opts []compiler.Option
	if cfg.StepLimit > 0 {
		opts = append(opts, compiler.WithStepLimit(cfg.StepLimit))
	}
	if cfg.MaxDepth > 0 {
		opts = append(opts, compiler.WithMaxDepth(cfg.MaxDepth))
	}

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		compiler: compiler.New(reg, opts...),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// context attaches the app logger to ctx.
func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
