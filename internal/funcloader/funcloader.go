// Package funcloader resolves "module:symbol" locators to callable functions,
// either from Go plugin files on disk or from the compiled-in function library.
package funcloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"strings"

	"github.com/vk/blockgraph/internal/funclib"
)

// Failure kinds.
var (
	ErrInvalidLocator = errors.New("invalid function locator")
	ErrModuleNotFound = errors.New("module not found")
	ErrSymbolNotFound = errors.New("symbol not found")
	ErrNotCallable    = errors.New("symbol is not callable")
)

// Error wraps a failure kind with the locator that caused it.
type Error struct {
	Locator string
	Err     error
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("load %q: %s: %s", e.Locator, e.Err, e.Cause)
	}
	return fmt.Sprintf("load %q: %s", e.Locator, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// Module is an opened file module.
type Module interface {
	Lookup(name string) (any, error)
}

// Opener opens the module file at an absolute path.
type Opener func(path string) (Module, error)

type pluginModule struct {
	p *plugin.Plugin
}

func (m pluginModule) Lookup(name string) (any, error) {
	sym, err := m.p.Lookup(name)
	if err != nil {
		return nil, err
	}
	return any(sym), nil
}

// OpenPlugin opens a Go plugin (.so) built with -buildmode=plugin.
func OpenPlugin(path string) (Module, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return pluginModule{p: p}, nil
}

// Loader resolves function locators. It keeps no cache: each call opens and
// looks up afresh.
type Loader struct {
	open    Opener
	library *funclib.Library
}

// Option configures a Loader.
type Option func(*Loader)

// WithOpener replaces the plugin opener.
func WithOpener(open Opener) Option {
	return func(l *Loader) { l.open = open }
}

// New creates a Loader backed by lib.
func New(lib *funclib.Library, opts ...Option) *Loader {
	l := &Loader{open: OpenPlugin, library: lib}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SplitLocator splits "module:symbol" at the last colon.
func SplitLocator(locator string) (module, symbol string, err error) {
	i := strings.LastIndex(locator, ":")
	if i < 0 {
		return "", "", &Error{Locator: locator, Err: ErrInvalidLocator, Cause: errors.New("expected <module>:<symbol>")}
	}
	module, symbol = strings.TrimSpace(locator[:i]), strings.TrimSpace(locator[i+1:])
	if module == "" || symbol == "" {
		return "", "", &Error{Locator: locator, Err: ErrInvalidLocator, Cause: errors.New("module and symbol must both be non-empty")}
	}
	return module, symbol, nil
}

// LoadFromFile resolves a locator whose module part is a plugin path. Relative
// paths are taken from baseDir and ".so" is appended when there is no extension.
func (l *Loader) LoadFromFile(locator, baseDir string) (funclib.Func, error) {
	modPath, symbol, err := SplitLocator(locator)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(modPath) {
		modPath = filepath.Join(baseDir, modPath)
	}
	if filepath.Ext(modPath) == "" {
		modPath += ".so"
	}

	if _, err := os.Stat(modPath); err != nil {
		return nil, &Error{Locator: locator, Err: ErrModuleNotFound, Cause: err}
	}
	mod, err := l.open(modPath)
	if err != nil {
		return nil, &Error{Locator: locator, Err: ErrModuleNotFound, Cause: err}
	}
	sym, err := mod.Lookup(symbol)
	if err != nil {
		return nil, &Error{Locator: locator, Err: ErrSymbolNotFound, Cause: err}
	}
	return callable(locator, sym)
}

// LoadFromLibrary resolves a locator whose module part names a library module.
func (l *Loader) LoadFromLibrary(locator string) (funclib.Func, error) {
	module, symbol, err := SplitLocator(locator)
	if err != nil {
		return nil, err
	}
	sym, hasModule, hasSymbol := l.library.Lookup(module, symbol)
	if !hasModule {
		return nil, &Error{Locator: locator, Err: ErrModuleNotFound, Cause: fmt.Errorf("no library module %q (available: %s)", module, strings.Join(l.library.Modules(), ", "))}
	}
	if !hasSymbol {
		return nil, &Error{Locator: locator, Err: ErrSymbolNotFound}
	}
	return callable(locator, sym)
}

func callable(locator string, sym any) (funclib.Func, error) {
	switch fn := sym.(type) {
	case funclib.Func:
		if fn != nil {
			return fn, nil
		}
	case func(context.Context, map[string]any) (any, error):
		if fn != nil {
			return fn, nil
		}
	case *funclib.Func:
		if fn != nil && *fn != nil {
			return *fn, nil
		}
	case *func(context.Context, map[string]any) (any, error):
		if fn != nil && *fn != nil {
			return *fn, nil
		}
	}
	return nil, &Error{Locator: locator, Err: ErrNotCallable, Cause: fmt.Errorf("got %T", sym)}
}
