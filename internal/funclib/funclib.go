// Package funclib is a registry of compiled-in function modules that
// function_from_library nodes can refer to by "module:symbol".
package funclib

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
)

// Func is the calling convention shared by every loadable function. args
// holds the node's extracted inputs merged with its fixed parameters.
type Func func(ctx context.Context, args map[string]any) (any, error)

// Library maps module names to their exported symbols. Symbols are stored as
// plain values so that non-callable exports can be told apart at load time.
type Library struct {
	mu      sync.RWMutex
	modules map[string]map[string]any
}

// New creates an empty Library.
func New() *Library {
	return &Library{modules: make(map[string]map[string]any)}
}

// Register exports symbol as module:name. Registering the same pair twice panics.
func (l *Library) Register(module, name string, symbol any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	syms, ok := l.modules[module]
	if !ok {
		syms = make(map[string]any)
		l.modules[module] = syms
	}
	if _, exists := syms[name]; exists {
		panic(fmt.Sprintf("library symbol '%s:%s' already registered", module, name))
	}
	slog.Debug("Registering library function.", "module", module, "name", name)
	syms[name] = symbol
}

// RegisterFunc is Register for the common case of a Func.
func (l *Library) RegisterFunc(module, name string, fn Func) {
	l.Register(module, name, fn)
}

// Lookup returns the symbol module:name. The first boolean reports whether the
// module exists, the second whether the symbol does.
func (l *Library) Lookup(module, name string) (any, bool, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	syms, ok := l.modules[module]
	if !ok {
		return nil, false, false
	}
	sym, ok := syms[name]
	return sym, true, ok
}

// Modules lists the registered module names.
func (l *Library) Modules() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Sorted(maps.Keys(l.modules))
}
