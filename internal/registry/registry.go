package registry

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/vk/blockgraph/internal/funclib"
	"github.com/vk/blockgraph/internal/node"
)

// ErrUnknownType is returned when no strategy is registered for a tag.
var ErrUnknownType = errors.New("unknown type")

// Resources maps reference names to their built values.
type Resources = node.Resources

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds all the registered strategies for a single application instance.
type Registry struct {
	nodes   map[string]NodeStrategy
	refs    map[string]ReferenceStrategy
	library *funclib.Library
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		nodes:   make(map[string]NodeStrategy),
		refs:    make(map[string]ReferenceStrategy),
		library: funclib.New(),
	}
}

// Library returns the function library modules export callables into.
func (r *Registry) Library() *funclib.Library {
	return r.library
}

// Install registers every module in order.
func (r *Registry) Install(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}

// NodeStrategy returns the strategy registered for a node tag.
func (r *Registry) NodeStrategy(tag string) (NodeStrategy, error) {
	s, ok := r.nodes[tag]
	if !ok {
		return nil, fmt.Errorf("%w: no node strategy registered for %q", ErrUnknownType, tag)
	}
	return s, nil
}

// ReferenceStrategy returns the strategy registered for a reference tag.
func (r *Registry) ReferenceStrategy(tag string) (ReferenceStrategy, error) {
	s, ok := r.refs[tag]
	if !ok {
		return nil, fmt.Errorf("%w: no reference strategy registered for %q", ErrUnknownType, tag)
	}
	return s, nil
}

// Lookup fetches the resource called name and asserts it to T.
func Lookup[T any](res Resources, name string) (T, error) {
	var zero T
	v, ok := res[name]
	if !ok {
		return zero, fmt.Errorf("reference %q has not been built", name)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("reference %q is a %T, not a %s", name, v, reflect.TypeFor[T]())
	}
	return t, nil
}
