// Package resolver orders a document's references by their declared
// dependencies and builds them one at a time in that order.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/vk/blockgraph/internal/ctxlog"
	"github.com/vk/blockgraph/internal/dag"
	"github.com/vk/blockgraph/internal/document"
	"github.com/vk/blockgraph/internal/registry"
)

// BuildError is returned when a reference strategy fails.
type BuildError struct {
	Reference string
	Type      string
	Err       error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("failed to build reference %q (%s): %v", e.Reference, e.Type, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Set is the outcome of a successful resolution.
type Set struct {
	// Resources maps each reference name to its built value.
	Resources registry.Resources
	// Order lists reference names in the order they were built.
	Order []string
}

// Close closes every built value that implements io.Closer, newest first.
func (s *Set) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, name := range slices.Backward(s.Order) {
		if c, ok := s.Resources[name].(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close reference %q: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Order returns refs sorted so that every reference follows the references it
// names under config.reference. Ties keep declaration order. A reference that
// names itself, or any cycle, yields a *dag.CycleError.
func Order(refs []document.ReferenceDef) ([]document.ReferenceDef, error) {
	byName := make(map[string]document.ReferenceDef, len(refs))
	g := dag.New()
	for _, r := range refs {
		byName[r.Name] = r
		g.AddNode(r.Name)
	}

	for _, r := range refs {
		for _, dep := range r.Config.ReferenceNames() {
			if _, declared := byName[dep]; !declared {
				continue
			}
			if dep == r.Name {
				return nil, &dag.CycleError{Remaining: []string{r.Name}}
			}
			if err := g.AddEdge(dep, r.Name); err != nil {
				return nil, err
			}
		}
	}

	names, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	ordered := make([]document.ReferenceDef, len(names))
	for i, name := range names {
		ordered[i] = byName[name]
	}
	return ordered, nil
}

// Resolve builds every reference in dependency order. Each strategy sees the
// values built before it. On failure the values built so far are closed.
func Resolve(ctx context.Context, refs []document.ReferenceDef, baseDir string, reg *registry.Registry) (*Set, error) {
	logger := ctxlog.FromContext(ctx)

	ordered, err := Order(refs)
	if err != nil {
		return nil, err
	}

	set := &Set{Resources: make(registry.Resources, len(ordered))}
	for _, def := range ordered {
		strategy, err := reg.ReferenceStrategy(def.Type)
		if err != nil {
			_ = set.Close()
			return nil, &BuildError{Reference: def.Name, Type: def.Type, Err: err}
		}
		logger.Debug("Building reference.", "reference", def.Name, "type", def.Type)
		value, err := strategy.BuildReference(ctx, def, baseDir, set.Resources)
		if err != nil {
			if cerr := set.Close(); cerr != nil {
				logger.Warn("Failed to release references after build error.", "error", cerr)
			}
			return nil, &BuildError{Reference: def.Name, Type: def.Type, Err: err}
		}
		set.Resources[def.Name] = value
		set.Order = append(set.Order, def.Name)
	}

	logger.Debug("References resolved.", "order", set.Order)
	return set, nil
}
