package node

import (
	"context"
	"fmt"

	"github.com/vk/blockgraph/internal/document"
	"github.com/vk/blockgraph/internal/state"
)

// FunctionNode is the three-phase lifecycle shared by nodes that wrap a
// single callable.
type FunctionNode interface {
	// ParseConfig reads the node definition. It must not do I/O.
	ParseConfig(def document.NodeDef, baseDir string) error
	// ImportTargetFunction resolves the callable, loading code or binding
	// references as needed.
	ImportTargetFunction(ctx context.Context, res Resources) error
	// CallTargetFunction runs the callable on the extracted inputs. It may
	// return a Result to attach metadata.
	CallTargetFunction(ctx context.Context, inputs map[string]any) (any, error)
}

// MetadataProvider is implemented by function nodes whose calls return a
// Result with metadata. Their metadata key is then part of the node's keys.
type MetadataProvider interface {
	ProvidesMetadata() bool
}

// BuildFunction runs the parse and import phases of impl and returns a
// Runnable that performs input extraction, the call and output wrapping.
func BuildFunction(ctx context.Context, def document.NodeDef, baseDir string, res Resources, impl FunctionNode) (*Runnable, error) {
	keys, err := ParseInputKeys(def.InputKeys)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", def.Name, err)
	}
	if err := impl.ParseConfig(def, baseDir); err != nil {
		return nil, fmt.Errorf("node %q: invalid config: %w", def.Name, err)
	}
	if err := impl.ImportTargetFunction(ctx, res); err != nil {
		return nil, fmt.Errorf("node %q: %w", def.Name, err)
	}

	name, out := def.Name, def.OutputKey
	fn := func(ctx context.Context, s state.State) (state.State, error) {
		inputs, err := ExtractInputs(name, keys, s)
		if err != nil {
			return nil, err
		}
		raw, err := impl.CallTargetFunction(ctx, inputs)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
		return WrapOutput(name, out, raw)
	}

	var extra []string
	if mp, ok := impl.(MetadataProvider); ok && mp.ProvidesMetadata() {
		extra = []string{name + MetadataSuffix}
	}

	return &Runnable{
		Name:       def.Name,
		Type:       def.Type,
		InputKeys:  Sources(keys),
		OutputKeys: out.Keys,
		ExtraKeys:  extra,
		Fn:         fn,
	}, nil
}
