package node

import (
	"reflect"

	"github.com/vk/blockgraph/internal/document"
	"github.com/vk/blockgraph/internal/state"
)

// MetadataSuffix is appended to a node's name to form the state key its
// result metadata is stored under.
const MetadataSuffix = "_metadata"

// Result lets a function return metadata alongside its value.
type Result struct {
	Value    any
	Metadata map[string]any
}

// WrapOutput turns a function's return value into a state update keyed by
// out. A single key receives the value as is. Multiple keys require a slice
// or array of exactly that length, paired with the keys in order.
func WrapOutput(nodeName string, out document.OutputKey, raw any) (state.State, error) {
	update := state.State{}

	value := raw
	switch r := raw.(type) {
	case Result:
		value = r.Value
		if len(r.Metadata) > 0 {
			update[nodeName+MetadataSuffix] = r.Metadata
		}
	case *Result:
		if r != nil {
			value = r.Value
			if len(r.Metadata) > 0 {
				update[nodeName+MetadataSuffix] = r.Metadata
			}
		}
	}

	if !out.Multi {
		if len(out.Keys) == 1 {
			update[out.Keys[0]] = value
		}
		return update, nil
	}

	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, &ArityError{Node: nodeName, Expected: len(out.Keys), Keys: out.Keys, Actual: -1}
	}
	if rv.Len() != len(out.Keys) {
		return nil, &ArityError{Node: nodeName, Expected: len(out.Keys), Keys: out.Keys, Actual: rv.Len()}
	}
	for i, key := range out.Keys {
		update[key] = rv.Index(i).Interface()
	}
	return update, nil
}
