package node

import (
	"fmt"
	"strings"

	"github.com/vk/blockgraph/internal/state"
)

// remapArrow separates the state key from the argument name in an input key.
const remapArrow = "->"

// InputKey pairs the state key a value is read from with the argument name it
// is passed under.
type InputKey struct {
	Source string
	Dest   string
}

// ParseInputKey parses "source -> destination". A bare key maps to itself.
func ParseInputKey(raw string) (InputKey, error) {
	parts := strings.Split(raw, remapArrow)
	switch len(parts) {
	case 1:
		key := strings.TrimSpace(parts[0])
		if key == "" {
			return InputKey{}, fmt.Errorf("empty input key")
		}
		return InputKey{Source: key, Dest: key}, nil
	case 2:
		src, dst := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if src == "" || dst == "" {
			return InputKey{}, fmt.Errorf("input key %q: both sides of '->' must be non-empty", raw)
		}
		return InputKey{Source: src, Dest: dst}, nil
	default:
		return InputKey{}, fmt.Errorf("input key %q: at most one '->' is allowed", raw)
	}
}

// ParseInputKeys parses every key in raw.
func ParseInputKeys(raw []string) ([]InputKey, error) {
	keys := make([]InputKey, 0, len(raw))
	for _, r := range raw {
		k, err := ParseInputKey(r)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Sources returns the state-side key of each input.
func Sources(keys []InputKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.Source
	}
	return out
}

// ExtractInputs reads each key from s and returns the values under their
// destination names. All missing keys are reported together.
func ExtractInputs(nodeName string, keys []InputKey, s state.State) (map[string]any, error) {
	inputs := make(map[string]any, len(keys))
	var missing []string
	for _, k := range keys {
		v, ok := s[k.Source]
		if !ok {
			missing = append(missing, k.Source)
			continue
		}
		inputs[k.Dest] = v
	}
	if len(missing) > 0 {
		return nil, &MissingInputError{Node: nodeName, Keys: missing}
	}
	return inputs, nil
}

// MergeParams returns inputs overlaid with params. Neither argument is modified.
func MergeParams(inputs, params map[string]any) map[string]any {
	out := make(map[string]any, len(inputs)+len(params))
	for k, v := range inputs {
		out[k] = v
	}
	for k, v := range params {
		out[k] = v
	}
	return out
}
