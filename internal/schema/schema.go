// Package schema performs the static structural checks a raw graph document
// must pass before anything is built from it.
package schema

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/vk/blockgraph/internal/document"
	"github.com/vk/blockgraph/internal/nodetype"
)

// ErrInvalidDocument is matched by every validation failure.
var ErrInvalidDocument = errors.New("invalid graph document")

// Kinds of validation failure.
var (
	ErrTopLevel        = errors.New("invalid top-level structure")
	ErrMalformedItem   = errors.New("malformed item")
	ErrDuplicateName   = errors.New("duplicate name")
	ErrUnsupportedType = errors.New("unsupported type")
	ErrMisplacedType   = errors.New("type not allowed in this collection")
	ErrMissingSubgraph = errors.New("sub-graph source missing")
	ErrLegacyParams    = errors.New("legacy 'params' key")
	ErrBadEdge         = errors.New("invalid edge")
	ErrExitEdge        = errors.New("exit edge count")
	ErrEntryEdge       = errors.New("missing entry edge")
	ErrUnreachable     = errors.New("unreachable from START")
	ErrDeadEnd         = errors.New("cannot reach END")
)

// Error describes one structural problem.
type Error struct {
	Kind     error
	Location string
	Detail   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Location, e.Kind, e.Detail)
}

// Unwrap lets callers match both the specific kind and ErrInvalidDocument.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, ErrInvalidDocument}
}

func fail(kind error, location, format string, args ...any) error {
	return &Error{Kind: kind, Location: location, Detail: fmt.Sprintf(format, args...)}
}

// item is a reference or node entry that passed the shape checks.
type item struct {
	loc    string
	name   string
	typ    string
	config map[string]any
}

// Validate checks raw against the document rules. Checks run in a fixed order
// and each one assumes the earlier ones passed, so only the first problem is
// reported.
func Validate(raw map[string]any) error {
	if err := checkTopLevel(raw); err != nil {
		return err
	}

	refs, err := collectItems(raw, document.FieldReferences)
	if err != nil {
		return err
	}
	nodes, err := collectItems(raw, document.FieldNodes)
	if err != nil {
		return err
	}

	if err := checkNames(refs, nodes); err != nil {
		return err
	}
	if err := checkTypes(refs, nodetype.NonExecution); err != nil {
		return err
	}
	if err := checkTypes(nodes, nodetype.Execution); err != nil {
		return err
	}
	if err := checkSubgraphs(nodes); err != nil {
		return err
	}
	for _, it := range slices.Concat(refs, nodes) {
		if _, ok := it.config[document.KeyLegacyParams]; ok {
			return fail(ErrLegacyParams, it.loc, "rename 'params' to 'param'")
		}
	}

	// Documents that only declare references have nothing to wire.
	if len(nodes) == 0 {
		return nil
	}

	nodeNames := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		nodeNames[n.name] = true
	}

	edges, err := collectEdges(raw, nodeNames)
	if err != nil {
		return err
	}
	if err := checkEntryExit(edges); err != nil {
		return err
	}
	return checkReachability(nodes, edges)
}

func checkTopLevel(raw map[string]any) error {
	allowed := map[string]bool{
		document.FieldReferences: true,
		document.FieldNodes:      true,
		document.FieldEdges:      true,
	}
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		if !allowed[key] {
			return fail(ErrTopLevel, "document", "unknown top-level field %q (allowed: references, nodes, edges)", key)
		}
		switch raw[key].(type) {
		case nil, []any:
		default:
			return fail(ErrTopLevel, key, "must be a list, got %T", raw[key])
		}
	}
	return nil
}

func collectItems(raw map[string]any, field string) ([]item, error) {
	list, _ := raw[field].([]any)
	out := make([]item, 0, len(list))
	for i, entry := range list {
		loc := fmt.Sprintf("%s[%d]", field, i)
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fail(ErrMalformedItem, loc, "must be a mapping, got %T", entry)
		}
		name, _ := m["name"].(string)
		if name == "" {
			return nil, fail(ErrMalformedItem, loc, "'name' must be a non-empty string")
		}
		loc = fmt.Sprintf("%s (%q)", loc, name)
		if name == document.Start || name == document.End {
			return nil, fail(ErrMalformedItem, loc, "%q is a reserved edge endpoint", name)
		}
		typ, _ := m["type"].(string)
		if typ == "" {
			return nil, fail(ErrMalformedItem, loc, "'type' must be a non-empty string")
		}

		var cfg map[string]any
		switch c := m["config"].(type) {
		case nil:
		case map[string]any:
			cfg = c
		default:
			return nil, fail(ErrMalformedItem, loc, "'config' must be a mapping, got %T", c)
		}

		if field == document.FieldNodes {
			if err := checkKeys(m, loc); err != nil {
				return nil, err
			}
		}
		out = append(out, item{loc: loc, name: name, typ: typ, config: cfg})
	}
	return out, nil
}

func checkKeys(m map[string]any, loc string) error {
	if v, ok := m["input_keys"]; ok && v != nil {
		if !isStringList(v) {
			return fail(ErrMalformedItem, loc, "'input_keys' must be a list of strings")
		}
	}
	switch v := m["output_key"].(type) {
	case nil, string:
	default:
		if !isStringList(v) {
			return fail(ErrMalformedItem, loc, "'output_key' must be a string or a list of strings")
		}
	}
	return nil
}

func isStringList(v any) bool {
	list, ok := v.([]any)
	if !ok {
		return false
	}
	for _, e := range list {
		if _, ok := e.(string); !ok {
			return false
		}
	}
	return true
}

func checkNames(refs, nodes []item) error {
	seen := make(map[string]string, len(refs)+len(nodes))
	for _, it := range slices.Concat(refs, nodes) {
		if prev, ok := seen[it.name]; ok {
			return fail(ErrDuplicateName, it.loc, "name %q already used by %s", it.name, prev)
		}
		seen[it.name] = it.loc
	}
	return nil
}

func checkTypes(items []item, want nodetype.Class) error {
	for _, it := range items {
		switch got := nodetype.Classify(it.typ); got {
		case want:
		case nodetype.Unsupported:
			return fail(ErrUnsupportedType, it.loc, "type %q is not supported", it.typ)
		default:
			return fail(ErrMisplacedType, it.loc, "type %q is a %s type", it.typ, got)
		}
	}
	return nil
}

func checkSubgraphs(nodes []item) error {
	for _, n := range nodes {
		if !nodetype.IsSubgraph(n.typ) {
			continue
		}
		if path, _ := n.config[document.KeyFromFile].(string); path != "" {
			continue
		}
		if _, ok := n.config[document.KeyGraph].(map[string]any); ok {
			continue
		}
		return fail(ErrMissingSubgraph, n.loc, "config must set 'from_file' or an inline 'graph'")
	}
	return nil
}
