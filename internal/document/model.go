package document

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Top-level field names.
const (
	FieldReferences = "references"
	FieldNodes      = "nodes"
	FieldEdges      = "edges"
)

// Edge endpoint sentinels.
const (
	Start = "START"
	End   = "END"
)

// Document is the typed form of a validated graph document.
type Document struct {
	References []ReferenceDef `yaml:"references"`
	Nodes      []NodeDef      `yaml:"nodes"`
	Edges      []EdgeDef      `yaml:"edges"`
}

// ReferenceDef declares a shared, non-executable resource.
type ReferenceDef struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Config Config `yaml:"config"`
}

// NodeDef declares one processing step.
type NodeDef struct {
	Name      string    `yaml:"name"`
	Type      string    `yaml:"type"`
	InputKeys []string  `yaml:"input_keys"`
	OutputKey OutputKey `yaml:"output_key"`
	Config    Config    `yaml:"config"`
}

// EdgeDef is a directed connection between two node names or sentinels.
// A non-nil Condition makes the edge conditional on the state's route field.
type EdgeDef struct {
	From      string  `yaml:"from"`
	To        string  `yaml:"to"`
	Condition *string `yaml:"condition"`
}

func (e EdgeDef) String() string {
	if e.Condition != nil {
		return fmt.Sprintf("%s -[%s]-> %s", e.From, *e.Condition, e.To)
	}
	return fmt.Sprintf("%s -> %s", e.From, e.To)
}

// OutputKey is either a single state key or an ordered list of keys.
type OutputKey struct {
	Keys  []string
	Multi bool
}

// SingleOutput returns an OutputKey naming one key.
func SingleOutput(key string) OutputKey {
	return OutputKey{Keys: []string{key}}
}

// MultiOutput returns an OutputKey naming several keys.
func MultiOutput(keys ...string) OutputKey {
	return OutputKey{Keys: keys, Multi: true}
}

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (o *OutputKey) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*o = OutputKey{}
			return nil
		}
		*o = SingleOutput(value.Value)
		return nil
	case yaml.SequenceNode:
		var keys []string
		if err := value.Decode(&keys); err != nil {
			return fmt.Errorf("output_key: %w", err)
		}
		*o = MultiOutput(keys...)
		return nil
	default:
		return fmt.Errorf("output_key must be a string or a list of strings (line %d)", value.Line)
	}
}

// MarshalYAML writes the single or list form back out.
func (o OutputKey) MarshalYAML() (any, error) {
	if o.Multi {
		return o.Keys, nil
	}
	if len(o.Keys) == 0 {
		return nil, nil
	}
	return o.Keys[0], nil
}

func (o OutputKey) String() string {
	if o.Multi {
		return "[" + strings.Join(o.Keys, ", ") + "]"
	}
	if len(o.Keys) == 0 {
		return ""
	}
	return o.Keys[0]
}
