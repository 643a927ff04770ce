package document

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// HCL block types.
const (
	blockReference = "reference"
	blockNode      = "node"
	blockEdge      = "edge"
)

// parseHCL maps the block syntax onto the raw document shape:
//
//	reference "emb" { type = "embedding" }
//	node "a" { type = "llm" input_keys = ["q"] output_key = "answer" }
//	edge { from = "START" to = "a" }
//
// Attributes are evaluated without variables. Anything unrecognised is kept
// as an extra top-level key so validation can reject it.
func parseHCL(data []byte, filename string) (map[string]any, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("unexpected HCL body type %T in %s", file.Body, filename)
	}

	raw := make(map[string]any)
	for name, attr := range body.Attributes {
		v, err := attrValue(attr)
		if err != nil {
			return nil, err
		}
		raw[name] = v
	}

	for _, block := range body.Blocks {
		item, err := blockItem(block)
		if err != nil {
			return nil, err
		}

		var field string
		switch block.Type {
		case blockReference:
			field = FieldReferences
		case blockNode:
			field = FieldNodes
		case blockEdge:
			field = FieldEdges
		default:
			field = block.Type
		}
		list, _ := raw[field].([]any)
		raw[field] = append(list, item)
	}

	return raw, nil
}

func blockItem(block *hclsyntax.Block) (map[string]any, error) {
	item := make(map[string]any, len(block.Body.Attributes)+1)
	switch block.Type {
	case blockReference, blockNode:
		if len(block.Labels) != 1 {
			return nil, fmt.Errorf("%s: %s block requires exactly one name label", block.DefRange(), block.Type)
		}
		item["name"] = block.Labels[0]
	}

	for name, attr := range block.Body.Attributes {
		v, err := attrValue(attr)
		if err != nil {
			return nil, err
		}
		item[name] = v
	}
	for _, nested := range block.Body.Blocks {
		return nil, fmt.Errorf("%s: nested %q blocks are not supported; use an object attribute", nested.DefRange(), nested.Type)
	}
	return item, nil
}

// attrValue evaluates an attribute and converts it to plain Go values by way
// of cty's JSON encoding.
func attrValue(attr *hclsyntax.Attribute) (any, error) {
	val, diags := attr.Expr.Value(&hcl.EvalContext{})
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to evaluate attribute %q: %w", attr.Name, diags)
	}
	return ctyToGo(val)
}

func ctyToGo(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known at load time")
	}
	data, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return nil, fmt.Errorf("failed to convert HCL value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to convert HCL value: %w", err)
	}
	return out, nil
}
