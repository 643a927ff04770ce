// Package docset converts state values to and from langchaingo documents.
package docset

import (
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/schema"
)

// FromValue normalises a state value into documents. Strings become
// documents without metadata. Lists are flattened.
func FromValue(v any) ([]schema.Document, error) {
	switch d := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []schema.Document{{PageContent: d}}, nil
	case schema.Document:
		return []schema.Document{d}, nil
	case *schema.Document:
		return []schema.Document{*d}, nil
	case []schema.Document:
		return d, nil
	case []string:
		out := make([]schema.Document, len(d))
		for i, s := range d {
			out[i] = schema.Document{PageContent: s}
		}
		return out, nil
	case []any:
		var out []schema.Document
		for _, item := range d {
			docs, err := FromValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, docs...)
		}
		return out, nil
	case map[string]any:
		content, ok := d["page_content"].(string)
		if !ok {
			return nil, errors.New("document mapping needs a string page_content")
		}
		meta, _ := d["metadata"].(map[string]any)
		return []schema.Document{{PageContent: content, Metadata: meta}}, nil
	}
	return nil, fmt.Errorf("cannot use %T as a document", v)
}

// FromValues concatenates the documents of every value in order.
func FromValues(values ...any) ([]schema.Document, error) {
	var out []schema.Document
	for _, v := range values {
		docs, err := FromValue(v)
		if err != nil {
			return nil, err
		}
		out = append(out, docs...)
	}
	return out, nil
}
