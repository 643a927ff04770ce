package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for files whose extension has no loader.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Extensions lists the file extensions a document may have.
var Extensions = []string{".yaml", ".yml", ".hcl"}

// Source is a raw, not yet validated document together with where it came from.
type Source struct {
	// Path identifies the document. It is an absolute file path, or
	// "<parent>#<node>" for a document embedded inline in a sub-graph node.
	Path string
	// BaseDir is the directory relative locators inside the document resolve against.
	BaseDir string
	// Raw is the parsed document as plain maps and slices.
	Raw map[string]any
}

// LoadFile reads and parses the document at path.
func LoadFile(path string) (*Source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve document path %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	raw, err := Parse(data, abs)
	if err != nil {
		return nil, err
	}
	return &Source{Path: abs, BaseDir: filepath.Dir(abs), Raw: raw}, nil
}

// Parse decodes data into raw form, choosing the format from filename's extension.
func Parse(data []byte, filename string) (map[string]any, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return parseYAML(data, filename)
	case ".hcl":
		return parseHCL(data, filename)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

// IsDocument reports whether path has a document extension.
func IsDocument(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// FromMap wraps an in-memory raw document.
func FromMap(raw map[string]any, path, baseDir string) *Source {
	return &Source{Path: path, BaseDir: baseDir, Raw: raw}
}

func parseYAML(data []byte, filename string) (map[string]any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file %s: %w", filename, err)
	}
	if raw == nil {
		return map[string]any{}, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document %s must be a mapping at the top level, got %T", filename, raw)
	}
	return m, nil
}

// Decode converts the raw document into the typed model. It assumes the raw
// form already passed structural validation.
func (s *Source) Decode() (*Document, error) {
	data, err := yaml.Marshal(s.Raw)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode document %s: %w", s.Path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", s.Path, err)
	}
	return &doc, nil
}
