package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"

	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func parseFormat(s string) (string, error) {
	switch s {
	case formatJSON, formatYAML:
		return s, nil
	}
	return "", usageError(fmt.Errorf("invalid output format %q: must be json or yaml", s))
}

// decodeInput decodes a JSON or YAML mapping into dst. JSON is read as YAML.
func decodeInput(data []byte, dst map[string]any) error {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return err
	}
	maps.Copy(dst, m)
	return nil
}

func writeValue(w io.Writer, format string, v any) error {
	if format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
