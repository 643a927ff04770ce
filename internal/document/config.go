package document

import (
	"maps"
	"slices"
	"strconv"
)

// Well-known config keys.
const (
	KeyParam        = "param"
	KeyReference    = "reference"
	KeyLegacyParams = "params"
	KeyFromFile     = "from_file"
	KeyGraph        = "graph"
)

// Config is the opaque per-item configuration mapping. The accessors are
// lenient: a missing or mistyped value yields the zero value or the default.
type Config map[string]any

// String returns the string value at key.
func (c Config) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// Map returns the mapping at key, or nil.
func (c Config) Map(key string) Config {
	return asConfig(c[key])
}

// Param returns the fixed parameters mapping.
func (c Config) Param() Config {
	return c.Map(KeyParam)
}

// Reference returns the reference name bound to role.
func (c Config) Reference(role string) string {
	return c.Map(KeyReference).String(role)
}

// ReferenceNames returns every reference name mentioned under the reference
// mapping, ordered by role. A role may name one reference or a list.
func (c Config) ReferenceNames() []string {
	refs := c.Map(KeyReference)
	var out []string
	for _, role := range slices.Sorted(maps.Keys(refs)) {
		switch v := refs[role].(type) {
		case string:
			out = append(out, v)
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
		case []string:
			out = append(out, v...)
		}
	}
	return out
}

// Int returns the integer at key or def. Floats with no fraction and numeric
// strings are accepted since JSON-shaped sources carry numbers as float64.
func (c Config) Int(key string, def int) int {
	switch v := c[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Float returns the number at key or def.
func (c Config) Float(key string, def float64) float64 {
	switch v := c[key].(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// StringSlice returns the list of strings at key.
func (c Config) StringSlice(key string) []string {
	switch v := c[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func asConfig(v any) Config {
	switch m := v.(type) {
	case Config:
		return m
	case map[string]any:
		return Config(m)
	}
	return nil
}
