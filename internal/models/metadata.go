package models

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Metadata is a note's raw frontmatter. Accessors never panic and report
// whether the key held a value of the requested shape.
type Metadata map[string]any

// Has reports whether key is present with a non-nil value.
func (m Metadata) Has(key string) bool {
	v, ok := m[key]
	return ok && v != nil
}

// Raw returns the untyped value under key.
func (m Metadata) Raw(key string) (any, bool) {
	v, ok := m[key]
	return v, ok && v != nil
}

// GetString returns the trimmed string under key.
func (m Metadata) GetString(key string) (string, bool) {
	s, ok := m[key].(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// GetStringList returns the string entries under key. A single string is
// treated as a one-element list; non-string and blank entries are dropped.
func (m Metadata) GetStringList(key string) ([]string, bool) {
	return StringList(m[key])
}

// GetBool accepts a native boolean or the literal strings "true" and "false".
func (m Metadata) GetBool(key string) (bool, bool) {
	switch v := m[key].(type) {
	case bool:
		return v, true
	case string:
		switch v {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// GetInt returns an integral numeric value under key. Strings, booleans, and
// fractional numbers are rejected.
func (m Metadata) GetInt(key string) (int, bool) {
	return Int(m[key])
}

// Int converts an integral YAML/JSON number to int.
func Int(v any) (int, bool) {
	switch n := v.(type) {
	case nil, bool, string:
		return 0, false
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
	case float32:
		if float64(n) != math.Trunc(float64(n)) {
			return 0, false
		}
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

// StringList coerces a single string or a list of values to trimmed,
// non-empty strings.
func StringList(v any) ([]string, bool) {
	switch x := v.(type) {
	case string:
		if s := strings.TrimSpace(x); s != "" {
			return []string{s}, true
		}
		return nil, true
	case []string:
		return compact(x), true
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return compact(out), true
	default:
		return nil, false
	}
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
