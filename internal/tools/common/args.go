package common

import (
	"strings"
)

// GetStringArg extracts a string argument, returning the fallback when the
// argument is absent, empty, or not a string.
func GetStringArg(args map[string]interface{}, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// GetIntArg extracts an integer argument. JSON numbers arrive as float64,
// so both representations are accepted.
func GetIntArg(args map[string]interface{}, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

// GetBoolArg extracts a boolean argument, returning the fallback when the
// argument is absent or not a boolean.
func GetBoolArg(args map[string]interface{}, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}

// GetStringSliceArg extracts a list-of-strings argument. It accepts both a
// JSON array and a comma-separated string, since MCP clients send either.
// Empty entries are dropped.
func GetStringSliceArg(args map[string]interface{}, key string) []string {
	var out []string

	switch v := args[key].(type) {
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}

	return out
}
