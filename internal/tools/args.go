package tools

import (
	"github.com/inletmail/gmail-mcp/internal/auth"
)

// stringArg returns the named string argument or fallback when absent.
func stringArg(args map[string]any, name, fallback string) string {
	if s, ok := args[name].(string); ok && s != "" {
		return s
	}
	return fallback
}

// requireString returns the named string argument or a validation error.
func requireString(args map[string]any, name string) (string, error) {
	s, ok := args[name].(string)
	if !ok || s == "" {
		return "", auth.NewError(auth.KindValidation, "%s is required", name)
	}
	return s, nil
}

// stringSlice coerces the named argument into a string slice. A single
// string is treated as a one-element slice; absent values yield nil.
func stringSlice(args map[string]any, name string) ([]string, error) {
	val, ok := args[name]
	if !ok || val == nil {
		return nil, nil
	}
	switch v := val.(type) {
	case string:
		if v == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, auth.NewError(auth.KindValidation, "%s must contain only strings", name)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, auth.NewError(auth.KindValidation, "%s must be a string or an array of strings", name)
	}
}

// requireStringSlice is stringSlice plus a non-empty requirement.
func requireStringSlice(args map[string]any, name string) ([]string, error) {
	out, err := stringSlice(args, name)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, auth.NewError(auth.KindValidation, "%s is required", name)
	}
	return out, nil
}

// intArg returns the named numeric argument or fallback. JSON decoding
// yields float64; typed callers may pass int or int64.
func intArg(args map[string]any, name string, fallback int64) int64 {
	switch v := args[name].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	default:
		return fallback
	}
}
