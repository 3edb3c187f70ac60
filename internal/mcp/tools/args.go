package tools

import (
	"math"

	"github.com/spf13/cast"

	"github.com/vthunder/chronos/internal/apperr"
	"github.com/vthunder/chronos/internal/timemath"
	"github.com/vthunder/chronos/internal/types"
)

// String reads a required string (presence is checked by the router)
func String(args map[string]any, key string) (string, error) {
	s, ok := args[key].(string)
	if !ok {
		return "", apperr.New(apperr.KindInvalidArgument, "%s must be a string", key)
	}
	return s, nil
}

// OptString reads an optional string; nil means absent or null
func OptString(args map[string]any, key string) (*string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, apperr.New(apperr.KindInvalidArgument, "%s must be a string", key)
	}
	return &s, nil
}

// OptStrings reads an optional list of strings
func OptStrings(args map[string]any, key string) ([]string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		return append([]string{}, list...), nil
	case []any:
		for _, item := range list {
			if _, isStr := item.(string); !isStr {
				return nil, apperr.New(apperr.KindInvalidArgument, "%s must be a list of strings", key)
			}
		}
		out, err := cast.ToStringSliceE(list)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInvalidArgument, err, "%s must be a list of strings", key)
		}
		return out, nil
	default:
		return nil, apperr.New(apperr.KindInvalidArgument, "%s must be a list of strings", key)
	}
}

// OptInt reads an optional integer. JSON numbers arrive as float64 and must
// be whole; numeric strings are accepted.
func OptInt(args map[string]any, key string) (*int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch n := v.(type) {
	case bool:
		return nil, apperr.New(apperr.KindInvalidArgument, "%s must be an integer", key)
	case float64:
		if n != math.Trunc(n) {
			return nil, apperr.New(apperr.KindInvalidArgument, "%s must be an integer, got %v", key, n)
		}
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return nil, apperr.New(apperr.KindInvalidArgument, "%s must be an integer, got %v", key, v)
	}
	return &i, nil
}

// OptScope reads an optional task_scope from the closed enumeration
func OptScope(args map[string]any, key string) (*types.TaskScope, error) {
	s, err := OptString(args, key)
	if err != nil || s == nil {
		return nil, err
	}
	scope, err := types.ParseTaskScope(*s)
	if err != nil {
		return nil, err
	}
	return &scope, nil
}

// OptTimestamp reads an optional ISO-8601 timestamp, returned as given
func OptTimestamp(args map[string]any, key string) (string, error) {
	s, err := OptString(args, key)
	if err != nil || s == nil || *s == "" {
		return "", err
	}
	if _, err := timemath.ParseISO(*s); err != nil {
		return "", apperr.Wrap(apperr.KindInvalidArgument, err, "%s must be an ISO 8601 timestamp", key)
	}
	return *s, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
