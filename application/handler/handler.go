// Package handler provides task handlers for processing queued operations.
package handler

import (
	"fmt"
)

// ExtractInt64 extracts an int64 value from the payload. JSON round trips
// turn integers into float64, which is accepted.
func ExtractInt64(payload map[string]any, key string) (int64, error) {
	val, ok := payload[key]
	if !ok {
		return 0, fmt.Errorf("missing required field: %s", key)
	}

	switch v := val.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("invalid type for %s: %T", key, val)
	}
}

// ExtractString extracts a string value from the payload.
func ExtractString(payload map[string]any, key string) (string, error) {
	val, ok := payload[key]
	if !ok {
		return "", fmt.Errorf("missing required field: %s", key)
	}

	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("invalid type for %s: expected string, got %T", key, val)
	}

	return s, nil
}

// ExtractBool extracts an optional boolean from the payload. A missing key
// is false.
func ExtractBool(payload map[string]any, key string) (bool, error) {
	val, ok := payload[key]
	if !ok {
		return false, nil
	}

	b, ok := val.(bool)
	if !ok {
		return false, fmt.Errorf("invalid type for %s: expected bool, got %T", key, val)
	}

	return b, nil
}
