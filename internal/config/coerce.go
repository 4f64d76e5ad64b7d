// internal/config/coerce.go
//
// Scalar and sequence coercion for string-typed sources.
//
// Context
// -------
// Environment-like sources (env vars, dotenv files, secret-file
// directories) only carry strings.  These helpers turn a raw string into
// the declared field shape.  All functions are pure; bounds and labels are
// threaded in by the resolver so errors name the offending field.

package config

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitList parses a comma-delimited string into an ordered slice.  Each
// element is whitespace-trimmed, empty elements are dropped, and duplicates
// are retained.
func SplitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SplitSet parses a comma-delimited string like SplitList but removes
// duplicate members.  Order of the result is unspecified.
func SplitSet(raw string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range SplitList(raw) {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// ParseBool matches raw against the canonical truthy and falsy tokens,
// case-insensitively.  Unrecognized tokens are a format error.
func ParseBool(group, field, raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off":
		return false, nil
	}
	return false, &FormatError{
		Group:  group,
		Field:  field,
		Reason: fmt.Sprintf("unrecognized boolean token %q", raw),
	}
}

// ParseInt parses raw as a base-10 integer.
func ParseInt(group, field, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &FormatError{
			Group:  group,
			Field:  field,
			Reason: fmt.Sprintf("unparsable integer %q", raw),
		}
	}
	return n, nil
}

// CheckRange rejects values outside [min, max] with a labeled range error.
// Port numbers use [1, 65535], redis database indexes use [0, 15].
func CheckRange(group, field string, value, min, max int) error {
	if value < min || value > max {
		return &RangeError{Group: group, Field: field, Value: value, Min: min, Max: max}
	}
	return nil
}
