// internal/config/resolve.go
//
// Precedence resolver: ordered sources → one typed settings group.
//
// Context
// -------
// For each declared field the resolver walks the source list in order and
// takes the value from the first source whose mapping contains that path.
// Nested sections resolve field by field, so one source may supply only
// part of a section and the rest falls through to lower-priority sources
// or declared defaults.  A required field with no value from any source
// and no default aborts the whole pass; there is no partially-valid
// settings object.
//
// After selection each value passes through coercion and the invariant
// checks declared on its field, the merged tree is unmarshalled into the
// typed struct via koanf, and the struct is validated.
//
// Notes
// -----
// Expand, when set, rewrites selected string values before coercion; the
// cache wires it to the Vault client so `vault:path#key` references never
// reach the typed struct.

package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	koanf "github.com/knadh/koanf/v2"
)

// Resolver merges an ordered source list (highest priority first) into one
// typed settings group.
type Resolver struct {
	Schema  *Schema
	Sources []Source
	Expand  func(string) (string, error)
}

// Resolve fetches every source once, selects and coerces each declared
// field, and fills out (a pointer to the group's settings struct).
func (r *Resolver) Resolve(out any) error {
	fetched := make([]map[string]any, 0, len(r.Sources))
	for _, src := range r.Sources {
		m, err := src.Fetch()
		if err != nil {
			return fmt.Errorf("source %s: %w", src.Name(), err)
		}
		fetched = append(fetched, m)
	}

	merged := make(map[string]any)
	if err := r.resolveFields(r.Schema.Fields, nil, fetched, merged); err != nil {
		return err
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(merged, ""), nil); err != nil {
		return fmt.Errorf("%s settings: assemble tree: %w", r.Schema.Group, err)
	}
	if err := k.Unmarshal("", out); err != nil {
		return fmt.Errorf("%s settings: unmarshal: %w", r.Schema.Group, err)
	}
	return validateStruct(r.Schema.Group, out)
}

// resolveFields walks one declaration level, recursing into sections.
func (r *Resolver) resolveFields(fields []Field, prefix []string, fetched []map[string]any, out map[string]any) error {
	for _, f := range fields {
		path := make([]string, len(prefix), len(prefix)+1)
		copy(path, prefix)
		path = append(path, f.Name)

		if f.Kind == KindSection {
			sub := make(map[string]any)
			if err := r.resolveFields(f.Fields, path, fetched, sub); err != nil {
				return err
			}
			out[f.Name] = sub
			continue
		}

		raw, ok := firstHit(fetched, path)
		if !ok {
			if f.Default != nil {
				out[f.Name] = f.Default
				continue
			}
			if f.Required {
				return &MissingFieldError{Group: r.Schema.Group, Field: strings.Join(path, ".")}
			}
			continue
		}

		if str, isStr := raw.(string); isStr && r.Expand != nil {
			expanded, err := r.Expand(str)
			if err != nil {
				return &FormatError{Group: r.Schema.Group, Field: strings.Join(path, "."), Reason: err.Error()}
			}
			raw = expanded
		}

		val, err := coerceValue(r.Schema.Group, strings.Join(path, "."), f, raw)
		if err != nil {
			return err
		}
		out[f.Name] = val
	}
	return nil
}

// firstHit returns the value from the first source containing path.
func firstHit(fetched []map[string]any, path []string) (any, bool) {
	for _, m := range fetched {
		if v, ok := lookupPath(m, path); ok {
			return v, true
		}
	}
	return nil, false
}

// coerceValue converts a selected raw value into the field's declared
// shape and runs the field's invariant checks.  File-typed values (native
// ints, bools, arrays) pass through; string values coerce.
func coerceValue(group, path string, f Field, raw any) (any, error) {
	switch f.Kind {
	case KindString:
		s, ok := stringify(raw)
		if !ok {
			return nil, &FormatError{Group: group, Field: path, Reason: fmt.Sprintf("cannot use %T as string", raw)}
		}
		if f.PEM {
			if err := checkPEM(s); err != nil {
				return nil, &FormatError{Group: group, Field: path, Reason: err.Error()}
			}
		}
		return s, nil

	case KindInt:
		n, err := toInt(group, path, raw)
		if err != nil {
			return nil, err
		}
		if f.Bounded {
			if err := CheckRange(group, path, n, f.Min, f.Max); err != nil {
				return nil, err
			}
		}
		return n, nil

	case KindBool:
		switch t := raw.(type) {
		case bool:
			return t, nil
		case string:
			return ParseBool(group, path, t)
		}
		return nil, &FormatError{Group: group, Field: path, Reason: fmt.Sprintf("cannot use %T as bool", raw)}

	case KindList, KindSet:
		items, err := toStrings(group, path, raw, f.Kind == KindSet)
		if err != nil {
			return nil, err
		}
		return items, nil
	}
	return nil, &FormatError{Group: group, Field: path, Reason: "unsupported field kind"}
}

func stringify(raw any) (string, bool) {
	switch t := raw.(type) {
	case string:
		return t, true
	case int, int64, uint64, float64, bool:
		return fmt.Sprintf("%v", t), true
	}
	return "", false
}

func toInt(group, path string, raw any) (int, error) {
	switch t := raw.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case uint64:
		return int(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, &FormatError{Group: group, Field: path, Reason: fmt.Sprintf("non-integer number %v", t)}
		}
		return int(t), nil
	case string:
		return ParseInt(group, path, t)
	}
	return 0, &FormatError{Group: group, Field: path, Reason: fmt.Sprintf("cannot use %T as integer", raw)}
}

// toStrings accepts comma-delimited strings, native arrays, and []string.
// Sequences already split by a source (native file arrays, pre-split env
// values) need no further splitting.
func toStrings(group, path string, raw any, unique bool) ([]string, error) {
	var items []string
	switch t := raw.(type) {
	case string:
		if unique {
			return SplitSet(t), nil
		}
		return SplitList(t), nil
	case []string:
		items = append(items, t...)
	case []any:
		for _, v := range t {
			s, ok := stringify(v)
			if !ok {
				return nil, &FormatError{Group: group, Field: path, Reason: fmt.Sprintf("cannot use %T as string element", v)}
			}
			items = append(items, s)
		}
	default:
		return nil, &FormatError{Group: group, Field: path, Reason: fmt.Sprintf("cannot use %T as string sequence", raw)}
	}
	if unique {
		seen := make(map[string]struct{}, len(items))
		dedup := items[:0]
		for _, it := range items {
			if _, dup := seen[it]; dup {
				continue
			}
			seen[it] = struct{}{}
			dedup = append(dedup, it)
		}
		items = dedup
	}
	return items, nil
}
