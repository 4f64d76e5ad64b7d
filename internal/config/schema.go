// internal/config/schema.go
//
// Explicit field descriptors for settings groups.
//
// Context
// -------
// Each settings group declares its shape once, as plain data: field name,
// kind, default, required flag, and bounds.  The resolver walks these
// descriptors instead of reflecting over struct tags, so provider
// precedence, defaults, and coercion are all driven from one table.
// Nested sections are Fields of KindSection with their own children;
// environment-like sources address them as PARENT__CHILD.
//
// Notes
// -----
//   - Field names are lowercase and unique within their section.
//   - Defaults are Go-typed values, already matching the field kind.
//   - Bounded int fields carry their range here so the range check runs no
//     matter which source supplied the value.

package config

// Kind enumerates declared field shapes.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindList    // ordered []string, duplicates retained
	KindSet     // []string, unique members, order unspecified
	KindSection // nested group of fields
)

// Field describes one declared settings field.
type Field struct {
	Name     string
	Kind     Kind
	Default  any  // nil means no default
	Required bool
	Bounded  bool // range check applies
	Min, Max int
	PEM      bool // value must carry a PEM envelope
	Secret   bool // never logged in plaintext
	Fields   []Field // children when Kind == KindSection
}

// Schema is the declared field set of one settings group, built once at
// package init and reused for every resolution pass.
type Schema struct {
	Group  string // logical group name used in error messages
	Kind   string // file kind, first segment of <kind>.<env>.yaml
	Fields []Field
}

// section is a declaration helper for nested groups.
func section(name string, fields ...Field) Field {
	return Field{Name: name, Kind: KindSection, Fields: fields}
}

// sequencePaths returns the dotted paths of every list- or set-kind field,
// mapped to its kind.  Environment-like providers consult this to decide
// which raw values need comma splitting.
func (s *Schema) sequencePaths() map[string]Kind {
	out := make(map[string]Kind)
	var walk func(prefix string, fields []Field)
	walk = func(prefix string, fields []Field) {
		for _, f := range fields {
			path := f.Name
			if prefix != "" {
				path = prefix + "." + f.Name
			}
			switch f.Kind {
			case KindSection:
				walk(path, f.Fields)
			case KindList, KindSet:
				out[path] = f.Kind
			}
		}
	}
	walk("", s.Fields)
	return out
}
