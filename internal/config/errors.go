// internal/config/errors.go
//
// Error taxonomy for the settings resolver.
//
// Context
// -------
// Every error in this package is startup-fatal by design: serving traffic
// with incomplete or invalid configuration is unacceptable, so nothing here
// is retried or swallowed.  Each type names the offending field and group
// so operator diagnosis is immediate.
//
// Types
// -----
//   - MissingFileError  – per-environment file absent; lists siblings.
//   - MissingFieldError – no provider and no default supplied a value.
//   - FormatError       – value present but malformed (PEM envelope, bool
//     token, unparsable integer).
//   - RangeError        – integer outside its declared bounds.

package config

import (
	"fmt"
	"strings"
)

// MissingFileError reports a per-environment settings file that does not
// exist.  Known holds the sibling files matching the expected pattern so
// operators can see which environments are actually available.
type MissingFileError struct {
	Path  string
	Known []string
}

func (e *MissingFileError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("configuration file %s not found, no known alternatives", e.Path)
	}
	return fmt.Sprintf("configuration file %s not found, known files: %s",
		e.Path, strings.Join(e.Known, ", "))
}

// MissingFieldError reports a required field that no provider and no
// declared default supplied.
type MissingFieldError struct {
	Group string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s settings: required field %q has no value from any source and no default", e.Group, e.Field)
}

// FormatError reports a value that was present but failed coercion or a
// format invariant.
type FormatError struct {
	Group  string
	Field  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s settings: field %q: %s", e.Group, e.Field, e.Reason)
}

// RangeError reports an integer outside its declared bounds.
type RangeError struct {
	Group string
	Field string
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s settings: field %q: value %d outside allowed range [%d, %d]",
		e.Group, e.Field, e.Value, e.Min, e.Max)
}
