// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// The resolver calls validateStruct immediately after it unmarshals the
// merged source tree into a typed settings struct.  Any tag mismatch or
// validation error aborts startup, ensuring the binary never runs with
// partial, malformed, or missing configuration.
//
// Beyond the built-in rules we register one custom rule, `pem`, which
// checks the begin/end envelope of key material.  The deeper range and
// format invariants are enforced by the schema descriptors before the
// struct ever exists; this layer is the structural backstop.

package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	// Required-ness is the schema's job; empty strings skip the rule via
	// omitempty on the field tag.
	_ = val.RegisterValidation("pem", func(fl validator.FieldLevel) bool {
		return checkPEM(fl.Field().String()) == nil
	})
	return val
}

// validateStruct returns the first validation error, or nil on success.
// Errors name the group so operator diagnosis stays immediate.
func validateStruct(group string, s any) error {
	if err := v.Struct(s); err != nil {
		return fmt.Errorf("%s settings invalid: %w", group, err)
	}
	return nil
}

// pemBegin and pemEnd are the envelope markers key material must carry.
const (
	pemBegin = "-----BEGIN"
	pemEnd   = "-----END"
)

// checkPEM verifies the PEM envelope: the value must start with the begin
// marker and, after trimming trailing whitespace, end on an end-marker
// line.  Trailing whitespace after the final marker is tolerated.
func checkPEM(value string) error {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, pemBegin) {
		return fmt.Errorf("missing %q envelope marker", pemBegin)
	}
	lastLine := trimmed
	if i := strings.LastIndexByte(trimmed, '\n'); i != -1 {
		lastLine = strings.TrimSpace(trimmed[i+1:])
	}
	if !strings.HasPrefix(lastLine, pemEnd) {
		return fmt.Errorf("missing %q envelope marker", pemEnd)
	}
	return nil
}
