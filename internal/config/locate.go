// internal/config/locate.go
//
// Deployment-environment and settings-file discovery.
//
// Context
// -------
// The active environment name comes from an explicit override, then the
// KEEL_ENVIRONMENT variable, then the "development" default.  Settings
// files follow the pattern <dir>/<kind>.<environment>.yaml; when the file
// for the requested environment is missing, the error lists every sibling
// of the same kind so operators can see which environments exist.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultEnvironment is used when no override and no env var name one.
const DefaultEnvironment = "development"

// EnvironmentVar names the deployment environment for the process.
const EnvironmentVar = "KEEL_ENVIRONMENT"

// fileExt is the structured settings file extension.
const fileExt = ".yaml"

// Environment returns the active deployment environment name.
func Environment(override string) string {
	if override != "" {
		return override
	}
	if env := os.Getenv(EnvironmentVar); env != "" {
		return env
	}
	return DefaultEnvironment
}

// LocateFile builds the deterministic per-environment path for a file kind
// and verifies it exists.  On failure it returns a MissingFileError whose
// Known list holds the sibling files of the same kind.
func LocateFile(dir, kind, environment string) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s.%s%s", kind, environment, fileExt))
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", &MissingFileError{Path: path, Known: knownFiles(path)}
	}
	return path, nil
}

// knownFiles lists the sibling files sharing the kind and extension of the
// attempted path, e.g. config.development.yaml and config.production.yaml
// when config.staging.yaml was requested.
func knownFiles(attempted string) []string {
	dir := filepath.Dir(attempted)
	base := filepath.Base(attempted)
	kind, _, ok := strings.Cut(base, ".")
	if !ok {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, kind+".*"+fileExt))
	if err != nil {
		return nil
	}
	known := make([]string, 0, len(matches))
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && !fi.IsDir() {
			known = append(known, filepath.Base(m))
		}
	}
	return known
}
