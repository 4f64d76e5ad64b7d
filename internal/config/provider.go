// internal/config/provider.go
//
// Source providers: the places configuration values come from.
//
// Context
// -------
// A Source yields a nested mapping of field paths to raw values and knows
// nothing about precedence or about other sources; ordering lives entirely
// in the resolver.  Five variants exist:
//
//   - FileSource      – one YAML file holding the whole tree for one
//     environment (koanf file provider + YAML parser).
//   - EnvSource       – process env vars, `KEEL_` prefix, `__` nesting,
//     case-insensitive names.
//   - OverrideSource  – caller-supplied map, verbatim.
//   - DotenvSource    – optional flat KEY=VALUE file, same naming rules as
//     EnvSource but lower priority (ordering is the resolver's business).
//   - SecretDirSource – one file per secret field; file name = field path,
//     trimmed contents = value.
//
// Notes
// -----
// Sources are instantiated per resolution pass and discarded.  Absence of
// the dotenv file, the secrets directory, or an individual secret file is
// not an error; the field falls through to the next source or its default.

package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces every environment variable the resolver reads.
const EnvPrefix = "KEEL_"

// nestDelim separates section from field in environment-like source names.
const nestDelim = "__"

// Source is a single origin of raw configuration values.
type Source interface {
	// Name identifies the source in logs and error messages.
	Name() string
	// Fetch returns the nested path→raw-value mapping of the source.
	Fetch() (map[string]any, error)
}

/*──────────────────────────── file source ─────────────────────────────────*/

// FileSource reads one structured YAML file for one environment.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource { return &FileSource{path: path} }

func (s *FileSource) Name() string { return "file:" + s.path }

// Fetch parses the whole file tree.  A missing file is fatal and carries
// the sibling files of the same kind as a diagnostic.
func (s *FileSource) Fetch() (map[string]any, error) {
	if _, err := os.Stat(s.path); err != nil {
		return nil, &MissingFileError{Path: s.path, Known: knownFiles(s.path)}
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(s.path), yaml.Parser()); err != nil {
		return nil, err
	}
	return k.Raw(), nil
}

/*──────────────────────────── env source ──────────────────────────────────*/

// EnvSource scans process environment variables matching the prefix.  It
// consults the schema so comma splitting applies only to fields whose
// declared shape is a list or set; scalars pass through as strings for the
// resolver's own coercion.
type EnvSource struct {
	prefix string
	seq    map[string]Kind
}

func NewEnvSource(prefix string, schema *Schema) *EnvSource {
	return &EnvSource{prefix: prefix, seq: schema.sequencePaths()}
}

func (s *EnvSource) Name() string { return "env:" + s.prefix }

func (s *EnvSource) Fetch() (map[string]any, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider(s.prefix, ".", func(key string) string {
		return envKey(key, s.prefix)
	}), nil); err != nil {
		return nil, err
	}
	raw := k.Raw()
	splitSequences(raw, s.seq)
	return raw, nil
}

/*──────────────────────────── override source ─────────────────────────────*/

// OverrideSource wraps a caller-supplied mapping verbatim.  Used chiefly by
// tests and programmatic construction paths.
type OverrideSource struct {
	values map[string]any
}

func NewOverrideSource(values map[string]any) *OverrideSource {
	return &OverrideSource{values: values}
}

func (s *OverrideSource) Name() string { return "override" }

func (s *OverrideSource) Fetch() (map[string]any, error) {
	if s.values == nil {
		return map[string]any{}, nil
	}
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(s.values, "."), nil); err != nil {
		return nil, err
	}
	return k.Raw(), nil
}

/*──────────────────────────── dotenv source ───────────────────────────────*/

// DotenvSource reads a flat KEY=VALUE file.  Absence is not an error.
type DotenvSource struct {
	path   string
	prefix string
	seq    map[string]Kind
}

func NewDotenvSource(path, prefix string, schema *Schema) *DotenvSource {
	return &DotenvSource{path: path, prefix: prefix, seq: schema.sequencePaths()}
}

func (s *DotenvSource) Name() string { return "dotenv:" + s.path }

func (s *DotenvSource) Fetch() (map[string]any, error) {
	if _, err := os.Stat(s.path); err != nil {
		return map[string]any{}, nil
	}
	pairs, err := godotenv.Read(s.path)
	if err != nil {
		return nil, err
	}
	flat := make(map[string]any, len(pairs))
	for key, val := range pairs {
		if !strings.HasPrefix(strings.ToUpper(key), s.prefix) {
			continue
		}
		flat[envKey(key, s.prefix)] = val
	}
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(flat, "."), nil); err != nil {
		return nil, err
	}
	raw := k.Raw()
	splitSequences(raw, s.seq)
	return raw, nil
}

/*──────────────────────────── secret dir source ───────────────────────────*/

// SecretDirSource treats each regular file in a directory as one field:
// the file name is the field path, the trimmed contents are the value.
type SecretDirSource struct {
	dir string
}

func NewSecretDirSource(dir string) *SecretDirSource {
	return &SecretDirSource{dir: dir}
}

func (s *SecretDirSource) Name() string { return "secretdir:" + s.dir }

func (s *SecretDirSource) Fetch() (map[string]any, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		// Absent directory → nothing to contribute.
		return map[string]any{}, nil
	}
	flat := make(map[string]any)
	for _, ent := range entries {
		if !ent.Type().IsRegular() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, ent.Name()))
		if err != nil {
			return nil, err
		}
		flat[envKey(ent.Name(), "")] = strings.TrimSpace(string(data))
	}
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(flat, "."), nil); err != nil {
		return nil, err
	}
	return k.Raw(), nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// envKey normalizes an environment-like name to a dotted schema path:
// strip the prefix, lowercase, and map the `__` nesting delimiter to ".".
func envKey(key, prefix string) string {
	key = strings.TrimPrefix(strings.ToUpper(key), prefix)
	return strings.ToLower(strings.ReplaceAll(key, nestDelim, "."))
}

// splitSequences walks the declared list/set paths and comma-splits any
// raw string value found there, in place.
func splitSequences(m map[string]any, seq map[string]Kind) {
	for path, kind := range seq {
		raw, ok := lookupPath(m, strings.Split(path, "."))
		if !ok {
			continue
		}
		str, ok := raw.(string)
		if !ok {
			continue
		}
		if kind == KindSet {
			setPath(m, strings.Split(path, "."), SplitSet(str))
		} else {
			setPath(m, strings.Split(path, "."), SplitList(str))
		}
	}
}

// lookupPath walks a nested mapping by path segments.
func lookupPath(m map[string]any, path []string) (any, bool) {
	cur := any(m)
	for _, seg := range path {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = node[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// setPath writes a value into a nested mapping, creating intermediate
// sections as needed.
func setPath(m map[string]any, path []string, val any) {
	for i, seg := range path {
		if i == len(path)-1 {
			m[seg] = val
			return
		}
		next, ok := m[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[seg] = next
		}
		m = next
	}
}
