// internal/config/resolve_test.go
//
// Tests for precedence resolution, coercion, and invariant checks.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// writeAppFile writes a config.development.yaml into a fresh dir and
// returns its path.
func writeAppFile(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.development.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveDefaultsOnly(t *testing.T) {
	path := writeAppFile(t, "{}\n")
	res := &Resolver{
		Schema:  appSchema,
		Sources: []Source{NewFileSource(path)},
	}
	var s AppSettings
	if err := res.Resolve(&s); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.Server.Host != "0.0.0.0" || s.Server.Port != 8000 {
		t.Fatalf("server defaults wrong: %+v", s.Server)
	}
	if s.Redis.SocketTimeout != 5 {
		t.Fatalf("redis.socket_timeout default = %d, want 5", s.Redis.SocketTimeout)
	}
	if !reflect.DeepEqual(s.CORS.AllowOrigins, []string{"*"}) {
		t.Fatalf("cors.allow_origins default = %#v", s.CORS.AllowOrigins)
	}
}

func TestEnvOverridesFileDefaultInNestedSection(t *testing.T) {
	// File declares 5; env supplies 15 through the nesting delimiter.
	path := writeAppFile(t, "redis:\n  socket_timeout: 5\n")
	t.Setenv("KEEL_REDIS__SOCKET_TIMEOUT", "15")

	res := &Resolver{
		Schema: appSchema,
		Sources: []Source{
			NewEnvSource(EnvPrefix, appSchema),
			NewFileSource(path),
		},
	}
	var s AppSettings
	if err := res.Resolve(&s); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.Redis.SocketTimeout != 15 {
		t.Fatalf("redis.socket_timeout = %d, want 15 from env", s.Redis.SocketTimeout)
	}
}

func TestHighestPrioritySourceWinsPerField(t *testing.T) {
	path := writeAppFile(t, "server:\n  host: from-file\n  port: 9000\n")
	res := &Resolver{
		Schema: appSchema,
		Sources: []Source{
			NewOverrideSource(map[string]any{"server": map[string]any{"host": "from-override"}}),
			NewFileSource(path),
		},
	}
	var s AppSettings
	if err := res.Resolve(&s); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// Fields resolve independently: host from the override, port from the
	// file, the rest from defaults.
	if s.Server.Host != "from-override" {
		t.Fatalf("server.host = %q, want from-override", s.Server.Host)
	}
	if s.Server.Port != 9000 {
		t.Fatalf("server.port = %d, want 9000 from file", s.Server.Port)
	}
	if s.Server.IdleTimeout != 60 {
		t.Fatalf("server.idle_timeout = %d, want default 60", s.Server.IdleTimeout)
	}
}

func TestMissingRequiredFieldNamesFieldAndGroup(t *testing.T) {
	res := &Resolver{
		Schema: secretSchema,
		Sources: []Source{
			NewOverrideSource(map[string]any{
				"database": map[string]any{"user": "keel", "password": "pw", "host": "db", "name": "keel"},
				// redis.host, jwt keys, csrf_secret left unsupplied
			}),
		},
	}
	var s SecretSettings
	err := res.Resolve(&s)
	var mfe *MissingFieldError
	if !errors.As(err, &mfe) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	if mfe.Group != "secret" || mfe.Field != "redis.host" {
		t.Fatalf("error names %s/%s, want secret/redis.host", mfe.Group, mfe.Field)
	}
}

func TestPortRangeEnforcedFromAnySource(t *testing.T) {
	for _, port := range []any{0, "65536"} {
		res := &Resolver{
			Schema: appSchema,
			Sources: []Source{
				NewOverrideSource(map[string]any{"server": map[string]any{"port": port}}),
			},
		}
		var s AppSettings
		err := res.Resolve(&s)
		var re *RangeError
		if !errors.As(err, &re) {
			t.Fatalf("port %v: expected RangeError, got %v", port, err)
		}
		if re.Field != "server.port" {
			t.Errorf("RangeError names %q, want server.port", re.Field)
		}
	}
}

func TestBadBooleanTokenIsFormatError(t *testing.T) {
	t.Setenv("KEEL_APP__DEBUG", "definitely")
	res := &Resolver{
		Schema:  appSchema,
		Sources: []Source{NewEnvSource(EnvPrefix, appSchema)},
	}
	var s AppSettings
	err := res.Resolve(&s)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if fe.Field != "app.debug" {
		t.Errorf("FormatError names %q, want app.debug", fe.Field)
	}
}

func TestSetFieldDeduplicatesAcrossSources(t *testing.T) {
	t.Setenv("KEEL_CORS__ALLOW_HEADERS", "X-One, X-Two, X-One")
	res := &Resolver{
		Schema:  appSchema,
		Sources: []Source{NewEnvSource(EnvPrefix, appSchema)},
	}
	var s AppSettings
	if err := res.Resolve(&s); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(s.CORS.AllowHeaders) != 2 {
		t.Fatalf("allow_headers = %#v, want 2 unique members", s.CORS.AllowHeaders)
	}
}

func TestExpandRewritesSelectedStrings(t *testing.T) {
	res := &Resolver{
		Schema: appSchema,
		Sources: []Source{
			NewOverrideSource(map[string]any{"app": map[string]any{"name": "ref:name"}}),
		},
		Expand: func(s string) (string, error) {
			if s == "ref:name" {
				return "expanded", nil
			}
			return s, nil
		},
	}
	var s AppSettings
	if err := res.Resolve(&s); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.App.Name != "expanded" {
		t.Fatalf("app.name = %q, want expanded", s.App.Name)
	}
}
