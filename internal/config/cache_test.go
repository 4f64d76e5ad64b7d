// internal/config/cache_test.go
//
// Tests for the process-wide settings cache: identity, single-flight, and
// the declared per-group precedence policies.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// fixtureDirs lays out conf/ and secrets/ trees for one environment and
// returns the cache reading them.
func fixtureDirs(t *testing.T) (*Cache, string, string) {
	t.Helper()
	confDir := t.TempDir()
	secretsDir := t.TempDir()

	appBody := "server:\n  host: 127.0.0.1\n  port: 9000\n"
	if err := os.WriteFile(filepath.Join(confDir, "config.development.yaml"), []byte(appBody), 0o644); err != nil {
		t.Fatal(err)
	}

	secBody := "database:\n" +
		"  user: keel\n" +
		"  password: hunter2\n" +
		"  host: db.internal\n" +
		"  name: keel\n" +
		"redis:\n" +
		"  host: cache.internal\n" +
		"  password: \"p@ss:w/rd\"\n" +
		"csrf_secret: csrf123\n"
	if err := os.WriteFile(filepath.Join(secretsDir, "secrets.development.yaml"), []byte(secBody), 0o644); err != nil {
		t.Fatal(err)
	}

	priv, pub := genKeyPEM(t)
	jwkDir := filepath.Join(secretsDir, "jwk")
	if err := os.MkdirAll(jwkDir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(jwkDir, "jwt_private_key"), []byte(priv), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(jwkDir, "jwt_public_key"), []byte(pub), 0o600); err != nil {
		t.Fatal(err)
	}

	return NewCache(confDir, secretsDir), confDir, secretsDir
}

func TestCacheReturnsIdenticalInstance(t *testing.T) {
	cache, _, _ := fixtureDirs(t)

	first, err := cache.App("development", nil)
	if err != nil {
		t.Fatalf("App: %v", err)
	}
	second, err := cache.App("development", nil)
	if err != nil {
		t.Fatalf("App: %v", err)
	}
	if first != second {
		t.Fatal("same key returned distinct instances")
	}
	if cache.Resolves() != 1 {
		t.Fatalf("resolution ran %d times, want 1", cache.Resolves())
	}
}

func TestCacheSingleFlightUnderConcurrency(t *testing.T) {
	cache, _, _ := fixtureDirs(t)

	const callers = 32
	results := make([]*AppSettings, callers)
	var wg sync.WaitGroup
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start.Wait()
			s, err := cache.App("development", nil)
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = s
		}(i)
	}
	start.Done()
	wg.Wait()

	for i := 1; i < callers; i++ {
		if results[i] != results[0] {
			t.Fatalf("caller %d saw a different instance", i)
		}
	}
	if got := cache.Resolves(); got != 1 {
		t.Fatalf("resolution ran %d times under concurrency, want 1", got)
	}
}

func TestCacheDistinctKeysResolveSeparately(t *testing.T) {
	cache, _, _ := fixtureDirs(t)

	plain, err := cache.App("development", nil)
	if err != nil {
		t.Fatalf("App: %v", err)
	}
	tuned, err := cache.App("development", map[string]any{"app": map[string]any{"name": "tuned"}})
	if err != nil {
		t.Fatalf("App with overrides: %v", err)
	}
	if plain == tuned {
		t.Fatal("distinct override sets shared one instance")
	}
	if cache.Resolves() != 2 {
		t.Fatalf("resolution ran %d times, want 2", cache.Resolves())
	}
}

func TestCacheClearForcesReResolution(t *testing.T) {
	cache, _, _ := fixtureDirs(t)

	first, err := cache.App("development", nil)
	if err != nil {
		t.Fatalf("App: %v", err)
	}
	cache.Clear()
	second, err := cache.App("development", nil)
	if err != nil {
		t.Fatalf("App after Clear: %v", err)
	}
	if first == second {
		t.Fatal("Clear did not force a fresh resolution")
	}
}

func TestAppSettingsAreFileFirst(t *testing.T) {
	cache, _, _ := fixtureDirs(t)

	// The committed file outranks ambient env vars and explicit overrides.
	t.Setenv("KEEL_SERVER__PORT", "1234")
	s, err := cache.App("development", map[string]any{"server": map[string]any{"port": 4321}})
	if err != nil {
		t.Fatalf("App: %v", err)
	}
	if s.Server.Port != 9000 {
		t.Fatalf("server.port = %d, want 9000 from file", s.Server.Port)
	}
	// A field the file does not declare still falls through to env.
	t.Setenv("KEEL_LOGGING__LEVEL", "warn")
	cache.Clear()
	s, err = cache.App("development", nil)
	if err != nil {
		t.Fatalf("App: %v", err)
	}
	if s.Logging.Level != "warn" {
		t.Fatalf("logging.level = %q, want warn from env", s.Logging.Level)
	}
}

func TestSecretSettingsAreEnvFirst(t *testing.T) {
	cache, _, _ := fixtureDirs(t)

	t.Setenv("KEEL_DATABASE__PASSWORD", "rotated")
	s, err := cache.Secrets("development", nil)
	if err != nil {
		t.Fatalf("Secrets: %v", err)
	}
	if s.Database.Password != "rotated" {
		t.Fatal("env var did not outrank the secrets file")
	}
	// Values the env does not supply come from the file and jwk dir.
	if s.Redis.Host != "cache.internal" {
		t.Fatalf("redis.host = %q, want file value", s.Redis.Host)
	}
	url, err := s.Redis.URL()
	if err != nil {
		t.Fatalf("redis URL: %v", err)
	}
	if url != "redis://:p%40ss%3Aw%2Frd@cache.internal:6379/0" {
		t.Fatalf("redis URL = %q, credentials not percent-encoded", url)
	}
	if _, err := s.SignerKey(); err != nil {
		t.Fatalf("jwk-dir key did not parse: %v", err)
	}
}

func TestSecretKeyFileRemovalIsMissingField(t *testing.T) {
	cache, _, secretsDir := fixtureDirs(t)

	if _, err := cache.Secrets("development", nil); err != nil {
		t.Fatalf("Secrets: %v", err)
	}
	if err := os.Remove(filepath.Join(secretsDir, "jwk", "jwt_private_key")); err != nil {
		t.Fatal(err)
	}
	cache.Clear()
	_, err := cache.Secrets("development", nil)
	var mfe *MissingFieldError
	if !errors.As(err, &mfe) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	if mfe.Field != "jwt_private_key" {
		t.Fatalf("error names %q, want jwt_private_key", mfe.Field)
	}
}

func TestMissingEnvironmentFileListsAlternatives(t *testing.T) {
	cache, _, _ := fixtureDirs(t)

	_, err := cache.App("staging", nil)
	var mfe *MissingFileError
	if !errors.As(err, &mfe) {
		t.Fatalf("expected MissingFileError, got %v", err)
	}
	if len(mfe.Known) != 1 || mfe.Known[0] != "config.development.yaml" {
		t.Fatalf("Known = %#v, want the development file", mfe.Known)
	}
}
