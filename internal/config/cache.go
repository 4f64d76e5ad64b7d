// internal/config/cache.go
//
// Process-wide settings cache with single-flight resolution.
//
// Context
// -------
// Resolution runs at most once per distinct (group, environment,
// overrides) key for the lifetime of the process.  Concurrent first
// callers ride the same singleflight barrier, so two lazily-initialized
// subsystems racing at startup still trigger exactly one parsing pass and
// receive the identical settings object.  Entries never expire;
// configuration is assumed static for a process's life.
//
// The cache is an explicit object threaded through startup, not an
// ambient global.  Construct one in main and pass it by reference to
// every consumer.  Clear exists so tests can force re-resolution with
// different overrides; production code has no reason to call it.

package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/yanizio/keel/internal/metrics"
	"github.com/yanizio/keel/internal/vault"
)

// Cache memoizes fully-resolved settings groups.
type Cache struct {
	confDir    string
	secretsDir string
	vault      *vault.Client

	sfg     singleflight.Group
	mu      sync.RWMutex
	entries map[string]any

	resolves atomic.Int64 // completed resolution passes, for tests and logs
}

// NewCache builds a cache reading application settings from confDir and
// secret material from secretsDir.
func NewCache(confDir, secretsDir string) *Cache {
	return &Cache{
		confDir:    confDir,
		secretsDir: secretsDir,
		entries:    make(map[string]any),
	}
}

// SetVault attaches a Vault client.  Resolved string values carrying the
// `vault:` scheme are expanded through it; without a client such values
// are a resolution error.
func (c *Cache) SetVault(cli *vault.Client) { c.vault = cli }

// App returns the application settings for the environment, resolving them
// on first request.  An empty environment falls back to KEEL_ENVIRONMENT,
// then "development".
func (c *Cache) App(environment string, overrides map[string]any) (*AppSettings, error) {
	env := Environment(environment)
	key := cacheKey(appSchema.Group, env, overrides)

	if v, ok := c.load(key); ok {
		return v.(*AppSettings), nil
	}
	v, err, _ := c.sfg.Do(key, func() (any, error) {
		if v, ok := c.load(key); ok {
			return v, nil
		}
		s, err := c.resolveApp(env, overrides)
		if err != nil {
			metrics.SettingsResolveErrorsTotal.Inc()
			return nil, err
		}
		c.store(key, s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*AppSettings), nil
}

// Secrets returns the secret settings for the environment, resolving them
// on first request.
func (c *Cache) Secrets(environment string, overrides map[string]any) (*SecretSettings, error) {
	env := Environment(environment)
	key := cacheKey(secretSchema.Group, env, overrides)

	if v, ok := c.load(key); ok {
		return v.(*SecretSettings), nil
	}
	v, err, _ := c.sfg.Do(key, func() (any, error) {
		if v, ok := c.load(key); ok {
			return v, nil
		}
		s, err := c.resolveSecrets(env, overrides)
		if err != nil {
			metrics.SettingsResolveErrorsTotal.Inc()
			return nil, err
		}
		c.store(key, s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*SecretSettings), nil
}

// Clear wipes every entry.  Test use only.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]any)
	c.mu.Unlock()
}

// Resolves reports how many resolution passes have completed.
func (c *Cache) Resolves() int64 { return c.resolves.Load() }

/*──────────────────────────── resolution ──────────────────────────────────*/

// resolveApp assembles the file-first source order: the committed file
// outranks everything, including explicit overrides, so per-environment
// settings stay reproducible regardless of ambient variables.
func (c *Cache) resolveApp(env string, overrides map[string]any) (*AppSettings, error) {
	path, err := LocateFile(c.confDir, appSchema.Kind, env)
	if err != nil {
		return nil, err
	}
	res := &Resolver{
		Schema: appSchema,
		Sources: []Source{
			NewFileSource(path),
			NewOverrideSource(overrides),
			NewEnvSource(EnvPrefix, appSchema),
			NewDotenvSource(filepath.Join(c.confDir, ".env"), EnvPrefix, appSchema),
		},
		Expand: c.expand,
	}
	var s AppSettings
	if err := res.Resolve(&s); err != nil {
		return nil, err
	}
	s.Environment = env
	c.resolves.Add(1)
	metrics.SettingsResolveTotal.Inc()
	return &s, nil
}

// resolveSecrets assembles the environment-first source order: live
// environment variables outrank the secrets file so a deployment can
// rotate a credential without touching disk.
func (c *Cache) resolveSecrets(env string, overrides map[string]any) (*SecretSettings, error) {
	path, err := LocateFile(c.secretsDir, secretSchema.Kind, env)
	if err != nil {
		return nil, err
	}
	res := &Resolver{
		Schema: secretSchema,
		Sources: []Source{
			NewEnvSource(EnvPrefix, secretSchema),
			NewOverrideSource(overrides),
			NewDotenvSource(filepath.Join(c.confDir, ".env"), EnvPrefix, secretSchema),
			NewFileSource(path),
			NewSecretDirSource(filepath.Join(c.secretsDir, "jwk")),
		},
		Expand: c.expand,
	}
	var s SecretSettings
	if err := res.Resolve(&s); err != nil {
		return nil, err
	}
	c.resolves.Add(1)
	metrics.SettingsResolveTotal.Inc()
	return &s, nil
}

// expand rewrites `vault:path#key` references through the attached client.
// Plain strings pass through untouched.
func (c *Cache) expand(s string) (string, error) {
	path, key, ok := vault.ParseRef(s)
	if !ok {
		return s, nil
	}
	if c.vault == nil {
		return "", errors.New("vault reference present but no vault client configured")
	}
	return c.vault.GetKV(context.Background(), path, key, 0)
}

/*──────────────────────────── keys ────────────────────────────────────────*/

func (c *Cache) load(key string) (any, bool) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		metrics.SettingsCacheHitTotal.Inc()
	}
	return v, ok
}

func (c *Cache) store(key string, v any) {
	c.mu.Lock()
	c.entries[key] = v
	c.mu.Unlock()
}

// cacheKey fingerprints (group, environment, overrides) deterministically.
func cacheKey(group, env string, overrides map[string]any) string {
	var b strings.Builder
	b.WriteString(group)
	b.WriteByte(0)
	b.WriteString(env)
	fingerprint(&b, "", overrides)
	return b.String()
}

// fingerprint appends sorted key=value pairs, recursing into nested maps.
func fingerprint(b *strings.Builder, prefix string, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		if nested, ok := m[k].(map[string]any); ok {
			fingerprint(b, full, nested)
			continue
		}
		fmt.Fprintf(b, "%c%s=%v", 0, full, m[k])
	}
}
