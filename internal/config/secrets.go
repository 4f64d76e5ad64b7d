// internal/config/secrets.go
//
// Secret settings: validated sensitive material and derived artifacts.
//
// Context
// -------
// Secrets resolve environment-first, highest precedence first:
//
//   1. `KEEL_`-prefixed environment variables,
//   2. explicit overrides,
//   3. optional conf/.env dotenv values,
//   4. secrets/secrets.<environment>.yaml,
//   5. secrets/jwk/ – one file per secret field.
//
// The environment outranks the file so deployments can rotate a credential
// without editing anything on disk.  Range and format invariants (PEM
// envelope, port 1-65535, redis db 0-15) are enforced during resolution;
// there is no partially-valid secrets object.
//
// Derived artifacts – the MySQL DSN, the redis URL with percent-encoded
// credentials, and the parsed RSA key pair – are computed on first access
// and memoized on the instance behind a sync.Once each.
//
// Notes
// -----
// No plaintext secret value is ever logged.  Log the group name, never the
// field values.

package config

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-jwt/jwt/v5"
)

//
// Database section
//

// DatabaseSecrets identifies the relational store.  DSN() derives the
// go-sql-driver/mysql connection string once and reuses it.
type DatabaseSecrets struct {
	User     string `koanf:"user" validate:"required"`
	Password string `koanf:"password" validate:"required"`
	Host     string `koanf:"host" validate:"required"`
	Port     int    `koanf:"port"`
	Name     string `koanf:"name" validate:"required"`

	dsnOnce sync.Once
	dsn     string
}

// DSN returns the driver connection string for the pool.  The driver's own
// formatter handles credential escaping.
func (d *DatabaseSecrets) DSN() string {
	d.dsnOnce.Do(func() {
		cfg := mysql.NewConfig()
		cfg.User = d.User
		cfg.Passwd = d.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
		cfg.DBName = d.Name
		cfg.ParseTime = true
		d.dsn = cfg.FormatDSN()
	})
	return d.dsn
}

//
// Redis section
//

// RedisSecrets identifies the cache store.  Username and Password are
// optional; a password-only credential renders as `:password@`.
type RedisSecrets struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Host     string `koanf:"host" validate:"required"`
	Port     int    `koanf:"port"`
	SSL      bool   `koanf:"ssl"`
	DB       int    `koanf:"db"`

	urlOnce sync.Once
	url     string
	urlErr  error
}

// URL returns the connection URL for the configured database index,
// computed once per instance.
func (r *RedisSecrets) URL() (string, error) {
	r.urlOnce.Do(func() {
		r.url, r.urlErr = BuildRedisURL(r.DB, r.Username, r.Password, r.Host, r.Port, r.SSL)
	})
	return r.url, r.urlErr
}

// BuildRedisURL constructs a redis:// or rediss:// URL.  Credential
// components are percent-encoded so special characters in passwords cannot
// corrupt the URL's structural delimiters.
func BuildRedisURL(db int, username, password, host string, port int, ssl bool) (string, error) {
	if err := CheckRange("secret", "redis.db", db, 0, 15); err != nil {
		return "", err
	}
	scheme := "redis"
	if ssl {
		scheme = "rediss"
	}
	auth := ""
	switch {
	case username != "" && password != "":
		auth = url.QueryEscape(username) + ":" + url.QueryEscape(password) + "@"
	case password != "":
		auth = ":" + url.QueryEscape(password) + "@"
	}
	return fmt.Sprintf("%s://%s%s:%d/%d", scheme, auth, host, port, db), nil
}

//
// JWT section
//

// JWTClaims carries the non-key JWT parameters.
type JWTClaims struct {
	Issuer   string `koanf:"issuer"`
	Audience string `koanf:"audience"`
	JWKID    string `koanf:"jwk_id"`
}

//
// Root aggregate
//

// SecretSettings is the immutable secret settings group.  The key fields
// are flat so the secrets/jwk/ directory can supply them one file each
// (file name = field name).
type SecretSettings struct {
	Database DatabaseSecrets `koanf:"database"`
	Redis    RedisSecrets    `koanf:"redis"`
	JWT      JWTClaims       `koanf:"jwt"`

	JWTPrivateKey string `koanf:"jwt_private_key" validate:"required,pem"`
	JWTPublicKey  string `koanf:"jwt_public_key" validate:"required,pem"`
	CSRFSecret    string `koanf:"csrf_secret" validate:"required"`

	signerOnce   sync.Once
	signer       *rsa.PrivateKey
	signerErr    error
	verifierOnce sync.Once
	verifier     *rsa.PublicKey
	verifierErr  error
}

// SignerKey parses the private PEM once and returns the cached key.
func (s *SecretSettings) SignerKey() (*rsa.PrivateKey, error) {
	s.signerOnce.Do(func() {
		s.signer, s.signerErr = jwt.ParseRSAPrivateKeyFromPEM([]byte(s.JWTPrivateKey))
	})
	return s.signer, s.signerErr
}

// VerifierKey parses the public PEM once and returns the cached key.
func (s *SecretSettings) VerifierKey() (*rsa.PublicKey, error) {
	s.verifierOnce.Do(func() {
		s.verifier, s.verifierErr = jwt.ParseRSAPublicKeyFromPEM([]byte(s.JWTPublicKey))
	})
	return s.verifier, s.verifierErr
}

// SignerBytes returns the private key re-serialized as PKCS#8 PEM, the
// normalized byte form handed to token signers.
func (s *SecretSettings) SignerBytes() ([]byte, error) {
	key, err := s.SignerKey()
	if err != nil {
		return nil, err
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// VerifierBytes returns the public key re-serialized as PKIX PEM.
func (s *SecretSettings) VerifierBytes() ([]byte, error) {
	key, err := s.VerifierKey()
	if err != nil {
		return nil, err
	}
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// secretSchema declares the secret group.  PEM and bounded fields fail
// resolution before a SecretSettings is ever returned.
var secretSchema = &Schema{
	Group: "secret",
	Kind:  "secrets",
	Fields: []Field{
		section("database",
			Field{Name: "user", Kind: KindString, Required: true},
			Field{Name: "password", Kind: KindString, Required: true, Secret: true},
			Field{Name: "host", Kind: KindString, Required: true},
			Field{Name: "port", Kind: KindInt, Default: 3306, Bounded: true, Min: 1, Max: 65535},
			Field{Name: "name", Kind: KindString, Required: true},
		),
		section("redis",
			Field{Name: "username", Kind: KindString, Default: ""},
			Field{Name: "password", Kind: KindString, Default: "", Secret: true},
			Field{Name: "host", Kind: KindString, Required: true},
			Field{Name: "port", Kind: KindInt, Default: 6379, Bounded: true, Min: 1, Max: 65535},
			Field{Name: "ssl", Kind: KindBool, Default: false},
			Field{Name: "db", Kind: KindInt, Default: 0, Bounded: true, Min: 0, Max: 15},
		),
		section("jwt",
			Field{Name: "issuer", Kind: KindString, Default: "keel"},
			Field{Name: "audience", Kind: KindString, Default: "keel-users"},
			Field{Name: "jwk_id", Kind: KindString, Default: "default"},
		),
		{Name: "jwt_private_key", Kind: KindString, Required: true, PEM: true, Secret: true},
		{Name: "jwt_public_key", Kind: KindString, Required: true, PEM: true, Secret: true},
		{Name: "csrf_secret", Kind: KindString, Required: true, Secret: true},
	},
}
