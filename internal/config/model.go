// internal/config/model.go
//
// Typed application settings for Keel.
//
// Context
// -------
// These structs define the shape of the per-environment application tree
// the resolver assembles from four layers, highest precedence first:
//
//   1. conf/config.<environment>.yaml        – primary committed file,
//   2. explicit overrides                    – programmatic construction,
//   3. `KEEL_`-prefixed environment overrides,
//   4. optional conf/.env                    – dotenv values.
//
// The file outranks ambient environment variables on purpose: application
// settings must be reproducible from the committed file regardless of what
// the shell happens to export.  Secrets are the opposite; see secrets.go.
//
// Notes
// -----
//   - Struct tags use `koanf:"…"`; Koanf ignores `yaml` tags unless
//     configured otherwise.
//   - Defaults, required flags, and bounds live in appSchema below, not in
//     the structs.  The structs are the immutable resolved form.

package config

//
// App section
//

// App holds application metadata.
type App struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Debug       bool   `koanf:"debug"`
	DocsEnabled bool   `koanf:"docs_enabled"`
}

//
// Server section
//

// Server holds web-server bind and timeout tunables.  Timeouts are whole
// seconds; zero means the http.Server default.
type Server struct {
	Host         string `koanf:"host" validate:"required"`
	Port         int    `koanf:"port" validate:"required"`
	ReadTimeout  int    `koanf:"read_timeout"`
	WriteTimeout int    `koanf:"write_timeout"`
	IdleTimeout  int    `koanf:"idle_timeout"`
}

//
// CORS section
//

// CORS holds the cross-origin policy.  AllowHeaders is set-typed: comma
// sources are deduplicated and the member order is unspecified.
type CORS struct {
	AllowOrigins     []string `koanf:"allow_origins"`
	AllowMethods     []string `koanf:"allow_methods"`
	AllowHeaders     []string `koanf:"allow_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
}

//
// Logging section
//

// Logging drives the zap/lumberjack file logger built after resolution.
type Logging struct {
	Level         string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir           string `koanf:"dir"`
	RotationMB    int    `koanf:"rotation_mb"`
	RetentionDays int    `koanf:"retention_days"`
	MaxBackups    int    `koanf:"max_backups"`
	Compress      bool   `koanf:"compress"`
	Structured    bool   `koanf:"structured"`
}

//
// Pool section
//

// Pool tunes the relational connection pool.  Consumed as plain values by
// internal/database; no resolution logic lives there.
type Pool struct {
	MaxOpenConns    int `koanf:"max_open_conns"`
	MaxIdleConns    int `koanf:"max_idle_conns"`
	ConnMaxLifetime int `koanf:"conn_max_lifetime"` // seconds
	ConnMaxIdleTime int `koanf:"conn_max_idle_time"` // seconds
}

//
// Redis section
//

// Redis tunes cache-client behavior.  Connection identity (host, port,
// credentials) is secret material and lives in SecretSettings.
type Redis struct {
	SocketTimeout  int  `koanf:"socket_timeout"`  // seconds
	ConnectTimeout int  `koanf:"connect_timeout"` // seconds
	MaxConnections int  `koanf:"max_connections"`
	RetryOnTimeout bool `koanf:"retry_on_timeout"`
}

//
// Root aggregate
//

// AppSettings is the immutable application settings group.  Instances come
// from the Cache and are safe for unsynchronized concurrent reads; nothing
// mutates them after resolution.
type AppSettings struct {
	Environment string  `koanf:"-"`
	App         App     `koanf:"app"`
	Server      Server  `koanf:"server"`
	CORS        CORS    `koanf:"cors"`
	Logging     Logging `koanf:"logging"`
	Pool        Pool    `koanf:"pool"`
	Redis       Redis   `koanf:"redis"`
}

// appSchema declares the application group: field, kind, default, bounds.
// Built once and reused by every resolution pass.
var appSchema = &Schema{
	Group: "application",
	Kind:  "config",
	Fields: []Field{
		section("app",
			Field{Name: "name", Kind: KindString, Default: "Keel Backend Template"},
			Field{Name: "version", Kind: KindString, Default: "0.1.0"},
			Field{Name: "debug", Kind: KindBool, Default: true},
			Field{Name: "docs_enabled", Kind: KindBool, Default: true},
		),
		section("server",
			Field{Name: "host", Kind: KindString, Default: "0.0.0.0"},
			Field{Name: "port", Kind: KindInt, Default: 8000, Bounded: true, Min: 1, Max: 65535},
			Field{Name: "read_timeout", Kind: KindInt, Default: 10},
			Field{Name: "write_timeout", Kind: KindInt, Default: 15},
			Field{Name: "idle_timeout", Kind: KindInt, Default: 60},
		),
		section("cors",
			Field{Name: "allow_origins", Kind: KindList, Default: []string{"*"}},
			Field{Name: "allow_methods", Kind: KindList, Default: []string{"*"}},
			Field{Name: "allow_headers", Kind: KindSet, Default: []string{"*"}},
			Field{Name: "allow_credentials", Kind: KindBool, Default: true},
		),
		section("logging",
			Field{Name: "level", Kind: KindString, Default: "debug"},
			Field{Name: "dir", Kind: KindString, Default: "logs"},
			Field{Name: "rotation_mb", Kind: KindInt, Default: 5},
			Field{Name: "retention_days", Kind: KindInt, Default: 7},
			Field{Name: "max_backups", Kind: KindInt, Default: 7},
			Field{Name: "compress", Kind: KindBool, Default: true},
			Field{Name: "structured", Kind: KindBool, Default: true},
		),
		section("pool",
			Field{Name: "max_open_conns", Kind: KindInt, Default: 10},
			Field{Name: "max_idle_conns", Kind: KindInt, Default: 5},
			Field{Name: "conn_max_lifetime", Kind: KindInt, Default: 1800},
			Field{Name: "conn_max_idle_time", Kind: KindInt, Default: 300},
		),
		section("redis",
			Field{Name: "socket_timeout", Kind: KindInt, Default: 5},
			Field{Name: "connect_timeout", Kind: KindInt, Default: 5},
			Field{Name: "max_connections", Kind: KindInt, Default: 10},
			Field{Name: "retry_on_timeout", Kind: KindBool, Default: true},
		),
	},
}
