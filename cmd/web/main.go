// cmd/web/main.go
//
// Keel – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (jail-wide file → conf/.env fallback).
//
//  2. Install the bootstrap console logger so resolution failures are
//     visible.
//
//  3. Resolve the deployment environment and build the settings cache;
//     attach the Vault client when VAULT_ADDR is exported.
//
//  4. Resolve application settings, then rebuild the logger from the
//     resolved logging section (rotating file sink).
//
//  5. Resolve secret settings and open the database pool; an unreachable
//     database is a fatal startup error.
//
//  6. Assemble the router (correlation → access log → CORS, /healthz,
//     /metrics) and serve with hardened timeouts.
//
// Every configuration error aborts startup.  Serving traffic with
// incomplete or invalid configuration is unacceptable.
package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yanizio/keel/internal/config"
	"github.com/yanizio/keel/internal/database"
	"github.com/yanizio/keel/internal/logger"
	"github.com/yanizio/keel/internal/server"
	"github.com/yanizio/keel/internal/vault"
)

const (
	serverEnvPath = "/usr/local/etc/keel/global.env"
	confDir       = "conf"
	secretsDir    = "secrets"
)

// loadEnv prefers the jail-wide env file; on dev it falls back to
// conf/.env, then to a plain .env in the working directory.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	if err := godotenv.Load(confDir + "/.env"); err != nil {
		_ = godotenv.Load()
	}
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	boot := logger.Bootstrap(runningInTTY())

	//
	// ── 1.  Settings resolution ─────────────────────────────────────────
	//
	env := config.Environment("")
	cache := config.NewCache(confDir, secretsDir)

	if os.Getenv("VAULT_ADDR") != "" {
		cli, err := vault.New(context.Background(), boot.Infof)
		if err != nil {
			boot.Fatalf("vault client: %v", err)
		}
		cache.SetVault(cli)
		boot.Infow("vault client online")
	}

	settings, err := cache.App(env, nil)
	if err != nil {
		boot.Fatalf("resolve application settings: %v", err)
	}

	logOut, err := logger.New(settings.Logging, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	logOut.Infow("settings resolved",
		"environment", settings.Environment,
		"app", settings.App.Name,
		"version", settings.App.Version,
	)

	secrets, err := cache.Secrets(env, nil)
	if err != nil {
		logOut.Fatalf("resolve secret settings: %v", err)
	}

	//
	// ── 2.  Database pool ───────────────────────────────────────────────
	//
	db, err := database.Open(secrets.Database.DSN(), settings.Pool)
	if err != nil {
		logOut.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	redisURL, err := secrets.Redis.URL()
	if err != nil {
		logOut.Fatalf("redis settings: %v", err)
	}
	// The cache client consumes the URL and tuning as plain values.
	_ = redisURL
	zap.S().Debugw("redis configured", "db", secrets.Redis.DB, "ssl", secrets.Redis.SSL)

	//
	// ── 3.  HTTP surface ────────────────────────────────────────────────
	//
	router := server.Router(settings)
	srv := server.New(settings, router)

	logOut.Infow("listening", "addr", srv.Addr, "environment", settings.Environment)
	if err := srv.ListenAndServe(); err != nil {
		logOut.Fatalf("server: %v", err)
	}
}
