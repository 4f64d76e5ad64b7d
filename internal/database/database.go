// Package database centralises sqlx connection helpers.  The default
// driver is go-sql-driver/mysql, which also works with MariaDB when
// configured for the MySQL wire protocol.
//
// The pool is tuned entirely from the resolved settings: the DSN comes
// from the secret group's database section, the sizing from the
// application group's pool section.  Open pings before returning so the
// process fails fast during bootstrap; an unreachable database is a fatal
// startup error, never a retry.
package database

import (
	"context"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/keel/internal/config"
)

// Open returns a *sqlx.DB tuned per the resolved pool section and verified
// reachable.  Callers should Close() the pool when no longer needed.
func Open(dsn string, pool config.Pool) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	Tune(db, pool)
	if err := Check(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Tune applies the resolved pool sizing to an existing handle.
func Tune(db *sqlx.DB, pool config.Pool) {
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetime) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTime) * time.Second)
}

// Check pings the database, logging the attempt and re-raising the error
// with context so startup aborts with a diagnosable message.
func Check(ctx context.Context, db *sqlx.DB) error {
	zap.S().Infow("connecting to database")
	if err := db.PingContext(ctx); err != nil {
		zap.S().Errorw("database unreachable", "err", err)
		return err
	}
	zap.S().Infow("database online")
	return nil
}
