// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack), driven by resolved settings.
//
// Context
// -------
// Keel logs in two phases.  Before settings resolve, Bootstrap installs a
// console-only logger so resolution failures are visible.  Once the
// application group is resolved, New rebuilds the logger from its logging
// section: level, directory, rotation size, retention, and whether the
// file sink is structured JSON.  Rotation, compression, and retention are
// handled by Lumberjack; no external log-rotate job is required.
//
// Usage
// -----
//
//	boot := logger.Bootstrap(runningInTTY())
//	…resolve settings…
//	log, err := logger.New(settings.Logging, runningInTTY())
//
// Notes
// -----
// Both constructors install the logger as the process-wide default via
// zap.ReplaceGlobals, so zap.S() works everywhere after startup.

package logger

import (
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yanizio/keel/internal/config"
)

var encCfg = zapcore.EncoderConfig{
	TimeKey:      "ts",
	LevelKey:     "level",
	MessageKey:   "msg",
	CallerKey:    "caller",
	EncodeTime:   zapcore.ISO8601TimeEncoder,
	EncodeLevel:  zapcore.LowercaseLevelEncoder,
	EncodeCaller: zapcore.ShortCallerEncoder,
}

// Bootstrap returns a console-only logger for the window before settings
// resolve.  Early boot issues surface here even when the file logger never
// comes up.
func Bootstrap(tee bool) *zap.SugaredLogger {
	sink := zapcore.AddSync(os.Stderr)
	if tee {
		sink = zapcore.AddSync(os.Stdout)
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), sink, zap.DebugLevel)
	z := zap.New(core).Sugar()
	zap.ReplaceGlobals(z.Desugar())
	return z
}

// New returns a *zap.SugaredLogger writing to <dir>/YYYY-MM-DD.log per the
// resolved logging section.  When tee == true, a console core is attached
// as well.
func New(cfg config.Logging, tee bool) (*zap.SugaredLogger, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zap.InfoLevel
	}

	fileName := time.Now().Format("2006-01-02") + ".log"
	fileSink := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, fileName),
		MaxSize:    cfg.RotationMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.RetentionDays,
		Compress:   cfg.Compress,
	}

	fileEnc := zapcore.NewConsoleEncoder(encCfg)
	if cfg.Structured {
		fileEnc = zapcore.NewJSONEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(fileEnc, zapcore.AddSync(fileSink), level),
	}
	if tee {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.AddSync(os.Stdout),
			level,
		))
	}

	z := zap.New(
		zapcore.NewTee(cores...),
		zap.ErrorOutput(zapcore.AddSync(fileSink)),
	).Sugar()

	zap.ReplaceGlobals(z.Desugar())

	z.Infow("logger online", "level", level.String(), "dir", cfg.Dir, "tee", tee)
	return z, nil
}
