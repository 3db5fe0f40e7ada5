// Package logger owns the process-wide zap logger. Subsystems pull tagged
// children via WithModule so every line names the part of the marketplace
// that wrote it (http, effects, maintenance, bootstrap).
package logger

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.Logger]

func init() {
	// Nop until Init runs so early code paths never hit a nil logger.
	current.Store(zap.NewNop())
}

// Init builds the global logger at the requested level. Debug switches to
// the development config for readable console output during local work;
// every other level logs production JSON. Unknown level strings fall back
// to info rather than failing startup.
func Init(level string) error {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		parsed = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if parsed == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	built, err := cfg.Build()
	if err != nil {
		return err
	}

	current.Store(built)
	return nil
}

// Logger returns the active global logger.
func Logger() *zap.Logger {
	return current.Load()
}

// WithModule returns a child logger tagged with the subsystem name.
func WithModule(module string) *zap.Logger {
	return Logger().With(zap.String("module", module))
}

// Sync flushes buffered entries. Called once at shutdown.
func Sync() error {
	return Logger().Sync()
}
