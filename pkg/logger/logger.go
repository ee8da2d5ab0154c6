// Package logger holds the process-wide zap logger. Packages obtain
// module-scoped children through WithModule instead of threading a logger
// through every constructor.
package logger

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global atomic.Pointer[zap.Logger]

func init() {
	// A nop logger keeps early callers safe before Init runs.
	global.Store(zap.NewNop())
}

// Init replaces the global logger with a production JSON logger at the
// given level. Unknown level strings fall back to info.
func Init(level string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	built, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return fmt.Errorf("logger: build: %w", err)
	}

	global.Store(built)
	return nil
}

// Logger returns the current global logger.
func Logger() *zap.Logger {
	return global.Load()
}

// Sync flushes buffered entries. Callers defer this at shutdown.
func Sync() error {
	return Logger().Sync()
}

// WithModule returns a child logger tagged with a module field.
func WithModule(module string) *zap.Logger {
	return Logger().With(zap.String("module", module))
}
