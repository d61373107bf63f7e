// Package logging builds the logr.Logger shared by the server and the CLI.
package logging

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a zap backed logger at the given level ("debug", "info",
// "warn", "error"). Development mode switches to the console encoder.
func New(level string, development bool) (logr.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return logr.Discard(), fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var zc zap.Config
	if development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)

	zl, err := zc.Build()
	if err != nil {
		return logr.Discard(), fmt.Errorf("failed to build logger: %w", err)
	}
	return zapr.NewLogger(zl), nil
}

// Sync flushes entries buffered by a logger built with New. Loggers with
// another sink are left alone.
func Sync(logger logr.Logger) error {
	u, ok := logger.GetSink().(zapr.Underlier)
	if !ok {
		return nil
	}
	return u.GetUnderlying().Sync()
}
