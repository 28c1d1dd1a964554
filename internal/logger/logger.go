// Package logger builds the zap loggers shared by the CLI and the pipeline
// stages. Debug mode gets the colored console encoder; everything else logs
// production JSON.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger for the given mode.
func New(debug bool) (*zap.Logger, error) {
	var cfg zap.Config

	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		// Errors in a batch pipeline are returned, not logged with traces
		cfg.DisableStacktrace = true
	}

	return cfg.Build()
}

// Must is New for command startup, panicking when the logger cannot build.
func Must(debug bool) *zap.Logger {
	log, err := New(debug)
	if err != nil {
		panic(err)
	}
	return log
}

// Nop returns a no-op logger, the default wherever a nil *zap.Logger is
// accepted.
func Nop() *zap.Logger {
	return zap.NewNop()
}
