// Package logger provides the structured logger used across sideload.
package logger

import (
	"os"

	"go.uber.org/zap"
)

const (
	envLogLevel    = "SIDELOAD_LOG_LEVEL"
	envLogFilePath = "SIDELOAD_LOG_FILE"
)

// Fields is passed to WithFields for structured logging.
type Fields map[string]interface{}

// Logger is the logging contract used by sideload packages.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	WithFields(fields Fields) Logger
	Sync() error
}

// Configuration stores the config for the logger.
type Configuration struct {
	LogLevel    string
	LogLocation string // "stderr", "stdout" or a file path
	Format      string // "json" or "console"
}

// ApplyEnv overrides level and location from SIDELOAD_LOG_LEVEL and SIDELOAD_LOG_FILE.
func (c Configuration) ApplyEnv() Configuration {
	if v := os.Getenv(envLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(envLogFilePath); v != "" {
		c.LogLocation = v
	}
	return c
}

// New builds a zap backed logger from the configuration.
func New(cfg Configuration) Logger {
	return cfg.newZapLogger()
}

// FromZap wraps an existing zap logger.
func FromZap(l *zap.Logger) Logger {
	return &structuredLogger{zapLogger: l.Sugar()}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return FromZap(zap.NewNop())
}
