// Package logger wraps zap with the configuration shared by all commands.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps the zap logger with additional functionality.
type Logger struct {
	*zap.Logger
}

// NewLogger creates a new logger instance with production configuration
// logging at info level to stdout.
func NewLogger() (*Logger, error) {
	return newAtLevel(zapcore.InfoLevel)
}

// NewDebugLogger creates a logger that also emits debug-level entries.
// Used by the CLIs when --verbose is set.
func NewDebugLogger() (*Logger, error) {
	return newAtLevel(zapcore.DebugLevel)
}

func newAtLevel(level zapcore.Level) (*Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{
		Logger: zapLogger,
	}, nil
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	if l.Logger != nil {
		return l.Logger.Sync()
	}

	return nil
}
