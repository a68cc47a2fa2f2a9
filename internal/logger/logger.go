package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps the zap logger with additional functionality
type Logger struct {
	*zap.Logger
}

// NewLogger creates a new logger instance with production configuration
func NewLogger() (*Logger, error) {
	return NewLoggerWithLevel(zapcore.InfoLevel)
}

// NewLoggerWithLevel creates a production logger writing to stdout at the given level.
func NewLoggerWithLevel(level zapcore.Level) (*Logger, error) {
	return NewLoggerWithOutput(level, "stdout")
}

// NewLoggerWithOutput creates a production logger writing to output, which is
// a zap sink such as stdout, stderr or a file path.
func NewLoggerWithOutput(level zapcore.Level, output string) (*Logger, error) {
	config := zap.NewProductionConfig()

	config.OutputPaths = []string{output}

	// Set the error output to stderr
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

// NewNopLogger returns a logger that discards everything.
// Components fall back to it when no logger is supplied.
func NewNopLogger() *Logger {
	return &Logger{
		Logger: zap.NewNop(),
	}
}

// Named returns a child logger with the given name segment.
func (l *Logger) Named(name string) *Logger {
	if l == nil || l.Logger == nil {
		return NewNopLogger()
	}

	return &Logger{
		Logger: l.Logger.Named(name),
	}
}

// With returns a child logger that adds fields to every entry.
func (l *Logger) With(fields ...zap.Field) *Logger {
	if l == nil || l.Logger == nil {
		return NewNopLogger()
	}

	return &Logger{
		Logger: l.Logger.With(fields...),
	}
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	if l.Logger != nil {
		return l.Logger.Sync()
	}

	return nil
}
