// Package logging provides the structured logger for the CLI.
//
// All diagnostics go to standard error so the tool stays
// pipeline-friendly: standard output carries nothing but the final
// output path. In verbose mode the console encoder is colored and
// debug-level; otherwise only warnings and errors reach the terminal.
// A rotating JSON log file (lumberjack) can be enabled in addition to
// the console for long-lived installs.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log file rotation defaults.
const (
	fileMaxSizeMB  = 20
	fileMaxBackups = 3
	fileMaxAgeDays = 14
)

// Logger wraps zap.Logger for structured diagnostics.
type Logger struct {
	zap         *zap.Logger
	sugar       *zap.SugaredLogger
	verbose     bool
	logFilePath string
}

// NewLogger creates a Logger for one CLI invocation.
//
// verbose selects a colored debug-level console encoder; otherwise the
// console only shows warnings and errors. logFilePath optionally adds
// a debug-level rotating JSON file core ("" disables it).
func NewLogger(verbose bool, logFilePath string) (*Logger, error) {
	consoleLevel := zapcore.WarnLevel
	if verbose {
		consoleLevel = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	if verbose {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			consoleLevel,
		),
	}

	if logFilePath != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   logFilePath,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			MaxAge:     fileMaxAgeDays,
			Compress:   true,
		})
		fileEncCfg := zap.NewProductionEncoderConfig()
		fileEncCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEncCfg),
			fileWriter,
			zapcore.DebugLevel,
		))
	}

	zapLogger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))

	return &Logger{
		zap:         zapLogger,
		sugar:       zapLogger.Sugar(),
		verbose:     verbose,
		logFilePath: logFilePath,
	}, nil
}

// Sync flushes any buffered log entries. Call before exiting.
func (l *Logger) Sync() error {
	if l == nil || l.zap == nil {
		return nil
	}
	return l.zap.Sync()
}

// Debug logs a message at DebugLevel with optional structured fields.
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, fields...)
}

// Info logs a message at InfoLevel with optional structured fields.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, fields...)
}

// Warn logs a message at WarnLevel with optional structured fields.
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, fields...)
}

// Error logs a message at ErrorLevel with optional structured fields.
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap.Error(msg, fields...)
}

// Infof logs a formatted message at InfoLevel.
func (l *Logger) Infof(template string, args ...interface{}) {
	l.sugar.Infof(template, args...)
}

// Warnf logs a formatted message at WarnLevel.
func (l *Logger) Warnf(template string, args ...interface{}) {
	l.sugar.Warnf(template, args...)
}

// Errorf logs a formatted message at ErrorLevel.
func (l *Logger) Errorf(template string, args ...interface{}) {
	l.sugar.Errorf(template, args...)
}

// With creates a child logger with additional fields included in all
// entries from the child.
func (l *Logger) With(fields ...zap.Field) *Logger {
	child := l.zap.With(fields...)
	return &Logger{
		zap:         child,
		sugar:       child.Sugar(),
		verbose:     l.verbose,
		logFilePath: l.logFilePath,
	}
}

// Named adds a sub-logger name identifying the source of entries.
func (l *Logger) Named(name string) *Logger {
	child := l.zap.Named(name)
	return &Logger{
		zap:         child,
		sugar:       child.Sugar(),
		verbose:     l.verbose,
		logFilePath: l.logFilePath,
	}
}

// IsVerbose returns true if the console shows debug-level output.
func (l *Logger) IsVerbose() bool {
	return l.verbose
}

// Zap returns the underlying zap.Logger for methods not exposed by
// this wrapper.
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

// Nop returns a logger that discards everything. Useful in tests.
func Nop() *Logger {
	z := zap.NewNop()
	return &Logger{zap: z, sugar: z.Sugar()}
}
