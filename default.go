// FILE: default.go
package ulog

import (
	"time"
)

// Global instance for package-level functions
var defaultLogger = NewLogger()

// Default package-level functions that delegate to the default logger

// Init configures the default logger and starts its flusher. Calling it
// again after a successful init is a no-op.
func Init(cfg *Config) error {
	if defaultLogger.initialized.Load() {
		return nil
	}
	if err := defaultLogger.ApplyConfig(cfg); err != nil {
		return err
	}
	return defaultLogger.Start()
}

// InitWithDefaults initializes the default logger with built-in defaults and
// optional "key=value" overrides.
func InitWithDefaults(overrides ...string) error {
	if defaultLogger.initialized.Load() {
		return nil
	}
	if err := defaultLogger.ApplyConfigString(overrides...); err != nil {
		return err
	}
	return defaultLogger.Start()
}

// InitFromFile initializes the default logger from a TOML file.
func InitFromFile(path string) error {
	cfg, err := NewConfigFromFile(path)
	if err != nil {
		return err
	}
	return Init(cfg)
}

// Shutdown gracefully closes the default logger, flushing pending records
func Shutdown(timeout ...time.Duration) error {
	return defaultLogger.Shutdown(timeout...)
}

// Flush forces queued records of the default logger out to their sinks
func Flush(timeout time.Duration) error {
	return defaultLogger.Flush(timeout)
}

// GetStats returns the default logger's counters
func GetStats() Stats {
	return defaultLogger.Stats()
}

// NewProducer returns a per-goroutine handle on the default logger
func NewProducer() *Producer {
	return defaultLogger.NewProducer()
}

// Trace logs a message at trace level
func Trace(template string, args ...any) {
	defaultLogger.Trace(template, args...)
}

// Debug logs a message at debug level
func Debug(template string, args ...any) {
	defaultLogger.Debug(template, args...)
}

// Info logs a message at info level
func Info(template string, args ...any) {
	defaultLogger.Info(template, args...)
}

// Warn logs a message at warning level
func Warn(template string, args ...any) {
	defaultLogger.Warn(template, args...)
}

// Error logs a message at error level
func Error(template string, args ...any) {
	defaultLogger.Error(template, args...)
}

// Critical logs a message at critical level
func Critical(template string, args ...any) {
	defaultLogger.Critical(template, args...)
}

// Fatal logs a message at fatal level
func Fatal(template string, args ...any) {
	defaultLogger.Fatal(template, args...)
}

// Tracef logs a message at trace level using fmt verbs
func Tracef(format string, args ...any) {
	defaultLogger.Tracef(format, args...)
}

// Debugf logs a message at debug level using fmt verbs
func Debugf(format string, args ...any) {
	defaultLogger.Debugf(format, args...)
}

// Infof logs a message at info level using fmt verbs
func Infof(format string, args ...any) {
	defaultLogger.Infof(format, args...)
}

// Warnf logs a message at warning level using fmt verbs
func Warnf(format string, args ...any) {
	defaultLogger.Warnf(format, args...)
}

// Errorf logs a message at error level using fmt verbs
func Errorf(format string, args ...any) {
	defaultLogger.Errorf(format, args...)
}

// Criticalf logs a message at critical level using fmt verbs
func Criticalf(format string, args ...any) {
	defaultLogger.Criticalf(format, args...)
}

// Fatalf logs a message at fatal level using fmt verbs
func Fatalf(format string, args ...any) {
	defaultLogger.Fatalf(format, args...)
}

// Dump logs a deep-printed rendering of v at debug level
func Dump(v any) {
	defaultLogger.Dump(v)
}
