package compat

import (
	"fmt"
	"strings"

	"github.com/usub/ulog"
)

// FastHTTPAdapter wraps ulog.Logger to implement fasthttp Logger interface
type FastHTTPAdapter struct {
	logger        *ulog.Logger
	defaultLevel  ulog.Level
	levelDetector func(string) (ulog.Level, bool) // Detect log level from message
}

// NewFastHTTPAdapter creates a new fasthttp-compatible logger adapter
func NewFastHTTPAdapter(logger *ulog.Logger, opts ...FastHTTPOption) *FastHTTPAdapter {
	adapter := &FastHTTPAdapter{
		logger:        logger,
		defaultLevel:  ulog.LevelInfo,
		levelDetector: DetectLogLevel, // Default level detection
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FastHTTPOption allows customizing adapter behavior
type FastHTTPOption func(*FastHTTPAdapter)

// WithDefaultLevel sets the default log level for Printf calls
func WithDefaultLevel(level ulog.Level) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.defaultLevel = level
	}
}

// WithLevelDetector sets a custom function to detect log level from message content
func WithLevelDetector(detector func(string) (ulog.Level, bool)) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.levelDetector = detector
	}
}

// Printf implements fasthttp's Logger interface
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	level := a.defaultLevel
	if a.levelDetector != nil {
		if detected, ok := a.levelDetector(msg); ok {
			level = detected
		}
	}

	a.logger.Log(level, "fasthttp: {}", msg)
}

// DetectLogLevel attempts to detect log level from message content
func DetectLogLevel(msg string) (ulog.Level, bool) {
	msgLower := strings.ToLower(msg)

	switch {
	case strings.Contains(msgLower, "fatal"),
		strings.Contains(msgLower, "panic"):
		return ulog.LevelCritical, true
	case strings.Contains(msgLower, "error"),
		strings.Contains(msgLower, "failed"):
		return ulog.LevelError, true
	case strings.Contains(msgLower, "warn"),
		strings.Contains(msgLower, "deprecated"):
		return ulog.LevelWarn, true
	case strings.Contains(msgLower, "debug"):
		return ulog.LevelDebug, true
	default:
		return 0, false
	}
}
