// FILE: builder.go
package ulog

import (
	"time"
)

// Builder provides a fluent API for building logger configurations.
// It wraps a Config instance and provides chainable methods for setting values.
type Builder struct {
	cfg *Config
	err error // Accumulate errors for deferred handling
}

// NewBuilder creates a new configuration builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build creates a new Logger instance with the specified configuration.
func (b *Builder) Build() (*Logger, error) {
	if b.err != nil {
		return nil, b.err
	}

	logger := NewLogger()

	// ApplyConfig handles all initialization and validation.
	if err := logger.ApplyConfig(b.cfg); err != nil {
		return nil, err
	}

	return logger, nil
}

// Config returns the accumulated configuration without building a logger.
func (b *Builder) Config() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.cfg.Clone(), nil
}

// LevelPath sets the output path for one level.
func (b *Builder) LevelPath(level Level, path string) *Builder {
	switch level {
	case LevelTrace:
		b.cfg.TracePath = path
	case LevelDebug:
		b.cfg.DebugPath = path
	case LevelInfo:
		b.cfg.InfoPath = path
	case LevelWarn:
		b.cfg.WarnPath = path
	case LevelError:
		b.cfg.ErrorPath = path
	case LevelCritical:
		b.cfg.CriticalPath = path
	case LevelFatal:
		b.cfg.FatalPath = path
	default:
		b.err = fmtErrorf("invalid level: %d", level)
	}
	return b
}

// AllPaths routes every level to the same file.
func (b *Builder) AllPaths(path string) *Builder {
	for lv := Level(0); lv < levelCount; lv++ {
		b.LevelPath(lv, path)
	}
	return b
}

// QueueCapacity sets the MPMC cell count. Must be a power of two.
func (b *Builder) QueueCapacity(capacity int64) *Builder {
	b.cfg.QueueCapacity = capacity
	return b
}

// BatchSize sets the number of records drained per flush batch.
func (b *Builder) BatchSize(size int64) *Builder {
	b.cfg.BatchSize = size
	return b
}

// FlushInterval sets the flusher sleep between batches.
func (b *Builder) FlushInterval(d time.Duration) *Builder {
	b.cfg.FlushIntervalNs = d.Nanoseconds()
	return b
}

// JSONMode switches output to single-line JSON records.
func (b *Builder) JSONMode(enabled bool) *Builder {
	b.cfg.JSONMode = enabled
	return b
}

// EnableColorStdout toggles ANSI color for stdout terminal sinks.
func (b *Builder) EnableColorStdout(enabled bool) *Builder {
	b.cfg.EnableColorStdout = enabled
	return b
}

// Rotation configures size-based rotation. A zero maxFileSize disables it.
func (b *Builder) Rotation(maxFileSize int64, maxFiles int64) *Builder {
	b.cfg.MaxFileSizeBytes = maxFileSize
	b.cfg.MaxFiles = maxFiles
	return b
}

// TrackMetrics toggles overflow and backpressure counting.
func (b *Builder) TrackMetrics(enabled bool) *Builder {
	b.cfg.TrackMetrics = enabled
	return b
}

// SpinOnFull makes producers spin for a queue slot instead of using the
// fallback queue when both rings refuse.
func (b *Builder) SpinOnFull(enabled bool) *Builder {
	b.cfg.SpinOnFull = enabled
	return b
}

// InternalErrorsToStderr routes logger-internal failures to stderr.
func (b *Builder) InternalErrorsToStderr(enabled bool) *Builder {
	b.cfg.InternalErrorsToStderr = enabled
	return b
}
