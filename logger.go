// FILE: logger.go
package ulog

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
)

// Logger is the core struct that encapsulates all logger functionality. The
// produce side is wait-free; a single flusher owns the sinks.
type Logger struct {
	cfg    atomic.Pointer[Config]
	rt     Runtime
	initMu sync.Mutex

	queue    *mpmcRing
	fallback fallbackQueue
	sinks    [levelCount]sink
	batchBuf []logEntry

	initialized    atomic.Bool
	flusherStarted atomic.Bool
	shutdownCalled atomic.Bool
	shutdownChan   chan struct{}
	flusherDone    chan struct{}
	flushRequest   chan chan struct{}
	flushMu        sync.Mutex

	producerSeq  atomic.Uint32
	producerPool sync.Pool

	overflowPushes    atomic.Uint64
	backpressureSpins atomic.Uint64
	recordsFlushed    atomic.Uint64
	rotations         atomic.Uint64
	sinkErrors        atomic.Uint64
}

// NewLogger creates a new Logger instance with default settings. ApplyConfig
// must run before records are accepted.
func NewLogger() *Logger {
	return NewLoggerWithRuntime(goRuntime{})
}

// NewLoggerWithRuntime creates a Logger whose flusher is scheduled by rt.
func NewLoggerWithRuntime(rt Runtime) *Logger {
	l := &Logger{rt: rt}
	l.cfg.Store(DefaultConfig())
	l.shutdownChan = make(chan struct{})
	l.flusherDone = make(chan struct{})
	l.flushRequest = make(chan chan struct{}, 1)
	return l
}

// ApplyConfig applies a validated configuration to the logger. This is the
// primary way applications should configure the logger. Reconfiguration is
// only possible before Start.
func (l *Logger) ApplyConfig(cfg *Config) error {
	if cfg == nil {
		return fmtErrorf("configuration cannot be nil")
	}

	cfg = cfg.Clone()
	if err := cfg.Validate(); err != nil {
		return fmtErrorf("invalid configuration: %w", err)
	}

	l.initMu.Lock()
	defer l.initMu.Unlock()

	if l.shutdownCalled.Load() {
		return fmtErrorf("logger already shut down")
	}
	if l.flusherStarted.Load() {
		return fmtErrorf("cannot reconfigure while flusher is running")
	}

	if l.initialized.Load() {
		if err := l.closeSinks(); err != nil {
			l.internalLog("closing previous sinks: %v", err)
		}
	}
	if l.queue == nil || l.queue.Capacity() != int(cfg.QueueCapacity) {
		l.queue = newMPMCRing(uint64(cfg.QueueCapacity))
	}
	l.batchBuf = make([]logEntry, cfg.BatchSize)
	if err := l.initSinks(cfg); err != nil {
		return err
	}
	l.cfg.Store(cfg)
	l.initialized.Store(true)
	return nil
}

// ApplyConfigString applies string key-value overrides to the logger's
// current configuration. Each override should be in the format "key=value".
func (l *Logger) ApplyConfigString(overrides ...string) error {
	cfg := l.GetConfig()

	var err error
	for _, override := range overrides {
		key, value, perr := parseKeyValue(override)
		if perr != nil {
			err = combineErrors(err, perr)
			continue
		}
		if serr := applyConfigField(cfg, key, value); serr != nil {
			err = combineErrors(err, serr)
		}
	}
	if err != nil {
		return err
	}

	return l.ApplyConfig(cfg)
}

// GetConfig returns a copy of current configuration
func (l *Logger) GetConfig() *Config {
	return l.cfg.Load().Clone()
}

// Start launches the flusher. Safe to call multiple times; returns an error
// if the logger is not initialized.
func (l *Logger) Start() error {
	if !l.initialized.Load() {
		return fmtErrorf("logger not initialized, call ApplyConfig first")
	}
	if l.shutdownCalled.Load() {
		return fmtErrorf("logger already shut down")
	}
	if l.flusherStarted.CompareAndSwap(false, true) {
		l.rt.Spawn(l.flushLoop)
	}
	return nil
}

// Shutdown drains pending records, stops the flusher and closes the sinks.
// Later calls and later produce attempts are no-ops. The optional timeout
// bounds the wait for the flusher; default is 2x the flush interval.
func (l *Logger) Shutdown(timeout ...time.Duration) error {
	if !l.shutdownCalled.CompareAndSwap(false, true) {
		return nil
	}
	if !l.initialized.Load() {
		return nil
	}

	effectiveTimeout := 2 * time.Duration(l.cfg.Load().FlushIntervalNs)
	if len(timeout) > 0 {
		effectiveTimeout = timeout[0]
	}
	if effectiveTimeout < minWaitTime {
		effectiveTimeout = minWaitTime
	}

	var err error
	if l.flusherStarted.Load() {
		close(l.shutdownChan)
		select {
		case <-l.flusherDone:
		case <-time.After(effectiveTimeout):
			err = fmtErrorf("flusher did not exit within timeout (%v)", effectiveTimeout)
		}
	} else {
		// No flusher ever ran; drain on the caller.
		l.drainAll()
	}

	l.initialized.Store(false)
	return combineErrors(err, l.closeSinks())
}

// Flush forces all currently queued records out to the sinks and waits for
// completion or timeout. With no flusher running the drain happens inline.
func (l *Logger) Flush(timeout time.Duration) error {
	if !l.initialized.Load() || l.shutdownCalled.Load() {
		return fmtErrorf("logger not initialized or already shut down")
	}

	if !l.flusherStarted.Load() {
		l.drainAll()
		l.syncSinks()
		return nil
	}

	confirmChan := make(chan struct{})
	select {
	case l.flushRequest <- confirmChan:
	case <-time.After(minWaitTime):
		return fmtErrorf("failed to send flush request to flusher (possible deadlock or high load)")
	}

	select {
	case <-confirmChan:
		return nil
	case <-time.After(timeout):
		return fmtErrorf("timeout waiting for flush confirmation (%v)", timeout)
	}
}

// Stats returns a snapshot of the logger counters.
func (l *Logger) Stats() Stats {
	return Stats{
		OverflowPushes:    l.overflowPushes.Load(),
		BackpressureSpins: l.backpressureSpins.Load(),
		RecordsFlushed:    l.recordsFlushed.Load(),
		Rotations:         l.rotations.Load(),
		SinkErrors:        l.sinkErrors.Load(),
	}
}

// accepting reports whether produce calls may enqueue records.
func (l *Logger) accepting() bool {
	return l.initialized.Load() && !l.shutdownCalled.Load()
}

// Log writes a record at an explicit level using {} template placeholders.
// The Logger-level methods borrow a pooled producer handle; goroutines on a
// hot path should hold their own Producer instead.
func (l *Logger) Log(level Level, template string, args ...any) {
	p := l.borrowProducer()
	p.Log(level, template, args...)
	l.returnProducer(p)
}

// Trace logs a message at trace level
func (l *Logger) Trace(template string, args ...any) {
	l.Log(LevelTrace, template, args...)
}

// Debug logs a message at debug level
func (l *Logger) Debug(template string, args ...any) {
	l.Log(LevelDebug, template, args...)
}

// Info logs a message at info level
func (l *Logger) Info(template string, args ...any) {
	l.Log(LevelInfo, template, args...)
}

// Warn logs a message at warn level
func (l *Logger) Warn(template string, args ...any) {
	l.Log(LevelWarn, template, args...)
}

// Error logs a message at error level
func (l *Logger) Error(template string, args ...any) {
	l.Log(LevelError, template, args...)
}

// Critical logs a message at critical level
func (l *Logger) Critical(template string, args ...any) {
	l.Log(LevelCritical, template, args...)
}

// Fatal logs a message at fatal level. It does not exit the process.
func (l *Logger) Fatal(template string, args ...any) {
	l.Log(LevelFatal, template, args...)
}

// Logf writes a record at an explicit level using fmt verbs.
func (l *Logger) Logf(level Level, format string, args ...any) {
	p := l.borrowProducer()
	p.Logf(level, format, args...)
	l.returnProducer(p)
}

// Tracef logs a message at trace level using fmt verbs
func (l *Logger) Tracef(format string, args ...any) {
	l.Logf(LevelTrace, format, args...)
}

// Debugf logs a message at debug level using fmt verbs
func (l *Logger) Debugf(format string, args ...any) {
	l.Logf(LevelDebug, format, args...)
}

// Infof logs a message at info level using fmt verbs
func (l *Logger) Infof(format string, args ...any) {
	l.Logf(LevelInfo, format, args...)
}

// Warnf logs a message at warn level using fmt verbs
func (l *Logger) Warnf(format string, args ...any) {
	l.Logf(LevelWarn, format, args...)
}

// Errorf logs a message at error level using fmt verbs
func (l *Logger) Errorf(format string, args ...any) {
	l.Logf(LevelError, format, args...)
}

// Criticalf logs a message at critical level using fmt verbs
func (l *Logger) Criticalf(format string, args ...any) {
	l.Logf(LevelCritical, format, args...)
}

// Fatalf logs a message at fatal level using fmt verbs
func (l *Logger) Fatalf(format string, args ...any) {
	l.Logf(LevelFatal, format, args...)
}

// Dump logs a deep-printed rendering of v at debug level.
func (l *Logger) Dump(v any) {
	l.Debug("{}", spew.Sdump(v))
}
