// FILE: producer.go
package ulog

import (
	"fmt"
	"runtime"
	"time"

	"github.com/valyala/bytebufferpool"
)

// Producer is a per-goroutine logging handle. It owns a private spill ring
// that absorbs records when the shared MPMC ring is momentarily full; the
// ring drains opportunistically at the start of the next emit. A Producer
// must not be shared between goroutines.
type Producer struct {
	l     *Logger
	id    uint32
	spill spillRing

	// inFallback is set after the spill backlog was moved to the fallback
	// queue. While the fallback still holds records, new ones follow them
	// there so the producer's output order is preserved.
	inFallback bool
}

// NewProducer allocates a handle with a nonzero 16-bit id taken from the
// logger's own sequence; ids repeat after 65535 handles. The id appears in
// the line prefix as the thread field.
func (l *Logger) NewProducer() *Producer {
	return &Producer{l: l, id: l.nextProducerID()}
}

func (l *Logger) nextProducerID() uint32 {
	for {
		id := l.producerSeq.Add(1) & 0xFFFF
		if id != 0 {
			return id
		}
	}
}

// Trace logs a record at trace level using {} template placeholders.
func (p *Producer) Trace(template string, args ...any) {
	p.Log(LevelTrace, template, args...)
}

// Debug logs a record at debug level.
func (p *Producer) Debug(template string, args ...any) {
	p.Log(LevelDebug, template, args...)
}

// Info logs a record at info level.
func (p *Producer) Info(template string, args ...any) {
	p.Log(LevelInfo, template, args...)
}

// Warn logs a record at warn level.
func (p *Producer) Warn(template string, args ...any) {
	p.Log(LevelWarn, template, args...)
}

// Error logs a record at error level.
func (p *Producer) Error(template string, args ...any) {
	p.Log(LevelError, template, args...)
}

// Critical logs a record at critical level.
func (p *Producer) Critical(template string, args ...any) {
	p.Log(LevelCritical, template, args...)
}

// Fatal logs a record at fatal level. The record goes through the normal
// queue; callers that exit afterwards should Flush first.
func (p *Producer) Fatal(template string, args ...any) {
	p.Log(LevelFatal, template, args...)
}

// Tracef logs using fmt verbs instead of {} placeholders.
func (p *Producer) Tracef(format string, args ...any) {
	p.Logf(LevelTrace, format, args...)
}

// Debugf logs using fmt verbs.
func (p *Producer) Debugf(format string, args ...any) {
	p.Logf(LevelDebug, format, args...)
}

// Infof logs using fmt verbs.
func (p *Producer) Infof(format string, args ...any) {
	p.Logf(LevelInfo, format, args...)
}

// Warnf logs using fmt verbs.
func (p *Producer) Warnf(format string, args ...any) {
	p.Logf(LevelWarn, format, args...)
}

// Errorf logs using fmt verbs.
func (p *Producer) Errorf(format string, args ...any) {
	p.Logf(LevelError, format, args...)
}

// Criticalf logs using fmt verbs.
func (p *Producer) Criticalf(format string, args ...any) {
	p.Logf(LevelCritical, format, args...)
}

// Fatalf logs using fmt verbs.
func (p *Producer) Fatalf(format string, args ...any) {
	p.Logf(LevelFatal, format, args...)
}

// Log renders the template into a pooled buffer, truncates on a code point
// boundary at MaxLine, and hands the record to the queueing path.
func (p *Producer) Log(level Level, template string, args ...any) {
	if !p.l.accepting() {
		return
	}
	buf := messagePool.Get()
	buf.B = appendTemplate(buf.B, template, args)
	if len(buf.B) > MaxLine {
		buf.B = buf.B[:utf8SafeSize(buf.B, MaxLine)]
	}
	p.emit(level, buf)
}

// Logf is the fmt-verb twin of Log.
func (p *Producer) Logf(level Level, format string, args ...any) {
	if !p.l.accepting() {
		return
	}
	buf := messagePool.Get()
	buf.B = fmt.Appendf(buf.B, format, args...)
	if len(buf.B) > MaxLine {
		buf.B = buf.B[:utf8SafeSize(buf.B, MaxLine)]
	}
	p.emit(level, buf)
}

// emit runs the three-stage enqueue: MPMC first, the private spill ring on
// refusal, and the fallback queue (or the spin loop when configured) when
// both refuse. No stage ever drops a record, and a record never overtakes
// an earlier one from the same producer: while backlog sits in the spill
// ring or the fallback queue, new records queue up behind it.
func (p *Producer) emit(level Level, msg *bytebufferpool.ByteBuffer) {
	l := p.l
	if l.shutdownCalled.Load() {
		messagePool.Put(msg)
		return
	}
	e := logEntry{
		tsMs:     time.Now().UnixMilli(),
		producer: p.id,
		level:    level,
		msg:      msg,
	}
	cfg := l.cfg.Load()

	if !p.spill.empty() {
		p.drainSpill()
	}
	if p.inFallback {
		if !l.fallback.Empty() {
			if cfg.TrackMetrics {
				l.backpressureSpins.Add(1)
			}
			l.fallback.Enqueue(e)
			return
		}
		p.inFallback = false
	}
	if p.spill.empty() && l.queue.TryEnqueue(e) {
		l.flushInlineIfNeeded()
		return
	}
	if p.spill.tryPush(e) {
		if cfg.TrackMetrics {
			l.overflowPushes.Add(1)
		}
		return
	}
	if cfg.TrackMetrics {
		l.backpressureSpins.Add(1)
	}
	if cfg.SpinOnFull {
		for {
			if l.shutdownCalled.Load() {
				messagePool.Put(msg)
				return
			}
			p.drainSpill()
			if p.spill.empty() && l.queue.TryEnqueue(e) {
				l.flushInlineIfNeeded()
				return
			}
			runtime.Gosched()
		}
	}
	// Both rings refused. Move the spilled backlog ahead of this record
	// into the fallback queue so the flusher sees everything in order.
	for {
		se, ok := p.spill.tryPop()
		if !ok {
			break
		}
		l.fallback.Enqueue(se)
	}
	l.fallback.Enqueue(e)
	p.inFallback = true
}

// drainSpill moves spilled records back into the MPMC ring in FIFO order,
// stopping at the first refusal. A record popped but refused is rolled back
// so the drain attempt stays atomic.
func (p *Producer) drainSpill() {
	for {
		e, ok := p.spill.tryPop()
		if !ok {
			return
		}
		if !p.l.queue.TryEnqueue(e) {
			p.spill.rollbackLastPop(e)
			return
		}
	}
}

// Close hands any spilled backlog to the fallback queue so the flusher can
// reach it. Call it before abandoning a handle whose goroutine is done
// logging; the handle must not be used afterwards.
func (p *Producer) Close() {
	for {
		e, ok := p.spill.tryPop()
		if !ok {
			break
		}
		p.l.fallback.Enqueue(e)
		p.inFallback = true
	}
}

// borrowProducer serves the Logger's own level methods, which have no
// goroutine identity. Handles come from a pool; ids are assigned once and
// survive recycling.
func (l *Logger) borrowProducer() *Producer {
	if p, ok := l.producerPool.Get().(*Producer); ok {
		return p
	}
	return l.NewProducer()
}

// returnProducer parks a pooled handle. Any spilled records move to the
// fallback queue first: a handle sitting in a pool has no next enqueue to
// drain on, and the pool may reclaim it at any time.
func (l *Logger) returnProducer(p *Producer) {
	p.Close()
	l.producerPool.Put(p)
}
