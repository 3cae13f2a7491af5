// FILE: flush.go
package ulog

import (
	"strconv"
	"time"

	"github.com/valyala/bytebufferpool"
)

// flushLoop is the flusher body, spawned through the Runtime. It alternates
// interval sleeps with batch flushes, answers explicit flush requests with a
// confirmation, and on shutdown drains everything reachable before closing
// the sinks.
func (l *Logger) flushLoop() {
	defer close(l.flusherDone)
	cfg := l.cfg.Load()
	interval := time.Duration(cfg.FlushIntervalNs)
	for {
		select {
		case <-l.shutdownChan:
			l.drainAll()
			return
		case confirm := <-l.flushRequest:
			l.flushOnce()
			for !l.queue.Empty() || !l.fallback.Empty() {
				if l.flushOnce() == 0 {
					break
				}
			}
			l.syncSinks()
			close(confirm)
		case <-l.rt.Sleep(interval):
			l.flushOnce()
		}
	}
}

// drainAll empties the MPMC ring and the fallback queue. Producer spill
// rings are out of reach here; their owners push them forward on their own
// enqueues or when a pooled handle is returned.
func (l *Logger) drainAll() {
	for {
		if l.flushOnce() == 0 && l.queue.Empty() && l.fallback.Empty() {
			return
		}
	}
}

// flushOnce gathers one batch and writes it. The flush mutex makes the
// flusher, inline flushes and the shutdown drain mutually exclusive, which
// keeps sink state single-writer. Returns the number of records written.
func (l *Logger) flushOnce() int {
	l.flushMu.Lock()
	defer l.flushMu.Unlock()
	cfg := l.cfg.Load()

	batch := l.batchBuf
	n := l.queue.TryDequeueBulk(batch)
	if n < len(batch) {
		n += l.fallback.DequeueBulk(batch[n:])
	}
	if n == 0 {
		return 0
	}

	var staging [levelCount]*bytebufferpool.ByteBuffer
	for i := 0; i < n; i++ {
		e := &batch[i]
		buf := staging[e.level]
		if buf == nil {
			buf = stagingPool.Get()
			staging[e.level] = buf
		}
		buf.B = l.appendRecord(buf.B, e, cfg)
		messagePool.Put(e.msg)
		batch[i] = logEntry{}
	}

	for lv := 0; lv < levelCount; lv++ {
		buf := staging[lv]
		if buf == nil {
			continue
		}
		s := &l.sinks[lv]
		l.maybeRotate(s, cfg, len(buf.B))
		l.writeSink(s, buf.B)
		stagingPool.Put(buf)
	}
	l.recordsFlushed.Add(uint64(n))
	return n
}

// appendRecord renders one record into the staging buffer in the configured
// line format.
func (l *Logger) appendRecord(dst []byte, e *logEntry, cfg *Config) []byte {
	if cfg.JSONMode {
		return appendJSONRecord(dst, e)
	}
	s := &l.sinks[e.level]
	colored := s.colorEnabled
	if colored {
		dst = append(dst, levelColors[e.level]...)
	}
	dst = append(dst, '[')
	dst = appendTimestamp(dst, e.tsMs)
	dst = append(dst, "]["...)
	dst = appendProducerID(dst, e.producer)
	dst = append(dst, "]["...)
	dst = append(dst, levelLetters[e.level])
	dst = append(dst, "] "...)
	dst = append(dst, e.msg.B...)
	if colored {
		dst = append(dst, colorReset...)
	}
	return append(dst, '\n')
}

// appendJSONRecord renders the single-line JSON form. Only the message body
// needs escaping; every other field is produced clean.
func appendJSONRecord(dst []byte, e *logEntry) []byte {
	dst = append(dst, `{"time":"`...)
	dst = appendTimestamp(dst, e.tsMs)
	dst = append(dst, `","thread":`...)
	dst = appendProducerID(dst, e.producer)
	dst = append(dst, `,"level":"`...)
	dst = append(dst, levelLetters[e.level])
	dst = append(dst, `","msg":"`...)
	dst = appendJSONEscaped(dst, e.msg.B)
	dst = append(dst, "\"}\n"...)
	return dst
}

func appendProducerID(dst []byte, id uint32) []byte {
	return strconv.AppendUint(dst, uint64(id), 10)
}

// flushInlineIfNeeded flushes on the producer's goroutine while no flusher
// is running, so records written before Start still reach their sinks.
func (l *Logger) flushInlineIfNeeded() {
	if l.flusherStarted.Load() || !l.initialized.Load() {
		return
	}
	l.flushOnce()
}
