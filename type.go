// FILE: type.go
package ulog

import (
	"os"

	"github.com/valyala/bytebufferpool"
)

// logEntry represents a single log record in flight between a producer and
// the flusher. The message buffer is pooled; ownership moves with the entry
// and the flusher returns it after the write.
type logEntry struct {
	tsMs     int64
	producer uint32
	level    Level
	msg      *bytebufferpool.ByteBuffer
}

// sink is the per-level output destination. Only the flusher mutates a sink
// after init: handle, byte counter and color flag all belong to it.
type sink struct {
	file         *os.File
	path         string // empty means stdout, rotation disabled
	bytesWritten int64
	colorEnabled bool
}

// std reports whether the sink handle is process stdout or stderr.
func (s *sink) std() bool {
	return s.file == os.Stdout || s.file == os.Stderr
}

// Stats is a snapshot of the logger's counters. All values are cumulative
// and monotonically non-decreasing.
type Stats struct {
	// OverflowPushes counts records diverted to a producer's spill ring.
	OverflowPushes uint64
	// BackpressureSpins counts records routed to the fallback queue, either
	// because both rings refused them or to stay behind earlier records of
	// the same producer still queued there, and records that entered the
	// spin path when enabled.
	BackpressureSpins uint64
	// RecordsFlushed counts records written out by the flusher.
	RecordsFlushed uint64
	// Rotations counts completed sink file rotations.
	Rotations uint64
	// SinkErrors counts write and rotation failures across all sinks.
	SinkErrors uint64
}

// messagePool feeds record message buffers; stagingPool feeds the flusher's
// per-level staging buffers. Kept separate so the very different size classes
// do not pollute each other's calibration.
var (
	messagePool bytebufferpool.Pool
	stagingPool bytebufferpool.Pool
)
