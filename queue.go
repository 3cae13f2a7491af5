// FILE: queue.go
package ulog

import (
	"sync/atomic"
)

// mpmcRing is a bounded multi-producer multi-consumer queue of log entries
// with per-cell sequence numbers. Capacity is a power of two fixed at
// construction. Enqueue and dequeue are lock-free; a full ring refuses
// instead of blocking.
type mpmcRing struct {
	cells      []mpmcCell
	mask       uint64
	_          [48]byte // keep the positions off the cells' cache line
	enqueuePos atomic.Uint64
	_          [56]byte
	dequeuePos atomic.Uint64
}

type mpmcCell struct {
	seq   atomic.Uint64
	entry logEntry
}

// newMPMCRing allocates a ring of the given capacity, which must be a power
// of two (validated by Config).
func newMPMCRing(capacity uint64) *mpmcRing {
	q := &mpmcRing{
		cells: make([]mpmcCell, capacity),
		mask:  capacity - 1,
	}
	for i := range q.cells {
		q.cells[i].seq.Store(uint64(i))
	}
	return q
}

// TryEnqueue claims a producer slot and stores the entry. Returns false
// without modification when the ring is full.
func (q *mpmcRing) TryEnqueue(e logEntry) bool {
	pos := q.enqueuePos.Load()
	for {
		cell := &q.cells[pos&q.mask]
		seq := cell.seq.Load()
		diff := int64(seq) - int64(pos)
		switch {
		case diff == 0:
			if q.enqueuePos.CompareAndSwap(pos, pos+1) {
				cell.entry = e
				cell.seq.Store(pos + 1)
				return true
			}
			pos = q.enqueuePos.Load()
		case diff < 0:
			// Cell still holds the entry from one lap ago: full.
			return false
		default:
			pos = q.enqueuePos.Load()
		}
	}
}

// TryDequeueBulk moves up to len(out) entries into out, preserving per
// producer FIFO order, and returns the count moved. Never blocks.
func (q *mpmcRing) TryDequeueBulk(out []logEntry) int {
	n := 0
	for n < len(out) {
		pos := q.dequeuePos.Load()
		cell := &q.cells[pos&q.mask]
		seq := cell.seq.Load()
		diff := int64(seq) - int64(pos+1)
		if diff < 0 {
			// Next cell not yet published: drained as far as possible.
			break
		}
		if diff == 0 && q.dequeuePos.CompareAndSwap(pos, pos+1) {
			out[n] = cell.entry
			cell.entry = logEntry{}
			cell.seq.Store(pos + q.mask + 1)
			n++
		}
	}
	return n
}

// Empty is conservative: it may report false during a concurrent dequeue,
// never true while a published entry remains.
func (q *mpmcRing) Empty() bool {
	return q.dequeuePos.Load() == q.enqueuePos.Load()
}

// Capacity returns the fixed cell count.
func (q *mpmcRing) Capacity() int {
	return len(q.cells)
}
