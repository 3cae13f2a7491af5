// FILE: producer_test.go
package ulog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueueOnlyLogger(t *testing.T, capacity int64) *Logger {
	t.Helper()
	logger := NewLogger()
	cfg := DefaultConfig()
	cfg.QueueCapacity = capacity
	cfg.FlushIntervalNs = int64(time.Hour) // Flusher never wakes on its own
	require.NoError(t, logger.ApplyConfig(cfg))
	// Pretend a flusher runs so nothing drains inline.
	logger.flusherStarted.Store(true)
	return logger
}

// TestProducerIDsUniqueNonzero verifies id assignment
func TestProducerIDsUniqueNonzero(t *testing.T) {
	logger := NewLogger()

	seen := map[uint32]bool{}
	for i := 0; i < 100; i++ {
		p := logger.NewProducer()
		require.NotZero(t, p.id)
		require.LessOrEqual(t, p.id, uint32(0xFFFF))
		require.False(t, seen[p.id], "duplicate id %d", p.id)
		seen[p.id] = true
	}
}

// TestEmitSpillsOnFullQueue verifies MPMC refusal lands records in the
// spill ring, and that the backlog drains in order once space frees up
func TestEmitSpillsOnFullQueue(t *testing.T) {
	logger := newQueueOnlyLogger(t, 4)
	p := logger.NewProducer()

	for i := 0; i < 10; i++ {
		p.Info("record {}", i)
	}
	// 4 in the MPMC, 6 spilled.
	assert.False(t, logger.queue.Empty())
	assert.False(t, p.spill.empty())
	assert.Equal(t, uint64(6), logger.Stats().OverflowPushes)

	// Free the queue; the next emit drains backlog ahead of itself.
	out := make([]logEntry, 16)
	n := logger.queue.TryDequeueBulk(out)
	require.Equal(t, 4, n)
	p.Info("record {}", 10)

	n2 := logger.queue.TryDequeueBulk(out[n:])
	total := n + n2
	for i := 0; i < total; i++ {
		assert.Equal(t, "record "+string(rune('0'+i)), string(out[i].msg.B))
	}
}

// TestEmitFallsBackWhenBothFull verifies the fallback stage and ordering
func TestEmitFallsBackWhenBothFull(t *testing.T) {
	logger := newQueueOnlyLogger(t, 4)
	p := logger.NewProducer()

	total := 4 + (spillRingSize - 1) + 5 // queue + spill + fallback
	for i := 0; i < total; i++ {
		p.Info("r{}", i)
	}

	assert.True(t, p.inFallback)
	assert.False(t, logger.fallback.Empty())
	// The spill backlog moved to the fallback ahead of the overflowing
	// record, leaving the ring empty.
	assert.True(t, p.spill.empty())
	assert.Equal(t, uint64(5), logger.Stats().BackpressureSpins)

	// Everything drains exactly once through the flush path.
	drained := 0
	for {
		n := logger.flushOnce()
		if n == 0 {
			break
		}
		drained += n
	}
	assert.Equal(t, total, drained)
}

// TestProducerClose moves the spilled backlog within the flusher's reach
func TestProducerClose(t *testing.T) {
	logger := newQueueOnlyLogger(t, 4)
	p := logger.NewProducer()

	for i := 0; i < 10; i++ {
		p.Info("record {}", i)
	}
	require.False(t, p.spill.empty())

	p.Close()
	assert.True(t, p.spill.empty())
	assert.False(t, logger.fallback.Empty())

	drained := 0
	for {
		n := logger.flushOnce()
		if n == 0 {
			break
		}
		drained += n
	}
	assert.Equal(t, 10, drained)
}

// TestPooledProducerLeavesNothingBehind verifies the Logger-level methods
// never strand records in a parked handle
func TestPooledProducerLeavesNothingBehind(t *testing.T) {
	logger := newQueueOnlyLogger(t, 4)

	for i := 0; i < 20; i++ {
		logger.Info("pooled {}", i)
	}

	drained := 0
	for {
		n := logger.flushOnce()
		if n == 0 {
			break
		}
		drained += n
	}
	assert.Equal(t, 20, drained)
}

// TestEmitAfterShutdown verifies produce is a no-op once shutdown begins
func TestEmitAfterShutdown(t *testing.T) {
	logger := newQueueOnlyLogger(t, 4)
	p := logger.NewProducer()

	logger.shutdownCalled.Store(true)
	p.Info("dropped")
	assert.True(t, logger.queue.Empty())
	assert.True(t, p.spill.empty())
}

// TestMetricsDisabled verifies counters stay at zero without tracking
func TestMetricsDisabled(t *testing.T) {
	logger := NewLogger()
	cfg := DefaultConfig()
	cfg.QueueCapacity = 4
	cfg.TrackMetrics = false
	require.NoError(t, logger.ApplyConfig(cfg))
	logger.flusherStarted.Store(true)

	p := logger.NewProducer()
	for i := 0; i < 100; i++ {
		p.Info("r{}", i)
	}

	stats := logger.Stats()
	assert.Zero(t, stats.OverflowPushes)
	assert.Zero(t, stats.BackpressureSpins)
}
