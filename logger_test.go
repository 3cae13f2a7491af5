// FILE: logger_test.go
package ulog

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestLogger builds a started logger writing every level to one file
// in a temp directory
func createTestLogger(t *testing.T) (*Logger, string) {
	t.Helper()
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	logger := NewLogger()
	cfg := DefaultConfig()
	cfg.TracePath = logPath
	cfg.DebugPath = logPath
	cfg.InfoPath = logPath
	cfg.WarnPath = logPath
	cfg.ErrorPath = logPath
	cfg.QueueCapacity = 256
	cfg.BatchSize = 32
	cfg.FlushIntervalNs = int64(minWaitTime)

	require.NoError(t, logger.ApplyConfig(cfg))
	require.NoError(t, logger.Start())
	return logger, logPath
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := strings.TrimSuffix(string(data), "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

// TestNewLogger verifies the initial state of a fresh logger
func TestNewLogger(t *testing.T) {
	logger := NewLogger()

	assert.NotNil(t, logger)
	assert.False(t, logger.initialized.Load())
	assert.False(t, logger.accepting())
	assert.Error(t, logger.Start())
}

// TestApplyConfig verifies initialization and sink creation
func TestApplyConfig(t *testing.T) {
	logger, logPath := createTestLogger(t)
	defer logger.Shutdown()

	assert.True(t, logger.initialized.Load())
	assert.True(t, logger.accepting())

	_, err := os.Stat(logPath)
	assert.NoError(t, err)
}

// TestApplyConfigRejectsNil verifies config guards
func TestApplyConfigRejectsNil(t *testing.T) {
	logger := NewLogger()
	assert.Error(t, logger.ApplyConfig(nil))

	bad := DefaultConfig()
	bad.QueueCapacity = 1000
	assert.Error(t, logger.ApplyConfig(bad))
}

// TestApplyConfigAfterStart verifies reconfiguration is refused while the
// flusher runs
func TestApplyConfigAfterStart(t *testing.T) {
	logger, _ := createTestLogger(t)
	defer logger.Shutdown()

	assert.Error(t, logger.ApplyConfig(DefaultConfig()))
}

// TestApplyConfigString applies overrides before start
func TestApplyConfigString(t *testing.T) {
	tmpDir := t.TempDir()
	logger := NewLogger()

	err := logger.ApplyConfigString(
		"info_path="+filepath.Join(tmpDir, "i.log"),
		"queue_capacity=128",
		"track_metrics=false",
	)
	require.NoError(t, err)
	defer logger.Shutdown()

	cfg := logger.GetConfig()
	assert.Equal(t, int64(128), cfg.QueueCapacity)
	assert.False(t, cfg.TrackMetrics)

	assert.Error(t, NewLogger().ApplyConfigString("queue_capacity=three"))
	assert.Error(t, NewLogger().ApplyConfigString("not-a-pair"))
}

// TestShutdownIdempotent verifies repeated shutdowns and post-shutdown logs
// are no-ops
func TestShutdownIdempotent(t *testing.T) {
	logger, logPath := createTestLogger(t)

	logger.Info("before shutdown")
	require.NoError(t, logger.Shutdown(time.Second))
	require.NoError(t, logger.Shutdown(time.Second))

	logger.Info("after shutdown")
	assert.Error(t, logger.Flush(time.Second))

	lines := readLines(t, logPath)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "before shutdown")
}

// TestRecordLineFormat checks the exact text line layout for a fixed
// timestamp, producer id 1, info level
func TestRecordLineFormat(t *testing.T) {
	logger := NewLogger()
	cfg := DefaultConfig()
	cfg.EnableColorStdout = false
	require.NoError(t, logger.ApplyConfig(cfg))

	const ts = int64(1730000000000)
	buf := messagePool.Get()
	buf.B = append(buf.B, "hello world"...)
	e := logEntry{tsMs: ts, producer: 1, level: LevelInfo, msg: buf}

	line := string(logger.appendRecord(nil, &e, logger.cfg.Load()))
	messagePool.Put(buf)

	want := "[" + time.UnixMilli(ts).Format(timestampLayout) + "][1][I] hello world\n"
	assert.Equal(t, want, line)
}

// TestRecordLineJSON checks the JSON line layout including escaping
func TestRecordLineJSON(t *testing.T) {
	const ts = int64(1730000000000)
	buf := messagePool.Get()
	buf.B = append(buf.B, "a\"b\nc\td"...)
	e := logEntry{tsMs: ts, producer: 1, level: LevelInfo, msg: buf}

	line := string(appendJSONRecord(nil, &e))
	messagePool.Put(buf)

	want := `{"time":"` + time.UnixMilli(ts).Format(timestampLayout) +
		`","thread":1,"level":"I","msg":"a\"b\nc\td"}` + "\n"
	assert.Equal(t, want, line)
}

// TestTemplateThroughPipeline runs the positional and escape scenarios end
// to end
func TestTemplateThroughPipeline(t *testing.T) {
	logger, logPath := createTestLogger(t)

	logger.Trace("{1} {0}", "b", "a")
	logger.Warn("x={{}}", 1)
	require.NoError(t, logger.Flush(time.Second))
	require.NoError(t, logger.Shutdown(time.Second))

	lines := readLines(t, logPath)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "[T] a b"), "got %q", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "[W] x={}"), "got %q", lines[1])
}

// TestLevelRouting verifies records land in their level's sink
func TestLevelRouting(t *testing.T) {
	tmpDir := t.TempDir()
	infoPath := filepath.Join(tmpDir, "info.log")
	errorPath := filepath.Join(tmpDir, "error.log")

	logger := NewLogger()
	cfg := DefaultConfig()
	cfg.InfoPath = infoPath
	cfg.ErrorPath = errorPath
	require.NoError(t, logger.ApplyConfig(cfg))
	require.NoError(t, logger.Start())

	logger.Info("to info")
	logger.Error("to error")
	logger.Critical("critical inherits error path")
	require.NoError(t, logger.Flush(time.Second))
	require.NoError(t, logger.Shutdown(time.Second))

	infoLines := readLines(t, infoPath)
	require.Len(t, infoLines, 1)
	assert.Contains(t, infoLines[0], "[I] to info")

	errorLines := readLines(t, errorPath)
	require.Len(t, errorLines, 2)
	assert.Contains(t, errorLines[0], "[E] to error")
	assert.Contains(t, errorLines[1], "[C] critical inherits error path")
}

// TestRotationShift verifies the archive shift with exact batch sizes. Each
// line is 80 bytes; the limit of 100 forces the second batch into a fresh
// file with the first batch archived as .1
func TestRotationShift(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "x.log")

	logger := NewLogger()
	cfg := DefaultConfig()
	cfg.InfoPath = logPath
	cfg.MaxFileSizeBytes = 100
	cfg.MaxFiles = 3
	require.NoError(t, logger.ApplyConfig(cfg))

	// Prefix is "[<23 ts bytes>][1][I] " plus trailing newline: 33 bytes.
	msgA := strings.Repeat("a", 47)
	msgB := strings.Repeat("b", 47)

	p := logger.NewProducer()
	p.Info("{}", msgA) // flushed inline, 80 bytes
	p.Info("{}", msgB) // 80 more would exceed 100: rotates first

	require.NoError(t, logger.Shutdown(time.Second))

	current, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Len(t, current, 80)
	assert.Contains(t, string(current), msgB)

	archived, err := os.ReadFile(logPath + ".1")
	require.NoError(t, err)
	require.Len(t, archived, 80)
	assert.Contains(t, string(archived), msgA)

	_, err = os.Stat(logPath + ".2")
	assert.True(t, os.IsNotExist(err))

	assert.Equal(t, uint64(1), logger.Stats().Rotations)
}

// TestRotationDropsOldest verifies the oldest archive is unlinked once
// max_files is reached
func TestRotationDropsOldest(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "r.log")

	logger := NewLogger()
	cfg := DefaultConfig()
	cfg.InfoPath = logPath
	cfg.MaxFileSizeBytes = 100
	cfg.MaxFiles = 2
	require.NoError(t, logger.ApplyConfig(cfg))

	p := logger.NewProducer()
	for i := 0; i < 4; i++ {
		p.Info("{}", strings.Repeat(string(rune('a'+i)), 47))
	}
	require.NoError(t, logger.Shutdown(time.Second))

	_, err := os.Stat(logPath)
	assert.NoError(t, err)
	_, err = os.Stat(logPath + ".1")
	assert.NoError(t, err)
	_, err = os.Stat(logPath + ".2")
	assert.True(t, os.IsNotExist(err))
}

// TestBackpressureNoLoss floods a 16-cell queue from one producer and
// verifies every record arrives exactly once, in order
func TestBackpressureNoLoss(t *testing.T) {
	const records = 10_000
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "flood.log")

	logger := NewLogger()
	cfg := DefaultConfig()
	cfg.InfoPath = logPath
	cfg.QueueCapacity = 16
	cfg.BatchSize = 8
	cfg.FlushIntervalNs = int64(time.Millisecond)
	require.NoError(t, logger.ApplyConfig(cfg))
	require.NoError(t, logger.Start())

	p := logger.NewProducer()
	for i := 0; i < records; i++ {
		p.Info("record {}", i)
	}
	p.Close()

	require.NoError(t, logger.Flush(10*time.Second))
	require.NoError(t, logger.Shutdown(10*time.Second))

	lines := readLines(t, logPath)
	require.Len(t, lines, records)
	for i, line := range lines {
		idx := strings.LastIndex(line, " ")
		require.GreaterOrEqual(t, idx, 0)
		n, err := strconv.Atoi(line[idx+1:])
		require.NoError(t, err)
		require.Equal(t, i, n, "line %d out of order: %q", i, line)
	}

	stats := logger.Stats()
	assert.Equal(t, uint64(records), stats.RecordsFlushed)
	assert.Greater(t, stats.OverflowPushes, uint64(0))
}

// TestConcurrentProducersNoLoss verifies per-producer order and no loss
// with several goroutines sharing one small queue
func TestConcurrentProducersNoLoss(t *testing.T) {
	const (
		producers = 4
		perProd   = 2_000
	)
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "multi.log")

	logger := NewLogger()
	cfg := DefaultConfig()
	cfg.InfoPath = logPath
	cfg.QueueCapacity = 64
	cfg.BatchSize = 16
	cfg.FlushIntervalNs = int64(time.Millisecond)
	require.NoError(t, logger.ApplyConfig(cfg))
	require.NoError(t, logger.Start())

	done := make(chan struct{})
	for w := 0; w < producers; w++ {
		go func(w int) {
			defer func() { done <- struct{}{} }()
			p := logger.NewProducer()
			defer p.Close()
			for i := 0; i < perProd; i++ {
				p.Info("w{} {}", w, i)
			}
		}(w)
	}
	for w := 0; w < producers; w++ {
		<-done
	}

	require.NoError(t, logger.Flush(10*time.Second))
	require.NoError(t, logger.Shutdown(10*time.Second))

	lines := readLines(t, logPath)
	require.Len(t, lines, producers*perProd)

	lastSeen := map[string]int{}
	for _, line := range lines {
		fields := strings.Fields(line)
		require.GreaterOrEqual(t, len(fields), 2)
		worker := fields[len(fields)-2]
		n, err := strconv.Atoi(fields[len(fields)-1])
		require.NoError(t, err)
		prev, seen := lastSeen[worker]
		if seen {
			require.Equal(t, prev+1, n, "worker %s out of order: %q", worker, line)
		} else {
			require.Equal(t, 0, n)
		}
		lastSeen[worker] = n
	}
}

// TestJSONMode verifies the JSON pipeline end to end
func TestJSONMode(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "json.log")

	logger := NewLogger()
	cfg := DefaultConfig()
	cfg.InfoPath = logPath
	cfg.JSONMode = true
	require.NoError(t, logger.ApplyConfig(cfg))
	require.NoError(t, logger.Start())

	logger.Info("a\"b\nc\td")
	require.NoError(t, logger.Flush(time.Second))
	require.NoError(t, logger.Shutdown(time.Second))

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	line := string(data)
	assert.Contains(t, line, `"level":"I"`)
	assert.Contains(t, line, `"msg":"a\"b\nc\td"`)
	assert.True(t, strings.HasSuffix(line, "}\n"))
	assert.Equal(t, 1, strings.Count(line, "\n"))
}

// TestMaxLineTruncation verifies oversized messages are cut on a code point
// boundary before enqueue
func TestMaxLineTruncation(t *testing.T) {
	logger, logPath := createTestLogger(t)

	padding := strings.Repeat("x", MaxLine-1)
	logger.Info("{}", padding+"é") // multibyte char straddles the limit

	require.NoError(t, logger.Flush(time.Second))
	require.NoError(t, logger.Shutdown(time.Second))

	lines := readLines(t, logPath)
	require.Len(t, lines, 1)
	msg := lines[0][strings.Index(lines[0], "] ")+2:]
	assert.LessOrEqual(t, len(msg), MaxLine)
	assert.Equal(t, padding, msg)
}

// TestFlushWithoutStart drains inline when no flusher is running
func TestFlushWithoutStart(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "inline.log")

	logger := NewLogger()
	cfg := DefaultConfig()
	cfg.InfoPath = logPath
	require.NoError(t, logger.ApplyConfig(cfg))

	logger.Info("early record")
	require.NoError(t, logger.Flush(time.Second))

	lines := readLines(t, logPath)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "early record")

	require.NoError(t, logger.Shutdown(time.Second))
}

// TestStatsCounters verifies flushed record accounting
func TestStatsCounters(t *testing.T) {
	logger, _ := createTestLogger(t)

	for i := 0; i < 50; i++ {
		logger.Info("count {}", i)
	}
	require.NoError(t, logger.Flush(time.Second))

	stats := logger.Stats()
	assert.Equal(t, uint64(50), stats.RecordsFlushed)
	assert.Equal(t, uint64(0), stats.SinkErrors)

	require.NoError(t, logger.Shutdown(time.Second))
}

// TestDump writes a deep-printed value at debug level
func TestDump(t *testing.T) {
	logger, logPath := createTestLogger(t)

	logger.Dump(struct{ Port int }{8080})
	require.NoError(t, logger.Flush(time.Second))
	require.NoError(t, logger.Shutdown(time.Second))

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Port")
	assert.Contains(t, string(data), "8080")
}

// TestBuilderBuild wires a logger through the fluent path
func TestBuilderBuild(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "built.log")

	logger, err := NewBuilder().
		AllPaths(logPath).
		QueueCapacity(128).
		FlushInterval(minWaitTime).
		Build()
	require.NoError(t, err)
	require.NoError(t, logger.Start())

	logger.Warn("built and running")
	require.NoError(t, logger.Flush(time.Second))
	require.NoError(t, logger.Shutdown(time.Second))

	lines := readLines(t, logPath)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "[W] built and running")
}

// TestPrintfVariants exercises the fmt-verb methods
func TestPrintfVariants(t *testing.T) {
	logger, logPath := createTestLogger(t)

	logger.Infof("pid %d on %s", 42, "host")
	logger.Errorf("failure: %v", fmt.Errorf("nope"))
	require.NoError(t, logger.Flush(time.Second))
	require.NoError(t, logger.Shutdown(time.Second))

	lines := readLines(t, logPath)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "pid 42 on host")
	assert.Contains(t, lines[1], "failure: nope")
}
