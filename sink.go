// FILE: sink.go
package ulog

import (
	"fmt"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
)

// initSinks opens one sink per level from the active config. Levels that
// share a path share the file handle so rotation and byte accounting stay
// consistent; an empty path means stdout.
func (l *Logger) initSinks(cfg *Config) error {
	paths := cfg.levelPaths()
	opened := map[string]*os.File{}
	for lv := 0; lv < levelCount; lv++ {
		path := paths[lv]
		s := &l.sinks[lv]
		s.path = path
		s.bytesWritten = 0
		if path == "" {
			s.file = os.Stdout
			s.colorEnabled = cfg.EnableColorStdout && isatty.IsTerminal(os.Stdout.Fd())
			continue
		}
		if f, ok := opened[path]; ok {
			s.file = f
			s.colorEnabled = false
			for prev := 0; prev < lv; prev++ {
				if l.sinks[prev].path == path {
					s.bytesWritten = l.sinks[prev].bytesWritten
					break
				}
			}
			continue
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmtErrorf("open sink %q: %w", path, err)
		}
		if info, serr := f.Stat(); serr == nil {
			s.bytesWritten = info.Size()
		}
		opened[path] = f
		s.file = f
		s.colorEnabled = false
	}
	return nil
}

// closeSinks closes every unique file handle exactly once. Stdout and
// stderr are never closed.
func (l *Logger) closeSinks() error {
	var err error
	closed := map[*os.File]bool{}
	for lv := 0; lv < levelCount; lv++ {
		s := &l.sinks[lv]
		f := s.file
		s.file = nil
		if f == nil || f == os.Stdout || f == os.Stderr || closed[f] {
			continue
		}
		closed[f] = true
		if serr := f.Sync(); serr != nil {
			err = combineErrors(err, fmtErrorf("sync sink %q: %w", s.path, serr))
		}
		if cerr := f.Close(); cerr != nil {
			err = combineErrors(err, fmtErrorf("close sink %q: %w", s.path, cerr))
		}
	}
	return err
}

// maybeRotate rotates the sink when the pending batch would push the file
// past the configured size limit. A batch is never split across two files;
// an oversized batch landing in a fresh file goes out whole. Rotation
// applies only to file-backed sinks with a positive limit.
func (l *Logger) maybeRotate(s *sink, cfg *Config, incoming int) {
	if cfg.MaxFileSizeBytes <= 0 || s.path == "" || s.std() {
		return
	}
	if s.bytesWritten == 0 || s.bytesWritten+int64(incoming) <= cfg.MaxFileSizeBytes {
		return
	}
	if err := l.rotate(s, cfg); err != nil {
		l.sinkErrors.Add(1)
		l.internalLog("rotation failed for %q, falling back to stdout: %v", s.path, err)
		for lv := 0; lv < levelCount; lv++ {
			other := &l.sinks[lv]
			if other.path != s.path {
				continue
			}
			other.file = os.Stdout
			other.colorEnabled = cfg.EnableColorStdout && isatty.IsTerminal(os.Stdout.Fd())
			other.bytesWritten = 0
		}
		return
	}
	l.rotations.Add(1)
}

// rotate runs the shift protocol: sync and close the live file, drop the
// oldest archive, slide the rest down, move the live file to .1, and reopen
// a fresh file at the original path. With max_files of one the live file is
// simply removed.
func (l *Logger) rotate(s *sink, cfg *Config) error {
	old := s.file
	if err := old.Sync(); err != nil {
		l.internalLog("sync before rotation of %q: %v", s.path, err)
	}
	if err := old.Close(); err != nil {
		return fmtErrorf("close %q for rotation: %w", s.path, err)
	}
	// Levels sharing this handle would otherwise double-close it.
	for lv := 0; lv < levelCount; lv++ {
		if l.sinks[lv].file == old {
			l.sinks[lv].file = nil
		}
	}
	keep := int(cfg.MaxFiles)
	if keep <= 1 {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmtErrorf("remove %q: %w", s.path, err)
		}
	} else {
		oldest := archiveName(s.path, keep-1)
		if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
			return fmtErrorf("remove %q: %w", oldest, err)
		}
		for i := keep - 2; i >= 1; i-- {
			from := archiveName(s.path, i)
			to := archiveName(s.path, i+1)
			if err := os.Rename(from, to); err != nil && !os.IsNotExist(err) {
				return fmtErrorf("rename %q to %q: %w", from, to, err)
			}
		}
		if err := os.Rename(s.path, archiveName(s.path, 1)); err != nil && !os.IsNotExist(err) {
			return fmtErrorf("rename %q to %q: %w", s.path, archiveName(s.path, 1), err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmtErrorf("reopen %q: %w", s.path, err)
	}
	for lv := 0; lv < levelCount; lv++ {
		other := &l.sinks[lv]
		if other.path == s.path {
			other.file = f
			other.bytesWritten = 0
		}
	}
	s.file = f
	s.bytesWritten = 0
	s.colorEnabled = false
	return nil
}

func archiveName(path string, n int) string {
	return path + "." + strconv.Itoa(n)
}

// writeSink writes one staged batch to the sink and updates byte and error
// accounting. Short writes count the bytes that made it out.
func (l *Logger) writeSink(s *sink, data []byte) {
	if s.file == nil || len(data) == 0 {
		return
	}
	n, err := s.file.Write(data)
	s.bytesWritten += int64(n)
	if s.path != "" {
		// Levels sharing the path share the handle, so they share the counter.
		for lv := 0; lv < levelCount; lv++ {
			other := &l.sinks[lv]
			if other.path == s.path {
				other.bytesWritten = s.bytesWritten
			}
		}
	}
	if err != nil {
		l.sinkErrors.Add(1)
		l.internalLog("write to %q: %v", sinkName(s), err)
	}
}

// syncSinks fsyncs every unique file-backed handle. Called on confirmed
// flushes so a returned Flush means the records are on disk.
func (l *Logger) syncSinks() {
	l.flushMu.Lock()
	defer l.flushMu.Unlock()
	synced := map[*os.File]bool{}
	for lv := 0; lv < levelCount; lv++ {
		s := &l.sinks[lv]
		f := s.file
		if f == nil || f == os.Stdout || f == os.Stderr || synced[f] {
			continue
		}
		synced[f] = true
		if err := f.Sync(); err != nil {
			l.internalLog("sync %q: %v", s.path, err)
		}
	}
}

func sinkName(s *sink) string {
	if s.path == "" {
		return "stdout"
	}
	return s.path
}

// internalLog reports logger-internal failures on stderr when the config
// allows it. It never touches the record pipeline.
func (l *Logger) internalLog(format string, args ...any) {
	cfg := l.cfg.Load()
	if cfg == nil || !cfg.InternalErrorsToStderr {
		return
	}
	fmt.Fprintf(os.Stderr, "ulog: "+format+"\n", args...)
}
