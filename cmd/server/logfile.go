package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// logCap bounds a log file: once it grows past Max bytes, only the newest
// Keep bytes are retained.
type logCap struct {
	Max  int64
	Keep int64
}

var defaultLogCap = logCap{Max: 6 << 20, Keep: 5 << 20}

// cappedLog is an append-only log file trimmed from the front.
type cappedLog struct {
	mu    sync.Mutex
	file  *os.File
	limit logCap
}

func openCappedLog(path string, limit logCap) (*cappedLog, error) {
	if limit.Keep <= 0 || limit.Keep > limit.Max {
		return nil, fmt.Errorf("invalid log cap: keep %d of %d bytes", limit.Keep, limit.Max)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	l := &cappedLog{file: file, limit: limit}
	if err := l.trim(); err != nil {
		file.Close()
		return nil, err
	}
	return l, nil
}

func (l *cappedLog) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, err := l.file.Write(p)
	if err != nil {
		return n, err
	}
	return n, l.trim()
}

func (l *cappedLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// trim rewrites the file with its tail when it has outgrown the cap.
func (l *cappedLog) trim() error {
	info, err := l.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= l.limit.Max {
		return nil
	}

	tail := make([]byte, l.limit.Keep)
	n, err := l.file.ReadAt(tail, size-l.limit.Keep)
	if err != nil && err != io.EOF {
		return err
	}
	if err := l.file.Truncate(0); err != nil {
		return err
	}
	// O_APPEND writes land at the new end of file.
	_, err = l.file.Write(tail[:n])
	return err
}
