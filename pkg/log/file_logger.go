package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileLogger appends events to a .dlog file. Each record goes out in a
// single write, so an interrupted dashboard can only cut the last record
// short. It is safe for concurrent use.
type FileLogger struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	written int
	dropped int
}

// NewFileLogger opens path for appending. The file (mode 0644) and its
// directory are created if needed.
func NewFileLogger(path string) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create event log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return &FileLogger{path: path, file: f}, nil
}

// Path returns the log file path.
func (l *FileLogger) Path() string {
	return l.path
}

// Log appends event. Events that cannot be written, including any logged
// after Close, are counted as dropped and never reach the caller.
func (l *FileLogger) Log(event Event) {
	data, encErr := EncodeEvent(event)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil || encErr != nil {
		l.dropped++
		return
	}
	if _, err := l.file.Write(data); err != nil {
		l.dropped++
		return
	}
	l.written++
}

// Counts returns how many events were written and dropped so far.
func (l *FileLogger) Counts() (written, dropped int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written, l.dropped
}

// Close closes the file. Further calls return nil.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

var _ Logger = (*FileLogger)(nil)
