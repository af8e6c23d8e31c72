package storage

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/Rob--W/pdfjs-telemetry/internal/model"
)

// ErrClosed is returned by Append after the log has been closed.
var ErrClosed = errors.New("storage: telemetry log closed")

// FileLog appends telemetry records to a single shared log file. Appends are
// serialized and each record goes out as one write call, so concurrent
// records never interleave. The file is opened in append mode and never
// read back through this type.
type FileLog struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// OpenFileLog opens (or creates) the log file at path for appending.
func OpenFileLog(path string) (*FileLog, error) {
	f, err := openAppend(path)
	if err != nil {
		return nil, fmt.Errorf("open telemetry log: %w", err)
	}
	return &FileLog{path: path, f: f}, nil
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

// Append writes one record as a single newline-terminated line.
func (l *FileLog) Append(rec model.LogRecord) error {
	line := rec.Line() + "\n"
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return ErrClosed
	}
	if _, err := l.f.WriteString(line); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// Reopen swaps in a fresh file handle at the configured path. An external
// rotation job moves the current file aside and signals the process; records
// written from then on land in the new file.
func (l *FileLog) Reopen() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return ErrClosed
	}
	f, err := openAppend(l.path)
	if err != nil {
		return fmt.Errorf("reopen telemetry log: %w", err)
	}
	old := l.f
	l.f = f
	if err := old.Close(); err != nil {
		return fmt.Errorf("close rotated log: %w", err)
	}
	return nil
}

// Close flushes and closes the log file. Further appends fail with ErrClosed.
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Sync()
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
