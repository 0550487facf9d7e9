package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// JSONLStore appends one JSON record per line to a shared file. Writers in
// this process are serialized with a mutex, writers in other processes with
// an exclusive advisory lock on the target file, and every line is fsynced
// before the locks are released.
type JSONLStore struct {
	path   string
	mu     sync.Mutex
	lock   *flock.Flock
	logger *zap.Logger
}

// NewJSONLStore creates the parent directory if absent and prepares the
// file lock. The file itself is created on first append.
func NewJSONLStore(path string, logger *zap.Logger) (*JSONLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	return &JSONLStore{
		path:   path,
		lock:   flock.New(path),
		logger: logger,
	}, nil
}

// Append serializes the record to a single line and appends it under the
// exclusive lock. On a mid-flight write or sync failure the file is
// truncated back to its pre-write length so no torn line survives.
func (s *JSONLStore) Append(ctx context.Context, record map[string]any) error {
	line, err := json.Marshal(record)
	if err != nil {
		return &PersistenceError{Err: fmt.Errorf("marshal record: %w", err)}
	}
	line = append(line, '\n')

	// The flock treats a second Lock from the same handle as re-entrant, so
	// in-process writers are serialized here first.
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return &PersistenceError{Err: fmt.Errorf("acquire file lock: %w", err)}
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Error("failed to release store lock", zap.Error(err))
		}
	}()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &PersistenceError{Err: fmt.Errorf("open store file: %w", err)}
	}
	defer f.Close()

	// Seek under the lock so concurrent growth by other writers is seen.
	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return &PersistenceError{Err: fmt.Errorf("seek store file: %w", err)}
	}

	if _, err := f.Write(line); err != nil {
		_ = f.Truncate(offset)
		return &PersistenceError{Err: fmt.Errorf("write record: %w", err)}
	}
	if err := f.Sync(); err != nil {
		_ = f.Truncate(offset)
		return &PersistenceError{Err: fmt.Errorf("sync store file: %w", err)}
	}

	return nil
}

// Close releases the lock's file handle.
func (s *JSONLStore) Close() error {
	return s.lock.Close()
}
