package pending

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps the pending record as a JSON file on local disk.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file-backed bridge at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Stash overwrites the pending record, stamping CreatedAt and creating
// the parent directory if needed.
func (s *FileStore) Stash(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.CreatedAt = time.Now()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling pending credentials: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating pending store directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing pending credentials: %w", err)
	}

	return nil
}

// Take reads the pending record. Re-reads are idempotent; the record is
// only replaced by the next login initiation.
func (s *FileStore) Take(ctx context.Context) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading pending credentials: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing pending credentials: %w", err)
	}

	return &rec, nil
}

// CheckHealth verifies the record's directory is reachable.
func (s *FileStore) CheckHealth(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if _, err := os.Stat(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("pending store directory unavailable: %w", err)
	}
	return nil
}
