package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/enclaveops/enclave-console-backend/interfaces"
)

// FileStore keeps one JSON file per enclave under a base directory. Suitable
// for single-node deployments; writes are serialized by a process-local lock
// and land via rename for atomicity against readers.
type FileStore struct {
	baseDir string
	mu      sync.Mutex
	now     func() time.Time
	log     *slog.Logger
}

// NewFileStore creates a file-backed store rooted at baseDir, creating the
// directory if needed.
func NewFileStore(baseDir string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &FileStore{baseDir: baseDir, now: time.Now, log: log}, nil
}

func (s *FileStore) path(id interfaces.EnclaveID) string {
	return filepath.Join(s.baseDir, id.String()+".json")
}

// Get reads and decodes the record for id.
func (s *FileStore) Get(ctx context.Context, id interfaces.EnclaveID) (*interfaces.Enclave, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, interfaces.ErrEnclaveNotFound
		}
		return nil, fmt.Errorf("reading enclave file: %w", err)
	}

	var enclave interfaces.Enclave
	if err := json.Unmarshal(data, &enclave); err != nil {
		return nil, fmt.Errorf("decoding enclave file: %w", err)
	}
	return &enclave, nil
}

// Put writes the record to its file via a temp file and rename.
func (s *FileStore) Put(ctx context.Context, enclave *interfaces.Enclave) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(enclave)
}

// UpdateStatus rewrites only status and the modification timestamp.
func (s *FileStore) UpdateStatus(ctx context.Context, id interfaces.EnclaveID, status interfaces.Status) (*interfaces.Enclave, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enclave, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	enclave.Status = status
	enclave.UpdatedAt = s.now()

	if err := s.write(enclave); err != nil {
		return nil, err
	}
	return enclave, nil
}

// Delete removes the record file if the status is terminal.
func (s *FileStore) Delete(ctx context.Context, id interfaces.EnclaveID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	enclave, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !enclave.Status.Terminal() {
		return &interfaces.ConflictError{
			Action:  "delete",
			Current: enclave.Status,
			Allowed: []interfaces.Status{interfaces.StatusDestroyed, interfaces.StatusFailed},
		}
	}
	return os.Remove(s.path(id))
}

// ListByOwner scans the store directory for records owned by owner.
func (s *FileStore) ListByOwner(ctx context.Context, owner interfaces.OwnerAddress) ([]*interfaces.Enclave, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("listing store directory: %w", err)
	}

	var out []*interfaces.Enclave
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := interfaces.EnclaveID(strings.TrimSuffix(entry.Name(), ".json"))
		enclave, err := s.Get(ctx, id)
		if err != nil {
			s.log.Warn("Skipping unreadable enclave file", slog.String("file", entry.Name()), "err", err)
			continue
		}
		if enclave.Owner == owner {
			out = append(out, enclave)
		}
	}
	return out, nil
}

func (s *FileStore) write(enclave *interfaces.Enclave) error {
	data, err := json.MarshalIndent(enclave, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding enclave: %w", err)
	}

	tmp := s.path(enclave.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing enclave file: %w", err)
	}
	if err := os.Rename(tmp, s.path(enclave.ID)); err != nil {
		return fmt.Errorf("committing enclave file: %w", err)
	}
	return nil
}
