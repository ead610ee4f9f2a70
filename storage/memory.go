package storage

import (
	"context"
	"sync"
	"time"

	"github.com/enclaveops/enclave-console-backend/interfaces"
)

// MemoryStore is an in-process EnclaveStore for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	enclaves map[interfaces.EnclaveID]*interfaces.Enclave
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		enclaves: make(map[interfaces.EnclaveID]*interfaces.Enclave),
		now:      time.Now,
	}
}

// Get returns a copy of the record for id.
func (s *MemoryStore) Get(ctx context.Context, id interfaces.EnclaveID) (*interfaces.Enclave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enclave, ok := s.enclaves[id]
	if !ok {
		return nil, interfaces.ErrEnclaveNotFound
	}
	clone := *enclave
	return &clone, nil
}

// Put creates or replaces the record.
func (s *MemoryStore) Put(ctx context.Context, enclave *interfaces.Enclave) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *enclave
	s.enclaves[enclave.ID] = &clone
	return nil
}

// UpdateStatus writes status and the modification timestamp atomically under
// the store lock and returns the updated record.
func (s *MemoryStore) UpdateStatus(ctx context.Context, id interfaces.EnclaveID, status interfaces.Status) (*interfaces.Enclave, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enclave, ok := s.enclaves[id]
	if !ok {
		return nil, interfaces.ErrEnclaveNotFound
	}
	enclave.Status = status
	enclave.UpdatedAt = s.now()

	clone := *enclave
	return &clone, nil
}

// Delete removes the record if its status is terminal.
func (s *MemoryStore) Delete(ctx context.Context, id interfaces.EnclaveID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	enclave, ok := s.enclaves[id]
	if !ok {
		return interfaces.ErrEnclaveNotFound
	}
	if !enclave.Status.Terminal() {
		return &interfaces.ConflictError{
			Action:  "delete",
			Current: enclave.Status,
			Allowed: []interfaces.Status{interfaces.StatusDestroyed, interfaces.StatusFailed},
		}
	}
	delete(s.enclaves, id)
	return nil
}

// ListByOwner returns copies of all records owned by owner.
func (s *MemoryStore) ListByOwner(ctx context.Context, owner interfaces.OwnerAddress) ([]*interfaces.Enclave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*interfaces.Enclave
	for _, enclave := range s.enclaves {
		if enclave.Owner == owner {
			clone := *enclave
			out = append(out, &clone)
		}
	}
	return out, nil
}
