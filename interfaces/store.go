package interfaces

import "context"

// EnclaveStore persists enclave records. Implementations must return
// ErrEnclaveNotFound when an id does not resolve and should wrap backend
// failures so they satisfy errors.Is(err, ErrStoreUnavailable) where the
// backend is unreachable.
type EnclaveStore interface {
	// Get returns the record for id.
	Get(ctx context.Context, id EnclaveID) (*Enclave, error)

	// Put creates or replaces the full record.
	Put(ctx context.Context, enclave *Enclave) error

	// UpdateStatus atomically writes the status field and the modification
	// timestamp, leaving every other field untouched, and returns the
	// updated record. It is the only write path the lifecycle controller
	// uses.
	UpdateStatus(ctx context.Context, id EnclaveID, status Status) (*Enclave, error)

	// Delete removes the record. Implementations refuse deletion unless the
	// current status is terminal (DESTROYED or FAILED).
	Delete(ctx context.Context, id EnclaveID) error

	// ListByOwner returns all records owned by the given wallet address.
	ListByOwner(ctx context.Context, owner OwnerAddress) ([]*Enclave, error)
}
