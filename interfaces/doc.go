// Package interfaces defines the core contracts and shared types for the
// enclave console backend.
//
// It separates interface definitions from their implementations, allowing for:
//
//   - Clear separation of concerns
//   - Multiple implementations of the same interface
//   - Better testability through mock implementations
//   - Reduced coupling between components
//
// # Persistence
//
//   - EnclaveStore: keyed persistence of enclave records. Implementations live
//     in the storage package (memory, file, DynamoDB, Vault).
//
// # External collaborators
//
//   - WorkflowTrigger: fires the external destroy workflow after a terminate
//     transition has been committed. Best-effort by contract: callers must not
//     roll back state when it fails.
//
// # Type definitions
//
//   - EnclaveID: opaque identifier of a provisioned enclave
//   - OwnerAddress: wallet address of the enclave owner (the authentication
//     layer is wallet-based and out of scope here)
//   - Status: closed enumeration of lifecycle states
//   - Action: a requested status transition (pause, resume, terminate)
//   - LogRecord: the normalized schema all log sources are converted to
//
// # Error types
//
// The package declares the error taxonomy used across the service:
// ErrEnclaveNotFound, ErrNotAuthorized, ConflictError, ValidationError and
// NotDeployedError. HTTP status mapping lives in the api package; fetcher
// backend failures never cross a fetcher boundary and therefore have no error
// type here.
package interfaces
