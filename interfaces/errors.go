package interfaces

import (
	"errors"
	"fmt"
)

// Standard errors returned by the lifecycle controller and stores.
var (
	// ErrEnclaveNotFound indicates the enclave id does not resolve to a record.
	ErrEnclaveNotFound = errors.New("enclave not found")

	// ErrNotAuthorized indicates the caller does not own the enclave. The
	// message deliberately reveals nothing about the record beyond existence.
	ErrNotAuthorized = errors.New("caller is not the enclave owner")

	// ErrStoreUnavailable indicates the persistence backend is not reachable.
	ErrStoreUnavailable = errors.New("enclave store unavailable")
)

// ValidationError reports a malformed or missing request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports an operation whose status precondition is not met.
// It names the states from which the operation would have been allowed so
// clients can tell a race from a programming error. Action is a plain string
// because conflicts also arise from operations outside the transition set,
// such as deleting a non-terminal record.
type ConflictError struct {
	Action  string
	Current Status
	Allowed []Status
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("cannot %s enclave in status %s (allowed from: %v)", e.Action, e.Current, e.Allowed)
}

// NotDeployedError reports an attestation request against an enclave that is
// not in DEPLOYED state. The current status is echoed to the client.
type NotDeployedError struct {
	Current Status
}

func (e *NotDeployedError) Error() string {
	return fmt.Sprintf("attestation requires status DEPLOYED, enclave is %s", e.Current)
}

// InternalError wraps an unexpected persistence or infrastructure failure so
// handlers can map it to a 500 without leaking backend details upward.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return "internal error: " + e.Err.Error()
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
