package interfaces

import "context"

// DestroyDirective is the payload handed to the external cleanup workflow
// when an enclave is terminated.
type DestroyDirective struct {
	EnclaveID EnclaveID    `json:"enclave_id"`
	Action    string       `json:"action"`
	Owner     OwnerAddress `json:"owner"`
}

// NewDestroyDirective builds the directive for an enclave.
func NewDestroyDirective(id EnclaveID, owner OwnerAddress) DestroyDirective {
	return DestroyDirective{EnclaveID: id, Action: "destroy", Owner: owner}
}

// WorkflowTrigger starts the external destructive workflow. The call is
// best-effort by contract: it runs after the PENDING_DESTROY write has
// committed, its failure is logged and never rolled back against that write,
// and it never surfaces to the client. There is no automatic retry; see the
// delivery-gap note in DESIGN.md.
type WorkflowTrigger interface {
	TriggerDestroy(ctx context.Context, directive DestroyDirective) error
}
