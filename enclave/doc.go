// Package enclave implements the lifecycle controller: the only component
// allowed to mutate an enclave's status after creation.
//
// Transitions follow a strict state machine:
//
//	PENDING_DEPLOY → DEPLOYING → DEPLOYED
//	DEPLOYED → PAUSING → PAUSED → RESUMING → DEPLOYED
//	{DEPLOYED, PAUSED, FAILED} → PENDING_DESTROY → DESTROYING → DESTROYED
//
// The in-flight states (DEPLOYING, PAUSING, RESUMING, DESTROYING) are
// resolved to their target state or FAILED by an external status monitor,
// not by this controller. Only DESTROYED and FAILED permit deletion of the
// record.
//
// The controller validates the caller's ownership and the action's
// precondition before any write, commits the single new status value
// atomically, and - for terminate only - fires the external destroy workflow
// after the write. That trigger is best-effort: its failure is logged and
// counted but never rolled back and never surfaced to the client.
//
// The package also provides the provider registry: an explicit register-once
// read-many value constructed at process start and injected wherever
// provider descriptors or config validation are needed.
package enclave
