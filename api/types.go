package api

import "github.com/enclaveops/enclave-console-backend/interfaces"

// ActionRequest is the body of POST /api/enclaves/{enclave_id}/action.
type ActionRequest struct {
	// Action is one of pause, resume, terminate.
	Action string `json:"action"`

	// Caller is the requesting wallet address, hex with or without 0x.
	// Authentication of the wallet happens upstream; this core only checks
	// ownership.
	Caller string `json:"caller"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`

	// Status carries the enclave's current status on precondition
	// failures so polling clients need no extra round trip.
	Status interfaces.Status `json:"status,omitempty"`
}

// pollIntervalSeconds is the interval clients are told to re-poll at while
// an enclave is in a transitional status.
const pollIntervalSeconds = 10
