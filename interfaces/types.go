package interfaces

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EnclaveID is the opaque identifier of a provisioned enclave.
type EnclaveID string

var enclaveIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,63}$`)

// NewEnclaveID validates and returns an enclave identifier.
func NewEnclaveID(raw string) (EnclaveID, error) {
	if !enclaveIDPattern.MatchString(raw) {
		return "", errors.New("invalid enclave id: must be 1-64 alphanumeric, '-' or '_' characters")
	}
	return EnclaveID(raw), nil
}

// String returns the identifier as a string.
func (id EnclaveID) String() string {
	return string(id)
}

// OwnerAddress is the wallet address that owns an enclave. The wallet
// authentication layer itself is an external collaborator; this core only
// compares addresses.
type OwnerAddress = common.Address

// ParseOwnerAddress parses a hex wallet address, with or without 0x prefix.
func ParseOwnerAddress(raw string) (OwnerAddress, error) {
	if !common.IsHexAddress(raw) {
		return OwnerAddress{}, fmt.Errorf("invalid owner address: %q", raw)
	}
	return common.HexToAddress(raw), nil
}

// Status is an enclave's lifecycle state. The set is closed: every switch
// over Status must handle all constants below and reject anything else.
type Status string

const (
	StatusPendingDeploy  Status = "PENDING_DEPLOY"
	StatusDeploying      Status = "DEPLOYING"
	StatusDeployed       Status = "DEPLOYED"
	StatusPausing        Status = "PAUSING"
	StatusPaused         Status = "PAUSED"
	StatusResuming       Status = "RESUMING"
	StatusPendingDestroy Status = "PENDING_DESTROY"
	StatusDestroying     Status = "DESTROYING"
	StatusDestroyed      Status = "DESTROYED"
	StatusFailed         Status = "FAILED"
)

// Valid reports whether s is one of the defined lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPendingDeploy, StatusDeploying, StatusDeployed,
		StatusPausing, StatusPaused, StatusResuming,
		StatusPendingDestroy, StatusDestroying, StatusDestroyed, StatusFailed:
		return true
	}
	return false
}

// Transitional reports whether s is an in-flight state that an external
// status monitor will eventually resolve. Clients are expected to re-poll
// while an enclave is transitional.
func (s Status) Transitional() bool {
	switch s {
	case StatusDeploying, StatusPausing, StatusResuming, StatusPendingDestroy, StatusDestroying:
		return true
	}
	return false
}

// Terminal reports whether the record may be deleted in state s.
func (s Status) Terminal() bool {
	return s == StatusDestroyed || s == StatusFailed
}

// String returns the status as a string.
func (s Status) String() string {
	return string(s)
}

// Action is a requested lifecycle transition.
type Action string

const (
	ActionPause     Action = "pause"
	ActionResume    Action = "resume"
	ActionTerminate Action = "terminate"
)

// ParseAction validates a transition action name.
func ParseAction(raw string) (Action, error) {
	switch Action(strings.ToLower(raw)) {
	case ActionPause:
		return ActionPause, nil
	case ActionResume:
		return ActionResume, nil
	case ActionTerminate:
		return ActionTerminate, nil
	default:
		return "", fmt.Errorf("unknown action: %q (expected pause, resume or terminate)", raw)
	}
}

// String returns the action as a string.
func (a Action) String() string {
	return string(a)
}

// Enclave is the persisted record of a provisioned compute unit. It is
// created by the CRUD layer in PENDING_DEPLOY and its status is mutated
// exclusively by the lifecycle controller afterwards.
type Enclave struct {
	ID          EnclaveID    `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Status      Status       `json:"status"`
	Owner       OwnerAddress `json:"owner"`
	Region      string       `json:"region"`
	Provider    string       `json:"provider"`

	// ProviderConfig is an open key/value map whose keys are validated by
	// the provider's registered config validator.
	ProviderConfig map[string]string `json:"provider_config,omitempty"`

	// RepoURL and Branch record the optional source-control linkage set up
	// by the OAuth layer.
	RepoURL string `json:"repo_url,omitempty"`
	Branch  string `json:"branch,omitempty"`

	// ErrorMessage is set by the external status monitor when a deployment
	// or teardown fails. The log aggregator surfaces it as a synthetic
	// record in the errors view.
	ErrorMessage string `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
