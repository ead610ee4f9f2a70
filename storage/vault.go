package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/enclaveops/enclave-console-backend/interfaces"
)

// VaultStore persists enclave records as JSON documents in a Vault KV v2
// mount. Useful where the enclave inventory must live next to other
// deployment secrets under Vault's access policies.
type VaultStore struct {
	client    *api.Client
	mountPath string
	dataPath  string
	now       func() time.Time
	log       *slog.Logger
}

// NewVaultStore creates a Vault-backed store. The token (or other auth) is
// taken from the client's configuration.
func NewVaultStore(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultStore, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("creating Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.TrimSuffix(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultStore{
		client:    client,
		mountPath: mountPath,
		dataPath:  dataPath,
		now:       time.Now,
		log:       log,
	}, nil
}

// KV v2 reads and writes go through the data/ prefix; deletes of all
// versions go through metadata/.
func (s *VaultStore) dataKey(id interfaces.EnclaveID) string {
	return fmt.Sprintf("%s/data/%s/%s", s.mountPath, s.dataPath, id)
}

func (s *VaultStore) metadataKey(id interfaces.EnclaveID) string {
	return fmt.Sprintf("%s/metadata/%s/%s", s.mountPath, s.dataPath, id)
}

// Get reads and decodes the record for id.
func (s *VaultStore) Get(ctx context.Context, id interfaces.EnclaveID) (*interfaces.Enclave, error) {
	secret, err := s.client.Logical().ReadWithContext(ctx, s.dataKey(id))
	if err != nil {
		return nil, fmt.Errorf("%w: reading from Vault: %v", interfaces.ErrStoreUnavailable, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, interfaces.ErrEnclaveNotFound
	}

	inner, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, interfaces.ErrEnclaveNotFound
	}
	raw, ok := inner["enclave"].(string)
	if !ok {
		return nil, fmt.Errorf("malformed enclave secret at %s", s.dataKey(id))
	}

	var enclave interfaces.Enclave
	if err := json.Unmarshal([]byte(raw), &enclave); err != nil {
		return nil, fmt.Errorf("decoding enclave secret: %w", err)
	}
	return &enclave, nil
}

// Put stores the record as a new secret version.
func (s *VaultStore) Put(ctx context.Context, enclave *interfaces.Enclave) error {
	raw, err := json.Marshal(enclave)
	if err != nil {
		return fmt.Errorf("encoding enclave: %w", err)
	}

	_, err = s.client.Logical().WriteWithContext(ctx, s.dataKey(enclave.ID), map[string]interface{}{
		"data": map[string]interface{}{"enclave": string(raw)},
	})
	if err != nil {
		return fmt.Errorf("%w: writing to Vault: %v", interfaces.ErrStoreUnavailable, err)
	}
	return nil
}

// UpdateStatus reads the record, rewrites status and the modification
// timestamp, and stores it as a new version.
func (s *VaultStore) UpdateStatus(ctx context.Context, id interfaces.EnclaveID, status interfaces.Status) (*interfaces.Enclave, error) {
	enclave, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	enclave.Status = status
	enclave.UpdatedAt = s.now()

	if err := s.Put(ctx, enclave); err != nil {
		return nil, err
	}
	return enclave, nil
}

// Delete removes all versions of the record if its status is terminal.
func (s *VaultStore) Delete(ctx context.Context, id interfaces.EnclaveID) error {
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

	if _, err := s.client.Logical().DeleteWithContext(ctx, s.metadataKey(id)); err != nil {
		return fmt.Errorf("%w: deleting from Vault: %v", interfaces.ErrStoreUnavailable, err)
	}
	return nil
}

// ListByOwner lists the secret keys under the data path and filters by
// owner. Vault KV has no secondary indexes, so this is a full scan; the
// inventory is small enough for that to be acceptable.
func (s *VaultStore) ListByOwner(ctx context.Context, owner interfaces.OwnerAddress) ([]*interfaces.Enclave, error) {
	listPath := fmt.Sprintf("%s/metadata/%s", s.mountPath, s.dataPath)
	secret, err := s.client.Logical().ListWithContext(ctx, listPath)
	if err != nil {
		return nil, fmt.Errorf("%w: listing Vault keys: %v", interfaces.ErrStoreUnavailable, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, nil
	}

	keys, ok := secret.Data["keys"].([]interface{})
	if !ok {
		return nil, nil
	}

	var out []*interfaces.Enclave
	for _, key := range keys {
		name, ok := key.(string)
		if !ok {
			continue
		}
		enclave, err := s.Get(ctx, interfaces.EnclaveID(name))
		if err != nil {
			s.log.Warn("Skipping unreadable enclave secret", slog.String("key", name), "err", err)
			continue
		}
		if enclave.Owner == owner {
			out = append(out, enclave)
		}
	}
	return out, nil
}
