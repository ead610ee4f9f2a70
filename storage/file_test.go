package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enclaveops/enclave-console-backend/interfaces"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return store
}

func TestFileStore_PutGetRoundTrip(t *testing.T) {
	store := newTestFileStore(t)

	require.NoError(t, store.Put(context.Background(), &interfaces.Enclave{
		ID:     "encl-1",
		Name:   "prod",
		Status: interfaces.StatusDeployed,
		Owner:  ownerA,
	}))

	got, err := store.Get(context.Background(), "encl-1")
	require.NoError(t, err)
	assert.Equal(t, "prod", got.Name)
	assert.Equal(t, interfaces.StatusDeployed, got.Status)
	assert.Equal(t, ownerA, got.Owner)

	_, err = store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, interfaces.ErrEnclaveNotFound)
}

func TestFileStore_UpdateStatus(t *testing.T) {
	store := newTestFileStore(t)
	require.NoError(t, store.Put(context.Background(), &interfaces.Enclave{
		ID:     "encl-1",
		Status: interfaces.StatusDeployed,
	}))

	updated, err := store.UpdateStatus(context.Background(), "encl-1", interfaces.StatusPausing)
	require.NoError(t, err)
	assert.Equal(t, interfaces.StatusPausing, updated.Status)
	assert.False(t, updated.UpdatedAt.IsZero())

	// The write is durable, not just in the returned copy.
	got, err := store.Get(context.Background(), "encl-1")
	require.NoError(t, err)
	assert.Equal(t, interfaces.StatusPausing, got.Status)
}

func TestFileStore_DeleteOnlyTerminal(t *testing.T) {
	store := newTestFileStore(t)
	require.NoError(t, store.Put(context.Background(), &interfaces.Enclave{ID: "live", Status: interfaces.StatusDeployed}))
	require.NoError(t, store.Put(context.Background(), &interfaces.Enclave{ID: "dead", Status: interfaces.StatusFailed}))

	var conflict *interfaces.ConflictError
	require.ErrorAs(t, store.Delete(context.Background(), "live"), &conflict)

	require.NoError(t, store.Delete(context.Background(), "dead"))
	_, err := store.Get(context.Background(), "dead")
	require.ErrorIs(t, err, interfaces.ErrEnclaveNotFound)
}

func TestFileStore_ListByOwnerSkipsGarbage(t *testing.T) {
	store := newTestFileStore(t)
	require.NoError(t, store.Put(context.Background(), &interfaces.Enclave{ID: "a-1", Owner: ownerA}))
	require.NoError(t, store.Put(context.Background(), &interfaces.Enclave{ID: "b-1", Owner: ownerB}))

	// Unreadable files are skipped, not fatal.
	require.NoError(t, os.WriteFile(filepath.Join(store.baseDir, "corrupt.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(store.baseDir, "notes.txt"), []byte("x"), 0o644))

	mine, err := store.ListByOwner(context.Background(), ownerA)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, interfaces.EnclaveID("a-1"), mine[0].ID)
}
