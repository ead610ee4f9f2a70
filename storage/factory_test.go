package storage

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFactory() *StoreFactory {
	return NewStoreFactory(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStoreFor_Memory(t *testing.T) {
	store, err := testFactory().StoreFor("memory://")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
}

func TestStoreFor_File(t *testing.T) {
	store, err := testFactory().StoreFor("file://" + t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)
}

func TestStoreFor_DynamoDBRequiresTable(t *testing.T) {
	_, err := testFactory().StoreFor("dynamodb://?region=us-east-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table")
}

func TestStoreFor_VaultRequiresMountAndPath(t *testing.T) {
	_, err := testFactory().StoreFor("vault://vault.internal:8200/onlymount?token=x")
	require.Error(t, err)

	_, err = testFactory().StoreFor("vault://vault.internal:8200?token=x")
	require.Error(t, err)
}

func TestStoreFor_UnsupportedScheme(t *testing.T) {
	_, err := testFactory().StoreFor("redis://localhost:6379")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store scheme")
}
