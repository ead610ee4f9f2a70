package storage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/enclaveops/enclave-console-backend/interfaces"
)

// MockStore mocks the EnclaveStore interface.
type MockStore struct {
	mock.Mock
}

// Get mocks the Get method.
func (m *MockStore) Get(ctx context.Context, id interfaces.EnclaveID) (*interfaces.Enclave, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.Enclave), args.Error(1)
}

// Put mocks the Put method.
func (m *MockStore) Put(ctx context.Context, enclave *interfaces.Enclave) error {
	args := m.Called(ctx, enclave)
	return args.Error(0)
}

// UpdateStatus mocks the UpdateStatus method.
func (m *MockStore) UpdateStatus(ctx context.Context, id interfaces.EnclaveID, status interfaces.Status) (*interfaces.Enclave, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.Enclave), args.Error(1)
}

// Delete mocks the Delete method.
func (m *MockStore) Delete(ctx context.Context, id interfaces.EnclaveID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ListByOwner mocks the ListByOwner method.
func (m *MockStore) ListByOwner(ctx context.Context, owner interfaces.OwnerAddress) ([]*interfaces.Enclave, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*interfaces.Enclave), args.Error(1)
}
