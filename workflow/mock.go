package workflow

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/enclaveops/enclave-console-backend/interfaces"
)

// MockTrigger mocks the WorkflowTrigger interface.
type MockTrigger struct {
	mock.Mock
}

// TriggerDestroy mocks the TriggerDestroy method.
func (m *MockTrigger) TriggerDestroy(ctx context.Context, directive interfaces.DestroyDirective) error {
	args := m.Called(ctx, directive)
	return args.Error(0)
}
