package enclave

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(Provider{ID: "aws-nitro", DisplayName: "AWS Nitro Enclaves"}))
	require.NoError(t, registry.Register(Provider{ID: "azure-cvm", DisplayName: "Azure Confidential VM"}))

	p, ok := registry.Get("aws-nitro")
	require.True(t, ok)
	assert.Equal(t, "AWS Nitro Enclaves", p.DisplayName)

	_, ok = registry.Get("gcp")
	assert.False(t, ok)

	assert.Equal(t, []string{"aws-nitro", "azure-cvm"}, registry.IDs())
}

func TestRegistry_RejectsDuplicateAndEmpty(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(Provider{ID: "aws-nitro"}))
	require.Error(t, registry.Register(Provider{ID: "aws-nitro"}))
	require.Error(t, registry.Register(Provider{}))
}

func TestAWSNitroProvider_ValidateConfig(t *testing.T) {
	validate := AWSNitroProvider().ValidateConfig

	tests := []struct {
		name    string
		config  map[string]string
		wantErr bool
	}{
		{name: "minimal valid", config: map[string]string{"instance_type": "m5.xlarge"}},
		{name: "full valid", config: map[string]string{"instance_type": "m5.xlarge", "cpu_count": "2", "memory_mib": "512"}},
		{name: "missing instance type", config: map[string]string{}, wantErr: true},
		{name: "cpu count too small", config: map[string]string{"instance_type": "m5.xlarge", "cpu_count": "1"}, wantErr: true},
		{name: "cpu count not a number", config: map[string]string{"instance_type": "m5.xlarge", "cpu_count": "two"}, wantErr: true},
		{name: "memory too small", config: map[string]string{"instance_type": "m5.xlarge", "memory_mib": "32"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
