package enclave

import (
	"fmt"
	"sort"
	"strconv"
)

// Provider describes one compute provider enclaves can be provisioned on.
type Provider struct {
	// ID is the stable identifier stored on enclave records.
	ID string

	// DisplayName is shown in the console UI.
	DisplayName string

	// Regions lists the regions the provider can deploy to.
	Regions []string

	// ValidateConfig checks a provider-specific configuration map. Keys are
	// provider-defined; the lifecycle core treats the map as opaque.
	ValidateConfig func(config map[string]string) error
}

// Registry maps provider ids to descriptors. It is constructed once at
// process start, populated, and then only read; it is passed by reference to
// the controller and the CRUD layer instead of living in a package global.
// Not safe for concurrent Register calls, which is fine for its
// register-once usage.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider. Registering the same id twice is a programming
// error and is rejected.
func (r *Registry) Register(p Provider) error {
	if p.ID == "" {
		return fmt.Errorf("provider id must not be empty")
	}
	if _, exists := r.providers[p.ID]; exists {
		return fmt.Errorf("provider %q already registered", p.ID)
	}
	r.providers[p.ID] = p
	return nil
}

// Get returns the provider descriptor for id.
func (r *Registry) Get(id string) (Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

// IDs returns the registered provider ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AWSNitroProvider returns the descriptor for AWS Nitro Enclaves, the
// provider this console ships with.
func AWSNitroProvider() Provider {
	return Provider{
		ID:          "aws-nitro",
		DisplayName: "AWS Nitro Enclaves",
		Regions:     []string{"us-east-1", "us-west-2", "eu-west-1"},
		ValidateConfig: func(config map[string]string) error {
			if config["instance_type"] == "" {
				return fmt.Errorf("instance_type is required")
			}
			if raw, ok := config["cpu_count"]; ok {
				n, err := strconv.Atoi(raw)
				if err != nil || n < 2 {
					return fmt.Errorf("cpu_count must be an integer >= 2")
				}
			}
			if raw, ok := config["memory_mib"]; ok {
				n, err := strconv.Atoi(raw)
				if err != nil || n < 64 {
					return fmt.Errorf("memory_mib must be an integer >= 64")
				}
			}
			return nil
		},
	}
}
