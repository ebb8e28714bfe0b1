package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Provider identifies a cloud vendor.
type Provider string

const (
	ProviderAWS   Provider = "aws"
	ProviderAzure Provider = "azure"
	ProviderGCP   Provider = "gcp"
)

// ResourceType identifies the kind of cloud resource.
type ResourceType string

const (
	ResourceInstance         ResourceType = "instance"
	ResourceVolume           ResourceType = "volume"
	ResourceSnapshot         ResourceType = "snapshot"
	ResourceDatabase         ResourceType = "database"
	ResourceStorage          ResourceType = "storage"
	ResourceFunction         ResourceType = "function"
	ResourceContainer        ResourceType = "container"
	ResourceReservedInstance ResourceType = "reserved_instance"
)

// Resource is the canonical representation of one cloud asset.
// It is constructed by a provider adapter from a live API response and is
// never mutated by a check: each check receives its own filtered view and
// treats the instances as read-only for the duration of a run.
type Resource struct {
	// ID is the provider-unique identifier (instance ID, ARM resource ID, ...).
	ID string `json:"id"`

	// Name is the human-readable resource name.
	Name string `json:"name"`

	Type     ResourceType `json:"type"`
	Provider Provider     `json:"provider"`
	Region   string       `json:"region"`

	// State is the free-form provider status string ("running", "available",
	// "Succeeded", ...). Checks that care about activity use IsActive instead.
	State string `json:"state"`

	Tags     map[string]string `json:"tags,omitempty"`
	Metadata map[string]any    `json:"metadata,omitempty"`

	// MonthlyCost is the provider-reported monthly cost in currency units.
	// Always >= 0; decimal so savings arithmetic stays exact.
	MonthlyCost decimal.Decimal `json:"monthly_cost"`

	IsActive bool `json:"is_active"`
}

// Validate rejects malformed resources before they reach any check.
func (r Resource) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("resource: missing id")
	}
	if r.Name == "" {
		return fmt.Errorf("resource %s: missing name", r.ID)
	}
	switch r.Provider {
	case ProviderAWS, ProviderAzure, ProviderGCP:
	default:
		return fmt.Errorf("resource %s: unknown provider %q", r.ID, r.Provider)
	}
	if r.Type == "" {
		return fmt.Errorf("resource %s: missing type", r.ID)
	}
	if r.MonthlyCost.IsNegative() {
		return fmt.Errorf("resource %s: negative monthly cost %s", r.ID, r.MonthlyCost)
	}
	return nil
}

// Tag returns the value of a tag, or "" when the tag is absent.
func (r Resource) Tag(key string) string {
	return r.Tags[key]
}

// ValidateResources validates a full inventory and returns the first error.
func ValidateResources(resources []Resource) error {
	for _, r := range resources {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}
