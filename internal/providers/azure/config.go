// Package azure implements the provider boundary on top of the Azure SDK:
// ARM compute and storage for inventory, Azure Monitor for utilization, and
// Cost Management for cost attribution.
package azure

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

const DefaultRegion = "eastus"

// Config identifies the subscription the adapter operates on.
type Config struct {
	SubscriptionID string
	TenantID       string
	Region         string
}

// Credential resolves the Azure credential chain for the configured tenant.
// The CLI credential is tried first since it reflects the operator's active
// login; the default chain covers service principals and managed identity.
func (c Config) Credential() (azcore.TokenCredential, error) {
	cliOpts := &azidentity.AzureCLICredentialOptions{TenantID: c.TenantID}
	if cred, err := azidentity.NewAzureCLICredential(cliOpts); err == nil {
		return cred, nil
	}
	cred, err := azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
		TenantID: c.TenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}
	return cred, nil
}
