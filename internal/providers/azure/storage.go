package azure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"costscope/internal/models"
	"costscope/internal/providers"
)

// skuRedundancy maps an ARM storage SKU name to the redundancy level the
// checks reason about.
func skuRedundancy(skuName string) string {
	parts := strings.SplitN(skuName, "_", 2)
	if len(parts) != 2 {
		return "LRS"
	}
	switch strings.ToUpper(parts[1]) {
	case "RAGRS":
		return "RA-GRS"
	case "RAGZRS":
		return "RA-GZRS"
	default:
		return strings.ToUpper(parts[1])
	}
}

// discoverStorageAccounts pages through all storage accounts.
func (p *Provider) discoverStorageAccounts(ctx context.Context, region string) ([]models.Resource, error) {
	pager := p.clients.Accounts.NewListPager(nil)

	var resources []models.Resource
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list storage accounts: %w", err)
		}
		for _, acct := range page.Value {
			if !inRegion(acct.Location, region) {
				continue
			}
			id := deref(acct.ID)
			redundancy := "LRS"
			if acct.SKU != nil && acct.SKU.Name != nil {
				redundancy = skuRedundancy(string(*acct.SKU.Name))
			}
			resources = append(resources, models.Resource{
				ID:       id,
				Name:     deref(acct.Name),
				Type:     models.ResourceStorage,
				Provider: models.ProviderAzure,
				Region:   deref(acct.Location),
				State:    "available",
				Tags:     tagsFromARM(acct.Tags),
				Metadata: map[string]any{
					"redundancy": redundancy,
				},
				MonthlyCost: p.monthlyCost(ctx, id),
				IsActive:    true,
			})
		}
	}
	return resources, nil
}

// GetStorageInfo returns redundancy and tiering data for one storage
// account.
func (p *Provider) GetStorageInfo(ctx context.Context, resourceID, region string) (providers.MetricSet, error) {
	group, name, err := armIDParts(resourceID)
	if err != nil {
		return nil, err
	}

	resp, err := p.clients.Accounts.GetProperties(ctx, group, name, nil)
	if err != nil {
		return nil, fmt.Errorf("get storage account %s: %w", name, err)
	}
	acct := resp.Account

	info := providers.MetricSet{}
	if acct.SKU != nil && acct.SKU.Name != nil {
		info["redundancy"] = skuRedundancy(string(*acct.SKU.Name))
	}
	if acct.Kind != nil {
		info["account_kind"] = string(*acct.Kind)
	}
	if acct.Properties != nil {
		if acct.Properties.AccessTier != nil {
			info["access_tier"] = string(*acct.Properties.AccessTier)
		}
		if acct.Properties.CreationTime != nil {
			info["created_at"] = acct.Properties.CreationTime.UTC().Format(time.RFC3339)
		}
	}
	return info, nil
}
