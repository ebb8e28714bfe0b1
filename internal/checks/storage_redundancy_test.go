package checks

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"costscope/internal/models"
	"costscope/internal/providers"
)

func storageAccount(id, name string, cost int64) models.Resource {
	return models.Resource{
		ID:          id,
		Name:        name,
		Type:        models.ResourceStorage,
		Provider:    models.ProviderAzure,
		Region:      "eastus",
		State:       "Succeeded",
		MonthlyCost: decimal.NewFromInt(cost),
		IsActive:    true,
	}
}

func TestStorageRedundancyCheck_NonCriticalDowngradesToLRS(t *testing.T) {
	r := storageAccount("sa-1", "devstorage", 100)
	p := &stubProvider{
		name: models.ProviderAzure,
		storageInfo: map[string]providers.MetricSet{
			"sa-1": {"redundancy": "GRS", "total_size_gb": 2048.0},
		},
	}

	results, err := NewStorageRedundancyCheck().Run(context.Background(), p, []models.Resource{r}, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d; want 1", len(results))
	}

	f := results[0]
	if got := f.CheckMetadata["recommended_redundancy"]; got != "LRS" {
		t.Errorf("recommended_redundancy = %v; want LRS", got)
	}
	// GRS costs 2x LRS, so half the spend goes away.
	if !f.MonthlySavings.Equal(decimal.NewFromInt(50)) {
		t.Errorf("MonthlySavings = %s; want 50", f.MonthlySavings)
	}
	if f.RiskLevel != models.LevelMedium {
		t.Errorf("RiskLevel = %s; want medium for a geo downgrade", f.RiskLevel)
	}
	if f.ConfidenceScore != DefaultConfidence*0.9 {
		t.Errorf("ConfidenceScore = %.3f; want %.3f", f.ConfidenceScore, DefaultConfidence*0.9)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("finding fails validation: %v", err)
	}
}

func TestStorageRedundancyCheck_CriticalKeepsGeoTier(t *testing.T) {
	r := storageAccount("sa-1", "payrollrecords", 100)
	p := &stubProvider{
		name: models.ProviderAzure,
		storageInfo: map[string]providers.MetricSet{
			"sa-1": {"redundancy": "RA-GRS"},
		},
	}

	results, err := NewStorageRedundancyCheck().Run(context.Background(), p, []models.Resource{r}, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d; want 1", len(results))
	}

	f := results[0]
	// Only the read-access premium is dropped.
	if got := f.CheckMetadata["recommended_redundancy"]; got != "GRS" {
		t.Errorf("recommended_redundancy = %v; want GRS", got)
	}
	// The percentage derives from float multipliers, so round before comparing.
	if !f.MonthlySavings.Round(6).Equal(decimal.NewFromInt(20)) {
		t.Errorf("MonthlySavings = %s; want 20", f.MonthlySavings)
	}
	if f.RiskLevel != models.LevelLow {
		t.Errorf("RiskLevel = %s; want low", f.RiskLevel)
	}
}

func TestStorageRedundancyCheck_TagsMarkNonCritical(t *testing.T) {
	r := storageAccount("sa-1", "mainstore", 100)
	r.Tags = map[string]string{"environment": "staging"}
	p := &stubProvider{
		name: models.ProviderAzure,
		storageInfo: map[string]providers.MetricSet{
			"sa-1": {"redundancy": "ZRS"},
		},
	}

	results, err := NewStorageRedundancyCheck().Run(context.Background(), p, []models.Resource{r}, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d; want 1", len(results))
	}
	if got := results[0].CheckMetadata["recommended_redundancy"]; got != "LRS" {
		t.Errorf("recommended_redundancy = %v; want LRS", got)
	}
}

func TestStorageRedundancyCheck_NoFinding(t *testing.T) {
	tests := []struct {
		name        string
		accountName string
		cost        int64
		info        providers.MetricSet
	}{
		{"already LRS", "devstorage", 100, providers.MetricSet{"redundancy": "LRS"}},
		{"critical non-RA geo tier is kept", "payrollrecords", 100, providers.MetricSet{"redundancy": "GRS"}},
		{"savings below materiality floor", "devstorage", 15, providers.MetricSet{"redundancy": "GRS"}},
		{"absent redundancy defaults to LRS", "devstorage", 100, providers.MetricSet{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := storageAccount("sa-1", tc.accountName, tc.cost)
			p := &stubProvider{
				name:        models.ProviderAzure,
				storageInfo: map[string]providers.MetricSet{"sa-1": tc.info},
			}

			results, err := NewStorageRedundancyCheck().Run(context.Background(), p, []models.Resource{r}, "")
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(results) != 0 {
				t.Errorf("results = %d; want 0", len(results))
			}
		})
	}
}

func TestStorageRedundancyCheck_ContainerNamesMarkNonCritical(t *testing.T) {
	r := storageAccount("sa-1", "mainstore", 100)
	p := &stubProvider{
		name: models.ProviderAzure,
		storageInfo: map[string]providers.MetricSet{
			"sa-1": {
				"redundancy": "GRS",
				"containers": []providers.MetricSet{{"name": "build-logs"}},
			},
		},
	}

	results, err := NewStorageRedundancyCheck().Run(context.Background(), p, []models.Resource{r}, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d; want 1", len(results))
	}
	if got := results[0].CheckMetadata["recommended_redundancy"]; got != "LRS" {
		t.Errorf("recommended_redundancy = %v; want LRS", got)
	}
}
