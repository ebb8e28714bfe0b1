package checks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"costscope/internal/models"
	"costscope/internal/providers"
)

// redundancyCostMultipliers expresses the relative price of each storage
// redundancy level against locally redundant storage.
var redundancyCostMultipliers = map[string]float64{
	"LRS":     1.0,
	"ZRS":     1.25,
	"GRS":     2.0,
	"RA-GRS":  2.5,
	"GZRS":    2.5,
	"RA-GZRS": 3.125,
}

// nonCriticalPatterns mark names that usually hold reproducible data.
var nonCriticalPatterns = []string{
	"dev", "test", "temp", "staging", "backup", "archive",
	"log", "diagnostic", "metric", "telemetry", "sandbox",
}

// minStorageMonthlySavings suppresses findings below this materiality floor.
var minStorageMonthlySavings = decimal.NewFromInt(10)

// StorageRedundancyCheck flags storage accounts paying for geo-redundancy
// that their workload does not need. Non-critical accounts are steered to
// locally redundant storage; critical accounts only get the cheaper
// non-read-access variant of their current geo tier.
type StorageRedundancyCheck struct {
	Concurrency int
	Log         *zap.Logger
}

func NewStorageRedundancyCheck() *StorageRedundancyCheck {
	return &StorageRedundancyCheck{}
}

func (c *StorageRedundancyCheck) Type() models.CheckType { return models.CheckStorageOpt }
func (c *StorageRedundancyCheck) Name() string           { return "storage-redundancy" }

func (c *StorageRedundancyCheck) Description() string {
	return "Identifies storage accounts using expensive geo-redundant storage for non-critical workloads that could use locally redundant storage"
}

func (c *StorageRedundancyCheck) SupportedProviders() []models.Provider {
	return []models.Provider{models.ProviderAzure}
}

func (c *StorageRedundancyCheck) FilterResources(resources []models.Resource) []models.Resource {
	return filterByType(resources, models.ResourceStorage, false)
}

// isNonCritical classifies an account from its name, tags, and containers.
func isNonCritical(r models.Resource, info providers.MetricSet) bool {
	name := strings.ToLower(r.Name)
	for _, p := range nonCriticalPatterns {
		if strings.Contains(name, p) {
			return true
		}
	}

	switch strings.ToLower(r.Tag("environment")) {
	case "dev", "test", "staging", "qa", "development":
		return true
	}
	switch strings.ToLower(r.Tag("criticality")) {
	case "low", "non-critical":
		return true
	}

	for _, container := range info.Sets("containers") {
		cname := strings.ToLower(container.String("name", ""))
		for _, p := range nonCriticalPatterns {
			if strings.Contains(cname, p) {
				return true
			}
		}
	}
	return false
}

func (c *StorageRedundancyCheck) Run(
	ctx context.Context,
	provider providers.Provider,
	resources []models.Resource,
	region string,
) ([]models.CheckResult, error) {
	return evalPerResource(ctx, c.Log, c.Concurrency, region, resources,
		func(ctx context.Context, r models.Resource) ([]models.CheckResult, error) {
			info, err := provider.GetStorageInfo(ctx, r.ID, r.Region)
			if err != nil {
				return nil, fmt.Errorf("storage info: %w", err)
			}

			current := strings.ToUpper(info.String("redundancy", "LRS"))
			if current == "LRS" {
				return nil, nil
			}

			nonCritical := isNonCritical(r, info)

			// Critical data keeps its geo tier; only the read-access premium
			// is questioned.
			var recommended string
			switch {
			case nonCritical:
				recommended = "LRS"
			case strings.HasPrefix(current, "RA-"):
				recommended = strings.TrimPrefix(current, "RA-")
			default:
				return nil, nil
			}

			currentMult, ok := redundancyCostMultipliers[current]
			if !ok {
				currentMult = 2.0
			}
			recommendedMult, ok := redundancyCostMultipliers[recommended]
			if !ok {
				recommendedMult = 1.0
			}

			savingsPercentage := (currentMult - recommendedMult) / currentMult * 100
			monthlySavings := r.MonthlyCost.
				Mul(decimal.NewFromFloat(savingsPercentage)).
				Div(decimal.NewFromInt(100))
			if monthlySavings.LessThan(minStorageMonthlySavings) {
				return nil, nil
			}

			confidence := DefaultConfidence * 0.8
			riskLevel := models.LevelLow
			if nonCritical {
				confidence = DefaultConfidence * 0.9
				riskLevel = models.LevelMedium
			}

			sizeGB := info.Float("total_size_gb", 0)

			return []models.CheckResult{{
				ID:        fmt.Sprintf("storage-redundancy-%s", r.ID),
				CheckType: c.Type(),
				Severity:  SeverityForSavings(monthlySavings),
				Resource:  r,
				Title:     fmt.Sprintf("Storage Redundancy Optimization: %s", r.Name),
				Description: fmt.Sprintf(
					"Storage account using %s redundancy. Could switch to %s for %.0f%% savings. Storage size: %.1f GB",
					current, recommended, savingsPercentage, sizeGB),
				Impact: fmt.Sprintf(
					"This storage may not require %s level redundancy. %s is sufficient for many workloads.",
					current, recommended),
				CurrentCost:       r.MonthlyCost,
				OptimizedCost:     r.MonthlyCost.Sub(monthlySavings),
				MonthlySavings:    monthlySavings,
				AnnualSavings:     AnnualSavings(monthlySavings),
				SavingsPercentage: savingsPercentage,
				EffortLevel:       models.LevelLow,
				RiskLevel:         riskLevel,
				ImplementationSteps: []string{
					"1. Verify data criticality and backup requirements",
					"2. Ensure backups exist before downgrading redundancy",
					"3. Plan for a maintenance window",
					fmt.Sprintf("4. Change the storage account replication setting to %s", recommended),
					"5. Monitor for issues after the change",
					"6. Document the redundancy level for disaster recovery planning",
				},
				ConfidenceScore: confidence,
				CheckMetadata: map[string]any{
					"current_redundancy":     current,
					"recommended_redundancy": recommended,
					"is_non_critical":        nonCritical,
					"total_size_gb":          sizeGB,
					"account_kind":           info.String("account_kind", "StorageV2"),
				},
				CheckedAt: time.Now().UTC(),
			}}, nil
		}), nil
}
