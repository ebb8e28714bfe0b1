package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"costscope/internal/models"
	"costscope/internal/providers"
)

// defaultMinDaysUnattached: a volume must be detached at least this long
// before it is flagged, so volumes in the middle of a migration are spared.
const defaultMinDaysUnattached = 7

// UnattachedVolumeCheck flags storage volumes that have been detached from
// any instance for a configurable period and can be deleted.
type UnattachedVolumeCheck struct {
	MinDaysUnattached int
	Concurrency       int
	Log               *zap.Logger
}

// NewUnattachedVolumeCheck returns the check with the default grace period.
func NewUnattachedVolumeCheck() *UnattachedVolumeCheck {
	return &UnattachedVolumeCheck{MinDaysUnattached: defaultMinDaysUnattached}
}

func (c *UnattachedVolumeCheck) Type() models.CheckType { return models.CheckUnattachedVolume }
func (c *UnattachedVolumeCheck) Name() string           { return "unattached-volume" }

func (c *UnattachedVolumeCheck) Description() string {
	return fmt.Sprintf(
		"Identifies storage volumes that have been unattached for more than %d days and can be deleted to save costs",
		c.MinDaysUnattached)
}

func (c *UnattachedVolumeCheck) SupportedProviders() []models.Provider {
	return []models.Provider{models.ProviderAWS, models.ProviderAzure}
}

// FilterResources keeps only storage volumes.
func (c *UnattachedVolumeCheck) FilterResources(resources []models.Resource) []models.Resource {
	return filterByType(resources, models.ResourceVolume, false)
}

func (c *UnattachedVolumeCheck) Run(
	ctx context.Context,
	provider providers.Provider,
	resources []models.Resource,
	region string,
) ([]models.CheckResult, error) {
	return evalPerResource(ctx, c.Log, c.Concurrency, region, resources,
		func(ctx context.Context, r models.Resource) ([]models.CheckResult, error) {
			info, err := provider.GetVolumeInfo(ctx, r.ID, r.Region)
			if err != nil {
				return nil, fmt.Errorf("volume info: %w", err)
			}

			// Absent attachment data reads as attached: never flag blind.
			if info.Bool("attached", true) {
				return nil, nil
			}
			detachedAt, ok := info.Time("detached_at")
			if !ok {
				return nil, nil
			}
			daysUnattached := int(time.Since(detachedAt).Hours() / 24)
			if daysUnattached < c.MinDaysUnattached {
				return nil, nil
			}

			monthlySavings := r.MonthlyCost

			return []models.CheckResult{{
				ID:        fmt.Sprintf("unattached-%s", r.ID),
				CheckType: c.Type(),
				Severity:  SeverityForSavings(monthlySavings),
				Resource:  r,
				Title:     fmt.Sprintf("Unattached Volume: %s", r.Name),
				Description: fmt.Sprintf(
					"Volume has been unattached for %d days. Size: %.0f GB, Type: %s",
					daysUnattached, info.Float("size_gb", 0), info.String("volume_type", "Unknown")),
				Impact: "This unattached volume is incurring storage costs without being used. " +
					"Consider creating a snapshot and deleting the volume, or reattaching it if needed.",
				CurrentCost:       r.MonthlyCost,
				OptimizedCost:     decimal.Zero,
				MonthlySavings:    monthlySavings,
				AnnualSavings:     AnnualSavings(monthlySavings),
				SavingsPercentage: 100.0,
				EffortLevel:       models.LevelLow,
				RiskLevel:         models.LevelLow,
				ImplementationSteps: []string{
					"1. Verify the volume is not needed",
					"2. Create a snapshot of the volume for backup (if data is needed)",
					"3. Delete the unattached volume",
					"4. Monitor for any issues after deletion",
				},
				ConfidenceScore: DefaultConfidence,
				CheckMetadata: map[string]any{
					"days_unattached": daysUnattached,
					"volume_size_gb":  info.Float("size_gb", 0),
					"volume_type":     info.String("volume_type", ""),
					"detached_at":     detachedAt.Format(time.RFC3339),
				},
				CheckedAt: time.Now().UTC(),
			}}, nil
		}), nil
}
