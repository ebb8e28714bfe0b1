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

// defaultMaxSnapshotAgeDays: snapshots older than this are delete candidates.
const defaultMaxSnapshotAgeDays = 90

// OldSnapshotCheck flags snapshots past a configurable age that may no
// longer be needed for recovery or compliance. AMI-associated snapshots and
// snapshots under a backup policy are reported at elevated deletion risk.
type OldSnapshotCheck struct {
	MaxAgeDays  int
	Concurrency int
	Log         *zap.Logger
}

// NewOldSnapshotCheck returns the check with the default age threshold.
func NewOldSnapshotCheck() *OldSnapshotCheck {
	return &OldSnapshotCheck{MaxAgeDays: defaultMaxSnapshotAgeDays}
}

func (c *OldSnapshotCheck) Type() models.CheckType { return models.CheckOldSnapshot }
func (c *OldSnapshotCheck) Name() string           { return "old-snapshot" }

func (c *OldSnapshotCheck) Description() string {
	return fmt.Sprintf(
		"Identifies snapshots older than %d days that may no longer be needed and can be deleted to reduce storage costs",
		c.MaxAgeDays)
}

func (c *OldSnapshotCheck) SupportedProviders() []models.Provider {
	return []models.Provider{models.ProviderAWS, models.ProviderAzure}
}

// FilterResources keeps only snapshots.
func (c *OldSnapshotCheck) FilterResources(resources []models.Resource) []models.Resource {
	return filterByType(resources, models.ResourceSnapshot, false)
}

func (c *OldSnapshotCheck) Run(
	ctx context.Context,
	provider providers.Provider,
	resources []models.Resource,
	region string,
) ([]models.CheckResult, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -c.MaxAgeDays)

	return evalPerResource(ctx, c.Log, c.Concurrency, region, resources,
		func(ctx context.Context, r models.Resource) ([]models.CheckResult, error) {
			info, err := provider.GetSnapshotInfo(ctx, r.ID, r.Region)
			if err != nil {
				return nil, fmt.Errorf("snapshot info: %w", err)
			}

			createdAt, ok := info.Time("created_at")
			if !ok || !createdAt.Before(cutoff) {
				return nil, nil
			}
			ageDays := int(time.Since(createdAt).Hours() / 24)

			isAMISnapshot := info.Bool("is_ami_snapshot", false)
			hasBackupPolicy := info.Bool("has_backup_policy", false)
			riskLevel := models.LevelLow
			if isAMISnapshot || hasBackupPolicy {
				riskLevel = models.LevelMedium
			}

			monthlySavings := r.MonthlyCost

			description := fmt.Sprintf("Snapshot is %d days old. Size: %.0f GB",
				ageDays, info.Float("size_gb", 0))
			if isAMISnapshot {
				description += ", Associated with AMI"
			}
			if hasBackupPolicy {
				description += ", Part of backup policy"
			}

			return []models.CheckResult{{
				ID:          fmt.Sprintf("old-snapshot-%s", r.ID),
				CheckType:   c.Type(),
				Severity:    SeverityForSnapshotAge(monthlySavings, ageDays),
				Resource:    r,
				Title:       fmt.Sprintf("Old Snapshot: %s", r.Name),
				Description: description,
				Impact: "Old snapshots consume storage and incur costs. " +
					"Review and delete snapshots that are no longer needed for recovery or compliance.",
				CurrentCost:       r.MonthlyCost,
				OptimizedCost:     decimal.Zero,
				MonthlySavings:    monthlySavings,
				AnnualSavings:     AnnualSavings(monthlySavings),
				SavingsPercentage: 100.0,
				EffortLevel:       models.LevelLow,
				RiskLevel:         riskLevel,
				ImplementationSteps: []string{
					"1. Verify the snapshot is not needed for recovery",
					"2. Check if snapshot is required for compliance/retention policies",
					"3. Ensure no dependencies on the snapshot (AMIs, volumes)",
					"4. Delete the snapshot",
					"5. Update backup policies if needed",
				},
				ConfidenceScore: DefaultConfidence,
				CheckMetadata: map[string]any{
					"age_days":          ageDays,
					"snapshot_size_gb":  info.Float("size_gb", 0),
					"is_ami_snapshot":   isAMISnapshot,
					"has_backup_policy": hasBackupPolicy,
					"created_at":        createdAt.Format(time.RFC3339),
					"volume_id":         info.String("volume_id", ""),
				},
				CheckedAt: time.Now().UTC(),
			}}, nil
		}), nil
}
