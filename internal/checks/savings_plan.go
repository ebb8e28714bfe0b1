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

const (
	// defaultTargetCoveragePercent is the coverage target for compute spend.
	defaultTargetCoveragePercent = 80.0

	// defaultExpiryWarningDays: plans expiring within this window get a
	// preventative finding so the commitment can be renewed in time.
	defaultExpiryWarningDays = 60

	// savingsPlanEstimatedRatePercent is the assumed discount rate of a
	// compute savings plan versus on-demand.
	savingsPlanEstimatedRatePercent = 25.0
)

// SavingsPlanCheck analyzes savings-plans coverage against a target and
// warns about plans whose commitment window is about to expire.
type SavingsPlanCheck struct {
	TargetCoveragePercent float64
	ExpiryWarningDays     int
	Log                   *zap.Logger
}

// NewSavingsPlanCheck returns the check with default targets.
func NewSavingsPlanCheck() *SavingsPlanCheck {
	return &SavingsPlanCheck{
		TargetCoveragePercent: defaultTargetCoveragePercent,
		ExpiryWarningDays:     defaultExpiryWarningDays,
	}
}

func (c *SavingsPlanCheck) Type() models.CheckType { return models.CheckSavingsPlanOpt }
func (c *SavingsPlanCheck) Name() string           { return "savings-plans-coverage" }

func (c *SavingsPlanCheck) Description() string {
	return fmt.Sprintf(
		"Analyzes current savings plans coverage and identifies opportunities to increase coverage to the target of %.0f%%",
		c.TargetCoveragePercent)
}

// Savings Plans are AWS-specific.
func (c *SavingsPlanCheck) SupportedProviders() []models.Provider {
	return []models.Provider{models.ProviderAWS}
}

// FilterResources keeps active compute resources that savings plans cover.
func (c *SavingsPlanCheck) FilterResources(resources []models.Resource) []models.Resource {
	var out []models.Resource
	for _, r := range resources {
		switch r.Type {
		case models.ResourceInstance, models.ResourceFunction, models.ResourceContainer:
			if r.IsActive {
				out = append(out, r)
			}
		}
	}
	return out
}

// Run queries account-level coverage data; a failure there is systemic.
func (c *SavingsPlanCheck) Run(
	ctx context.Context,
	provider providers.Provider,
	resources []models.Resource,
	region string,
) ([]models.CheckResult, error) {
	coverage, err := provider.GetSavingsPlansCoverage(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("savings plans coverage: %w", err)
	}

	var results []models.CheckResult

	currentCoverage := coverage.Float("coverage_percentage", 0)
	if currentCoverage < c.TargetCoveragePercent {
		totalComputeSpend := decimal.NewFromFloat(coverage.Float("total_compute_spend", 0))
		coveredSpend := decimal.NewFromFloat(coverage.Float("covered_spend", 0))
		onDemandSpend := totalComputeSpend.Sub(coveredSpend)

		additionalCoverage := (c.TargetCoveragePercent - currentCoverage) / 100
		spendToCover := totalComputeSpend.Mul(decimal.NewFromFloat(additionalCoverage))
		monthlySavings := spendToCover.Mul(decimal.NewFromFloat(savingsPlanEstimatedRatePercent / 100))

		savingsPercentage := 0.0
		if totalComputeSpend.IsPositive() {
			savingsPercentage, _ = monthlySavings.Div(totalComputeSpend).Mul(decimal.NewFromInt(100)).Float64()
		}

		results = append(results, models.CheckResult{
			ID:        "sp-coverage-opportunity",
			CheckType: c.Type(),
			Severity:  SeverityForSavings(monthlySavings),
			Resource: models.Resource{
				ID:          "savings-plans-coverage",
				Name:        "Savings Plans Coverage Opportunity",
				Type:        models.ResourceInstance,
				Provider:    models.ProviderAWS,
				Region:      "global",
				State:       "active",
				Metadata:    map[string]any(coverage),
				MonthlyCost: totalComputeSpend,
				IsActive:    true,
			},
			Title: "Low Savings Plans Coverage",
			Description: fmt.Sprintf(
				"Current savings plans coverage is %.1f%%, below the target of %.0f%%. On-demand spend: $%s/month",
				currentCoverage, c.TargetCoveragePercent, onDemandSpend.StringFixed(2)),
			Impact: "Increasing savings plans coverage can provide significant cost savings " +
				"on compute resources without any operational changes.",
			CurrentCost:       totalComputeSpend,
			OptimizedCost:     totalComputeSpend.Sub(monthlySavings),
			MonthlySavings:    monthlySavings,
			AnnualSavings:     AnnualSavings(monthlySavings),
			SavingsPercentage: savingsPercentage,
			EffortLevel:       models.LevelLow,
			RiskLevel:         models.LevelLow,
			ImplementationSteps: []string{
				"1. Analyze compute usage patterns over the last 30 days",
				"2. Identify stable workloads suitable for savings plans",
				"3. Choose between Compute or EC2 Instance savings plans",
				"4. Select commitment term (1 or 3 years)",
				"5. Purchase savings plans through AWS Cost Explorer",
				"6. Monitor coverage and utilization monthly",
			},
			ConfidenceScore: DefaultConfidence,
			CheckMetadata: map[string]any{
				"current_coverage_percentage": currentCoverage,
				"target_coverage_percentage":  c.TargetCoveragePercent,
				"total_compute_spend":         coverage.Float("total_compute_spend", 0),
				"covered_spend":               coverage.Float("covered_spend", 0),
				"estimated_savings_rate":      savingsPlanEstimatedRatePercent / 100,
			},
			CheckedAt: time.Now().UTC(),
		})
	}

	for _, plan := range coverage.Sets("expiring_plans") {
		daysUntilExpiry := int(plan.Float("days_until_expiry", 0))
		if daysUntilExpiry > c.ExpiryWarningDays {
			continue
		}

		planID := plan.String("plan_id", "unknown")
		planType := plan.String("plan_type", "Unknown")
		commitment := decimal.NewFromFloat(plan.Float("monthly_commitment", 0))

		severity := models.SeverityMedium
		if daysUntilExpiry <= 30 {
			severity = models.SeverityHigh
		}

		// Preventative finding: no direct savings, it guards against the
		// cost increase when coverage lapses.
		results = append(results, models.CheckResult{
			ID:        fmt.Sprintf("sp-expiring-%s", planID),
			CheckType: c.Type(),
			Severity:  severity,
			Resource: models.Resource{
				ID:          planID,
				Name:        fmt.Sprintf("Savings Plan: %s", planType),
				Type:        models.ResourceInstance,
				Provider:    models.ProviderAWS,
				Region:      "global",
				State:       "active",
				Metadata:    map[string]any(plan),
				MonthlyCost: commitment,
				IsActive:    true,
			},
			Title: fmt.Sprintf("Expiring Savings Plan: %s", planType),
			Description: fmt.Sprintf(
				"Savings plan expires in %d days. Monthly commitment: $%s",
				daysUntilExpiry, commitment.StringFixed(2)),
			Impact: "When this savings plan expires, the covered usage will revert to " +
				"on-demand pricing, resulting in higher costs.",
			CurrentCost:       commitment,
			OptimizedCost:     commitment,
			MonthlySavings:    decimal.Zero,
			AnnualSavings:     decimal.Zero,
			SavingsPercentage: 0,
			EffortLevel:       models.LevelMedium,
			RiskLevel:         models.LevelLow,
			ImplementationSteps: []string{
				"1. Review current utilization of the expiring plan",
				"2. Analyze if workloads still require coverage",
				"3. Calculate optimal commitment amount for renewal",
				"4. Purchase new savings plan before expiration",
				"5. Consider longer term for better discounts",
			},
			ConfidenceScore: DefaultConfidence,
			CheckMetadata: map[string]any{
				"plan_id":                planID,
				"plan_type":              planType,
				"days_until_expiry":      daysUntilExpiry,
				"expiry_date":            plan.String("expiry_date", ""),
				"utilization_percentage": plan.Float("utilization_percentage", 0),
			},
			CheckedAt: time.Now().UTC(),
		})
	}

	return results, nil
}
