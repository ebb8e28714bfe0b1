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

// defaultMinRIUtilizationPercent: reservations utilized below this are waste.
const defaultMinRIUtilizationPercent = 80.0

// ReservedInstanceCheck analyzes reserved-instance utilization: it flags
// underutilized reservations (paying for capacity nobody uses) and
// opportunities to purchase new reservations for steady on-demand workloads.
type ReservedInstanceCheck struct {
	MinUtilizationPercent float64
	Log                   *zap.Logger
}

// NewReservedInstanceCheck returns the check with the default floor.
func NewReservedInstanceCheck() *ReservedInstanceCheck {
	return &ReservedInstanceCheck{MinUtilizationPercent: defaultMinRIUtilizationPercent}
}

func (c *ReservedInstanceCheck) Type() models.CheckType { return models.CheckReservedInstanceOpt }
func (c *ReservedInstanceCheck) Name() string           { return "reserved-instance-utilization" }

func (c *ReservedInstanceCheck) Description() string {
	return fmt.Sprintf(
		"Identifies reserved instances with utilization below %.0f%% and opportunities to purchase new reserved instances for on-demand workloads",
		c.MinUtilizationPercent)
}

func (c *ReservedInstanceCheck) SupportedProviders() []models.Provider {
	return []models.Provider{models.ProviderAWS}
}

// FilterResources keeps only compute instances.
func (c *ReservedInstanceCheck) FilterResources(resources []models.Resource) []models.Resource {
	return filterByType(resources, models.ResourceInstance, false)
}

// Run queries account-level reservation data. The utilization query is the
// backbone of the whole check, so its failure is systemic and surfaces as
// an error for the runner to record. The opportunity query is enrichment
// only: its failure is logged and the check continues.
func (c *ReservedInstanceCheck) Run(
	ctx context.Context,
	provider providers.Provider,
	resources []models.Resource,
	region string,
) ([]models.CheckResult, error) {
	log := logOrNop(c.Log)

	utilization, err := provider.GetReservedInstancesUtilization(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("reserved instances utilization: %w", err)
	}

	var results []models.CheckResult
	for _, ri := range utilization.Sets("underutilized") {
		utilizationPercent := ri.Float("utilization_percentage", providers.WorstCaseUtilization)
		if utilizationPercent >= c.MinUtilizationPercent {
			continue
		}

		reservationID := ri.String("reservation_id", "unknown")
		instanceType := ri.String("instance_type", "Unknown")
		monthlyCost := decimal.NewFromFloat(ri.Float("monthly_cost", 0))
		utilizedCost := monthlyCost.Mul(decimal.NewFromFloat(utilizationPercent / 100))
		monthlyWaste := monthlyCost.Sub(utilizedCost)

		savingsPercentage := 0.0
		if monthlyCost.IsPositive() {
			savingsPercentage, _ = monthlyWaste.Div(monthlyCost).Mul(decimal.NewFromInt(100)).Float64()
		}

		results = append(results, models.CheckResult{
			ID:        fmt.Sprintf("ri-underutilized-%s", reservationID),
			CheckType: c.Type(),
			Severity:  SeverityForSavings(monthlyWaste),
			Resource: models.Resource{
				ID:          reservationID,
				Name:        fmt.Sprintf("RI: %s", instanceType),
				Type:        models.ResourceReservedInstance,
				Provider:    provider.Name(),
				Region:      ri.String("region", "unknown"),
				State:       "active",
				Metadata:    map[string]any(ri),
				MonthlyCost: monthlyCost,
				IsActive:    true,
			},
			Title: fmt.Sprintf("Underutilized Reserved Instance: %s", instanceType),
			Description: fmt.Sprintf(
				"Reserved instance is only %.1f%% utilized. Instance Type: %s, Count: %.0f",
				utilizationPercent, instanceType, ri.Float("instance_count", 1)),
			Impact: "You're paying for reserved capacity that isn't being fully used. " +
				"Consider modifying the reservation or ensuring workloads are properly tagged.",
			CurrentCost:       monthlyCost,
			OptimizedCost:     utilizedCost,
			MonthlySavings:    monthlyWaste,
			AnnualSavings:     AnnualSavings(monthlyWaste),
			SavingsPercentage: savingsPercentage,
			EffortLevel:       models.LevelMedium,
			RiskLevel:         models.LevelLow,
			ImplementationSteps: []string{
				"1. Review workloads that should be using this reservation",
				"2. Ensure instances are properly tagged for RI allocation",
				"3. Consider modifying the reservation to match actual usage",
				"4. Exchange for different instance types if needed",
				"5. Monitor utilization after changes",
			},
			ConfidenceScore: DefaultConfidence,
			CheckMetadata: map[string]any{
				"utilization_percentage": utilizationPercent,
				"instance_type":          instanceType,
				"instance_count":         ri.Float("instance_count", 1),
				"platform":               ri.String("platform", ""),
				"expiration_date":        ri.String("expiration_date", ""),
			},
			CheckedAt: time.Now().UTC(),
		})
	}

	opportunities, err := provider.GetOnDemandRIOpportunities(ctx, resources, region)
	if err != nil {
		log.Warn("on-demand RI opportunity query failed, skipping",
			zap.String("check", c.Name()), zap.Error(err))
		return results, nil
	}

	for _, op := range opportunities {
		instanceType := op.String("instance_type", "Unknown")
		opRegion := op.String("region", "unknown")
		monthlySavings := decimal.NewFromFloat(op.Float("estimated_monthly_savings", 0))
		onDemandCost := decimal.NewFromFloat(op.Float("on_demand_monthly_cost", 0))
		riCost := onDemandCost.Sub(monthlySavings)

		results = append(results, models.CheckResult{
			ID:        fmt.Sprintf("ri-opportunity-%s-%s", instanceType, opRegion),
			CheckType: c.Type(),
			Severity:  SeverityForSavings(monthlySavings),
			Resource: models.Resource{
				ID:          fmt.Sprintf("opportunity-%s", instanceType),
				Name:        fmt.Sprintf("RI Opportunity: %s", instanceType),
				Type:        models.ResourceInstance,
				Provider:    provider.Name(),
				Region:      opRegion,
				State:       "running",
				Metadata:    map[string]any(op),
				MonthlyCost: onDemandCost,
				IsActive:    true,
			},
			Title: fmt.Sprintf("Reserved Instance Purchase Opportunity: %s", instanceType),
			Description: fmt.Sprintf(
				"You have %.0f on-demand instances that could save %.0f%% with reserved instances",
				op.Float("instance_count", 0), op.Float("savings_percentage", 0)),
			Impact: "Purchasing reserved instances for these steady-state workloads " +
				"can provide significant cost savings with no operational changes.",
			CurrentCost:       onDemandCost,
			OptimizedCost:     riCost,
			MonthlySavings:    monthlySavings,
			AnnualSavings:     AnnualSavings(monthlySavings),
			SavingsPercentage: op.Float("savings_percentage", 0),
			EffortLevel:       models.LevelLow,
			RiskLevel:         models.LevelLow,
			ImplementationSteps: []string{
				"1. Verify these instances run continuously",
				"2. Choose appropriate RI term (1 or 3 years)",
				"3. Select payment option (All Upfront, Partial, No Upfront)",
				"4. Purchase reserved instances through the provider console",
				"5. Monitor utilization to ensure proper allocation",
			},
			ConfidenceScore: DefaultConfidence,
			CheckMetadata: map[string]any{
				"instance_type":     instanceType,
				"instance_count":    op.Float("instance_count", 0),
				"recommended_term":  op.String("recommended_term", "1-year"),
				"break_even_months": op.Float("break_even_months", 0),
			},
			CheckedAt: time.Now().UTC(),
		})
	}

	return results, nil
}
