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
	// Downsizing is considered when both averages sit below these.
	defaultDBCPUThresholdPercent    = 40.0
	defaultDBMemoryThresholdPercent = 40.0

	// minSavingsPercentage is the materiality floor: recommendations whose
	// relative savings fall below this are noise and are suppressed.
	minSavingsPercentage = 10.0

	// Peak utilization grades the risk of the downsize.
	highPeakCPUPercent      = 70.0
	highPeakMemoryPercent   = 75.0
	mediumPeakCPUPercent    = 50.0
	mediumPeakMemoryPercent = 60.0
)

// DatabaseSizingCheck flags database instances whose average CPU and memory
// utilization indicate an oversized instance class, using the provider's
// own sizing recommendations for the target class.
type DatabaseSizingCheck struct {
	CPUThresholdPercent    float64
	MemoryThresholdPercent float64
	DaysToCheck            int
	Concurrency            int
	Log                    *zap.Logger
}

// NewDatabaseSizingCheck returns the check with default thresholds.
func NewDatabaseSizingCheck() *DatabaseSizingCheck {
	return &DatabaseSizingCheck{
		CPUThresholdPercent:    defaultDBCPUThresholdPercent,
		MemoryThresholdPercent: defaultDBMemoryThresholdPercent,
		DaysToCheck:            defaultMetricsDays,
	}
}

func (c *DatabaseSizingCheck) Type() models.CheckType { return models.CheckRightSizing }
func (c *DatabaseSizingCheck) Name() string           { return "database-right-sizing" }

func (c *DatabaseSizingCheck) Description() string {
	return fmt.Sprintf(
		"Identifies database instances with CPU utilization below %.0f%% and memory utilization below %.0f%% that can be downsized",
		c.CPUThresholdPercent, c.MemoryThresholdPercent)
}

func (c *DatabaseSizingCheck) SupportedProviders() []models.Provider {
	return []models.Provider{models.ProviderAWS, models.ProviderAzure}
}

// FilterResources keeps only active database instances.
func (c *DatabaseSizingCheck) FilterResources(resources []models.Resource) []models.Resource {
	return filterByType(resources, models.ResourceDatabase, true)
}

func (c *DatabaseSizingCheck) Run(
	ctx context.Context,
	provider providers.Provider,
	resources []models.Resource,
	region string,
) ([]models.CheckResult, error) {
	return evalPerResource(ctx, c.Log, c.Concurrency, region, resources,
		func(ctx context.Context, r models.Resource) ([]models.CheckResult, error) {
			metrics, err := provider.GetDatabaseMetrics(ctx, r.ID, r.Region, c.DaysToCheck)
			if err != nil {
				return nil, fmt.Errorf("database metrics: %w", err)
			}

			avgCPU := metrics.Float("avg_cpu_percent", providers.WorstCaseUtilization)
			avgMemory := metrics.Float("avg_memory_percent", providers.WorstCaseUtilization)
			maxCPU := metrics.Float("max_cpu_percent", providers.WorstCaseUtilization)
			maxMemory := metrics.Float("max_memory_percent", providers.WorstCaseUtilization)

			if avgCPU >= c.CPUThresholdPercent || avgMemory >= c.MemoryThresholdPercent {
				return nil, nil
			}

			info, err := provider.GetDatabaseInfo(ctx, r.ID, r.Region)
			if err != nil {
				return nil, fmt.Errorf("database info: %w", err)
			}
			currentType := info.String("instance_type", "Unknown")

			recommendations, err := provider.GetDatabaseSizingRecommendations(ctx, r.ID, r.Region, metrics)
			if err != nil {
				return nil, fmt.Errorf("database sizing recommendations: %w", err)
			}
			if len(recommendations) == 0 {
				return nil, nil
			}

			recommended := recommendations[0]
			recommendedType := recommended.String("instance_type", "")
			recommendedCost := decimal.NewFromFloat(recommended.Float("monthly_cost", 0))

			monthlySavings := r.MonthlyCost.Sub(recommendedCost)
			if !monthlySavings.IsPositive() || !r.MonthlyCost.IsPositive() {
				return nil, nil
			}
			savingsPercentage, _ := monthlySavings.Div(r.MonthlyCost).Mul(decimal.NewFromInt(100)).Float64()
			if savingsPercentage <= minSavingsPercentage {
				return nil, nil
			}

			riskLevel := models.LevelLow
			switch {
			case maxCPU > highPeakCPUPercent || maxMemory > highPeakMemoryPercent:
				riskLevel = models.LevelHigh
			case maxCPU > mediumPeakCPUPercent || maxMemory > mediumPeakMemoryPercent:
				riskLevel = models.LevelMedium
			}

			return []models.CheckResult{{
				ID:        fmt.Sprintf("db-rightsize-%s", r.ID),
				CheckType: c.Type(),
				Severity:  SeverityForSavings(monthlySavings),
				Resource:  r,
				Title:     fmt.Sprintf("Database Right-Sizing: %s", r.Name),
				Description: fmt.Sprintf(
					"Database averages %.1f%% CPU and %.1f%% memory over %d days. Recommend downsizing from %s to %s.",
					avgCPU, avgMemory, c.DaysToCheck, currentType, recommendedType),
				Impact: fmt.Sprintf(
					"Downsizing this database will reduce costs by %.0f%% while maintaining performance headroom.",
					savingsPercentage),
				CurrentCost:       r.MonthlyCost,
				OptimizedCost:     recommendedCost,
				MonthlySavings:    monthlySavings,
				AnnualSavings:     AnnualSavings(monthlySavings),
				SavingsPercentage: savingsPercentage,
				EffortLevel:       models.LevelMedium,
				RiskLevel:         riskLevel,
				ImplementationSteps: []string{
					"1. Review database performance requirements and peak windows",
					"2. Take a backup before modification",
					"3. Schedule a maintenance window",
					"4. Modify the instance class to the recommended size",
					"5. Monitor performance for a full business cycle",
				},
				ConfidenceScore: DefaultConfidence,
				CheckMetadata: map[string]any{
					"current_type":       currentType,
					"recommended_type":   recommendedType,
					"avg_cpu_percent":    avgCPU,
					"avg_memory_percent": avgMemory,
					"max_cpu_percent":    maxCPU,
					"max_memory_percent": maxMemory,
					"days_analyzed":      c.DaysToCheck,
				},
				CheckedAt: time.Now().UTC(),
			}}, nil
		}), nil
}
