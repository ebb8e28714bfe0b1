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
	// defaultIdleCPUThresholdPercent: below this average CPU an instance is
	// an idle candidate. 5% catches clearly abandoned machines.
	defaultIdleCPUThresholdPercent = 5.0

	// defaultIdleNetworkThresholdBytes: average network traffic floor.
	// 10 MB over the window means nobody is talking to the instance.
	defaultIdleNetworkThresholdBytes = 10e6

	// defaultMetricsDays is the trailing metrics window.
	defaultMetricsDays = 30
)

// IdleInstanceCheck flags running compute instances whose CPU and network
// activity are both below threshold over the lookback window. Missing
// metrics read as worst case (busy), so absent data never fires the rule.
type IdleInstanceCheck struct {
	CPUThresholdPercent   float64
	NetworkThresholdBytes float64
	DaysToCheck           int
	Concurrency           int
	Log                   *zap.Logger
}

// NewIdleInstanceCheck returns the check with default thresholds.
func NewIdleInstanceCheck() *IdleInstanceCheck {
	return &IdleInstanceCheck{
		CPUThresholdPercent:   defaultIdleCPUThresholdPercent,
		NetworkThresholdBytes: defaultIdleNetworkThresholdBytes,
		DaysToCheck:           defaultMetricsDays,
	}
}

func (c *IdleInstanceCheck) Type() models.CheckType { return models.CheckIdleResource }
func (c *IdleInstanceCheck) Name() string           { return "idle-instance" }

func (c *IdleInstanceCheck) Description() string {
	return fmt.Sprintf(
		"Identifies compute instances with CPU utilization below %.0f%% and network traffic below %.1fMB over the last %d days",
		c.CPUThresholdPercent, c.NetworkThresholdBytes/1e6, c.DaysToCheck)
}

func (c *IdleInstanceCheck) SupportedProviders() []models.Provider {
	return []models.Provider{models.ProviderAWS, models.ProviderAzure, models.ProviderGCP}
}

// FilterResources keeps only running compute instances.
func (c *IdleInstanceCheck) FilterResources(resources []models.Resource) []models.Resource {
	return filterByType(resources, models.ResourceInstance, true)
}

func (c *IdleInstanceCheck) Run(
	ctx context.Context,
	provider providers.Provider,
	resources []models.Resource,
	region string,
) ([]models.CheckResult, error) {
	return evalPerResource(ctx, c.Log, c.Concurrency, region, resources,
		func(ctx context.Context, r models.Resource) ([]models.CheckResult, error) {
			metrics, err := provider.GetInstanceMetrics(ctx, r.ID, r.Region, c.DaysToCheck)
			if err != nil {
				return nil, fmt.Errorf("instance metrics: %w", err)
			}

			avgCPU := metrics.Float("avg_cpu_percent", providers.WorstCaseUtilization)
			avgNetwork := metrics.Float("avg_network_bytes", providers.WorstCaseTraffic)
			if avgCPU >= c.CPUThresholdPercent || avgNetwork >= c.NetworkThresholdBytes {
				return nil, nil
			}

			monthlySavings := r.MonthlyCost

			return []models.CheckResult{{
				ID:        fmt.Sprintf("idle-%s", r.ID),
				CheckType: c.Type(),
				Severity:  SeverityForSavings(monthlySavings),
				Resource:  r,
				Title:     fmt.Sprintf("Idle Instance: %s", r.Name),
				Description: fmt.Sprintf(
					"Instance has been idle for the past %d days with average CPU utilization of %.1f%% and network traffic of %.1fMB",
					c.DaysToCheck, avgCPU, avgNetwork/1e6),
				Impact: "This instance appears to be unused and is incurring unnecessary costs. " +
					"Consider terminating or stopping it.",
				CurrentCost:       r.MonthlyCost,
				OptimizedCost:     decimal.Zero,
				MonthlySavings:    monthlySavings,
				AnnualSavings:     AnnualSavings(monthlySavings),
				SavingsPercentage: 100.0,
				EffortLevel:       models.LevelLow,
				RiskLevel:         models.LevelLow,
				ImplementationSteps: []string{
					"1. Verify the instance is truly not needed",
					"2. Create a snapshot/backup if needed",
					"3. Stop or terminate the instance",
					"4. Monitor for any issues after termination",
				},
				ConfidenceScore: DefaultConfidence,
				CheckMetadata: map[string]any{
					"avg_cpu_percent":       avgCPU,
					"avg_network_mb":        avgNetwork / 1e6,
					"threshold_cpu_percent": c.CPUThresholdPercent,
					"threshold_network_mb":  c.NetworkThresholdBytes / 1e6,
					"days_analyzed":         c.DaysToCheck,
				},
				CheckedAt: time.Now().UTC(),
			}}, nil
		}), nil
}
