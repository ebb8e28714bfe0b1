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

const (
	// defaultRightSizeCPUThresholdPercent: peak CPU below this means the
	// instance never comes close to its provisioned capacity.
	defaultRightSizeCPUThresholdPercent = 30.0

	defaultRightSizeMemoryThresholdPercent = 30.0

	defaultRightSizeDays = 14
)

// sizeStep is one downsizing recommendation from the static size ladder.
type sizeStep struct {
	target        string
	costReduction float64
}

// downsizeLadder maps an instance size prefix to candidate smaller sizes,
// gated on peak CPU. First match wins.
var downsizeLadder = map[string][]struct {
	maxPeakCPU float64
	step       sizeStep
}{
	"m5.2xlarge": {
		{maxPeakCPU: 25, step: sizeStep{target: "m5.large", costReduction: 0.75}},
		{maxPeakCPU: 50, step: sizeStep{target: "m5.xlarge", costReduction: 0.5}},
	},
	"m5.xlarge": {
		{maxPeakCPU: 50, step: sizeStep{target: "m5.large", costReduction: 0.5}},
	},
	"Standard_D8s_v3": {
		{maxPeakCPU: 25, step: sizeStep{target: "Standard_D2s_v3", costReduction: 0.75}},
		{maxPeakCPU: 50, step: sizeStep{target: "Standard_D4s_v3", costReduction: 0.5}},
	},
	"Standard_D4s_v3": {
		{maxPeakCPU: 50, step: sizeStep{target: "Standard_D2s_v3", costReduction: 0.5}},
	},
}

// RightSizingCheck flags overprovisioned compute instances whose peak CPU
// and memory both stay below threshold, and recommends a smaller size from
// a static ladder.
type RightSizingCheck struct {
	CPUThresholdPercent    float64
	MemoryThresholdPercent float64
	DaysToCheck            int
	Concurrency            int
	Log                    *zap.Logger
}

// NewRightSizingCheck returns the check with default thresholds.
func NewRightSizingCheck() *RightSizingCheck {
	return &RightSizingCheck{
		CPUThresholdPercent:    defaultRightSizeCPUThresholdPercent,
		MemoryThresholdPercent: defaultRightSizeMemoryThresholdPercent,
		DaysToCheck:            defaultRightSizeDays,
	}
}

func (c *RightSizingCheck) Type() models.CheckType { return models.CheckRightSizing }
func (c *RightSizingCheck) Name() string           { return "instance-right-sizing" }

func (c *RightSizingCheck) Description() string {
	return fmt.Sprintf(
		"Identifies overprovisioned instances with peak CPU below %.0f%% and peak memory below %.0f%% that could be downsized",
		c.CPUThresholdPercent, c.MemoryThresholdPercent)
}

func (c *RightSizingCheck) SupportedProviders() []models.Provider {
	return []models.Provider{models.ProviderAWS, models.ProviderAzure, models.ProviderGCP}
}

// FilterResources keeps only running compute instances.
func (c *RightSizingCheck) FilterResources(resources []models.Resource) []models.Resource {
	return filterByType(resources, models.ResourceInstance, true)
}

// recommendSize consults the downsize ladder for the current instance type.
func (c *RightSizingCheck) recommendSize(instanceType string, maxCPU float64) (sizeStep, bool) {
	for prefix, steps := range downsizeLadder {
		if !strings.HasPrefix(instanceType, prefix) {
			continue
		}
		for _, s := range steps {
			if maxCPU < s.maxPeakCPU {
				return s.step, true
			}
		}
	}
	return sizeStep{}, false
}

func (c *RightSizingCheck) Run(
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

			maxCPU := metrics.Float("max_cpu_percent", providers.WorstCaseUtilization)
			maxMemory := metrics.Float("max_memory_percent", providers.WorstCaseUtilization)
			if maxCPU >= c.CPUThresholdPercent || maxMemory >= c.MemoryThresholdPercent {
				return nil, nil
			}

			instanceType, _ := r.Metadata["instance_type"].(string)
			step, ok := c.recommendSize(instanceType, maxCPU)
			if !ok {
				return nil, nil
			}

			monthlySavings := r.MonthlyCost.Mul(decimal.NewFromFloat(step.costReduction))
			optimizedCost := r.MonthlyCost.Sub(monthlySavings)

			var severity models.Severity
			switch {
			case step.costReduction > 0.5:
				severity = models.SeverityHigh
			case step.costReduction > 0.3:
				severity = models.SeverityMedium
			default:
				severity = models.SeverityLow
			}

			return []models.CheckResult{{
				ID:        fmt.Sprintf("rightsize-%s", r.ID),
				CheckType: c.Type(),
				Severity:  severity,
				Resource:  r,
				Title:     fmt.Sprintf("Right-size Opportunity: %s", r.Name),
				Description: fmt.Sprintf(
					"Instance is overprovisioned with peak CPU at %.1f%% and peak memory at %.1f%%. Recommend downsizing from %s to %s.",
					maxCPU, maxMemory, instanceType, step.target),
				Impact: fmt.Sprintf(
					"Downsizing this instance will reduce costs by %.0f%% while still meeting performance requirements.",
					step.costReduction*100),
				CurrentCost:       r.MonthlyCost,
				OptimizedCost:     optimizedCost,
				MonthlySavings:    monthlySavings,
				AnnualSavings:     AnnualSavings(monthlySavings),
				SavingsPercentage: step.costReduction * 100,
				EffortLevel:       models.LevelMedium,
				RiskLevel:         models.LevelLow,
				ImplementationSteps: []string{
					"1. Review application performance requirements",
					"2. Test application on recommended instance size",
					"3. Schedule maintenance window",
					"4. Stop instance and change instance type",
					"5. Start instance and verify performance",
					"6. Monitor for 24-48 hours",
				},
				// Metrics-derived sizing carries inherent uncertainty.
				ConfidenceScore: DefaultConfidence * 0.85,
				CheckMetadata: map[string]any{
					"current_type":       instanceType,
					"recommended_type":   step.target,
					"max_cpu_percent":    maxCPU,
					"max_memory_percent": maxMemory,
					"days_analyzed":      c.DaysToCheck,
				},
				CheckedAt: time.Now().UTC(),
			}}, nil
		}), nil
}
