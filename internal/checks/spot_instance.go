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
	// spotSavingsPercent is a conservative estimate of the spot discount.
	spotSavingsPercent = 70
)

// minSpotMonthlySavings suppresses findings below this materiality floor.
var minSpotMonthlySavings = decimal.NewFromInt(20)

// spotSuitableTagPatterns mark tag keys or values of interruptible workloads.
var spotSuitableTagPatterns = []string{
	"dev", "test", "staging", "batch", "processing",
	"worker", "compute", "analysis", "non-prod",
}

// spotSuitableNamePatterns mark instance names of interruptible workloads.
var spotSuitableNamePatterns = []string{
	"dev", "test", "stg", "batch", "worker",
	"process", "compute", "temp", "sandbox",
}

// SpotInstanceCheck flags on-demand instances whose workload markers (tags,
// names, environment) indicate they could tolerate spot interruption.
type SpotInstanceCheck struct {
	Concurrency int
	Log         *zap.Logger
}

func NewSpotInstanceCheck() *SpotInstanceCheck {
	return &SpotInstanceCheck{}
}

func (c *SpotInstanceCheck) Type() models.CheckType { return models.CheckSpotInstanceOpt }
func (c *SpotInstanceCheck) Name() string           { return "spot-instance-opportunity" }

func (c *SpotInstanceCheck) Description() string {
	return fmt.Sprintf(
		"Identifies instances that could use spot pricing for up to %d%% cost savings based on workload characteristics",
		spotSavingsPercent)
}

func (c *SpotInstanceCheck) SupportedProviders() []models.Provider {
	return []models.Provider{models.ProviderAWS, models.ProviderAzure}
}

func (c *SpotInstanceCheck) FilterResources(resources []models.Resource) []models.Resource {
	return filterByType(resources, models.ResourceInstance, true)
}

// spotIndicators reports which workload markers match, and whether any did.
func spotIndicators(r models.Resource) (tagMatch, nameMatch bool) {
	for key, value := range r.Tags {
		for _, p := range spotSuitableTagPatterns {
			if strings.Contains(strings.ToLower(key), p) ||
				strings.Contains(strings.ToLower(value), p) {
				tagMatch = true
			}
		}
	}
	switch strings.ToLower(r.Tag("environment")) {
	case "dev", "test", "staging", "qa", "development":
		tagMatch = true
	}

	name := strings.ToLower(r.Name)
	for _, p := range spotSuitableNamePatterns {
		if strings.Contains(name, p) {
			nameMatch = true
		}
	}
	return tagMatch, nameMatch
}

func (c *SpotInstanceCheck) Run(
	ctx context.Context,
	provider providers.Provider,
	resources []models.Resource,
	region string,
) ([]models.CheckResult, error) {
	return evalPerResource(ctx, c.Log, c.Concurrency, region, resources,
		func(ctx context.Context, r models.Resource) ([]models.CheckResult, error) {
			// Already spot-priced instances carry a lifecycle marker from
			// discovery.
			switch strings.ToLower(metaString(r, "lifecycle")) {
			case "spot":
				return nil, nil
			}

			tagMatch, nameMatch := spotIndicators(r)
			if !tagMatch && !nameMatch {
				return nil, nil
			}

			instanceType := metaString(r, "instance_type")
			// Burstable and promo sizes are not offered on the spot market.
			if strings.HasPrefix(instanceType, "Basic") || strings.HasPrefix(instanceType, "Promo") {
				return nil, nil
			}

			monthlySavings := r.MonthlyCost.
				Mul(decimal.NewFromInt(spotSavingsPercent)).
				Div(decimal.NewFromInt(100))
			if monthlySavings.LessThan(minSpotMonthlySavings) {
				return nil, nil
			}

			// Tag evidence is a stronger signal than a name pattern alone.
			confidence := DefaultConfidence * 0.7
			if tagMatch {
				confidence = DefaultConfidence * 0.9
			}

			return []models.CheckResult{{
				ID:        fmt.Sprintf("spot-opportunity-%s", r.ID),
				CheckType: c.Type(),
				Severity:  SeverityForSavings(monthlySavings),
				Resource:  r,
				Title:     fmt.Sprintf("Spot Instance Opportunity: %s", r.Name),
				Description: fmt.Sprintf(
					"Instance appears suitable for spot pricing based on workload type. Size: %s, potential savings: up to %d%%",
					instanceType, spotSavingsPercent),
				Impact: "Spot instances use spare capacity at significant discounts. " +
					"Suitable for interruptible workloads like batch processing, dev/test environments, and stateless applications. " +
					"Instances may be reclaimed when the provider needs capacity back.",
				CurrentCost:       r.MonthlyCost,
				OptimizedCost:     r.MonthlyCost.Sub(monthlySavings),
				MonthlySavings:    monthlySavings,
				AnnualSavings:     AnnualSavings(monthlySavings),
				SavingsPercentage: spotSavingsPercent,
				EffortLevel:       models.LevelMedium,
				RiskLevel:         models.LevelMedium,
				ImplementationSteps: []string{
					"1. Verify the workload can handle interruptions",
					"2. Implement eviction handling (save state, graceful shutdown)",
					"3. Launch a spot instance or convert the existing one",
					"4. Set a maximum price aligned with the on-demand rate",
					"5. Spread across zones for better availability",
					"6. Monitor interruption rates and adjust if needed",
				},
				ConfidenceScore: confidence,
				CheckMetadata: map[string]any{
					"instance_type":      instanceType,
					"environment":        r.Tag("environment"),
					"has_suitable_tags":  tagMatch,
					"has_suitable_name":  nameMatch,
					"estimated_discount": spotSavingsPercent,
				},
				CheckedAt: time.Now().UTC(),
			}}, nil
		}), nil
}

// metaString reads a string value from resource metadata.
func metaString(r models.Resource, key string) string {
	if v, ok := r.Metadata[key].(string); ok {
		return v
	}
	return ""
}
