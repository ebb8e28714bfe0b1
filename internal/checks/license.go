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
	// Hybrid benefit discount estimates for Windows Server and SQL Server.
	windowsLicenseSavingsPercent = 40
	sqlLicenseSavingsPercent     = 55
)

// minLicenseMonthlySavings suppresses findings below this materiality floor.
var minLicenseMonthlySavings = decimal.NewFromInt(10)

// LicenseCheck flags Windows and SQL Server instances that pay for a bundled
// license instead of bringing an existing one through the hybrid benefit
// program.
type LicenseCheck struct {
	Concurrency int
	Log         *zap.Logger
}

func NewLicenseCheck() *LicenseCheck {
	return &LicenseCheck{}
}

func (c *LicenseCheck) Type() models.CheckType { return models.CheckLicenseOpt }
func (c *LicenseCheck) Name() string           { return "hybrid-benefit" }

func (c *LicenseCheck) Description() string {
	return "Identifies instances running Windows or SQL Server without hybrid license benefit, which could provide significant license cost savings"
}

func (c *LicenseCheck) SupportedProviders() []models.Provider {
	return []models.Provider{models.ProviderAzure}
}

func (c *LicenseCheck) FilterResources(resources []models.Resource) []models.Resource {
	return filterByType(resources, models.ResourceInstance, true)
}

func (c *LicenseCheck) Run(
	ctx context.Context,
	provider providers.Provider,
	resources []models.Resource,
	region string,
) ([]models.CheckResult, error) {
	return evalPerResource(ctx, c.Log, c.Concurrency, region, resources,
		func(ctx context.Context, r models.Resource) ([]models.CheckResult, error) {
			if strings.ToLower(metaString(r, "os_type")) != "windows" {
				return nil, nil
			}

			switch strings.ToLower(metaString(r, "license_type")) {
			case "windows_server", "windows_client":
				// Hybrid benefit already enabled.
				return nil, nil
			}

			instanceType := metaString(r, "instance_type")
			hasSQL := strings.Contains(strings.ToLower(instanceType), "sql") ||
				metaBool(r, "has_sql_server")

			savingsPercent := int64(windowsLicenseSavingsPercent)
			licenseName := "Windows Server"
			if hasSQL {
				savingsPercent = sqlLicenseSavingsPercent
				licenseName = "SQL Server"
			}

			monthlySavings := r.MonthlyCost.
				Mul(decimal.NewFromInt(savingsPercent)).
				Div(decimal.NewFromInt(100))
			if monthlySavings.LessThan(minLicenseMonthlySavings) {
				return nil, nil
			}

			return []models.CheckResult{{
				ID:        fmt.Sprintf("hybrid-benefit-%s", r.ID),
				CheckType: c.Type(),
				Severity:  SeverityForSavings(monthlySavings),
				Resource:  r,
				Title:     fmt.Sprintf("Hybrid Benefit Not Enabled: %s", r.Name),
				Description: fmt.Sprintf(
					"%s instance not using hybrid license benefit. Size: %s, potential savings: %d%%",
					licenseName, instanceType, savingsPercent),
				Impact: fmt.Sprintf(
					"Hybrid benefit can reduce %s instance costs by up to %d%% for customers with eligible licenses. Existing on-premises licenses can be reused in the cloud.",
					licenseName, savingsPercent),
				CurrentCost:       r.MonthlyCost,
				OptimizedCost:     r.MonthlyCost.Sub(monthlySavings),
				MonthlySavings:    monthlySavings,
				AnnualSavings:     AnnualSavings(monthlySavings),
				SavingsPercentage: float64(savingsPercent),
				EffortLevel:       models.LevelLow,
				RiskLevel:         models.LevelLow,
				ImplementationSteps: []string{
					"1. Verify eligible Software Assurance licenses exist",
					"2. Count the licenses needed (1 license covers up to 8 vCPUs)",
					"3. Enable hybrid benefit in the instance license settings",
					"4. The change takes effect immediately, no restart required",
					"5. Track license usage to ensure compliance",
				},
				// Eligibility is assumed, not verified.
				ConfidenceScore: DefaultConfidence * 0.9,
				CheckMetadata: map[string]any{
					"os_type":                  "windows",
					"instance_type":            instanceType,
					"current_license_type":     metaString(r, "license_type"),
					"license_type_recommended": licenseName,
					"has_sql_server":           hasSQL,
				},
				CheckedAt: time.Now().UTC(),
			}}, nil
		}), nil
}

// metaBool reads a bool value from resource metadata.
func metaBool(r models.Resource, key string) bool {
	v, _ := r.Metadata[key].(bool)
	return v
}
