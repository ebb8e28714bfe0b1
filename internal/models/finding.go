package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Severity represents the priority level of a finding, ordered
// critical > high > medium > low > info.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Rank returns the numeric order of a severity, higher meaning more urgent.
// Unknown severities rank below info.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the five defined levels.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// CheckType tags the category of finding a check emits.
type CheckType string

const (
	CheckIdleResource        CheckType = "idle_resource"
	CheckRightSizing         CheckType = "right_sizing"
	CheckUnattachedVolume    CheckType = "unattached_volume"
	CheckOldSnapshot         CheckType = "old_snapshot"
	CheckReservedInstanceOpt CheckType = "reserved_instance_optimization"
	CheckSavingsPlanOpt      CheckType = "savings_plan_optimization"
	CheckStorageOpt          CheckType = "storage_optimization"
	CheckSpotInstanceOpt     CheckType = "spot_instance_optimization"
	CheckLicenseOpt          CheckType = "license_optimization"
)

// Level grades the effort or risk of implementing a recommendation.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// CheckResult is one actionable cost-optimization finding tied to a resource.
// It is the atomic output unit of the check engine.
type CheckResult struct {
	// ID is unique within a run, conventionally "<check-kind>-<resource id>".
	ID string `json:"id"`

	CheckType CheckType `json:"check_type"`
	Severity  Severity  `json:"severity"`

	// Resource is the asset this finding concerns.
	Resource Resource `json:"resource"`

	// RelatedResources lists additional assets involved, in order. May be empty.
	RelatedResources []Resource `json:"related_resources,omitempty"`

	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`

	CurrentCost       decimal.Decimal `json:"current_cost"`
	OptimizedCost     decimal.Decimal `json:"optimized_cost"`
	MonthlySavings    decimal.Decimal `json:"monthly_savings"`
	AnnualSavings     decimal.Decimal `json:"annual_savings"`
	SavingsPercentage float64         `json:"savings_percentage"`

	EffortLevel Level `json:"effort_level"`
	RiskLevel   Level `json:"risk_level"`

	ImplementationSteps []string `json:"implementation_steps"`

	// ConfidenceScore is the 0..1 certainty of the heuristic, attenuated
	// when the check relied on weak signals.
	ConfidenceScore float64 `json:"confidence_score"`

	CheckMetadata map[string]any `json:"check_metadata,omitempty"`

	// CheckedAt is the UTC evaluation timestamp.
	CheckedAt time.Time `json:"checked_at"`
}

// Validate checks the invariants every emitted finding must hold:
// savings identities, cost ordering, confidence bounds, and a known severity.
func (r CheckResult) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("finding: missing id")
	}
	if !r.Severity.Valid() {
		return fmt.Errorf("finding %s: invalid severity %q", r.ID, r.Severity)
	}
	if r.OptimizedCost.IsNegative() {
		return fmt.Errorf("finding %s: negative optimized cost %s", r.ID, r.OptimizedCost)
	}
	if r.CurrentCost.LessThan(r.OptimizedCost) {
		return fmt.Errorf("finding %s: current cost %s below optimized cost %s",
			r.ID, r.CurrentCost, r.OptimizedCost)
	}
	if !r.MonthlySavings.Equal(r.CurrentCost.Sub(r.OptimizedCost)) {
		return fmt.Errorf("finding %s: monthly savings %s != current - optimized (%s)",
			r.ID, r.MonthlySavings, r.CurrentCost.Sub(r.OptimizedCost))
	}
	if !r.AnnualSavings.Equal(r.MonthlySavings.Mul(decimal.NewFromInt(12))) {
		return fmt.Errorf("finding %s: annual savings %s != monthly * 12", r.ID, r.AnnualSavings)
	}
	if r.ConfidenceScore < 0 || r.ConfidenceScore > 1 {
		return fmt.Errorf("finding %s: confidence %.3f out of [0,1]", r.ID, r.ConfidenceScore)
	}
	return nil
}

// CheckInfo is the descriptive catalog entry for one registered check.
// It carries no cost data.
type CheckInfo struct {
	Name               string     `json:"name"`
	CheckType          CheckType  `json:"check_type"`
	Description        string     `json:"description"`
	SupportedProviders []Provider `json:"supported_providers"`
}
