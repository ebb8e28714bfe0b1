package checks

import (
	"github.com/shopspring/decimal"

	"costscope/internal/models"
)

// Shared scoring policy. Every check maps its computed monthly savings to a
// severity through the same threshold table so findings are comparable
// across checks. The thresholds are process-wide configuration: set once at
// startup (before any run) and read-only afterwards.
var (
	// CriticalMonthlySavingsThreshold: savings above this are critical.
	CriticalMonthlySavingsThreshold = decimal.NewFromInt(500)

	// HighMonthlySavingsThreshold: savings above this (but at or below the
	// critical threshold) are high.
	HighMonthlySavingsThreshold = decimal.NewFromInt(100)
)

// DefaultConfidence is the starting confidence score for a finding. Checks
// attenuate it (multiply by a factor < 1) when the heuristic relies on
// weaker signals such as name-pattern matching or assumed eligibility.
const DefaultConfidence = 0.9

var twelve = decimal.NewFromInt(12)

// AnnualSavings derives the annual figure from a monthly one. Exact decimal
// arithmetic: annual == monthly * 12, always.
func AnnualSavings(monthly decimal.Decimal) decimal.Decimal {
	return monthly.Mul(twelve)
}

// SeverityForSavings is the canonical threshold table mapping monthly
// savings to a severity.
func SeverityForSavings(monthlySavings decimal.Decimal) models.Severity {
	switch {
	case monthlySavings.GreaterThan(CriticalMonthlySavingsThreshold):
		return models.SeverityCritical
	case monthlySavings.GreaterThan(HighMonthlySavingsThreshold):
		return models.SeverityHigh
	default:
		return models.SeverityMedium
	}
}

// SeverityForSnapshotAge refines the savings table with snapshot age: very
// old snapshots escalate one step, recent ones de-escalate.
func SeverityForSnapshotAge(monthlySavings decimal.Decimal, ageDays int) models.Severity {
	switch {
	case ageDays > 180:
		if monthlySavings.GreaterThan(HighMonthlySavingsThreshold) {
			return models.SeverityCritical
		}
		return models.SeverityHigh
	case ageDays > 90:
		return SeverityForSavings(monthlySavings)
	default:
		if monthlySavings.GreaterThan(CriticalMonthlySavingsThreshold) {
			return models.SeverityHigh
		}
		return models.SeverityMedium
	}
}

// effortMultipliers weight savings by how hard the fix is to apply.
var effortMultipliers = map[models.Level]float64{
	models.LevelLow:    1.0,
	models.LevelMedium: 0.7,
	models.LevelHigh:   0.4,
}

// severityMultipliers weight savings by finding urgency.
var severityMultipliers = map[models.Severity]float64{
	models.SeverityCritical: 2.0,
	models.SeverityHigh:     1.5,
	models.SeverityMedium:   1.0,
	models.SeverityLow:      0.5,
	models.SeverityInfo:     0.1,
}

// PriorityScore is the derived, non-persisted ranking value:
// monthly savings x effort multiplier x severity multiplier.
// Unknown effort or severity weigh as zero, sinking malformed findings.
func PriorityScore(r models.CheckResult) decimal.Decimal {
	effort := effortMultipliers[r.EffortLevel]
	severity := severityMultipliers[r.Severity]
	return r.MonthlySavings.
		Mul(decimal.NewFromFloat(effort)).
		Mul(decimal.NewFromFloat(severity))
}
