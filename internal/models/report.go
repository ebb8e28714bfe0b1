package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckFailureRecord is a structured per-check error surfaced by the runner
// when a check's Run fails systemically (e.g. provider entirely unreachable).
// Findings already gathered from other checks are unaffected.
type CheckFailureRecord struct {
	CheckName string    `json:"check_name"`
	CheckType CheckType `json:"check_type"`
	Message   string    `json:"message"`
}

// AnalysisSummary aggregates counts and totals across all findings of a run.
type AnalysisSummary struct {
	TotalFindings       int             `json:"total_findings"`
	CriticalFindings    int             `json:"critical_findings"`
	HighFindings        int             `json:"high_findings"`
	MediumFindings      int             `json:"medium_findings"`
	LowFindings         int             `json:"low_findings"`
	InfoFindings        int             `json:"info_findings"`
	TotalMonthlySavings decimal.Decimal `json:"total_monthly_savings"`
	TotalAnnualSavings  decimal.Decimal `json:"total_annual_savings"`
	FailedChecks        int             `json:"failed_checks"`
}

// AnalysisReport is the top-level output of one analysis run.
// Partial results are success: Findings holds everything that could be
// computed and Failures records checks that could not run to completion.
type AnalysisReport struct {
	ReportID    string               `json:"report_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Provider    Provider             `json:"provider"`
	Regions     []string             `json:"regions,omitempty"`
	Summary     AnalysisSummary      `json:"summary"`
	Findings    []CheckResult        `json:"findings"`
	Failures    []CheckFailureRecord `json:"failures,omitempty"`
}

// Summarize computes an AnalysisSummary over findings and failures.
func Summarize(findings []CheckResult, failures []CheckFailureRecord) AnalysisSummary {
	s := AnalysisSummary{
		TotalFindings:       len(findings),
		FailedChecks:        len(failures),
		TotalMonthlySavings: decimal.Zero,
		TotalAnnualSavings:  decimal.Zero,
	}
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			s.CriticalFindings++
		case SeverityHigh:
			s.HighFindings++
		case SeverityMedium:
			s.MediumFindings++
		case SeverityLow:
			s.LowFindings++
		case SeverityInfo:
			s.InfoFindings++
		}
		s.TotalMonthlySavings = s.TotalMonthlySavings.Add(f.MonthlySavings)
		s.TotalAnnualSavings = s.TotalAnnualSavings.Add(f.AnnualSavings)
	}
	return s
}
