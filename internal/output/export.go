package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"costscope/internal/models"
)

// WriteJSON writes the full report as indented JSON.
func WriteJSON(w io.Writer, report *models.AnalysisReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// csvHeader is the fixed column set of the CSV export. Savings columns hold
// plain decimal strings without a currency symbol so spreadsheets parse them
// as numbers.
var csvHeader = []string{
	"finding_id",
	"check_type",
	"severity",
	"resource_id",
	"resource_name",
	"resource_type",
	"provider",
	"region",
	"title",
	"current_cost",
	"optimized_cost",
	"monthly_savings",
	"annual_savings",
	"savings_percentage",
	"effort_level",
	"risk_level",
	"confidence_score",
}

// WriteCSV writes one row per finding. Failures are not included; use the
// JSON export for the full report.
func WriteCSV(w io.Writer, findings []models.CheckResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, f := range findings {
		row := []string{
			f.ID,
			string(f.CheckType),
			string(f.Severity),
			f.Resource.ID,
			f.Resource.Name,
			string(f.Resource.Type),
			string(f.Resource.Provider),
			f.Resource.Region,
			f.Title,
			f.CurrentCost.StringFixed(2),
			f.OptimizedCost.StringFixed(2),
			f.MonthlySavings.StringFixed(2),
			f.AnnualSavings.StringFixed(2),
			strconv.FormatFloat(f.SavingsPercentage, 'f', 1, 64),
			string(f.EffortLevel),
			string(f.RiskLevel),
			strconv.FormatFloat(f.ConfidenceScore, 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row for %s: %w", f.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
