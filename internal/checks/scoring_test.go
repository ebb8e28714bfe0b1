package checks

import (
	"testing"

	"github.com/shopspring/decimal"

	"costscope/internal/models"
)

func TestSeverityForSavings(t *testing.T) {
	tests := []struct {
		savings float64
		want    models.Severity
	}{
		{0, models.SeverityMedium},
		{50, models.SeverityMedium},
		{100, models.SeverityMedium},
		{100.01, models.SeverityHigh},
		{500, models.SeverityHigh},
		{500.01, models.SeverityCritical},
		{10000, models.SeverityCritical},
	}
	for _, tc := range tests {
		got := SeverityForSavings(decimal.NewFromFloat(tc.savings))
		if got != tc.want {
			t.Errorf("SeverityForSavings(%.2f) = %s; want %s", tc.savings, got, tc.want)
		}
	}
}

func TestSeverityForSnapshotAge(t *testing.T) {
	tests := []struct {
		name    string
		savings float64
		ageDays int
		want    models.Severity
	}{
		{"very old escalates to high", 50, 200, models.SeverityHigh},
		{"very old with high savings escalates to critical", 200, 200, models.SeverityCritical},
		{"standard age uses savings table", 200, 120, models.SeverityHigh},
		{"recent caps at high even for big savings", 600, 30, models.SeverityHigh},
		{"recent small savings is medium", 50, 30, models.SeverityMedium},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SeverityForSnapshotAge(decimal.NewFromFloat(tc.savings), tc.ageDays)
			if got != tc.want {
				t.Errorf("SeverityForSnapshotAge(%.0f, %d) = %s; want %s",
					tc.savings, tc.ageDays, got, tc.want)
			}
		})
	}
}

func TestAnnualSavings(t *testing.T) {
	monthly := decimal.NewFromFloat(50)
	annual := AnnualSavings(monthly)
	if !annual.Equal(decimal.NewFromInt(600)) {
		t.Errorf("AnnualSavings(50) = %s; want 600", annual)
	}

	// Exact decimal identity, no float drift.
	monthly = decimal.RequireFromString("33.33")
	if got := AnnualSavings(monthly); !got.Equal(decimal.RequireFromString("399.96")) {
		t.Errorf("AnnualSavings(33.33) = %s; want 399.96", got)
	}
}

func TestPriorityScore(t *testing.T) {
	base := models.CheckResult{
		MonthlySavings: decimal.NewFromInt(100),
		EffortLevel:    models.LevelLow,
		Severity:       models.SeverityHigh,
	}

	t.Run("low effort high severity", func(t *testing.T) {
		// 100 * 1.0 * 1.5
		if got := PriorityScore(base); !got.Equal(decimal.NewFromInt(150)) {
			t.Errorf("PriorityScore = %s; want 150", got)
		}
	})

	t.Run("high effort discounts heavily", func(t *testing.T) {
		r := base
		r.EffortLevel = models.LevelHigh
		r.Severity = models.SeverityMedium
		// 100 * 0.4 * 1.0
		if got := PriorityScore(r); !got.Equal(decimal.NewFromInt(40)) {
			t.Errorf("PriorityScore = %s; want 40", got)
		}
	})

	t.Run("unknown effort sinks to zero", func(t *testing.T) {
		r := base
		r.EffortLevel = models.Level("extreme")
		if got := PriorityScore(r); !got.IsZero() {
			t.Errorf("PriorityScore with unknown effort = %s; want 0", got)
		}
	})
}
