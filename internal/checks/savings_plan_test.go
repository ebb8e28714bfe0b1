package checks

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"costscope/internal/models"
	"costscope/internal/providers"
)

func TestSavingsPlanCheck_LowCoverage(t *testing.T) {
	p := &stubProvider{
		spCoverage: providers.MetricSet{
			"coverage_percentage": 50.0,
			"total_compute_spend": 10000.0,
			"covered_spend":       5000.0,
		},
	}

	results, err := NewSavingsPlanCheck().Run(
		context.Background(), p, []models.Resource{instance("i-1", 100)}, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d; want 1", len(results))
	}

	f := results[0]
	if f.ID != "sp-coverage-opportunity" {
		t.Errorf("ID = %q", f.ID)
	}
	// 30 points of extra coverage on $10000 at a 25% estimated discount.
	if !f.MonthlySavings.Equal(decimal.NewFromInt(750)) {
		t.Errorf("MonthlySavings = %s; want 750", f.MonthlySavings)
	}
	if f.Severity != models.SeverityCritical {
		t.Errorf("Severity = %s; want critical", f.Severity)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("finding fails validation: %v", err)
	}
}

func TestSavingsPlanCheck_CoverageAtTargetNotFlagged(t *testing.T) {
	p := &stubProvider{
		spCoverage: providers.MetricSet{
			"coverage_percentage": 85.0,
			"total_compute_spend": 10000.0,
			"covered_spend":       8500.0,
		},
	}

	results, err := NewSavingsPlanCheck().Run(
		context.Background(), p, []models.Resource{instance("i-1", 100)}, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d; want 0", len(results))
	}
}

func TestSavingsPlanCheck_ExpiringPlans(t *testing.T) {
	tests := []struct {
		name         string
		daysToExpiry float64
		wantFindings int
		wantSeverity models.Severity
	}{
		{"expiring within 30 days is high", 20, 1, models.SeverityHigh},
		{"expiring within warning window is medium", 45, 1, models.SeverityMedium},
		{"far from expiry is not flagged", 90, 0, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &stubProvider{
				spCoverage: providers.MetricSet{
					"coverage_percentage": 95.0,
					"expiring_plans": []providers.MetricSet{{
						"plan_id":            "sp-abc",
						"plan_type":          "Compute",
						"days_until_expiry":  tc.daysToExpiry,
						"monthly_commitment": 2000.0,
					}},
				},
			}

			results, err := NewSavingsPlanCheck().Run(
				context.Background(), p, []models.Resource{instance("i-1", 100)}, "")
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(results) != tc.wantFindings {
				t.Fatalf("results = %d; want %d", len(results), tc.wantFindings)
			}
			if tc.wantFindings == 0 {
				return
			}

			f := results[0]
			if f.Severity != tc.wantSeverity {
				t.Errorf("Severity = %s; want %s", f.Severity, tc.wantSeverity)
			}
			// Preventative finding: no savings claim.
			if !f.MonthlySavings.IsZero() || !f.AnnualSavings.IsZero() {
				t.Errorf("expiring plan finding claims savings: %s/mo", f.MonthlySavings)
			}
			if err := f.Validate(); err != nil {
				t.Errorf("finding fails validation: %v", err)
			}
		})
	}
}

func TestSavingsPlanCheck_CoverageFailureIsSystemic(t *testing.T) {
	p := &stubProvider{spErr: errors.New("cost explorer unreachable")}

	_, err := NewSavingsPlanCheck().Run(
		context.Background(), p, []models.Resource{instance("i-1", 100)}, "")
	if err == nil {
		t.Fatal("expected systemic error when the coverage query fails")
	}
}

func TestSavingsPlanCheck_FilterKeepsComputeResources(t *testing.T) {
	fn := models.Resource{ID: "fn-1", Name: "fn-1", Type: models.ResourceFunction, IsActive: true}
	vol := models.Resource{ID: "vol-1", Name: "vol-1", Type: models.ResourceVolume}
	stopped := instance("i-stopped", 0)
	stopped.IsActive = false

	got := NewSavingsPlanCheck().FilterResources(
		[]models.Resource{instance("i-1", 10), fn, vol, stopped})
	if len(got) != 2 {
		t.Fatalf("filter kept %d resources; want 2", len(got))
	}
	if got[0].ID != "i-1" || got[1].ID != "fn-1" {
		t.Errorf("kept [%s %s]; want [i-1 fn-1]", got[0].ID, got[1].ID)
	}
}
