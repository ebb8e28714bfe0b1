package checks

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"costscope/internal/models"
	"costscope/internal/providers"
)

func TestReservedInstanceCheck_FlagsUnderutilizedReservation(t *testing.T) {
	p := &stubProvider{
		riUtilization: providers.MetricSet{
			"underutilized": []providers.MetricSet{{
				"reservation_id":         "ri-123",
				"instance_type":          "m5.large",
				"instance_count":         4.0,
				"utilization_percentage": 60.0,
				"monthly_cost":           1000.0,
				"region":                 "us-east-1",
			}},
		},
	}

	results, err := NewReservedInstanceCheck().Run(
		context.Background(), p, []models.Resource{instance("i-1", 100)}, "us-east-1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d; want 1", len(results))
	}

	f := results[0]
	if f.ID != "ri-underutilized-ri-123" {
		t.Errorf("ID = %q", f.ID)
	}
	// 40% of $1000 is wasted.
	if !f.MonthlySavings.Equal(decimal.NewFromInt(400)) {
		t.Errorf("MonthlySavings = %s; want 400", f.MonthlySavings)
	}
	if !f.OptimizedCost.Equal(decimal.NewFromInt(600)) {
		t.Errorf("OptimizedCost = %s; want 600", f.OptimizedCost)
	}
	if f.Severity != models.SeverityHigh {
		t.Errorf("Severity = %s; want high", f.Severity)
	}
	if f.Resource.Type != models.ResourceReservedInstance {
		t.Errorf("Resource.Type = %s; want reserved_instance", f.Resource.Type)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("finding fails validation: %v", err)
	}
}

func TestReservedInstanceCheck_WellUtilizedNotFlagged(t *testing.T) {
	p := &stubProvider{
		riUtilization: providers.MetricSet{
			"underutilized": []providers.MetricSet{{
				"reservation_id":         "ri-123",
				"utilization_percentage": 95.0,
				"monthly_cost":           1000.0,
			}},
		},
	}

	results, err := NewReservedInstanceCheck().Run(
		context.Background(), p, []models.Resource{instance("i-1", 100)}, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d; want 0", len(results))
	}
}

func TestReservedInstanceCheck_UtilizationFailureIsSystemic(t *testing.T) {
	p := &stubProvider{riErr: errors.New("cost explorer unreachable")}

	_, err := NewReservedInstanceCheck().Run(
		context.Background(), p, []models.Resource{instance("i-1", 100)}, "")
	if err == nil {
		t.Fatal("expected systemic error when the utilization query fails")
	}
}

func TestReservedInstanceCheck_OpportunityFailureDegrades(t *testing.T) {
	p := &stubProvider{
		riUtilization: providers.MetricSet{
			"underutilized": []providers.MetricSet{{
				"reservation_id":         "ri-123",
				"utilization_percentage": 50.0,
				"monthly_cost":           200.0,
			}},
		},
		opportunityErr: errors.New("recommendation API down"),
	}

	results, err := NewReservedInstanceCheck().Run(
		context.Background(), p, []models.Resource{instance("i-1", 100)}, "")
	if err != nil {
		t.Fatalf("Run should degrade, not fail: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("results = %d; want the utilization finding to survive", len(results))
	}
}

func TestReservedInstanceCheck_PurchaseOpportunity(t *testing.T) {
	p := &stubProvider{
		riUtilization: providers.MetricSet{},
		opportunities: []providers.MetricSet{{
			"instance_type":             "c5.xlarge",
			"instance_count":            8.0,
			"region":                    "us-east-1",
			"on_demand_monthly_cost":    980.0,
			"estimated_monthly_savings": 350.0,
			"savings_percentage":        35.7,
		}},
	}

	results, err := NewReservedInstanceCheck().Run(
		context.Background(), p, []models.Resource{instance("i-1", 100)}, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d; want 1", len(results))
	}

	f := results[0]
	if f.ID != "ri-opportunity-c5.xlarge-us-east-1" {
		t.Errorf("ID = %q", f.ID)
	}
	if !f.MonthlySavings.Equal(decimal.NewFromInt(350)) {
		t.Errorf("MonthlySavings = %s; want 350", f.MonthlySavings)
	}
	if !f.OptimizedCost.Equal(decimal.NewFromInt(630)) {
		t.Errorf("OptimizedCost = %s; want 630", f.OptimizedCost)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("finding fails validation: %v", err)
	}
}
