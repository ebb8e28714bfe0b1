package checks

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"costscope/internal/models"
	"costscope/internal/providers"
)

func database(id string, cost int64) models.Resource {
	return models.Resource{
		ID:          id,
		Name:        id,
		Type:        models.ResourceDatabase,
		Provider:    models.ProviderAWS,
		Region:      "us-east-1",
		State:       "available",
		MonthlyCost: decimal.NewFromInt(cost),
		IsActive:    true,
	}
}

func TestDatabaseSizingCheck_RecommendsDownsize(t *testing.T) {
	r := database("db-1", 500)
	p := &stubProvider{
		dbMetrics: map[string]providers.MetricSet{
			"db-1": {
				"avg_cpu_percent":    15.0,
				"avg_memory_percent": 20.0,
				"max_cpu_percent":    40.0,
				"max_memory_percent": 45.0,
			},
		},
		dbInfo: map[string]providers.MetricSet{
			"db-1": {"instance_type": "db.m5.xlarge", "engine": "postgres"},
		},
		dbRecommendations: map[string][]providers.MetricSet{
			"db-1": {{"instance_type": "db.m5.large", "monthly_cost": 250.0}},
		},
	}

	results, err := NewDatabaseSizingCheck().Run(context.Background(), p, []models.Resource{r}, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d; want 1", len(results))
	}

	f := results[0]
	if f.ID != "db-rightsize-db-1" {
		t.Errorf("ID = %q", f.ID)
	}
	if !f.MonthlySavings.Equal(decimal.NewFromInt(250)) {
		t.Errorf("MonthlySavings = %s; want 250", f.MonthlySavings)
	}
	if f.RiskLevel != models.LevelLow {
		t.Errorf("RiskLevel = %s; want low for modest peaks", f.RiskLevel)
	}
	if got := f.CheckMetadata["recommended_type"]; got != "db.m5.large" {
		t.Errorf("recommended_type = %v", got)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("finding fails validation: %v", err)
	}
}

func TestDatabaseSizingCheck_PeaksGradeRisk(t *testing.T) {
	tests := []struct {
		name     string
		maxCPU   float64
		maxMem   float64
		wantRisk models.Level
	}{
		{"high cpu peak", 85.0, 40.0, models.LevelHigh},
		{"high memory peak", 30.0, 80.0, models.LevelHigh},
		{"medium cpu peak", 60.0, 40.0, models.LevelMedium},
		{"medium memory peak", 30.0, 65.0, models.LevelMedium},
		{"low peaks", 30.0, 35.0, models.LevelLow},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := database("db-1", 500)
			p := &stubProvider{
				dbMetrics: map[string]providers.MetricSet{
					"db-1": {
						"avg_cpu_percent":    10.0,
						"avg_memory_percent": 10.0,
						"max_cpu_percent":    tc.maxCPU,
						"max_memory_percent": tc.maxMem,
					},
				},
				dbInfo: map[string]providers.MetricSet{
					"db-1": {"instance_type": "db.m5.xlarge"},
				},
				dbRecommendations: map[string][]providers.MetricSet{
					"db-1": {{"instance_type": "db.m5.large", "monthly_cost": 250.0}},
				},
			}

			results, err := NewDatabaseSizingCheck().Run(context.Background(), p, []models.Resource{r}, "")
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(results) != 1 {
				t.Fatalf("results = %d; want 1", len(results))
			}
			if results[0].RiskLevel != tc.wantRisk {
				t.Errorf("RiskLevel = %s; want %s", results[0].RiskLevel, tc.wantRisk)
			}
		})
	}
}

func TestDatabaseSizingCheck_NoFinding(t *testing.T) {
	lowUtil := providers.MetricSet{
		"avg_cpu_percent": 10.0, "avg_memory_percent": 10.0,
		"max_cpu_percent": 30.0, "max_memory_percent": 30.0,
	}

	tests := []struct {
		name    string
		metrics providers.MetricSet
		recs    []providers.MetricSet
	}{
		{"busy cpu", providers.MetricSet{
			"avg_cpu_percent": 70.0, "avg_memory_percent": 10.0}, nil},
		{"busy memory", providers.MetricSet{
			"avg_cpu_percent": 10.0, "avg_memory_percent": 70.0}, nil},
		{"missing metrics read as worst case", providers.MetricSet{}, nil},
		{"no smaller class available", lowUtil, nil},
		{"savings below materiality floor", lowUtil,
			[]providers.MetricSet{{"instance_type": "db.m5.large", "monthly_cost": 480.0}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := database("db-1", 500)
			p := &stubProvider{
				dbMetrics: map[string]providers.MetricSet{"db-1": tc.metrics},
				dbInfo: map[string]providers.MetricSet{
					"db-1": {"instance_type": "db.m5.xlarge"},
				},
				dbRecommendations: map[string][]providers.MetricSet{"db-1": tc.recs},
			}

			results, err := NewDatabaseSizingCheck().Run(context.Background(), p, []models.Resource{r}, "")
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(results) != 0 {
				t.Errorf("results = %d; want 0", len(results))
			}
		})
	}
}
