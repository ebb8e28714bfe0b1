package checks

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"costscope/internal/models"
	"costscope/internal/providers"
)

func volume(id string, cost int64) models.Resource {
	return models.Resource{
		ID:          id,
		Name:        id,
		Type:        models.ResourceVolume,
		Provider:    models.ProviderAWS,
		Region:      "us-east-1",
		State:       "available",
		MonthlyCost: decimal.NewFromInt(cost),
	}
}

func TestUnattachedVolumeCheck_FlagsLongDetachedVolume(t *testing.T) {
	r := volume("vol-1", 50)
	p := &stubProvider{
		volumeInfo: map[string]providers.MetricSet{
			"vol-1": {
				"attached":    false,
				"detached_at": time.Now().UTC().AddDate(0, 0, -30),
				"size_gb":     500.0,
				"volume_type": "gp2",
			},
		},
	}

	results, err := NewUnattachedVolumeCheck().Run(context.Background(), p, []models.Resource{r}, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d; want 1", len(results))
	}

	f := results[0]
	if f.ID != "unattached-vol-1" {
		t.Errorf("ID = %q", f.ID)
	}
	if !f.MonthlySavings.Equal(decimal.NewFromInt(50)) {
		t.Errorf("MonthlySavings = %s; want 50", f.MonthlySavings)
	}
	if !f.AnnualSavings.Equal(decimal.NewFromInt(600)) {
		t.Errorf("AnnualSavings = %s; want 600", f.AnnualSavings)
	}
	if f.SavingsPercentage != 100.0 {
		t.Errorf("SavingsPercentage = %.1f; want 100", f.SavingsPercentage)
	}
	if f.Severity != models.SeverityMedium {
		t.Errorf("Severity = %s; want medium ($50 is below the high threshold)", f.Severity)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("finding fails validation: %v", err)
	}
}

func TestUnattachedVolumeCheck_NoFinding(t *testing.T) {
	tests := []struct {
		name string
		info providers.MetricSet
	}{
		{"attached volume", providers.MetricSet{
			"attached": true, "detached_at": time.Now().UTC().AddDate(0, 0, -30)}},
		{"recently detached within grace period", providers.MetricSet{
			"attached": false, "detached_at": time.Now().UTC().AddDate(0, 0, -2)}},
		{"no detach timestamp", providers.MetricSet{"attached": false}},
		{"absent attachment data reads as attached", providers.MetricSet{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := volume("vol-1", 50)
			p := &stubProvider{volumeInfo: map[string]providers.MetricSet{"vol-1": tc.info}}

			results, err := NewUnattachedVolumeCheck().Run(context.Background(), p, []models.Resource{r}, "")
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(results) != 0 {
				t.Errorf("results = %d; want 0", len(results))
			}
		})
	}
}

func TestUnattachedVolumeCheck_RespectsConfiguredGracePeriod(t *testing.T) {
	check := NewUnattachedVolumeCheck()
	check.MinDaysUnattached = 60

	r := volume("vol-1", 50)
	p := &stubProvider{
		volumeInfo: map[string]providers.MetricSet{
			"vol-1": {"attached": false, "detached_at": time.Now().UTC().AddDate(0, 0, -30)},
		},
	}

	results, err := check.Run(context.Background(), p, []models.Resource{r}, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d; want 0 (30 days is inside the 60 day grace period)", len(results))
	}
}
