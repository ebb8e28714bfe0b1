package checks

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"costscope/internal/models"
	"costscope/internal/providers"
)

// fakeCheck is a scriptable check for runner tests.
type fakeCheck struct {
	name      string
	checkType models.CheckType
	supported []models.Provider
	results   []models.CheckResult
	err       error
}

func (f *fakeCheck) Type() models.CheckType { return f.checkType }
func (f *fakeCheck) Name() string           { return f.name }
func (f *fakeCheck) Description() string    { return "fake check for tests" }

func (f *fakeCheck) SupportedProviders() []models.Provider {
	if f.supported == nil {
		return []models.Provider{models.ProviderAWS}
	}
	return f.supported
}

func (f *fakeCheck) FilterResources(resources []models.Resource) []models.Resource {
	return filterByType(resources, models.ResourceInstance, false)
}

func (f *fakeCheck) Run(ctx context.Context, provider providers.Provider, resources []models.Resource, region string) ([]models.CheckResult, error) {
	return f.results, f.err
}

func instance(id string, cost int64) models.Resource {
	return models.Resource{
		ID:          id,
		Name:        id,
		Type:        models.ResourceInstance,
		Provider:    models.ProviderAWS,
		Region:      "us-east-1",
		State:       "running",
		MonthlyCost: decimal.NewFromInt(cost),
		IsActive:    true,
	}
}

func TestRunner_SkipsUnsupportedProvider(t *testing.T) {
	p := &stubProvider{name: models.ProviderAzure}
	check := &fakeCheck{name: "aws-only", supported: []models.Provider{models.ProviderAWS}}

	results, err := NewRunner(nil).RunCheck(context.Background(), p, check, []models.Resource{instance("i-1", 10)}, "")
	if err != nil {
		t.Fatalf("RunCheck: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results for unsupported provider, got %d", len(results))
	}
	if got := p.calls.Load(); got != 0 {
		t.Errorf("provider was queried %d times; want 0", got)
	}
}

func TestRunner_SkipsWhenFilterEmpty(t *testing.T) {
	p := &stubProvider{}
	check := &fakeCheck{name: "instances"}
	vol := models.Resource{ID: "vol-1", Name: "vol-1", Type: models.ResourceVolume, Provider: models.ProviderAWS}

	results, err := NewRunner(nil).RunCheck(context.Background(), p, check, []models.Resource{vol}, "")
	if err != nil {
		t.Fatalf("RunCheck: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results when filter yields nothing, got %d", len(results))
	}
	if got := p.calls.Load(); got != 0 {
		t.Errorf("provider was queried %d times; want 0", got)
	}
}

func TestRunner_FailedCheckIsIsolated(t *testing.T) {
	p := &stubProvider{}
	resources := []models.Resource{instance("i-1", 10)}

	ok1 := &fakeCheck{name: "ok-1", checkType: models.CheckIdleResource,
		results: []models.CheckResult{{ID: "f-1"}}}
	broken := &fakeCheck{name: "broken", checkType: models.CheckRightSizing,
		err: errors.New("cost explorer unreachable")}
	ok2 := &fakeCheck{name: "ok-2", checkType: models.CheckOldSnapshot,
		results: []models.CheckResult{{ID: "f-2"}}}

	findings, failures := NewRunner(nil).RunChecks(
		context.Background(), p, []Check{ok1, broken, ok2}, resources, "")

	if len(findings) != 2 {
		t.Fatalf("findings = %d; want 2", len(findings))
	}
	// Findings stay in check-list order.
	if findings[0].ID != "f-1" || findings[1].ID != "f-2" {
		t.Errorf("finding order = [%s %s]; want [f-1 f-2]", findings[0].ID, findings[1].ID)
	}

	if len(failures) != 1 {
		t.Fatalf("failures = %d; want 1", len(failures))
	}
	rec := failures[0]
	if rec.CheckName != "broken" || rec.CheckType != models.CheckRightSizing {
		t.Errorf("failure record = %+v", rec)
	}
	if rec.Message != "cost explorer unreachable" {
		t.Errorf("failure message = %q", rec.Message)
	}
}

func TestRunner_CancelledContextStopsEarly(t *testing.T) {
	p := &stubProvider{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	check := &fakeCheck{name: "never-runs", results: []models.CheckResult{{ID: "f-1"}}}
	findings, failures := NewRunner(nil).RunChecks(ctx, p, []Check{check}, []models.Resource{instance("i-1", 10)}, "")

	if len(findings) != 0 || len(failures) != 0 {
		t.Errorf("cancelled run produced findings=%d failures=%d; want 0/0", len(findings), len(failures))
	}
}

func TestEvalPerResource_RegionFilterAndOrder(t *testing.T) {
	resources := []models.Resource{
		instance("i-1", 10),
		func() models.Resource { r := instance("i-2", 10); r.Region = "eu-west-1"; return r }(),
		instance("i-3", 10),
	}

	results := evalPerResource(context.Background(), nil, 2, "us-east-1", resources,
		func(ctx context.Context, r models.Resource) ([]models.CheckResult, error) {
			return []models.CheckResult{{ID: r.ID}}, nil
		})

	if len(results) != 2 {
		t.Fatalf("results = %d; want 2", len(results))
	}
	if results[0].ID != "i-1" || results[1].ID != "i-3" {
		t.Errorf("result order = [%s %s]; want [i-1 i-3]", results[0].ID, results[1].ID)
	}
}

func TestEvalPerResource_BadResourceIsSkipped(t *testing.T) {
	resources := []models.Resource{
		instance("i-1", 10),
		instance("i-bad", 10),
		instance("i-3", 10),
	}

	results := evalPerResource(context.Background(), nil, 1, "", resources,
		func(ctx context.Context, r models.Resource) ([]models.CheckResult, error) {
			if r.ID == "i-bad" {
				return nil, errors.New("throttled")
			}
			return []models.CheckResult{{ID: r.ID}}, nil
		})

	if len(results) != 2 {
		t.Fatalf("results = %d; want 2 (bad resource skipped)", len(results))
	}
	if results[0].ID != "i-1" || results[1].ID != "i-3" {
		t.Errorf("result order = [%s %s]; want [i-1 i-3]", results[0].ID, results[1].ID)
	}
}
