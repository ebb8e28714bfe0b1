package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"costscope/internal/checks"
	"costscope/internal/models"
	"costscope/internal/providers"
)

// DefaultEngine is the production implementation of Engine. It coordinates
// resource discovery, check selection, check execution, and report assembly.
type DefaultEngine struct {
	provider providers.Provider
	registry *checks.Registry
	runner   *checks.Runner
	log      *zap.Logger
}

// NewDefaultEngine constructs a DefaultEngine wired to the supplied provider
// and check registry.
func NewDefaultEngine(provider providers.Provider, registry *checks.Registry, log *zap.Logger) *DefaultEngine {
	if log == nil {
		log = zap.NewNop()
	}
	return &DefaultEngine{
		provider: provider,
		registry: registry,
		runner:   checks.NewRunner(log),
		log:      log,
	}
}

// Run discovers the inventory per region, executes the selected checks, and
// returns a fully populated AnalysisReport. Partial results are success:
// systemic check failures land in Failures while other checks' findings are
// kept.
func (e *DefaultEngine) Run(ctx context.Context, opts Options) (*models.AnalysisReport, error) {
	selected, err := e.selectChecks(opts)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no checks available for provider %q", e.provider.Name())
	}

	regions := opts.Regions
	if len(regions) == 0 {
		// A single empty region means provider-default scope.
		regions = []string{""}
	}

	var (
		findings []models.CheckResult
		failures []models.CheckFailureRecord
	)
	for _, region := range regions {
		resources, err := e.provider.DiscoverResources(ctx, region)
		if err != nil {
			return nil, fmt.Errorf("discover resources in %q: %w", region, err)
		}
		if err := models.ValidateResources(resources); err != nil {
			return nil, fmt.Errorf("inventory validation: %w", err)
		}

		e.log.Info("running checks",
			zap.String("region", region),
			zap.Int("resources", len(resources)),
			zap.Int("checks", len(selected)))

		regionFindings, regionFailures := e.runner.RunChecks(ctx, e.provider, selected, resources, region)
		findings = append(findings, regionFindings...)
		failures = append(failures, regionFailures...)
	}

	SortFindings(findings)

	return &models.AnalysisReport{
		ReportID:    uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Provider:    e.provider.Name(),
		Regions:     opts.Regions,
		Summary:     models.Summarize(findings, failures),
		Findings:    findings,
		Failures:    failures,
	}, nil
}

// selectChecks resolves the configured check selection against the registry:
// explicit names win, then types, then everything supported by the provider.
func (e *DefaultEngine) selectChecks(opts Options) ([]checks.Check, error) {
	if len(opts.CheckNames) > 0 {
		var selected []checks.Check
		for _, name := range opts.CheckNames {
			c := e.registry.Get(name)
			if c == nil {
				return nil, fmt.Errorf("unknown check %q", name)
			}
			selected = append(selected, c)
		}
		return selected, nil
	}
	if len(opts.CheckTypes) > 0 {
		return e.registry.ListByTypes(opts.CheckTypes...), nil
	}
	return e.registry.ListByProvider(e.provider.Name()), nil
}

// SortFindings orders findings for presentation: severity descending,
// then monthly savings descending, then ID ascending for a stable order.
func SortFindings(findings []models.CheckResult) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Severity != findings[j].Severity {
			return findings[i].Severity.Rank() > findings[j].Severity.Rank()
		}
		if !findings[i].MonthlySavings.Equal(findings[j].MonthlySavings) {
			return findings[i].MonthlySavings.GreaterThan(findings[j].MonthlySavings)
		}
		return findings[i].ID < findings[j].ID
	})
}
