// Package checks contains the optimization check engine: the contract every
// check implements, the registry that indexes checks, the runner that
// executes them against a resource set, and the shared scoring policy.
package checks

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"costscope/internal/models"
	"costscope/internal/providers"
)

// Check is a stateless rule that inspects resources of a given provider and
// emits findings. Implementations must be safe for concurrent use and must
// never mutate the resources they are given.
type Check interface {
	// Type is the immutable finding category this check produces.
	Type() models.CheckType

	// Name is the unique human-readable identifier; it is the registry key.
	Name() string

	// Description is static text describing the rule and its thresholds.
	Description() string

	// SupportedProviders lists the clouds this check can evaluate.
	SupportedProviders() []models.Provider

	// FilterResources narrows the input to the resources this check accepts
	// (by type, activity state). Pure and synchronous.
	FilterResources(resources []models.Resource) []models.Resource

	// Run evaluates the check. For each candidate resource (optionally
	// restricted to one region) it queries the provider, applies its
	// heuristic, and emits at most one finding. A resource that does not
	// trigger the heuristic contributes nothing; a resource whose provider
	// query fails is logged and skipped, never aborting the check. An error
	// return is reserved for systemic failure (e.g. an account-level query
	// that the whole check depends on).
	Run(ctx context.Context, provider providers.Provider, resources []models.Resource, region string) ([]models.CheckResult, error)
}

// Info returns the catalog entry for a check.
func Info(c Check) models.CheckInfo {
	return models.CheckInfo{
		Name:               c.Name(),
		CheckType:          c.Type(),
		Description:        c.Description(),
		SupportedProviders: c.SupportedProviders(),
	}
}

// defaultResourceConcurrency bounds in-flight provider calls per check so a
// large inventory does not trip provider rate limits.
const defaultResourceConcurrency = 4

// logOrNop guards against checks constructed without a logger in tests.
func logOrNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// concurrencyOrDefault normalizes a per-check concurrency setting.
func concurrencyOrDefault(n int) int {
	if n <= 0 {
		return defaultResourceConcurrency
	}
	return n
}

// evalPerResource fans eval out over resources with bounded concurrency and
// returns the findings in input iteration order. Resources outside region
// (when region is non-empty) are skipped. A per-resource eval error is
// logged at warning level and the resource is skipped; one bad resource
// never aborts the rest of the set.
func evalPerResource(
	ctx context.Context,
	log *zap.Logger,
	concurrency int,
	region string,
	resources []models.Resource,
	eval func(ctx context.Context, r models.Resource) ([]models.CheckResult, error),
) []models.CheckResult {
	log = logOrNop(log)

	type slot struct {
		findings []models.CheckResult
	}
	slots := make([]slot, len(resources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrencyOrDefault(concurrency))

	for i, r := range resources {
		if region != "" && r.Region != region {
			continue
		}
		i, r := i, r
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			findings, err := eval(gctx, r)
			if err != nil {
				log.Warn("resource query failed, skipping resource",
					zap.String("resource_id", r.ID),
					zap.String("region", r.Region),
					zap.Error(err))
				return nil
			}
			slots[i].findings = findings
			return nil
		})
	}
	// The only error an eval goroutine returns is context cancellation;
	// partial results gathered before the deadline are still returned.
	_ = g.Wait()

	var out []models.CheckResult
	for i := range slots {
		out = append(out, slots[i].findings...)
	}
	return out
}

// filterByType is the common FilterResources body: keep resources of the
// given type, optionally requiring the active state.
func filterByType(resources []models.Resource, t models.ResourceType, activeOnly bool) []models.Resource {
	var out []models.Resource
	for _, r := range resources {
		if r.Type != t {
			continue
		}
		if activeOnly && !r.IsActive {
			continue
		}
		out = append(out, r)
	}
	return out
}
