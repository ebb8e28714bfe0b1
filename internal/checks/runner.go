package checks

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"costscope/internal/models"
	"costscope/internal/providers"
)

// Runner orchestrates applicability filtering and execution of one or many
// checks against a resource set. It holds no per-run state and is safe for
// concurrent use.
type Runner struct {
	log *zap.Logger
}

// NewRunner returns a Runner logging through log (nil means no logging).
func NewRunner(log *zap.Logger) *Runner {
	return &Runner{log: logOrNop(log)}
}

// RunCheck executes one check against the resource set. It returns nil
// without any provider call when the provider's identity is not in the
// check's supported set, or when the check's own filter yields no
// candidates. Otherwise it delegates to the check's Run.
func (r *Runner) RunCheck(
	ctx context.Context,
	provider providers.Provider,
	check Check,
	resources []models.Resource,
	region string,
) ([]models.CheckResult, error) {
	if !slices.Contains(check.SupportedProviders(), provider.Name()) {
		return nil, nil
	}
	filtered := check.FilterResources(resources)
	if len(filtered) == 0 {
		return nil, nil
	}
	return check.Run(ctx, provider, filtered, region)
}

// RunChecks executes each check via RunCheck and concatenates findings in
// check-list order. A check whose Run fails systemically is recorded as a
// structured failure and does not abort the remaining checks; findings
// already gathered are kept. When ctx is done the remaining checks are not
// started and the partial results are returned.
func (r *Runner) RunChecks(
	ctx context.Context,
	provider providers.Provider,
	checks []Check,
	resources []models.Resource,
	region string,
) ([]models.CheckResult, []models.CheckFailureRecord) {
	var (
		findings []models.CheckResult
		failures []models.CheckFailureRecord
	)
	for _, check := range checks {
		if ctx.Err() != nil {
			break
		}
		results, err := r.RunCheck(ctx, provider, check, resources, region)
		if err != nil {
			r.log.Error("check failed",
				zap.String("check", check.Name()),
				zap.String("check_type", string(check.Type())),
				zap.Error(err))
			failures = append(failures, models.CheckFailureRecord{
				CheckName: check.Name(),
				CheckType: check.Type(),
				Message:   err.Error(),
			})
			continue
		}
		findings = append(findings, results...)
	}
	return findings, failures
}
