package engine

import (
	"context"

	"costscope/internal/models"
)

// Options configures a single analysis run.
// It is the sole input to Engine.Run.
type Options struct {
	// Regions restricts the analysis to explicit regions. When empty the
	// provider's home region (or subscription-wide inventory) is used.
	Regions []string

	// CheckNames selects specific checks by registry name. Takes precedence
	// over CheckTypes.
	CheckNames []string

	// CheckTypes selects all checks of the given finding categories.
	CheckTypes []models.CheckType

	// DaysBack is the lookback window in days for metric queries.
	// Defaults to 30 when zero.
	DaysBack int
}

// Engine is the central orchestration interface. It coordinates resource
// discovery, check execution, and report assembly.
//
// Engine must not call cloud SDKs directly; it delegates to the provider
// and check interfaces.
type Engine interface {
	Run(ctx context.Context, opts Options) (*models.AnalysisReport, error)
}
