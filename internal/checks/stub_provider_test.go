package checks

import (
	"context"
	"sync/atomic"

	"costscope/internal/models"
	"costscope/internal/providers"
)

// stubProvider is a canned-response provider for check tests. Response maps
// are keyed by resource ID; error maps inject per-resource failures. The
// calls counter records every query so tests can assert a check made no
// provider calls at all.
type stubProvider struct {
	name models.Provider

	discovered  []models.Resource
	discoverErr error

	instanceMetrics    map[string]providers.MetricSet
	instanceMetricsErr map[string]error
	volumeInfo         map[string]providers.MetricSet
	volumeInfoErr      map[string]error
	snapshotInfo       map[string]providers.MetricSet
	dbMetrics          map[string]providers.MetricSet
	dbInfo             map[string]providers.MetricSet
	dbRecommendations  map[string][]providers.MetricSet
	storageInfo        map[string]providers.MetricSet

	riUtilization  providers.MetricSet
	riErr          error
	spCoverage     providers.MetricSet
	spErr          error
	opportunities  []providers.MetricSet
	opportunityErr error

	calls atomic.Int64
}

func (s *stubProvider) Name() models.Provider {
	if s.name == "" {
		return models.ProviderAWS
	}
	return s.name
}

func (s *stubProvider) DiscoverResources(ctx context.Context, region string) ([]models.Resource, error) {
	s.calls.Add(1)
	return s.discovered, s.discoverErr
}

func (s *stubProvider) GetInstanceMetrics(ctx context.Context, resourceID, region string, days int) (providers.MetricSet, error) {
	s.calls.Add(1)
	if err := s.instanceMetricsErr[resourceID]; err != nil {
		return nil, err
	}
	return s.instanceMetrics[resourceID], nil
}

func (s *stubProvider) GetVolumeInfo(ctx context.Context, resourceID, region string) (providers.MetricSet, error) {
	s.calls.Add(1)
	if err := s.volumeInfoErr[resourceID]; err != nil {
		return nil, err
	}
	return s.volumeInfo[resourceID], nil
}

func (s *stubProvider) GetSnapshotInfo(ctx context.Context, resourceID, region string) (providers.MetricSet, error) {
	s.calls.Add(1)
	return s.snapshotInfo[resourceID], nil
}

func (s *stubProvider) GetDatabaseMetrics(ctx context.Context, resourceID, region string, days int) (providers.MetricSet, error) {
	s.calls.Add(1)
	return s.dbMetrics[resourceID], nil
}

func (s *stubProvider) GetDatabaseInfo(ctx context.Context, resourceID, region string) (providers.MetricSet, error) {
	s.calls.Add(1)
	return s.dbInfo[resourceID], nil
}

func (s *stubProvider) GetDatabaseSizingRecommendations(ctx context.Context, resourceID, region string, metrics providers.MetricSet) ([]providers.MetricSet, error) {
	s.calls.Add(1)
	return s.dbRecommendations[resourceID], nil
}

func (s *stubProvider) GetStorageInfo(ctx context.Context, resourceID, region string) (providers.MetricSet, error) {
	s.calls.Add(1)
	return s.storageInfo[resourceID], nil
}

func (s *stubProvider) GetReservedInstancesUtilization(ctx context.Context, region string) (providers.MetricSet, error) {
	s.calls.Add(1)
	return s.riUtilization, s.riErr
}

func (s *stubProvider) GetSavingsPlansCoverage(ctx context.Context, region string) (providers.MetricSet, error) {
	s.calls.Add(1)
	return s.spCoverage, s.spErr
}

func (s *stubProvider) GetOnDemandRIOpportunities(ctx context.Context, resources []models.Resource, region string) ([]providers.MetricSet, error) {
	s.calls.Add(1)
	return s.opportunities, s.opportunityErr
}
