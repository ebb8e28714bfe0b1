// Package providers defines the boundary between the check engine and the
// cloud adapters that fetch resource and metric data.
package providers

import (
	"context"
	"errors"
	"math"
	"time"

	"costscope/internal/models"
)

// ErrNotSupported is returned by adapters for query methods that have no
// equivalent on their cloud. Checks treat it like any other per-resource
// failure: log, skip, continue.
var ErrNotSupported = errors.New("query not supported by this provider")

// MetricSet is a mapping of named metrics returned by a provider query.
// Absent keys must be read through the typed accessors below, which default
// to the worst case so that missing data never produces a false positive
// (e.g. an instance with no CPU datapoints reads as 100% busy).
type MetricSet map[string]any

// Float returns the metric under key as a float64, or fallback when the key
// is absent or not numeric.
func (m MetricSet) Float(key string, fallback float64) float64 {
	v, ok := m[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return fallback
	}
}

// Bool returns the metric under key as a bool, or fallback when absent.
func (m MetricSet) Bool(key string, fallback bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return fallback
}

// String returns the metric under key as a string, or fallback when absent.
func (m MetricSet) String(key, fallback string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return fallback
}

// Time returns the metric under key as a time.Time. RFC 3339 strings are
// parsed; anything else yields the zero time and ok == false.
func (m MetricSet) Time(key string) (time.Time, bool) {
	switch v := m[key].(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}

// Sets returns the metric under key as a slice of MetricSet, or nil.
func (m MetricSet) Sets(key string) []MetricSet {
	switch v := m[key].(type) {
	case []MetricSet:
		return v
	case []any:
		out := make([]MetricSet, 0, len(v))
		for _, e := range v {
			if ms, ok := e.(map[string]any); ok {
				out = append(out, MetricSet(ms))
			}
		}
		return out
	default:
		return nil
	}
}

// WorstCaseUtilization is the default for absent utilization metrics.
const WorstCaseUtilization = 100.0

// WorstCaseTraffic is the default for absent traffic metrics: effectively
// infinite, so idle heuristics never fire on missing data.
var WorstCaseTraffic = math.Inf(1)

// Provider is the asynchronous query interface every cloud adapter
// implements. Each method returns a MetricSet (or a slice of them); checks
// read missing keys through the default-to-safe accessors.
//
// Adapters must honor ctx cancellation on every call.
type Provider interface {
	// Name identifies the cloud this adapter talks to.
	Name() models.Provider

	// DiscoverResources returns the resource inventory for one region, or
	// for all regions when region is empty.
	DiscoverResources(ctx context.Context, region string) ([]models.Resource, error)

	// GetInstanceMetrics returns utilization metrics for a compute instance
	// over the trailing window: avg_cpu_percent, max_cpu_percent,
	// avg_memory_percent, max_memory_percent, avg_network_bytes.
	GetInstanceMetrics(ctx context.Context, resourceID, region string, days int) (MetricSet, error)

	// GetVolumeInfo returns attachment data for a volume: attached,
	// detached_at, size_gb, volume_type.
	GetVolumeInfo(ctx context.Context, resourceID, region string) (MetricSet, error)

	// GetSnapshotInfo returns snapshot metadata: created_at, size_gb,
	// volume_id, is_ami_snapshot, has_backup_policy.
	GetSnapshotInfo(ctx context.Context, resourceID, region string) (MetricSet, error)

	// GetDatabaseMetrics returns database utilization over the trailing
	// window: avg_cpu_percent, max_cpu_percent, avg_memory_percent,
	// max_memory_percent.
	GetDatabaseMetrics(ctx context.Context, resourceID, region string, days int) (MetricSet, error)

	// GetDatabaseInfo returns database instance metadata: instance_type,
	// engine, multi_az.
	GetDatabaseInfo(ctx context.Context, resourceID, region string) (MetricSet, error)

	// GetDatabaseSizingRecommendations returns candidate smaller instance
	// classes for a database, best first: instance_type, monthly_cost.
	GetDatabaseSizingRecommendations(ctx context.Context, resourceID, region string, metrics MetricSet) ([]MetricSet, error)

	// GetStorageInfo returns storage account/bucket metadata: redundancy,
	// access_tier, total_size_gb, last_access_time.
	GetStorageInfo(ctx context.Context, resourceID, region string) (MetricSet, error)

	// GetReservedInstancesUtilization returns account-level RI utilization:
	// underutilized (list of reservations with utilization_percentage,
	// monthly_cost, instance_type, instance_count, region).
	GetReservedInstancesUtilization(ctx context.Context, region string) (MetricSet, error)

	// GetSavingsPlansCoverage returns account-level coverage data:
	// coverage_percentage, total_compute_spend, covered_spend,
	// expiring_plans (list with plan_id, plan_type, days_until_expiry,
	// monthly_commitment).
	GetSavingsPlansCoverage(ctx context.Context, region string) (MetricSet, error)

	// GetOnDemandRIOpportunities returns purchase opportunities for steady
	// on-demand workloads: instance_type, instance_count, region,
	// on_demand_monthly_cost, estimated_monthly_savings, savings_percentage.
	GetOnDemandRIOpportunities(ctx context.Context, resources []models.Resource, region string) ([]MetricSet, error)
}
