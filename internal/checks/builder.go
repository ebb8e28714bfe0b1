package checks

import (
	"go.uber.org/zap"
)

// Thresholds carries per-check tuning from configuration. Zero values mean
// "keep the check's default".
type Thresholds struct {
	IdleCPUPercent          float64 `mapstructure:"idle_cpu_percent"`
	IdleNetworkBytes        float64 `mapstructure:"idle_network_bytes"`
	RightSizePeakPercent    float64 `mapstructure:"rightsize_peak_percent"`
	MinDaysUnattached       int     `mapstructure:"min_days_unattached"`
	SnapshotMaxAgeDays      int     `mapstructure:"snapshot_max_age_days"`
	RIMinUtilizationPercent float64 `mapstructure:"ri_min_utilization_percent"`
	SPTargetCoveragePercent float64 `mapstructure:"sp_target_coverage_percent"`
	DatabaseCPUPercent      float64 `mapstructure:"database_cpu_percent"`
	DatabaseMemoryPercent   float64 `mapstructure:"database_memory_percent"`
}

// BuildParams configures registry construction.
type BuildParams struct {
	Log         *zap.Logger
	Concurrency int
	Thresholds  Thresholds
}

// BuildRegistry constructs the full check catalog, applies threshold
// overrides, and registers every check. The returned registry is complete
// and read-only from the caller's point of view.
func BuildRegistry(p BuildParams) (*Registry, error) {
	log := logOrNop(p.Log)
	t := p.Thresholds

	idle := NewIdleInstanceCheck()
	if t.IdleCPUPercent > 0 {
		idle.CPUThresholdPercent = t.IdleCPUPercent
	}
	if t.IdleNetworkBytes > 0 {
		idle.NetworkThresholdBytes = t.IdleNetworkBytes
	}

	rightSize := NewRightSizingCheck()
	if t.RightSizePeakPercent > 0 {
		rightSize.CPUThresholdPercent = t.RightSizePeakPercent
		rightSize.MemoryThresholdPercent = t.RightSizePeakPercent
	}

	unattached := NewUnattachedVolumeCheck()
	if t.MinDaysUnattached > 0 {
		unattached.MinDaysUnattached = t.MinDaysUnattached
	}

	snapshot := NewOldSnapshotCheck()
	if t.SnapshotMaxAgeDays > 0 {
		snapshot.MaxAgeDays = t.SnapshotMaxAgeDays
	}

	reserved := NewReservedInstanceCheck()
	if t.RIMinUtilizationPercent > 0 {
		reserved.MinUtilizationPercent = t.RIMinUtilizationPercent
	}

	savingsPlan := NewSavingsPlanCheck()
	if t.SPTargetCoveragePercent > 0 {
		savingsPlan.TargetCoveragePercent = t.SPTargetCoveragePercent
	}

	database := NewDatabaseSizingCheck()
	if t.DatabaseCPUPercent > 0 {
		database.CPUThresholdPercent = t.DatabaseCPUPercent
	}
	if t.DatabaseMemoryPercent > 0 {
		database.MemoryThresholdPercent = t.DatabaseMemoryPercent
	}

	storage := NewStorageRedundancyCheck()
	spot := NewSpotInstanceCheck()
	license := NewLicenseCheck()

	idle.Log, idle.Concurrency = log, p.Concurrency
	rightSize.Log, rightSize.Concurrency = log, p.Concurrency
	unattached.Log, unattached.Concurrency = log, p.Concurrency
	snapshot.Log, snapshot.Concurrency = log, p.Concurrency
	reserved.Log = log
	savingsPlan.Log = log
	database.Log, database.Concurrency = log, p.Concurrency
	storage.Log, storage.Concurrency = log, p.Concurrency
	spot.Log, spot.Concurrency = log, p.Concurrency
	license.Log, license.Concurrency = log, p.Concurrency

	reg := NewRegistry()
	all := []Check{
		idle,
		rightSize,
		unattached,
		snapshot,
		reserved,
		savingsPlan,
		database,
		storage,
		spot,
		license,
	}
	for _, c := range all {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
