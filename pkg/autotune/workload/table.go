package workload

import "github.com/jamesainslie/pgautotune/pkg/autotune/types"

// ConnectionPick selects a value from a connection tier.
type ConnectionPick int

const (
	// PickDefault uses the tier's default connection count.
	PickDefault ConnectionPick = iota
	// PickMin favours fewer, heavier sessions.
	PickMin
	// PickMax favours many short sessions.
	PickMax
)

// String returns the pick name.
func (p ConnectionPick) String() string {
	switch p {
	case PickMin:
		return "min"
	case PickMax:
		return "max"
	default:
		return "default"
	}
}

// Table holds the workload- and storage-dependent inputs to the calculator.
type Table struct {
	// WorkMemMultiplier scales the memory-tier work_mem value.
	WorkMemMultiplier int64

	// MaintenanceRatio is maintenance_work_mem as a fraction of shared_buffers.
	MaintenanceRatio float64

	// Connections picks from the memory tier's connection range.
	Connections ConnectionPick

	MinWalSizeMB int64
	MaxWalSizeMB int64

	DefaultStatisticsTarget int64

	// PerGatherCap bounds max_parallel_workers_per_gather.
	PerGatherCap int64

	RandomPageCost         float64
	EffectiveIOConcurrency int64
}

type workloadRow struct {
	workMemMultiplier int64
	maintenanceRatio  float64
	connections       ConnectionPick
	minWalSizeMB      int64
	maxWalSizeMB      int64
	statisticsTarget  int64
	perGatherCap      int64
}

var workloadTable = map[types.WorkloadType]workloadRow{
	types.WorkloadMixed:      {1, 0.25, PickDefault, 1024, 4096, 100, 4},
	types.WorkloadWeb:        {1, 0.25, PickMax, 1024, 4096, 100, 4},
	types.WorkloadOLTP:       {1, 0.25, PickMax, 2048, 8192, 100, 4},
	types.WorkloadAnalytical: {4, 0.5, PickMin, 4096, 16384, 500, 8},
}

type storageRow struct {
	randomPageCost         float64
	effectiveIOConcurrency int64
}

var storageTable = map[types.StorageType]storageRow{
	types.StorageSSD:     {1.1, 200},
	types.StorageHDD:     {4.0, 2},
	types.StorageNetwork: {2.0, 300},
}

// Multipliers returns the tuning table for hints. Values outside the known
// sets use the mixed and ssd rows.
func Multipliers(hints types.WorkloadHints) Table {
	w, ok := workloadTable[hints.Workload]
	if !ok {
		w = workloadTable[types.WorkloadMixed]
	}
	s, ok := storageTable[hints.Storage]
	if !ok {
		s = storageTable[types.StorageSSD]
	}

	return Table{
		WorkMemMultiplier:       w.workMemMultiplier,
		MaintenanceRatio:        w.maintenanceRatio,
		Connections:             w.connections,
		MinWalSizeMB:            w.minWalSizeMB,
		MaxWalSizeMB:            w.maxWalSizeMB,
		DefaultStatisticsTarget: w.statisticsTarget,
		PerGatherCap:            w.perGatherCap,
		RandomPageCost:          s.randomPageCost,
		EffectiveIOConcurrency:  s.effectiveIOConcurrency,
	}
}
