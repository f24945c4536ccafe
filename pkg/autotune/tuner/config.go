package tuner

// Memory setting bounds, in MB.
const (
	// sharedBuffersFraction is the share of memory given to shared_buffers.
	sharedBuffersFraction = 4 // R / 4

	// SharedBuffersFloorMB is the smallest shared_buffers value emitted.
	SharedBuffersFloorMB = 32

	// SharedBuffersCeilingMB caps shared_buffers regardless of memory.
	SharedBuffersCeilingMB = 8192

	minWorkMemMB = 1
	maxWorkMemMB = 256

	minMaintenanceWorkMemMB = 1
	maxMaintenanceWorkMemMB = 2048

	// walBuffersPercent of shared_buffers goes to wal_buffers.
	walBuffersPercent = 3
	minWalBuffersMB   = 1
	maxWalBuffersMB   = 16

	// effectiveCacheCeilingPercent of memory bounds effective_cache_size.
	effectiveCacheCeilingPercent = 75
)

// Worker limits.
const (
	minWorkerProcesses = 8
	maxWorkerProcesses = 64

	minParallelWorkers = 1
	maxParallelWorkers = 64

	minParallelPerGather = 1

	minParallelMaintenanceWorkers = 1
	maxParallelMaintenanceWorkers = 4
)

// CheckpointCompletionTarget spreads checkpoint writes over most of the
// checkpoint interval.
const CheckpointCompletionTarget = 0.9

// workMemTier maps a memory ceiling to a base work_mem value.
type workMemTier struct {
	belowMB int64
	workMem int64
}

// workMemTiers are lower-bound inclusive: R selects the first tier with
// R < belowMB. The final tier has no upper bound.
var workMemTiers = []workMemTier{
	{belowMB: 1024, workMem: 1},
	{belowMB: 4096, workMem: 4},
	{belowMB: 16384, workMem: 16},
	{belowMB: 65536, workMem: 32},
	{belowMB: 0, workMem: 64},
}

// ConnectionTier is a memory bucket with its allowed connection range.
type ConnectionTier struct {
	Name    string
	BelowMB int64 // 0 means unbounded
	Min     int64
	Default int64
	Max     int64
}

// ConnectionTiers are lower-bound inclusive, like workMemTiers.
var ConnectionTiers = []ConnectionTier{
	{Name: "small", BelowMB: 2048, Min: 20, Default: 50, Max: 100},
	{Name: "medium", BelowMB: 16384, Min: 50, Default: 100, Max: 200},
	{Name: "large", BelowMB: 0, Min: 100, Default: 200, Max: 400},
}
