package types

// Resource floors and fallbacks shared by the prober and the calculator.
const (
	// MemoryFloorMB is the smallest memory value any stage will work with.
	// Anything lower is sanitized up to it.
	MemoryFloorMB int64 = 256

	// MemoryCeilingMB is the largest memory value any stage will work with
	// (1PiB). Anything higher is sanitized down to it, which keeps every
	// derived value within int64.
	MemoryCeilingMB int64 = 1 << 30

	// FallbackMemoryMB is assumed when every memory source is unavailable.
	FallbackMemoryMB int64 = 512

	// CPUFloor is the smallest CPU count any stage will work with.
	CPUFloor int64 = 1

	// FallbackCPUs is assumed when every CPU source is unavailable.
	FallbackCPUs int64 = 1
)
