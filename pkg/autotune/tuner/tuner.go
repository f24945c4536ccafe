// Package tuner derives a complete PostgreSQL tuning profile from resource
// readings and workload hints. Every function here is pure and total.
package tuner

import (
	"fmt"

	"github.com/jamesainslie/pgautotune/pkg/autotune/types"
	"github.com/jamesainslie/pgautotune/pkg/autotune/workload"
)

// Clamp bounds value to [floor, ceiling]. If the bounds cross, ceiling wins.
func Clamp(value, floor, ceiling int64) int64 {
	if value < floor {
		value = floor
	}
	if value > ceiling {
		value = ceiling
	}
	return value
}

// Compute returns the tuning profile for readings and hints. It never fails:
// missing or out-of-range readings are sanitized and each sanitization is
// recorded in the profile's Warnings.
//
// The calculation logic:
//   - shared_buffers: 25% of memory, 32MB..8192MB
//   - effective_cache_size: memory left after shared_buffers, at least
//     2x shared_buffers, at most 75% of memory
//   - work_mem: memory tier value times the workload multiplier
//   - max_connections: memory tier range, picked by workload
//   - parallel workers follow CPU count
func Compute(readings []types.ResourceReading, hints types.WorkloadHints) types.TuningProfile {
	memoryMB, cpus, warnings := sanitize(readings)
	table := workload.Multipliers(hints)

	sharedBuffers := Clamp(memoryMB/sharedBuffersFraction, SharedBuffersFloorMB, SharedBuffersCeilingMB)

	effectiveCache := Clamp(memoryMB-sharedBuffers,
		2*sharedBuffers,
		memoryMB*effectiveCacheCeilingPercent/100)

	workMem := Clamp(workMemFor(memoryMB)*table.WorkMemMultiplier, minWorkMemMB, maxWorkMemMB)

	maintenance := Clamp(int64(float64(sharedBuffers)*table.MaintenanceRatio),
		minMaintenanceWorkMemMB, maxMaintenanceWorkMemMB)

	walBuffers := Clamp(sharedBuffers*walBuffersPercent/100, minWalBuffersMB, maxWalBuffersMB)

	tier := TierFor(memoryMB)
	connections := Clamp(tier.pick(table.Connections), tier.Min, tier.Max)

	halfCPUs := cpus/2 + cpus%2

	return types.TuningProfile{
		MemoryMB:       memoryMB,
		CPUs:           cpus,
		Hints:          hints,
		ConnectionTier: tier.Name,

		SharedBuffersMB:      sharedBuffers,
		EffectiveCacheSizeMB: effectiveCache,
		MaintenanceWorkMemMB: maintenance,
		WorkMemMB:            workMem,
		WalBuffersMB:         walBuffers,
		MinWalSizeMB:         table.MinWalSizeMB,
		MaxWalSizeMB:         table.MaxWalSizeMB,

		CheckpointCompletionTarget: CheckpointCompletionTarget,
		RandomPageCost:             table.RandomPageCost,
		EffectiveIOConcurrency:     table.EffectiveIOConcurrency,
		DefaultStatisticsTarget:    table.DefaultStatisticsTarget,

		MaxConnections:                connections,
		MaxWorkerProcesses:            Clamp(cpus, minWorkerProcesses, maxWorkerProcesses),
		MaxParallelWorkers:            Clamp(cpus, minParallelWorkers, maxParallelWorkers),
		MaxParallelWorkersPerGather:   Clamp(halfCPUs, minParallelPerGather, table.PerGatherCap),
		MaxParallelMaintenanceWorkers: Clamp(halfCPUs, minParallelMaintenanceWorkers, maxParallelMaintenanceWorkers),

		Warnings: warnings,
	}
}

// sanitize extracts memory and CPU from readings, applying floors, the
// memory ceiling and fallbacks.
func sanitize(readings []types.ResourceReading) (memoryMB, cpus int64, warnings []string) {
	mem, ok := types.FindReading(readings, types.KindMemory)
	switch {
	case !ok:
		memoryMB = types.FallbackMemoryMB
		warnings = append(warnings, fmt.Sprintf("no memory reading, assuming %dMB", memoryMB))
	case mem.Value < types.MemoryFloorMB:
		memoryMB = types.MemoryFloorMB
		warnings = append(warnings, fmt.Sprintf("memory %dMB is below the %dMB floor, using %dMB",
			mem.Value, types.MemoryFloorMB, memoryMB))
	case mem.Value > types.MemoryCeilingMB:
		memoryMB = types.MemoryCeilingMB
		warnings = append(warnings, fmt.Sprintf("memory %dMB is above the %dMB ceiling, using %dMB",
			mem.Value, types.MemoryCeilingMB, memoryMB))
	default:
		memoryMB = mem.Value
	}

	cpu, ok := types.FindReading(readings, types.KindCPU)
	switch {
	case !ok:
		cpus = types.FallbackCPUs
		warnings = append(warnings, fmt.Sprintf("no cpu reading, assuming %d", cpus))
	case cpu.Value < types.CPUFloor:
		cpus = types.CPUFloor
		warnings = append(warnings, fmt.Sprintf("cpu count %d is below %d, using %d",
			cpu.Value, types.CPUFloor, cpus))
	default:
		cpus = cpu.Value
	}

	return memoryMB, cpus, warnings
}

func workMemFor(memoryMB int64) int64 {
	for _, tier := range workMemTiers {
		if tier.belowMB == 0 || memoryMB < tier.belowMB {
			return tier.workMem
		}
	}
	return workMemTiers[len(workMemTiers)-1].workMem
}

// TierFor returns the connection tier for a memory ceiling.
func TierFor(memoryMB int64) ConnectionTier {
	for _, tier := range ConnectionTiers {
		if tier.BelowMB == 0 || memoryMB < tier.BelowMB {
			return tier
		}
	}
	return ConnectionTiers[len(ConnectionTiers)-1]
}

func (t ConnectionTier) pick(p workload.ConnectionPick) int64 {
	switch p {
	case workload.PickMin:
		return t.Min
	case workload.PickMax:
		return t.Max
	default:
		return t.Default
	}
}
