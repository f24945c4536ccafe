// Package types provides the core data types shared by every stage of the
// pgautotune pipeline: resource readings and their provenance, operator
// workload hints, and the resolved tuning profile handed to the server.
package types

import (
	"fmt"
	"strconv"
)

// ResourceKind identifies a probed resource.
type ResourceKind string

// Resource kinds.
const (
	KindMemory ResourceKind = "memory"
	KindCPU    ResourceKind = "cpu"
)

// Source records where a resource value came from.
type Source string

// Sources in precedence order, highest first.
const (
	SourceOverride       Source = "manual-override"
	SourceContainedLimit Source = "contained-limit"
	SourceWholeSystem    Source = "whole-system"
	SourceFallback       Source = "fallback-default"
)

// ResourceReading is one resource's resolved value plus its provenance.
// Exactly one reading exists per kind per run.
type ResourceReading struct {
	// Kind is the resource this reading describes.
	Kind ResourceKind `json:"kind" yaml:"kind"`

	// Value is megabytes for memory and a count for cpu.
	Value int64 `json:"value" yaml:"value"`

	// Source is the signal the value was taken from. Always set.
	Source Source `json:"source" yaml:"source"`

	// Detail names the concrete file, variable or syscall consulted.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// String returns the reading as the operator sees it in logs.
func (r ResourceReading) String() string {
	if r.Kind == KindMemory {
		return fmt.Sprintf("memory=%dMB source=%s", r.Value, r.Source)
	}
	return fmt.Sprintf("%s=%d source=%s", r.Kind, r.Value, r.Source)
}

// FindReading returns the first reading of the given kind.
func FindReading(readings []ResourceReading, kind ResourceKind) (ResourceReading, bool) {
	for _, r := range readings {
		if r.Kind == kind {
			return r, true
		}
	}
	return ResourceReading{}, false
}

// Override is an operator instruction that short-circuits probing for one
// resource. Raw is kept unparsed so the prober can report malformed values.
type Override struct {
	Raw     string
	Present bool
}

// NewOverride builds an Override from a raw configuration value.
// An empty string means no override.
func NewOverride(raw string) Override {
	return Override{Raw: raw, Present: raw != ""}
}

// WorkloadType is the operator-declared workload category.
type WorkloadType string

// Workload categories.
const (
	WorkloadMixed      WorkloadType = "mixed"
	WorkloadWeb        WorkloadType = "web"
	WorkloadOLTP       WorkloadType = "oltp"
	WorkloadAnalytical WorkloadType = "analytical"
)

// StorageType is the operator-declared storage medium.
type StorageType string

// Storage media.
const (
	StorageSSD     StorageType = "ssd"
	StorageHDD     StorageType = "hdd"
	StorageNetwork StorageType = "network-attached"
)

// WorkloadHints is the classified operator intent. It is immutable once
// produced by the classifier.
type WorkloadHints struct {
	Workload WorkloadType `json:"workload" yaml:"workload"`
	Storage  StorageType  `json:"storage" yaml:"storage"`
}

// DefaultHints returns the hints used when the operator declares nothing.
func DefaultHints() WorkloadHints {
	return WorkloadHints{Workload: WorkloadMixed, Storage: StorageSSD}
}

// Unit describes how a setting value is rendered for the server.
type Unit string

// Setting units.
const (
	UnitMB    Unit = "MB"
	UnitCount Unit = ""
	UnitRatio Unit = "ratio"
)

// Setting is one named server parameter with its final value.
type Setting struct {
	// Name is the server parameter name, e.g. "shared_buffers".
	Name string `json:"name" yaml:"name"`

	// Value is the rendered value, e.g. "1024MB" or "1.1".
	Value string `json:"value" yaml:"value"`

	// Unit is the unit Value was rendered in.
	Unit Unit `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// TuningProfile is the calculator's sole output: a closed set of resolved
// settings. Every field holds a concrete value. It is never mutated after
// construction.
type TuningProfile struct {
	// Inputs the profile was derived from.
	MemoryMB int64         `json:"memory_mb" yaml:"memory_mb"`
	CPUs     int64         `json:"cpus" yaml:"cpus"`
	Hints    WorkloadHints `json:"hints" yaml:"hints"`

	// ConnectionTier is the name of the memory tier max_connections came from.
	ConnectionTier string `json:"connection_tier" yaml:"connection_tier"`

	SharedBuffersMB      int64 `json:"shared_buffers_mb" yaml:"shared_buffers_mb"`
	EffectiveCacheSizeMB int64 `json:"effective_cache_size_mb" yaml:"effective_cache_size_mb"`
	MaintenanceWorkMemMB int64 `json:"maintenance_work_mem_mb" yaml:"maintenance_work_mem_mb"`
	WorkMemMB            int64 `json:"work_mem_mb" yaml:"work_mem_mb"`
	WalBuffersMB         int64 `json:"wal_buffers_mb" yaml:"wal_buffers_mb"`
	MinWalSizeMB         int64 `json:"min_wal_size_mb" yaml:"min_wal_size_mb"`
	MaxWalSizeMB         int64 `json:"max_wal_size_mb" yaml:"max_wal_size_mb"`

	CheckpointCompletionTarget float64 `json:"checkpoint_completion_target" yaml:"checkpoint_completion_target"`
	RandomPageCost             float64 `json:"random_page_cost" yaml:"random_page_cost"`
	EffectiveIOConcurrency     int64   `json:"effective_io_concurrency" yaml:"effective_io_concurrency"`
	DefaultStatisticsTarget    int64   `json:"default_statistics_target" yaml:"default_statistics_target"`

	MaxConnections                int64 `json:"max_connections" yaml:"max_connections"`
	MaxWorkerProcesses            int64 `json:"max_worker_processes" yaml:"max_worker_processes"`
	MaxParallelWorkers            int64 `json:"max_parallel_workers" yaml:"max_parallel_workers"`
	MaxParallelWorkersPerGather   int64 `json:"max_parallel_workers_per_gather" yaml:"max_parallel_workers_per_gather"`
	MaxParallelMaintenanceWorkers int64 `json:"max_parallel_maintenance_workers" yaml:"max_parallel_maintenance_workers"`

	// Warnings lists input sanitizations applied before the formulas ran.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Settings returns every server setting in the profile, in a fixed order.
// The order is part of the output contract: identical profiles always
// produce identical argument lists.
func (p TuningProfile) Settings() []Setting {
	return []Setting{
		mb("shared_buffers", p.SharedBuffersMB),
		mb("effective_cache_size", p.EffectiveCacheSizeMB),
		mb("maintenance_work_mem", p.MaintenanceWorkMemMB),
		mb("work_mem", p.WorkMemMB),
		mb("wal_buffers", p.WalBuffersMB),
		mb("min_wal_size", p.MinWalSizeMB),
		mb("max_wal_size", p.MaxWalSizeMB),
		ratio("checkpoint_completion_target", p.CheckpointCompletionTarget),
		ratio("random_page_cost", p.RandomPageCost),
		count("effective_io_concurrency", p.EffectiveIOConcurrency),
		count("default_statistics_target", p.DefaultStatisticsTarget),
		count("max_connections", p.MaxConnections),
		count("max_worker_processes", p.MaxWorkerProcesses),
		count("max_parallel_workers", p.MaxParallelWorkers),
		count("max_parallel_workers_per_gather", p.MaxParallelWorkersPerGather),
		count("max_parallel_maintenance_workers", p.MaxParallelMaintenanceWorkers),
	}
}

func mb(name string, v int64) Setting {
	return Setting{Name: name, Value: strconv.FormatInt(v, 10) + "MB", Unit: UnitMB}
}

func count(name string, v int64) Setting {
	return Setting{Name: name, Value: strconv.FormatInt(v, 10), Unit: UnitCount}
}

func ratio(name string, v float64) Setting {
	return Setting{Name: name, Value: strconv.FormatFloat(v, 'f', -1, 64), Unit: UnitRatio}
}
