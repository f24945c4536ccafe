// Package engine runs the tuning pipeline once: probe resources, classify
// the workload, compute the profile and emit it.
package engine

import (
	"github.com/google/uuid"
	"github.com/jamesainslie/pgautotune/pkg/autotune/config"
	"github.com/jamesainslie/pgautotune/pkg/autotune/logging"
	"github.com/jamesainslie/pgautotune/pkg/autotune/output"
	"github.com/jamesainslie/pgautotune/pkg/autotune/probe"
	"github.com/jamesainslie/pgautotune/pkg/autotune/tuner"
	"github.com/jamesainslie/pgautotune/pkg/autotune/types"
	"github.com/jamesainslie/pgautotune/pkg/autotune/workload"
	"github.com/spf13/afero"
)

// Options holds everything a run needs. The zero value probes the real
// system with default hints.
type Options struct {
	// Skip bypasses every stage.
	Skip bool

	MemoryOverride types.Override
	CPUOverride    types.Override
	Hints          workload.RawHints

	// Fs and Root select the filesystem probed. See probe.Options.
	Fs   afero.Fs
	Root string

	// SystemMemory and NumCPU replace the host lookups. Tests only.
	SystemMemory func() (int64, error)
	NumCPU       func() int

	// RunID identifies the run in diagnostics. Generated when empty.
	RunID string

	// Warnings are problems found before the run, e.g. while loading
	// configuration. They are logged and carried into the result.
	Warnings []string
}

// FromConfig builds run options from loaded configuration.
func FromConfig(cfg *config.Config) Options {
	return Options{
		Skip:           cfg.SkipTuning(),
		MemoryOverride: types.NewOverride(cfg.MemoryMB),
		CPUOverride:    types.NewOverride(cfg.CPUs),
		Hints:          workload.RawHints{Workload: cfg.Workload, Storage: cfg.Storage},
		Root:           cfg.Probe.Root,
		Warnings:       cfg.Warnings,
	}
}

// Run executes the pipeline. It never fails: every problem is recovered
// from, logged, and recorded in the result's warnings.
func Run(opts Options) output.Result {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := logging.Get("engine").With("run", runID)

	// Nothing else may run or log when tuning is skipped.
	if opts.Skip {
		log.Info("tuning skipped")
		return output.Result{RunID: runID, Skipped: true}
	}

	result := output.Result{RunID: runID}
	for _, warning := range opts.Warnings {
		log.Warn(warning)
		result.Warnings = append(result.Warnings, warning)
	}

	prober := newProber(opts, runID)
	result.Readings = prober.ProbeAll()
	result.Warnings = append(result.Warnings, prober.Warnings()...)

	hints, notes := workload.Classify(opts.Hints)
	for _, note := range notes {
		log.Info(note)
	}
	result.Notes = notes

	profile := tuner.Compute(result.Readings, hints)
	for _, warning := range profile.Warnings {
		log.Warn(warning)
	}
	result.Warnings = append(result.Warnings, profile.Warnings...)
	result.Profile = profile

	result.Emission = output.Emit(profile)
	log.Info("tuning profile", "workload", hints.Workload, "storage", hints.Storage,
		"tier", profile.ConnectionTier)
	for _, line := range result.Emission.Lines {
		log.Info(line)
	}

	return result
}

// Probe resolves resource readings only. The skip flag is ignored: this is
// an inspection path, not a server start.
func Probe(opts Options) output.Result {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	prober := newProber(opts, runID)
	result := output.Result{RunID: runID, Readings: prober.ProbeAll()}
	result.Warnings = append(append(result.Warnings, opts.Warnings...), prober.Warnings()...)

	return result
}

func newProber(opts Options, runID string) *probe.Prober {
	return probe.New(probe.Options{
		Fs:             opts.Fs,
		Root:           opts.Root,
		MemoryOverride: opts.MemoryOverride,
		CPUOverride:    opts.CPUOverride,
		SystemMemory:   opts.SystemMemory,
		NumCPU:         opts.NumCPU,
		Logger:         logging.Get("probe").With("run", runID),
	})
}
