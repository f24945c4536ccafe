// Package probe determines how much memory and CPU the database server may
// use, preferring an explicit override, then a container limit, then the
// host totals, then a fixed fallback.
package probe

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/jamesainslie/pgautotune/pkg/autotune/logging"
	"github.com/jamesainslie/pgautotune/pkg/autotune/types"
	"github.com/spf13/afero"
)

var logger = logging.Get("probe")

// Options configures a Prober.
type Options struct {
	// Fs is the filesystem probed for cgroup and /proc files. When nil, a
	// read-only view of the OS filesystem rooted at Root is used.
	Fs afero.Fs

	// Root is prefixed to every probed path when Fs is nil.
	Root string

	MemoryOverride types.Override
	CPUOverride    types.Override

	// SystemMemory reports host memory in bytes when /proc/meminfo is not
	// readable. Defaults to the platform syscall.
	SystemMemory func() (int64, error)

	// NumCPU reports the host CPU count. Defaults to runtime.NumCPU.
	NumCPU func() int

	// Logger receives one line per resolved resource. Defaults to the
	// package logger.
	Logger *logging.Logger
}

// Prober resolves resource readings. It is safe to reuse but not to share
// across goroutines while Options are being changed.
type Prober struct {
	fs             afero.Fs
	memoryOverride types.Override
	cpuOverride    types.Override
	systemMemory   func() (int64, error)
	numCPU         func() int
	log            *logging.Logger

	// warnings collects operator-facing problems, e.g. a malformed override.
	warnings []string
}

// New creates a Prober from opts.
func New(opts Options) *Prober {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
		if opts.Root != "" && opts.Root != "/" {
			fs = afero.NewBasePathFs(fs, opts.Root)
		}
		fs = afero.NewReadOnlyFs(fs)
	}

	p := &Prober{
		fs:             fs,
		memoryOverride: opts.MemoryOverride,
		cpuOverride:    opts.CPUOverride,
		systemMemory:   opts.SystemMemory,
		numCPU:         opts.NumCPU,
		log:            opts.Logger,
	}
	if p.systemMemory == nil {
		p.systemMemory = platformMemory
	}
	if p.numCPU == nil {
		p.numCPU = runtime.NumCPU
	}
	if p.log == nil {
		p.log = logger
	}

	return p
}

// Probe returns exactly one reading for kind. It never fails: when every
// source is unavailable the reading carries the fallback value. An unknown
// kind yields a zero fallback reading.
func (p *Prober) Probe(kind types.ResourceKind) types.ResourceReading {
	var r types.ResourceReading
	switch kind {
	case types.KindMemory:
		r = p.probeMemory()
	case types.KindCPU:
		r = p.probeCPU()
	default:
		p.log.Error("unknown resource kind", "kind", kind)
		return types.ResourceReading{Kind: kind, Source: types.SourceFallback, Detail: "unknown resource kind"}
	}

	if r.Kind == types.KindMemory {
		p.log.Print("resolved resource", "kind", r.Kind, "value", fmt.Sprintf("%dMB", r.Value),
			"human", types.FormatMB(r.Value), "source", r.Source, "detail", r.Detail)
	} else {
		p.log.Print("resolved resource", "kind", r.Kind, "value", r.Value,
			"source", r.Source, "detail", r.Detail)
	}
	return r
}

// ProbeAll returns a memory reading followed by a CPU reading.
func (p *Prober) ProbeAll() []types.ResourceReading {
	return []types.ResourceReading{
		p.Probe(types.KindMemory),
		p.Probe(types.KindCPU),
	}
}

// Warnings returns the problems recorded by earlier Probe calls.
func (p *Prober) Warnings() []string {
	return p.warnings
}

func (p *Prober) warn(msg string, args ...interface{}) {
	p.warnings = append(p.warnings, fmt.Sprintf(msg, args...))
	p.log.Warn(fmt.Sprintf(msg, args...))
}

func (p *Prober) probeMemory() types.ResourceReading {
	reading := func(value int64, source types.Source, detail string) types.ResourceReading {
		return types.ResourceReading{Kind: types.KindMemory, Value: value, Source: source, Detail: detail}
	}

	if r, ok := p.memoryFromOverride(); ok {
		return r
	}

	hostMB, hostDetail, hostErr := p.hostMemoryMB()
	if hostErr != nil {
		p.log.Debug("host memory unavailable", "error", hostErr)
	}

	limit, file, err := containedMemory(p.fs)
	switch {
	case err != nil:
		p.log.Debug("no contained memory limit", "reason", err)
	case hostErr == nil && types.BytesToMB(limit) > hostMB:
		p.log.Debug("contained memory limit exceeds host memory, ignoring",
			"limit", types.FormatMB(types.BytesToMB(limit)), "host", types.FormatMB(hostMB))
	default:
		mb := types.BytesToMB(limit)
		if mb <= 0 {
			p.log.Debug("contained memory limit below 1MB, ignoring", "bytes", limit)
			break
		}
		return reading(mb, types.SourceContainedLimit, file)
	}

	if hostErr == nil {
		return reading(hostMB, types.SourceWholeSystem, hostDetail)
	}

	return reading(types.FallbackMemoryMB, types.SourceFallback, "no memory source available")
}

// memoryFromOverride interprets the memory override. A negative or zero value
// is sanitized to the floor and a value beyond int64 to the ceiling. A value that does not parse is reported and
// treated as absent so probing continues.
func (p *Prober) memoryFromOverride() (types.ResourceReading, bool) {
	if !p.memoryOverride.Present {
		return types.ResourceReading{}, false
	}

	raw := p.memoryOverride.Raw
	mb, err := types.ParseMemoryMB(raw)
	switch {
	case errors.Is(err, types.ErrNegativeSize), err == nil && mb <= 0:
		p.warn("memory override %q is not positive, using %dMB", raw, types.MemoryFloorMB)
		return types.ResourceReading{
			Kind:   types.KindMemory,
			Value:  types.MemoryFloorMB,
			Source: types.SourceOverride,
			Detail: fmt.Sprintf("sanitized from %q", raw),
		}, true
	case errors.Is(err, types.ErrSizeOutOfRange):
		p.warn("memory override %q is out of range, using %dMB", raw, types.MemoryCeilingMB)
		return types.ResourceReading{
			Kind:   types.KindMemory,
			Value:  types.MemoryCeilingMB,
			Source: types.SourceOverride,
			Detail: fmt.Sprintf("sanitized from %q", raw),
		}, true
	case err != nil:
		p.warn("ignoring malformed memory override %q", raw)
		return types.ResourceReading{}, false
	}

	return types.ResourceReading{
		Kind:   types.KindMemory,
		Value:  mb,
		Source: types.SourceOverride,
		Detail: fmt.Sprintf("override %q", raw),
	}, true
}

func (p *Prober) probeCPU() types.ResourceReading {
	reading := func(value int64, source types.Source, detail string) types.ResourceReading {
		return types.ResourceReading{Kind: types.KindCPU, Value: value, Source: source, Detail: detail}
	}

	if p.cpuOverride.Present {
		raw := p.cpuOverride.Raw
		cpus, err := types.ParseCPUs(raw)
		switch {
		case err != nil && !errors.Is(err, types.ErrNegativeSize):
			p.warn("ignoring malformed cpu override %q", raw)
		case err != nil, cpus < types.CPUFloor:
			p.warn("cpu override %q is below %d, using %d", raw, types.CPUFloor, types.CPUFloor)
			return reading(types.CPUFloor, types.SourceOverride, fmt.Sprintf("sanitized from %q", raw))
		default:
			return reading(cpus, types.SourceOverride, fmt.Sprintf("override %q", raw))
		}
	}

	host := int64(p.numCPU())

	quota, file, err := containedCPUs(p.fs)
	switch {
	case err != nil:
		p.log.Debug("no contained cpu limit", "reason", err)
	case host > 0 && quota > host:
		p.log.Debug("contained cpu quota exceeds host cpus, ignoring", "quota", quota, "host", host)
	default:
		return reading(quota, types.SourceContainedLimit, file)
	}

	if host > 0 {
		return reading(host, types.SourceWholeSystem, "runtime.NumCPU")
	}

	return reading(types.FallbackCPUs, types.SourceFallback, "no cpu source available")
}
