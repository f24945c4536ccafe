package engine

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jamesainslie/pgautotune/pkg/autotune/config"
	"github.com/jamesainslie/pgautotune/pkg/autotune/logging"
	"github.com/jamesainslie/pgautotune/pkg/autotune/tuner"
	"github.com/jamesainslie/pgautotune/pkg/autotune/types"
	"github.com/jamesainslie/pgautotune/pkg/autotune/workload"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogs routes every logger into a buffer for the rest of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, logging.Init(logging.Config{Level: "debug", Format: "logfmt", Console: &buf}))
	t.Cleanup(func() { _ = logging.Close() })
	return &buf
}

// countingFs records every file opened through it.
type countingFs struct {
	afero.Fs
	opened []string
}

func (c *countingFs) Open(name string) (afero.File, error) {
	c.opened = append(c.opened, name)
	return c.Fs.Open(name)
}

func newFs(t *testing.T, files map[string]string) *countingFs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return &countingFs{Fs: fs}
}

func hostMemory(mb int64) func() (int64, error) {
	return func() (int64, error) { return mb * types.MiB, nil }
}

func hostCPUs(n int) func() int {
	return func() int { return n }
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestRun_MemoryOverride(t *testing.T) {
	captureLogs(t)

	result := Run(Options{
		MemoryOverride: types.NewOverride("4096"),
		Fs:             newFs(t, nil),
		SystemMemory:   hostMemory(65536),
		NumCPU:         hostCPUs(4),
	})

	require.False(t, result.Skipped)
	mem, ok := types.FindReading(result.Readings, types.KindMemory)
	require.True(t, ok)
	assert.Equal(t, types.SourceOverride, mem.Source)

	assert.Equal(t, int64(1024), result.Profile.SharedBuffersMB)
	assert.Equal(t, int64(3072), result.Profile.EffectiveCacheSizeMB)
	assert.Equal(t, types.DefaultHints(), result.Profile.Hints)
	assert.Contains(t, result.Emission.Args, "shared_buffers=1024MB")
	assert.NotEmpty(t, result.RunID)
}

func TestRun_UnlimitedContainerUsesWholeSystem(t *testing.T) {
	captureLogs(t)

	result := Run(Options{
		Fs:           newFs(t, map[string]string{"/sys/fs/cgroup/memory.max": "max"}),
		SystemMemory: hostMemory(65536),
		NumCPU:       hostCPUs(16),
	})

	mem, _ := types.FindReading(result.Readings, types.KindMemory)
	assert.Equal(t, types.SourceWholeSystem, mem.Source)
	assert.Equal(t, int64(65536), mem.Value)
	assert.Equal(t, int64(tuner.SharedBuffersCeilingMB), result.Profile.SharedBuffersMB)
}

func TestRun_SmallContainer(t *testing.T) {
	captureLogs(t)

	result := Run(Options{
		Fs:           newFs(t, map[string]string{"/sys/fs/cgroup/memory.max": "536870912"}),
		SystemMemory: hostMemory(65536),
		NumCPU:       hostCPUs(8),
	})

	mem, _ := types.FindReading(result.Readings, types.KindMemory)
	assert.Equal(t, types.SourceContainedLimit, mem.Source)
	assert.Equal(t, int64(512), mem.Value)
	assert.Equal(t, "small", result.Profile.ConnectionTier)
	assert.Equal(t, int64(1), result.Profile.WorkMemMB)
}

func TestRun_SkipTouchesNothing(t *testing.T) {
	logs := captureLogs(t)
	fs := newFs(t, map[string]string{"/sys/fs/cgroup/memory.max": "536870912"})
	probed := false

	result := Run(Options{
		Skip:           true,
		MemoryOverride: types.NewOverride("abc"),
		Hints:          workload.RawHints{Workload: "quantum"},
		Fs:             fs,
		SystemMemory: func() (int64, error) {
			probed = true
			return 0, nil
		},
		NumCPU: func() int {
			probed = true
			return 1
		},
		RunID: "fixed",
	})

	assert.True(t, result.Skipped)
	assert.Equal(t, "fixed", result.RunID)
	assert.True(t, result.Emission.Empty())
	assert.Empty(t, result.Readings)
	assert.Empty(t, fs.opened)
	assert.False(t, probed)

	lines := nonEmptyLines(logs.String())
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "tuning skipped")
}

func TestRun_MalformedOverride(t *testing.T) {
	logs := captureLogs(t)

	result := Run(Options{
		MemoryOverride: types.NewOverride("abc"),
		Fs:             newFs(t, map[string]string{"/sys/fs/cgroup/memory.max": "2147483648"}),
		SystemMemory:   hostMemory(65536),
		NumCPU:         hostCPUs(2),
	})

	mem, _ := types.FindReading(result.Readings, types.KindMemory)
	assert.Equal(t, types.SourceContainedLimit, mem.Source)
	assert.Equal(t, int64(2048), mem.Value)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], `"abc"`)
	assert.Contains(t, logs.String(), "level=warn")
	assert.NotEmpty(t, result.Emission.Args)
}

func TestRun_LogsRunIDOnEveryLine(t *testing.T) {
	logs := captureLogs(t)

	Run(Options{
		RunID:        "trace-me",
		Fs:           newFs(t, nil),
		SystemMemory: hostMemory(2048),
		NumCPU:       hostCPUs(2),
	})

	lines := nonEmptyLines(logs.String())
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.Contains(t, line, "run=trace-me")
	}

	// One line per resource and one per setting at least.
	settings := 0
	for _, line := range lines {
		if strings.Contains(line, "shared_buffers = ") {
			settings++
		}
	}
	assert.Equal(t, 1, settings)
	assert.GreaterOrEqual(t, len(lines), 2+16)
}

func TestRun_ResourceLinesIgnoreLevel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, logging.Init(logging.Config{Level: "error", Format: "logfmt", Console: &buf}))
	t.Cleanup(func() { _ = logging.Close() })

	Run(Options{
		RunID:        "quiet-run",
		Fs:           newFs(t, nil),
		SystemMemory: hostMemory(2048),
		NumCPU:       hostCPUs(2),
	})

	lines := nonEmptyLines(buf.String())
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "kind=memory")
	assert.Contains(t, lines[1], "kind=cpu")
	for _, line := range lines {
		assert.Contains(t, line, "resolved resource")
		assert.Contains(t, line, "run=quiet-run")
	}
}

func TestRun_UnknownHintIsInfo(t *testing.T) {
	logs := captureLogs(t)

	result := Run(Options{
		Hints:        workload.RawHints{Workload: "quantum", Storage: "NVMe"},
		Fs:           newFs(t, nil),
		SystemMemory: hostMemory(4096),
		NumCPU:       hostCPUs(2),
	})

	require.Len(t, result.Notes, 1)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, types.WorkloadMixed, result.Profile.Hints.Workload)
	assert.Equal(t, types.StorageSSD, result.Profile.Hints.Storage)
	assert.NotContains(t, logs.String(), "level=warn")
}

func TestRun_Deterministic(t *testing.T) {
	captureLogs(t)

	opts := Options{
		RunID:        "same",
		Hints:        workload.RawHints{Workload: "oltp", Storage: "hdd"},
		Fs:           newFs(t, map[string]string{"/sys/fs/cgroup/cpu.max": "200000 100000"}),
		SystemMemory: hostMemory(8192),
		NumCPU:       hostCPUs(8),
	}

	first := Run(opts)
	second := Run(opts)
	assert.Equal(t, first.Emission, second.Emission)
	assert.Equal(t, first.Profile, second.Profile)
}

func TestRun_ConfigWarningsCarried(t *testing.T) {
	captureLogs(t)

	result := Run(Options{
		Warnings:     []string{"ignoring config file: bad yaml"},
		Fs:           newFs(t, nil),
		SystemMemory: hostMemory(4096),
		NumCPU:       hostCPUs(2),
	})

	assert.Equal(t, []string{"ignoring config file: bad yaml"}, result.Warnings)
}

func TestProbe(t *testing.T) {
	captureLogs(t)

	result := Probe(Options{
		Skip:         true,
		Fs:           newFs(t, map[string]string{"/sys/fs/cgroup/cpu.max": "300000 100000"}),
		SystemMemory: hostMemory(4096),
		NumCPU:       hostCPUs(8),
	})

	require.Len(t, result.Readings, 2)
	cpu, _ := types.FindReading(result.Readings, types.KindCPU)
	assert.Equal(t, int64(3), cpu.Value)
	assert.True(t, result.Emission.Empty())
	assert.False(t, result.Skipped)
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{
		MemoryMB: "2GiB",
		CPUs:     "",
		Skip:     "yes",
		Workload: "dw",
		Storage:  "san",
		Probe:    config.ProbeConfig{Root: "/host"},
		Warnings: []string{"w"},
	}

	opts := FromConfig(cfg)

	assert.True(t, opts.Skip)
	assert.Equal(t, types.Override{Raw: "2GiB", Present: true}, opts.MemoryOverride)
	assert.False(t, opts.CPUOverride.Present)
	assert.Equal(t, workload.RawHints{Workload: "dw", Storage: "san"}, opts.Hints)
	assert.Equal(t, "/host", opts.Root)
	assert.Equal(t, []string{"w"}, opts.Warnings)
}
