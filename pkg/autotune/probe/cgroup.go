package probe

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// ErrSourceUnavailable means a resource signal could not be read or parsed.
var ErrSourceUnavailable = errors.New("source unavailable")

// ErrUnlimited means a containment boundary exists but sets no ceiling.
var ErrUnlimited = errors.New("no limit configured")

// unlimitedBytes is the smallest value treated as the cgroup v1
// "no limit" sentinel (PAGE_COUNTER_MAX rounded to a page).
const unlimitedBytes = int64(1) << 62

const (
	cgroupMount    = "/sys/fs/cgroup"
	procSelfCgroup = "/proc/self/cgroup"
)

// membership is the process's cgroup path per hierarchy, parsed from
// /proc/self/cgroup. unified is the cgroup v2 path; controllers maps each
// v1 controller name to its path.
type membership struct {
	unified     string
	controllers map[string]string
}

func readMembership(fs afero.Fs) membership {
	m := membership{controllers: make(map[string]string)}

	data, err := afero.ReadFile(fs, procSelfCgroup)
	if err != nil {
		return m
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		// hierarchy-ID:controller-list:cgroup-path
		parts := strings.SplitN(scanner.Text(), ":", 3)
		if len(parts) != 3 {
			continue
		}
		if parts[0] == "0" && parts[1] == "" {
			m.unified = parts[2]
			continue
		}
		for _, controller := range strings.Split(parts[1], ",") {
			m.controllers[controller] = parts[2]
		}
	}

	return m
}

// candidates returns the files that may hold a limit, own cgroup first,
// then the mount root. For v1, mounts lists the controller directories
// to try (e.g. "cpu" and "cpu,cpuacct").
func (m membership) candidates(v2File string, v1Controller string, v1Mounts []string, v1File string) (v2 []string, v1 []string) {
	if m.unified != "" && m.unified != "/" {
		v2 = append(v2, path.Join(cgroupMount, m.unified, v2File))
	}
	v2 = append(v2, path.Join(cgroupMount, v2File))

	own := m.controllers[v1Controller]
	for _, mount := range v1Mounts {
		if own != "" && own != "/" {
			v1 = append(v1, path.Join(cgroupMount, mount, own, v1File))
		}
		v1 = append(v1, path.Join(cgroupMount, mount, v1File))
	}

	return v2, v1
}

// tightest reads every candidate and returns the smallest finite limit along
// with the file it came from. Nested cgroups enforce the minimum of their
// ancestors, so the smallest visible value is the effective one.
func tightest(fs afero.Fs, files []string, parse func(string) (int64, error)) (int64, string, error) {
	best := int64(-1)
	bestFile := ""
	sawUnlimited := false

	for _, file := range files {
		data, err := afero.ReadFile(fs, file)
		if err != nil {
			continue
		}

		value, err := parse(strings.TrimSpace(string(data)))
		if errors.Is(err, ErrUnlimited) {
			sawUnlimited = true
			continue
		}
		if err != nil {
			continue
		}

		if best < 0 || value < best {
			best = value
			bestFile = file
		}
	}

	switch {
	case best >= 0:
		return best, bestFile, nil
	case sawUnlimited:
		return 0, "", ErrUnlimited
	default:
		return 0, "", ErrSourceUnavailable
	}
}

// parseMemoryMax parses cgroup v2 memory.max or v1 memory.limit_in_bytes
// into bytes.
func parseMemoryMax(s string) (int64, error) {
	if s == "max" {
		return 0, ErrUnlimited
	}

	value, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrSourceUnavailable, s)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%w: non-positive limit %d", ErrSourceUnavailable, value)
	}
	if value >= unlimitedBytes {
		return 0, ErrUnlimited
	}

	return value, nil
}

// parseCPUMax parses cgroup v2 cpu.max ("quota period" or "max period")
// into a whole CPU count, rounding partial CPUs up.
func parseCPUMax(s string) (int64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrSourceUnavailable, s)
	}
	if fields[0] == "max" {
		return 0, ErrUnlimited
	}

	period := "100000"
	if len(fields) == 2 {
		period = fields[1]
	}
	return quotaToCPUs(fields[0], period)
}

// quotaToCPUs converts a CFS quota and period (microseconds) to CPUs.
func quotaToCPUs(quotaStr, periodStr string) (int64, error) {
	quota, err := strconv.ParseInt(strings.TrimSpace(quotaStr), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: quota %q", ErrSourceUnavailable, quotaStr)
	}
	if quota < 0 {
		return 0, ErrUnlimited
	}

	period, err := strconv.ParseInt(strings.TrimSpace(periodStr), 10, 64)
	if err != nil || period <= 0 {
		return 0, fmt.Errorf("%w: period %q", ErrSourceUnavailable, periodStr)
	}
	if quota == 0 {
		return 0, fmt.Errorf("%w: zero quota", ErrSourceUnavailable)
	}

	return int64(math.Ceil(float64(quota) / float64(period))), nil
}

// containedMemory returns the effective cgroup memory limit in bytes.
func containedMemory(fs afero.Fs) (int64, string, error) {
	m := readMembership(fs)
	v2, v1 := m.candidates("memory.max", "memory", []string{"memory"}, "memory.limit_in_bytes")

	value, file, err := tightest(fs, v2, parseMemoryMax)
	if err == nil || errors.Is(err, ErrUnlimited) {
		return value, file, err
	}

	return tightest(fs, v1, parseMemoryMax)
}

// containedCPUs returns the effective cgroup CPU quota as a CPU count.
func containedCPUs(fs afero.Fs) (int64, string, error) {
	m := readMembership(fs)
	v2, v1Quota := m.candidates("cpu.max", "cpu", []string{"cpu", "cpu,cpuacct"}, "cpu.cfs_quota_us")

	value, file, err := tightest(fs, v2, parseCPUMax)
	if err == nil || errors.Is(err, ErrUnlimited) {
		return value, file, err
	}

	// v1 splits quota and period across two files in the same directory.
	parseV1 := func(quotaFile string) func(string) (int64, error) {
		return func(quota string) (int64, error) {
			periodFile := strings.TrimSuffix(quotaFile, "cpu.cfs_quota_us") + "cpu.cfs_period_us"
			period, err := afero.ReadFile(fs, periodFile)
			if err != nil {
				return 0, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
			}
			return quotaToCPUs(quota, string(period))
		}
	}

	best := int64(-1)
	bestFile := ""
	sawUnlimited := false
	for _, quotaFile := range v1Quota {
		value, file, err := tightest(fs, []string{quotaFile}, parseV1(quotaFile))
		if errors.Is(err, ErrUnlimited) {
			sawUnlimited = true
			continue
		}
		if err != nil {
			continue
		}
		if best < 0 || value < best {
			best, bestFile = value, file
		}
	}

	switch {
	case best >= 0:
		return best, bestFile, nil
	case sawUnlimited:
		return 0, "", ErrUnlimited
	default:
		return 0, "", ErrSourceUnavailable
	}
}
