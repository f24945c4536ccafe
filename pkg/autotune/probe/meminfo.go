package probe

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jamesainslie/pgautotune/pkg/autotune/types"
	"github.com/spf13/afero"
)

const procMeminfo = "/proc/meminfo"

// readMemTotal returns MemTotal from /proc/meminfo in bytes.
func readMemTotal(fs afero.Fs) (int64, error) {
	data, err := afero.ReadFile(fs, procMeminfo)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		// MemTotal:       16318268 kB
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[0] != "MemTotal:" {
			continue
		}

		value, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || value <= 0 {
			return 0, fmt.Errorf("%w: MemTotal %q", ErrSourceUnavailable, fields[1])
		}

		if len(fields) >= 3 && strings.EqualFold(fields[2], "kB") {
			value *= types.KiB
		}
		return value, nil
	}

	return 0, fmt.Errorf("%w: no MemTotal in %s", ErrSourceUnavailable, procMeminfo)
}

// hostMemoryMB returns whole-system memory in MB, from /proc/meminfo when
// readable and otherwise from the platform.
func (p *Prober) hostMemoryMB() (int64, string, error) {
	if total, err := readMemTotal(p.fs); err == nil {
		if mb := types.BytesToMB(total); mb > 0 {
			return mb, procMeminfo, nil
		}
	} else {
		p.log.Debug("meminfo unavailable", "error", err)
	}

	total, err := p.systemMemory()
	if err != nil {
		return 0, "", err
	}
	mb := types.BytesToMB(total)
	if mb <= 0 {
		return 0, "", fmt.Errorf("%w: host reports %d bytes", ErrSourceUnavailable, total)
	}

	return mb, platformMemorySource, nil
}
