//go:build linux

package probe

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const platformMemorySource = "sysinfo"

// platformMemory returns total physical memory in bytes via sysinfo(2).
func platformMemory() (int64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, fmt.Errorf("%w: sysinfo: %v", ErrSourceUnavailable, err)
	}

	return int64(uint64(info.Totalram) * uint64(info.Unit)), nil
}
