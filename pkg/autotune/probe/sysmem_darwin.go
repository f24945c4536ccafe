//go:build darwin

package probe

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const platformMemorySource = "sysctl hw.memsize"

// platformMemory returns total physical memory in bytes via sysctl.
func platformMemory() (int64, error) {
	memsize, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		return 0, fmt.Errorf("%w: sysctl hw.memsize: %v", ErrSourceUnavailable, err)
	}

	return int64(memsize), nil
}
