//go:build !linux && !darwin

package probe

import "fmt"

const platformMemorySource = "none"

func platformMemory() (int64, error) {
	return 0, fmt.Errorf("%w: no platform memory source", ErrSourceUnavailable)
}
