package types

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
)

// ErrInvalidSize indicates that a size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ErrSizeOutOfRange indicates that a value does not fit in an int64.
var ErrSizeOutOfRange = errors.New("size out of range")

// maxExact is 2^63 as a float64; any float at or above it overflows int64.
const maxExact = float64(math.MaxInt64)

// plainNumber matches a bare number with no unit suffix.
var plainNumber = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ParseMemoryMB parses an operator-supplied memory value and returns it in
// megabytes. It supports the following formats:
//   - Plain numbers are megabytes: "4096", "512.5"
//   - IEC suffixes: "4GiB", "4Gi", "512MiB", "512Mi"
//   - SI suffixes: "4GB", "512MB" (decimal, 1GB = 10^9 bytes)
//
// Decimal values are truncated to the nearest megabyte.
// Leading and trailing whitespace is ignored.
//
// Returns ErrInvalidSize if the format is not recognized.
// Returns ErrNegativeSize if the value is negative.
// Returns ErrSizeOutOfRange if the value does not fit in an int64.
func ParseMemoryMB(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	if plainNumber.MatchString(s) {
		value, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
		}
		if value >= maxExact {
			return 0, fmt.Errorf("%w: %q", ErrSizeOutOfRange, s)
		}
		return int64(value), nil
	}

	bytes, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	return int64(bytes / uint64(MiB)), nil
}

// ParseCPUs parses an operator-supplied CPU count. Fractional values round
// up, so "0.5" means one CPU.
func ParseCPUs(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	if !plainNumber.MatchString(s) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	if math.Ceil(value) >= maxExact {
		return 0, fmt.Errorf("%w: %q", ErrSizeOutOfRange, s)
	}
	return int64(math.Ceil(value)), nil
}

// BytesToMB converts a byte count to whole megabytes, rounding down.
func BytesToMB(bytes int64) int64 {
	return bytes / MiB
}

// FormatMB converts a megabyte count to a human-readable string using
// binary (IEC) units.
//
// Examples:
//   - FormatMB(512) returns "512 MiB"
//   - FormatMB(4096) returns "4.0 GiB"
func FormatMB(mb int64) string {
	if mb < 0 {
		mb = 0
	}
	return humanize.IBytes(uint64(mb) * uint64(MiB))
}

// ParseFlag reports whether s is an affirmative flag value
// ("1", "true", "yes", "on", case-insensitive). Everything else is false.
func ParseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}
