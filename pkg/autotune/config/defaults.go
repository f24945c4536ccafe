// Package config provides configuration loading for pgautotune.
package config

// Default configuration values.
const (
	// EnvPrefix is the prefix of every native environment variable.
	EnvPrefix = "PGAUTOTUNE"

	// DefaultWorkload is the workload hint used when none is configured.
	DefaultWorkload = "mixed"

	// DefaultStorage is the storage hint used when none is configured.
	DefaultStorage = "ssd"

	// DefaultOutput is the output format used by the root command.
	DefaultOutput = "args"

	// DefaultProbeRoot is the filesystem root probed for resource accounting.
	DefaultProbeRoot = "/"

	// DefaultLogLevel is the default diagnostic level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default diagnostic line format.
	DefaultLogFormat = "text"
)

// envAliases maps config keys to the container-image environment variables
// accepted alongside the PGAUTOTUNE_ ones. The native name wins when both
// are set.
var envAliases = map[string]string{
	"memory_mb": "POSTGRES_MEMORY_LIMIT",
	"cpus":      "POSTGRES_CPU_LIMIT",
	"skip":      "POSTGRES_SKIP_AUTOTUNE",
	"workload":  "POSTGRES_WORKLOAD_TYPE",
	"storage":   "POSTGRES_STORAGE_TYPE",
}

// SearchPaths lists config directories in precedence order, excluding the
// XDG directory which is resolved at load time.
var SearchPaths = []string{
	"/etc/pgautotune",
}

// IsEnvAlias reports whether name is one of the accepted alias variables.
func IsEnvAlias(name string) bool {
	for _, alias := range envAliases {
		if alias == name {
			return true
		}
	}
	return false
}
