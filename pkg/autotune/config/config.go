package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/jamesainslie/pgautotune/pkg/autotune/types"
	"github.com/spf13/viper"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures diagnostics.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Format     string            `mapstructure:"format"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// ProbeConfig configures where resources are probed.
type ProbeConfig struct {
	// Root is prefixed to every probed path. Only useful for tests and
	// chroot-style deployments.
	Root string `mapstructure:"root"`
}

// Config represents the complete pgautotune configuration. Hint and override
// fields hold raw strings: interpreting them is the pipeline's job, and
// malformed values must degrade rather than fail loading.
type Config struct {
	MemoryMB string        `mapstructure:"memory_mb"`
	CPUs     string        `mapstructure:"cpus"`
	Skip     string        `mapstructure:"skip"`
	Workload string        `mapstructure:"workload"`
	Storage  string        `mapstructure:"storage"`
	Output   string        `mapstructure:"output"`
	Probe    ProbeConfig   `mapstructure:"probe"`
	Logging  LoggingConfig `mapstructure:"logging"`

	// Warnings collects problems found while loading that were recovered
	// from, such as an unparseable config file.
	Warnings []string `mapstructure:"-"`
}

// SkipTuning reports whether the operator asked to bypass tuning.
func (c *Config) SkipTuning() bool {
	return types.ParseFlag(c.Skip)
}

// NewViper returns a viper instance with defaults, config search paths and
// environment bindings applied. Callers may bind flags before Load.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range configDirs() {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Explicit bindings so the container-image aliases resolve too.
	for key, alias := range envAliases {
		native := EnvPrefix + "_" + strings.ToUpper(key)
		_ = v.BindEnv(key, native, alias)
	}

	v.SetDefault("memory_mb", "")
	v.SetDefault("cpus", "")
	v.SetDefault("skip", "")
	v.SetDefault("workload", DefaultWorkload)
	v.SetDefault("storage", DefaultStorage)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("probe.root", DefaultProbeRoot)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", "10MiB")
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{})

	return v
}

// Load reads the config file (if any) and unmarshals every source into a
// Config. A missing config file is normal. An unreadable or mistyped one is
// recorded in Config.Warnings and skipped so that startup is never blocked
// by it.
func Load(v *viper.Viper) (*Config, error) {
	var warnings []string

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			warnings = append(warnings, fmt.Sprintf("ignoring config file: %v", err))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// The file parsed but has the wrong shape. Drop its values and keep
		// env, flags and defaults.
		warnings = append(warnings, fmt.Sprintf("ignoring config file %s: %v", v.ConfigFileUsed(), err))
		if err := v.ReadConfig(bytes.NewReader(nil)); err != nil {
			return nil, fmt.Errorf("failed to reset config: %w", err)
		}
		cfg = Config{}
		if err := v.Unmarshal(&cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}
	cfg.Warnings = warnings

	return &cfg, nil
}

// LoadDefault is shorthand for Load(NewViper()).
func LoadDefault() (*Config, error) {
	return Load(NewViper())
}

// configDirs returns the config search directories, most specific first.
func configDirs() []string {
	var dirs []string

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		dirs = append(dirs, filepath.Join(xdgConfigHome, "pgautotune"))
	}

	// Containers often run without a home directory.
	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(homeDir, ".config", "pgautotune"))
	}

	return append(dirs, SearchPaths...)
}

// ConfigDir returns the per-user configuration directory.
func ConfigDir() string {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "pgautotune")
	}
	return filepath.Join(xdg.ConfigHome, "pgautotune")
}

// ConfigPath returns the per-user configuration file path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// WriteDefault writes a commented default config file to path if none
// exists. It returns false when the file was already present.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(`# pgautotune configuration
#
# Every key can also be set with a PGAUTOTUNE_ environment variable,
# e.g. PGAUTOTUNE_MEMORY_MB=4096.

# Memory ceiling override. Plain numbers are MB; 4GiB, 512Mi, 2GB also work.
# Empty means probe the container limit, then the host.
memory_mb: ""

# CPU count override. Empty means probe.
cpus: ""

# Set to true to leave the server's static configuration untouched.
skip: false

# Workload: mixed, web, oltp, analytical
workload: %s

# Storage: ssd, hdd, network-attached
storage: %s

# Default output format for the root command.
output: %s

logging:
  # debug, info, warn, error
  level: %s
  # text, json, logfmt
  format: %s
  # Optional log file in addition to stderr.
  path: ""
  rotation:
    max_size: 10MiB
    max_backups: 5
    daily: true
`, DefaultWorkload, DefaultStorage, DefaultOutput, DefaultLogLevel, DefaultLogFormat)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("failed to write default config: %w", err)
	}

	return true, nil
}
