package main

import (
	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/pgautotune/pkg/autotune/config"
	"github.com/jamesainslie/pgautotune/pkg/autotune/logging"
	"github.com/spf13/cobra"
)

// defaultLogFile is the logging.path value that selects the XDG state file.
const defaultLogFile = "default"

// initializeLogging configures diagnostics from the loaded configuration.
// It runs as the PersistentPreRunE hook of every command. Bad logging
// settings fall back to the defaults rather than blocking a server start.
func initializeLogging(cmd *cobra.Command, args []string) error {
	c, err := currentConfig()
	if err != nil {
		return err
	}

	level := c.Logging.Level
	switch {
	case getVerbose():
		level = "debug"
	case getQuiet():
		level = "error"
	}

	path := c.Logging.Path
	if path == defaultLogFile {
		path = logging.DefaultLogPath()
	}

	logCfg := logging.Config{
		Level:      level,
		Format:     c.Logging.Format,
		Path:       path,
		Rotation:   parseRotationConfig(c.Logging.Rotation),
		Components: c.Logging.Components,
	}

	if err := logging.Init(logCfg); err != nil {
		fallback := logging.DefaultConfig()
		fallback.Level = level
		if _, levelErr := logging.ParseLevel(level); levelErr != nil {
			fallback.Level = config.DefaultLogLevel
		}
		if initErr := logging.Init(fallback); initErr != nil {
			return initErr
		}
		logging.Get("cli").Warn("invalid logging configuration, using defaults", "error", err)
	}

	printVerbose("config file: %q", vp.ConfigFileUsed())
	return nil
}

// parseRotationConfig converts the configured rotation settings. An empty
// or unparseable max_size uses the logging default.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	result := logging.RotationConfig{
		MaxSize:    logging.DefaultRotationConfig().MaxSize,
		MaxBackups: rc.MaxBackups,
		Daily:      rc.Daily,
	}

	if rc.MaxSize != "" {
		if size, err := humanize.ParseBytes(rc.MaxSize); err == nil && size > 0 {
			result.MaxSize = int64(size)
		}
	}

	return result
}
