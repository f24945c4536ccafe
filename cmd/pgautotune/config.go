package main

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jamesainslie/pgautotune/pkg/autotune/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage pgautotune configuration settings.

Configuration is loaded from the first of:
  1. $XDG_CONFIG_HOME/pgautotune/config.yaml (if set)
  2. ~/.config/pgautotune/config.yaml
  3. /etc/pgautotune/config.yaml

Environment variables override config file settings using the PGAUTOTUNE_
prefix. The container image names are accepted too:
  PGAUTOTUNE_MEMORY_MB   or POSTGRES_MEMORY_LIMIT
  PGAUTOTUNE_CPUS        or POSTGRES_CPU_LIMIT
  PGAUTOTUNE_SKIP        or POSTGRES_SKIP_AUTOTUNE
  PGAUTOTUNE_WORKLOAD    or POSTGRES_WORKLOAD_TYPE
  PGAUTOTUNE_STORAGE     or POSTGRES_STORAGE_TYPE`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration merged from all sources.`,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the per-user configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the effective configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	c, err := currentConfig()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	if configFile := vp.ConfigFileUsed(); configFile != "" {
		fmt.Fprintf(w, "Config file: %s\n\n", configFile)
	} else {
		fmt.Fprintln(w, "Config file: (using defaults, no file found)")
		fmt.Fprintln(w)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(showable(c)); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	fmt.Fprintln(w, "Current Configuration:")
	fmt.Fprintln(w, "----------------------")
	_, _ = w.Write(buf.Bytes())

	fmt.Fprintln(w, "\nEnvironment Overrides:")
	fmt.Fprintln(w, "----------------------")
	overrides := environmentOverrides()
	if len(overrides) == 0 {
		fmt.Fprintln(w, "(none)")
	}
	for _, o := range overrides {
		fmt.Fprintln(w, o)
	}

	for _, warning := range c.Warnings {
		fmt.Fprintf(w, "\nwarning: %s\n", warning)
	}

	return nil
}

// showable returns the effective configuration in display form.
func showable(c *config.Config) map[string]interface{} {
	return map[string]interface{}{
		"memory_mb": c.MemoryMB,
		"cpus":      c.CPUs,
		"skip":      c.SkipTuning(),
		"workload":  c.Workload,
		"storage":   c.Storage,
		"output":    c.Output,
		"probe":     map[string]string{"root": c.Probe.Root},
		"logging": map[string]interface{}{
			"level":      c.Logging.Level,
			"format":     c.Logging.Format,
			"path":       c.Logging.Path,
			"components": c.Logging.Components,
			"rotation": map[string]interface{}{
				"max_size":    c.Logging.Rotation.MaxSize,
				"max_backups": c.Logging.Rotation.MaxBackups,
				"daily":       c.Logging.Rotation.Daily,
			},
		},
	}
}

// environmentOverrides lists the set PGAUTOTUNE_ and alias variables.
func environmentOverrides() []string {
	var out []string
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, config.EnvPrefix+"_") || config.IsEnvAlias(name) {
			out = append(out, kv)
		}
	}
	sort.Strings(out)
	return out
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := config.ConfigPath()

	created, err := config.WriteDefault(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	if !created {
		printInfo(cmd, "Config file already exists: %s", configPath)
		return nil
	}

	printInfo(cmd, "Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	configPath := config.ConfigPath()
	fmt.Fprintln(cmd.OutOrStdout(), configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}

	return nil
}
