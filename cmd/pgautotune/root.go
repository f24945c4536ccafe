package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jamesainslie/pgautotune/pkg/autotune/config"
	"github.com/jamesainslie/pgautotune/pkg/autotune/engine"
	"github.com/jamesainslie/pgautotune/pkg/autotune/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	templateStr string

	// vp holds flag bindings and every other configuration source.
	vp = config.NewViper()

	// cfg is loaded once per command execution by initConfig.
	cfg    *config.Config
	cfgErr error

	rootCmd = &cobra.Command{
		Use:   "pgautotune",
		Short: "Derive PostgreSQL settings from the resources actually available",
		Long: `pgautotune works out how much memory and CPU the database server may use,
inside or outside a container, and derives a consistent set of server settings.

Memory is taken from an explicit override, then the container limit, then
the host total. Settings are printed in the chosen format.

Examples:
  pgautotune                         # print -c arguments for postgres
  postgres $(pgautotune)             # start postgres with them
  pgautotune -o conf > tuned.conf    # postgresql.conf include file
  pgautotune --memory 4GiB -o pretty # preview a 4GiB profile
  pgautotune exec -- postgres -D /var/lib/postgresql/data
  pgautotune probe                   # show detected resources only`,
		Args:              cobra.NoArgs,
		PersistentPreRunE: initializeLogging,
		RunE:              runTune,
		SilenceUsage:      true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ~/.config/pgautotune/config.yaml)")
	flags.String("memory", "", "memory override, e.g. 4096, 4GiB, 512Mi")
	flags.String("cpus", "", "cpu count override")
	flags.Bool("skip", false, "leave the server configuration untouched")
	flags.String("workload", "", "workload: mixed, web, oltp, analytical")
	flags.String("storage", "", "storage: ssd, hdd, network-attached")
	flags.StringP("output", "o", "", "output format: "+fmt.Sprint(output.Available()))
	flags.StringVar(&templateStr, "template", "", "custom Go template (implies -o template)")
	flags.BoolP("quiet", "q", false, "only log errors")
	flags.BoolP("verbose", "v", false, "debug output")
	flags.String("log-format", "", "log line format: text, json, logfmt")
	flags.String("log-file", "", "also write diagnostics to this file")
	flags.String("probe-root", "", "filesystem root for resource probing")
	_ = flags.MarkHidden("probe-root")

	bindFlags(vp)
}

// bindFlags binds the persistent flags to v's configuration keys.
func bindFlags(v *viper.Viper) {
	flags := rootCmd.PersistentFlags()
	_ = v.BindPFlag("memory_mb", flags.Lookup("memory"))
	_ = v.BindPFlag("cpus", flags.Lookup("cpus"))
	_ = v.BindPFlag("skip", flags.Lookup("skip"))
	_ = v.BindPFlag("workload", flags.Lookup("workload"))
	_ = v.BindPFlag("storage", flags.Lookup("storage"))
	_ = v.BindPFlag("output", flags.Lookup("output"))
	_ = v.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = v.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = v.BindPFlag("logging.format", flags.Lookup("log-format"))
	_ = v.BindPFlag("logging.path", flags.Lookup("log-file"))
	_ = v.BindPFlag("probe.root", flags.Lookup("probe-root"))
}

// initConfig reads the config file, environment and flags.
func initConfig() {
	if cfgFile != "" {
		vp.SetConfigFile(cfgFile)
	}
	cfg, cfgErr = config.Load(vp)
}

// currentConfig returns the configuration loaded for this execution.
func currentConfig() (*config.Config, error) {
	if cfg == nil && cfgErr == nil {
		initConfig()
	}
	return cfg, cfgErr
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// formatterFor resolves the output formatter. An explicit template always
// wins over the named format.
func formatterFor(name string) (output.Formatter, error) {
	if templateStr != "" {
		return output.NewTemplateFormatter(templateStr), nil
	}
	return output.Get(name)
}

// runTune runs the pipeline and prints the emission.
func runTune(cmd *cobra.Command, args []string) error {
	c, err := currentConfig()
	if err != nil {
		return err
	}

	formatter, err := formatterFor(c.Output)
	if err != nil {
		printError("%v (available: %v)", err, output.Available())
		return err
	}

	result := engine.Run(engine.FromConfig(c))

	var buf bytes.Buffer
	if err := formatter.Format(&buf, &result); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return vp.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return vp.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message to stdout if quiet mode is not enabled.
func printInfo(cmd *cobra.Command, format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
