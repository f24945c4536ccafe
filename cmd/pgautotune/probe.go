package main

import (
	"bytes"
	"fmt"

	"github.com/jamesainslie/pgautotune/pkg/autotune/engine"
	"github.com/spf13/cobra"
)

// probeFormats lists the formats that can render readings alone.
var probeFormats = map[string]bool{
	"plain": true, "pretty": true, "json": true, "yaml": true, "template": true,
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Show the memory and CPU pgautotune would tune for",
	Long: `Resolve memory and CPU and show where each value came from, without
computing settings. The skip flag is ignored.

Output defaults to plain; -o json, yaml, pretty and template also work.`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

// runProbe prints resource readings.
func runProbe(cmd *cobra.Command, args []string) error {
	c, err := currentConfig()
	if err != nil {
		return err
	}

	name := "plain"
	if cmd.Flags().Changed("output") {
		name = c.Output
	}
	if !probeFormats[name] && templateStr == "" {
		return fmt.Errorf("output format %q does not apply to probe", name)
	}

	formatter, err := formatterFor(name)
	if err != nil {
		return err
	}

	result := engine.Probe(engine.FromConfig(c))

	var buf bytes.Buffer
	if err := formatter.Format(&buf, &result); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}
