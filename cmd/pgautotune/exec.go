//go:build unix

package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/jamesainslie/pgautotune/pkg/autotune/engine"
	"github.com/jamesainslie/pgautotune/pkg/autotune/logging"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

// execve replaces the current process. Swapped out in tests.
var execve = unix.Exec

var execCmd = &cobra.Command{
	Use:   "exec -- server [args...]",
	Short: "Tune, then replace this process with the database server",
	Long: `Run the tuning pipeline and exec the server with the derived settings
appended as -c arguments. Settings the command line already sets are left
to the operator. With --skip the server starts unchanged.

The derived settings are also exported as PGAUTOTUNE_<NAME> variables.

Examples:
  pgautotune exec -- postgres -D /var/lib/postgresql/data
  pgautotune exec --workload oltp -- postgres -c max_connections=50`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	// Everything after the server binary belongs to the server.
	execCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(execCmd)
}

// runExec tunes and execs the server command in args.
func runExec(cmd *cobra.Command, args []string) error {
	c, err := currentConfig()
	if err != nil {
		return err
	}

	binary, err := exec.LookPath(args[0])
	if err != nil {
		return fmt.Errorf("finding server binary: %w", err)
	}

	result := engine.Run(engine.FromConfig(c))

	argv := mergeArgs(args, result.Emission.Args)
	env := append(os.Environ(), result.Emission.Env...)

	logging.Get("cli").Debug("exec", "binary", binary, "args", strings.Join(argv[1:], " "))
	if err := logging.Close(); err != nil {
		printError("%v", err)
	}

	return execve(binary, argv, env)
}

// shortOptions maps the server's single-letter options to the settings
// they set.
var shortOptions = map[string]string{
	"-B": "shared_buffers",
	"-N": "max_connections",
	"-S": "work_mem",
}

// mergeArgs appends tuned "-c name=value" pairs to the operator's argv,
// dropping any setting the operator already passed as -c name=value,
// -cname=value, --name=value or a short option such as -B.
func mergeArgs(argv []string, tuned []string) []string {
	userSet := make(map[string]bool)
	for i := 1; i < len(argv); i++ {
		arg := argv[i]
		if len(arg) >= 2 {
			if name, ok := shortOptions[arg[:2]]; ok {
				userSet[name] = true
				if len(arg) == 2 {
					i++
				}
				continue
			}
		}
		switch {
		case arg == "-c" && i+1 < len(argv):
			userSet[settingName(argv[i+1])] = true
			i++
		case strings.HasPrefix(arg, "-c") && len(arg) > 2:
			userSet[settingName(arg[2:])] = true
		case strings.HasPrefix(arg, "--") && strings.Contains(arg, "="):
			userSet[settingName(arg[2:])] = true
		}
	}

	merged := append([]string{}, argv...)
	for i := 0; i+1 < len(tuned); i += 2 {
		if userSet[settingName(tuned[i+1])] {
			continue
		}
		merged = append(merged, tuned[i], tuned[i+1])
	}

	return merged
}

// settingName extracts the normalized name from "name=value".
// The server treats dashes and underscores alike.
func settingName(assignment string) string {
	name, _, _ := strings.Cut(assignment, "=")
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}
