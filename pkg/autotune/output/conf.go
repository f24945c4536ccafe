package output

import (
	"bytes"
	"fmt"

	"github.com/jamesainslie/pgautotune/pkg/autotune/types"
)

// ConfFormatter writes a postgresql.conf fragment suitable for an
// include_dir. Memory values are quoted, numbers are bare.
type ConfFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *ConfFormatter) Format(w *bytes.Buffer, r *Result) error {
	settings := r.Settings()
	if len(settings) == 0 {
		return nil
	}

	w.WriteString("# Generated by pgautotune. Do not edit; regenerated on every start.\n")
	if r.RunID != "" {
		fmt.Fprintf(w, "# run: %s\n", r.RunID)
	}
	for _, reading := range r.Readings {
		fmt.Fprintf(w, "# %s\n", reading)
	}
	fmt.Fprintf(w, "# workload: %s, storage: %s, connection tier: %s\n",
		r.Profile.Hints.Workload, r.Profile.Hints.Storage, r.Profile.ConnectionTier)
	w.WriteString("\n")

	for _, s := range settings {
		if s.Unit == types.UnitMB {
			fmt.Fprintf(w, "%s = '%s'\n", s.Name, s.Value)
			continue
		}
		fmt.Fprintf(w, "%s = %s\n", s.Name, s.Value)
	}
	return nil
}

func init() {
	Register("conf", func() Formatter {
		return &ConfFormatter{}
	})
}

// Ensure ConfFormatter implements Formatter.
var _ Formatter = (*ConfFormatter)(nil)
