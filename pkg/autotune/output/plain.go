package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/jamesainslie/pgautotune/pkg/autotune/types"
)

// PlainFormatter formats output as simple aligned columns.
// No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	if r.Skipped {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := fmt.Fprint(tw, "RESOURCE\tVALUE\tSOURCE\tDETAIL\n"); err != nil {
		return err
	}
	for _, reading := range r.Readings {
		value := fmt.Sprintf("%d", reading.Value)
		if reading.Kind == types.KindMemory {
			value = fmt.Sprintf("%dMB", reading.Value)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", reading.Kind, value, reading.Source, reading.Detail); err != nil {
			return err
		}
	}

	settings := r.Settings()
	if len(settings) > 0 {
		if _, err := fmt.Fprint(tw, "\nSETTING\tVALUE\n"); err != nil {
			return err
		}
		for _, s := range settings {
			if _, err := fmt.Fprintf(tw, "%s\t%s\n", s.Name, s.Value); err != nil {
				return err
			}
		}
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
