package output

import (
	"bytes"
	"strings"
)

// ArgsFormatter writes the server arguments on one line, suitable for
// `postgres $(pgautotune)`. Values never contain whitespace.
type ArgsFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *ArgsFormatter) Format(w *bytes.Buffer, r *Result) error {
	if len(r.Settings()) == 0 {
		return nil
	}

	w.WriteString(strings.Join(r.Emission.Args, " "))
	w.WriteString("\n")
	return nil
}

// EnvFormatter writes one PGAUTOTUNE_<NAME>=value line per setting, suitable
// for an env file or `export $(pgautotune -o env)`.
type EnvFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *EnvFormatter) Format(w *bytes.Buffer, r *Result) error {
	if len(r.Settings()) == 0 {
		return nil
	}

	for _, line := range r.Emission.Env {
		w.WriteString(line)
		w.WriteString("\n")
	}
	return nil
}

func init() {
	Register("args", func() Formatter {
		return &ArgsFormatter{}
	})
	Register("env", func() Formatter {
		return &EnvFormatter{}
	})
}

// Ensure the formatters implement Formatter.
var (
	_ Formatter = (*ArgsFormatter)(nil)
	_ Formatter = (*EnvFormatter)(nil)
)
