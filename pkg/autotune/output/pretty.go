package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jamesainslie/pgautotune/pkg/autotune/types"
)

// PrettyFormatter formats output with colors and styling using lipgloss.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	if r.Skipped {
		return nil
	}

	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")

	if settings := r.Settings(); len(settings) > 0 {
		w.WriteString(f.formatSettings(settings))
	}

	if len(r.Warnings) > 0 {
		w.WriteString(f.formatWarnings(r.Warnings))
		w.WriteString("\n")
	}

	return nil
}

// formatHeader builds the header box with resources and hints.
func (f *PrettyFormatter) formatHeader(r *Result) string {
	var lines []string

	for _, reading := range r.Readings {
		value := fmt.Sprintf("%d", reading.Value)
		if reading.Kind == types.KindMemory {
			value = types.FormatMB(reading.Value)
		}
		label := LabelStyle.Render(fmt.Sprintf("%-7s", string(reading.Kind)+":"))
		lines = append(lines, fmt.Sprintf("%s %s %s", label, ValueStyle.Render(value), f.formatSource(reading.Source)))
	}

	if len(r.Settings()) > 0 {
		hints := fmt.Sprintf("%s %s  %s %s  %s %s",
			LabelStyle.Render("workload:"), ValueStyle.Render(string(r.Profile.Hints.Workload)),
			LabelStyle.Render("storage:"), ValueStyle.Render(string(r.Profile.Hints.Storage)),
			LabelStyle.Render("tier:"), ValueStyle.Render(r.Profile.ConnectionTier))
		lines = append(lines, hints)
	}

	if r.RunID != "" {
		lines = append(lines, MutedStyle.Render("run "+r.RunID))
	}

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

// formatSource colours a source by how much it can be trusted.
func (f *PrettyFormatter) formatSource(source types.Source) string {
	text := "(" + string(source) + ")"
	switch source {
	case types.SourceOverride, types.SourceContainedLimit:
		return SuccessStyle.Render(text)
	case types.SourceFallback:
		return WarningStyle.Render(text)
	default:
		return MutedStyle.Render(text)
	}
}

// formatSettings builds the aligned settings list.
func (f *PrettyFormatter) formatSettings(settings []types.Setting) string {
	width := 0
	for _, s := range settings {
		width = max(width, len(s.Name))
	}

	var sb strings.Builder
	sb.WriteString("  " + TitleStyle.Render("Settings") + "\n")
	for _, s := range settings {
		name := SettingStyle.Render(padRight(s.Name, width))
		sb.WriteString(fmt.Sprintf("  %s  %s\n", name, ValueStyle.Render(s.Value)))
	}

	return sb.String()
}

// formatWarnings builds a warning block.
func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	lines := []string{WarningStyle.Bold(true).Render("Warnings")}
	for _, warning := range warnings {
		lines = append(lines, WarningStyle.Render(warning))
	}
	return WarningBox.Render(strings.Join(lines, "\n"))
}

// padRight pads a string with spaces on the right to the desired width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
