// Package output turns a tuning profile into the forms the database server
// consumes at startup and renders pipeline results for the CLI.
//
// Emit produces the raw argument, environment and line forms. Formatters
// registered in the registry render a complete Result:
//
//	formatter, err := output.Get("conf")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    return err
//	}
//
// A skipped Result renders as nothing in every format.
package output

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jamesainslie/pgautotune/pkg/autotune/types"
)

// EnvPrefix prefixes every emitted environment variable.
const EnvPrefix = "PGAUTOTUNE_"

// Emission is a profile rendered in the forms the server start path uses.
type Emission struct {
	// Args holds "-c", "name=value" pairs in profile order, ready to append
	// to a server command line.
	Args []string `json:"args" yaml:"args"`

	// Env holds PGAUTOTUNE_<NAME>=value entries.
	Env []string `json:"env" yaml:"env"`

	// Lines holds one human-readable line per setting.
	Lines []string `json:"lines" yaml:"lines"`
}

// Empty reports whether the emission carries no settings.
func (e Emission) Empty() bool {
	return len(e.Args) == 0
}

// Emit renders every setting of profile. It is pure: the same profile always
// yields the same emission.
func Emit(profile types.TuningProfile) Emission {
	settings := profile.Settings()

	e := Emission{
		Args:  make([]string, 0, 2*len(settings)),
		Env:   make([]string, 0, len(settings)),
		Lines: make([]string, 0, len(settings)),
	}
	for _, s := range settings {
		e.Args = append(e.Args, "-c", s.Name+"="+s.Value)
		e.Env = append(e.Env, EnvName(s.Name)+"="+s.Value)
		e.Lines = append(e.Lines, fmt.Sprintf("%s = %s", s.Name, s.Value))
	}

	return e
}

// EnvName returns the environment variable carrying setting name.
func EnvName(name string) string {
	return EnvPrefix + strings.ToUpper(name)
}

// Result is everything one pipeline run produced.
type Result struct {
	// RunID identifies the run in diagnostics.
	RunID string `json:"run_id" yaml:"run_id"`

	// Skipped is set when the operator bypassed tuning. Nothing else is
	// populated in that case.
	Skipped bool `json:"skipped" yaml:"skipped"`

	Readings []types.ResourceReading `json:"resources" yaml:"resources"`
	Profile  types.TuningProfile     `json:"profile" yaml:"profile"`
	Emission Emission                `json:"emission" yaml:"emission"`

	// Notes are informational messages, e.g. an unrecognized hint.
	Notes []string `json:"notes,omitempty" yaml:"notes,omitempty"`

	// Warnings are operator-facing problems that were recovered from.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Settings returns the profile settings, or nil when the result carries no
// tuning (skipped, or a probe-only result).
func (r *Result) Settings() []types.Setting {
	if r.Skipped || r.Emission.Empty() {
		return nil
	}
	return r.Profile.Settings()
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	// It returns an error if formatting fails.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
// It returns an error if the formatter is not found.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
