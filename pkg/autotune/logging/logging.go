// Package logging provides component loggers for pgautotune built on
// charmbracelet/log. Diagnostics go to stderr by default so they land next to
// the server's own startup output; an optional rotating log file can be
// configured as a second sink.
//
// Basic usage:
//
//	if err := logging.Init(logging.DefaultConfig()); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Close()
//
//	logger := logging.Get("probe")
//	logger.Info("resolved resource", "kind", "memory", "value", "4096MB")
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level represents a logging level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError

	// levelAlways bypasses the level threshold. See Logger.Print.
	levelAlways Level = -1
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ErrInvalidFormat is returned when an unknown log format is requested.
var ErrInvalidFormat = errors.New("invalid log format")

// ParseLevel parses a string into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// parseFormat maps a format name onto a charmbracelet/log formatter.
func parseFormat(s string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("%w: %s", ErrInvalidFormat, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default log level (debug, info, warn, error).
	Level string

	// Format is the line format: text (default), json or logfmt.
	Format string

	// Path is an optional log file. Empty disables the file sink.
	Path string

	// Rotation configures log file rotation when Path is set.
	Rotation RotationConfig

	// Components maps component names to their log levels.
	Components map[string]string

	// Console receives diagnostics. Nil means os.Stderr.
	Console io.Writer

	// Quiet disables the console sink entirely.
	Quiet bool
}

// Logger wraps charmbracelet/log with component identification.
// A Logger obtained before Init is reconfigured in place by Init, so
// package-level loggers pick up the final configuration.
type Logger struct {
	mu        sync.RWMutex
	component string
	fields    []interface{}
	sinks     []*log.Logger

	// parent owns the sinks for loggers derived with With.
	parent *Logger
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log(LevelDebug, msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(LevelError, msg, args...)
}

// Print logs msg whatever the configured level. It is reserved for the
// few lines an operator must always see, such as resolved resources.
func (l *Logger) Print(msg string, args ...interface{}) {
	l.log(levelAlways, msg, args...)
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	if len(l.fields) > 0 {
		args = append(append([]interface{}{}, l.fields...), args...)
	}

	owner := l
	if l.parent != nil {
		owner = l.parent
	}
	owner.mu.RLock()
	defer owner.mu.RUnlock()

	for _, sink := range owner.sinks {
		switch level {
		case LevelDebug:
			sink.Debug(msg, args...)
		case LevelInfo:
			sink.Info(msg, args...)
		case LevelWarn:
			sink.Warn(msg, args...)
		case LevelError:
			sink.Error(msg, args...)
		case levelAlways:
			sink.Print(msg, args...)
		}
	}
}

// With returns a logger that prepends the given key/value pairs to every
// entry. The returned logger writes through its parent's sinks.
func (l *Logger) With(args ...interface{}) *Logger {
	fields := make([]interface{}, 0, len(l.fields)+len(args))
	fields = append(fields, l.fields...)
	fields = append(fields, args...)

	parent := l
	if l.parent != nil {
		parent = l.parent
	}

	return &Logger{
		component: l.component,
		fields:    fields,
		parent:    parent,
	}
}

// state holds the global logging state.
type state struct {
	mu          sync.Mutex
	initialized bool
	writer      *RotatingWriter
	console     io.Writer
	quiet       bool
	formatter   log.Formatter
	level       Level
	components  map[string]Level
	loggers     map[string]*Logger
}

var globalState = &state{
	loggers:    make(map[string]*Logger),
	components: make(map[string]Level),
}

// Init initializes the logging system with the given configuration.
// Before Init is called, all loggers discard their output.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	formatter, err := parseFormat(cfg.Format)
	if err != nil {
		return fmt.Errorf("parsing log format: %w", err)
	}

	components := make(map[string]Level, len(cfg.Components))
	for comp, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		components[comp] = parsed
	}

	var writer *RotatingWriter
	if cfg.Path != "" {
		writer, err = NewRotatingWriter(cfg.Path, cfg.Rotation)
		if err != nil {
			return fmt.Errorf("creating log writer: %w", err)
		}
	}

	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if globalState.writer != nil {
		if err := globalState.writer.Close(); err != nil {
			return fmt.Errorf("closing existing writer: %w", err)
		}
	}

	globalState.writer = writer
	globalState.level = level
	globalState.formatter = formatter
	globalState.components = components
	globalState.quiet = cfg.Quiet
	globalState.console = cfg.Console
	if globalState.console == nil {
		globalState.console = os.Stderr
	}
	globalState.initialized = true

	for _, logger := range globalState.loggers {
		globalState.configure(logger)
	}

	return nil
}

// Get returns the logger for the given component, creating it on first use.
func Get(component string) *Logger {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if logger, ok := globalState.loggers[component]; ok {
		return logger
	}

	logger := &Logger{component: component}
	globalState.configure(logger)
	globalState.loggers[component] = logger
	return logger
}

// configure rebuilds a logger's sinks from the current state.
// Must be called with s.mu held.
func (s *state) configure(l *Logger) {
	var sinks []*log.Logger

	if s.initialized {
		level := s.level
		if compLevel, ok := s.components[l.component]; ok {
			level = compLevel
		}

		if !s.quiet {
			sinks = append(sinks, log.NewWithOptions(s.console, log.Options{
				Level:           level.charm(),
				ReportTimestamp: true,
				TimeFormat:      "15:04:05",
				Prefix:          l.component,
				Formatter:       s.formatter,
			}))
		}

		if s.writer != nil {
			sinks = append(sinks, log.NewWithOptions(s.writer, log.Options{
				Level:           level.charm(),
				ReportTimestamp: true,
				TimeFormat:      time.RFC3339,
				Prefix:          l.component,
				Formatter:       s.formatter,
			}))
		}
	}

	l.mu.Lock()
	l.sinks = sinks
	l.mu.Unlock()
}

// Close flushes and closes the log file and returns every logger to the
// silent pre-Init state.
func Close() error {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if !globalState.initialized {
		return nil
	}

	var err error
	if globalState.writer != nil {
		if closeErr := globalState.writer.Close(); closeErr != nil {
			err = fmt.Errorf("closing log writer: %w", closeErr)
		}
		globalState.writer = nil
	}

	globalState.initialized = false
	globalState.components = make(map[string]Level)
	for _, logger := range globalState.loggers {
		globalState.configure(logger)
	}

	return err
}

// DefaultLogPath returns the conventional log file location,
// $XDG_STATE_HOME/pgautotune/pgautotune.log. It is only used when an
// operator asks for a file sink without naming a path.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "pgautotune", "pgautotune.log")
}

// DefaultConfig returns console-only logging at info level.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Rotation: DefaultRotationConfig(),
	}
}
