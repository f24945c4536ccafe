package logging_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jamesainslie/pgautotune/pkg/autotune/logging"
)

// TestInit tests the Init function with various configurations.
// Note: This test cannot run in parallel with other tests that use global state.
func TestInit(t *testing.T) {
	fileDir := t.TempDir()

	tests := []struct {
		name    string
		cfg     logging.Config
		wantErr error
	}{
		{
			name: "console only defaults",
			cfg:  logging.Config{Level: "info", Console: &bytes.Buffer{}},
		},
		{
			name: "with file sink",
			cfg: logging.Config{
				Level:   "debug",
				Path:    filepath.Join(fileDir, "debug.log"),
				Console: &bytes.Buffer{},
			},
		},
		{
			name: "component overrides",
			cfg: logging.Config{
				Level:      "info",
				Console:    &bytes.Buffer{},
				Components: map[string]string{"probe": "debug", "tuner": "warn"},
			},
		},
		{
			name: "json format",
			cfg:  logging.Config{Level: "info", Format: "json", Console: &bytes.Buffer{}},
		},
		{
			name:    "invalid level",
			cfg:     logging.Config{Level: "loud"},
			wantErr: logging.ErrInvalidLevel,
		},
		{
			name:    "invalid component level",
			cfg:     logging.Config{Level: "info", Components: map[string]string{"probe": "loud"}},
			wantErr: logging.ErrInvalidLevel,
		},
		{
			name:    "invalid format",
			cfg:     logging.Config{Level: "info", Format: "xml"},
			wantErr: logging.ErrInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := logging.Init(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Init() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Init() error = %v", err)
			}
			if closeErr := logging.Close(); closeErr != nil {
				t.Errorf("Close() error = %v", closeErr)
			}
		})
	}
}

func TestLoggerBeforeInitIsSilent(t *testing.T) {
	var buf bytes.Buffer

	logger := logging.Get("early")
	logger.Info("dropped before init")

	if err := logging.Init(logging.Config{Level: "info", Console: &buf}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer func() { _ = logging.Close() }()

	logger.Info("kept after init")

	out := buf.String()
	if strings.Contains(out, "dropped before init") {
		t.Error("message logged before Init should be discarded")
	}
	if !strings.Contains(out, "kept after init") {
		t.Errorf("logger obtained before Init was not reconfigured, got: %q", out)
	}
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	if err := logging.Init(logging.Config{Level: "warn", Console: &buf}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer func() { _ = logging.Close() }()

	logger := logging.Get("levels")
	logger.Debug("debug should not appear")
	logger.Info("info should not appear")
	logger.Warn("warn should appear")
	logger.Error("error should appear")

	out := buf.String()
	if strings.Contains(out, "debug should not appear") || strings.Contains(out, "info should not appear") {
		t.Errorf("messages below warn leaked: %q", out)
	}
	if !strings.Contains(out, "warn should appear") || !strings.Contains(out, "error should appear") {
		t.Errorf("messages at or above warn missing: %q", out)
	}
}

func TestPrintIgnoresLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := logging.Init(logging.Config{Level: "error", Console: &buf}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer func() { _ = logging.Close() }()

	logger := logging.Get("always").With("run", "r1")
	logger.Info("info should not appear")
	logger.Print("print should appear", "kind", "memory")

	out := buf.String()
	if strings.Contains(out, "info should not appear") {
		t.Errorf("info leaked at error level: %q", out)
	}
	if !strings.Contains(out, "print should appear") || !strings.Contains(out, "run=r1") {
		t.Errorf("Print line missing or without fields: %q", out)
	}
}

func TestComponentLevelOverride(t *testing.T) {
	var buf bytes.Buffer
	cfg := logging.Config{
		Level:      "error",
		Console:    &buf,
		Components: map[string]string{"verbose": "debug"},
	}
	if err := logging.Init(cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer func() { _ = logging.Close() }()

	logging.Get("normal").Info("normal info should not appear")
	logging.Get("verbose").Info("verbose info should appear")

	out := buf.String()
	if strings.Contains(out, "normal info should not appear") {
		t.Error("normal info message should not appear when default level is error")
	}
	if !strings.Contains(out, "verbose info should appear") {
		t.Error("verbose info message should appear when component level is debug")
	}
}

func TestQuietDisablesConsole(t *testing.T) {
	var buf bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "quiet.log")

	if err := logging.Init(logging.Config{Level: "info", Console: &buf, Quiet: true, Path: logPath}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logging.Get("quiet").Info("file only")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if buf.Len() != 0 {
		t.Errorf("console received output in quiet mode: %q", buf.String())
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "file only") {
		t.Errorf("log file missing message, got: %s", content)
	}
}

func TestWithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	if err := logging.Init(logging.Config{Level: "info", Format: "logfmt", Console: &buf}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer func() { _ = logging.Close() }()

	logger := logging.Get("with").With("run", "abc123")
	logger.Info("tagged", "key", "value")

	out := buf.String()
	if !strings.Contains(out, "run=abc123") || !strings.Contains(out, "key=value") {
		t.Errorf("fields missing from output: %q", out)
	}
}

func TestConcurrentWrites(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "concurrent.log")
	if err := logging.Init(logging.Config{Level: "debug", Quiet: true, Path: logPath}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	const numGoroutines = 10
	const numMessages = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			logger := logging.Get("concurrent")
			for j := 0; j < numMessages; j++ {
				logger.Info("message", "goroutine", id, "index", j)
			}
		}(i)
	}
	wg.Wait()

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != numGoroutines*numMessages {
		t.Errorf("expected %d log lines, got %d", numGoroutines*numMessages, len(lines))
	}
}

func TestDefaultLogPath(t *testing.T) {
	t.Parallel()

	path := logging.DefaultLogPath()
	if !strings.HasSuffix(path, filepath.Join("pgautotune", "pgautotune.log")) {
		t.Errorf("DefaultLogPath() = %q, want suffix pgautotune/pgautotune.log", path)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		level   string
		want    logging.Level
		wantErr bool
	}{
		{"debug level", "debug", logging.LevelDebug, false},
		{"info level", "info", logging.LevelInfo, false},
		{"warn level", "warn", logging.LevelWarn, false},
		{"warning alias", "warning", logging.LevelWarn, false},
		{"error level", "error", logging.LevelError, false},
		{"DEBUG uppercase", "DEBUG", logging.LevelDebug, false},
		{"invalid level", "invalid", logging.LevelInfo, true},
		{"empty level", "", logging.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := logging.ParseLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}
