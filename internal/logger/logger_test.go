package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestInitCreatesLogFile(t *testing.T) {
	old := Logger
	defer func() { Logger = old }()

	dir := t.TempDir()
	if err := Init(Config{DataDir: dir}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	Info("hello", "key", "value")

	logPath := filepath.Join(dir, "logs", "nudge.log")
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("expected log file at %s: %v", logPath, err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("expected log file to contain message, got %q", string(data))
	}
}

func TestHelpersAreNilSafe(t *testing.T) {
	old := Logger
	defer func() { Logger = old }()

	Logger = nil
	Debug("debug")
	Info("info")
	Warn("warn")
	Error("error")
}

func TestInitWriterRespectsLevel(t *testing.T) {
	old := Logger
	defer func() { Logger = old }()

	var buf bytes.Buffer
	InitWriter(&buf, log.WarnLevel)

	Info("quiet")
	Warn("loud", "slot", 3)

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("info message should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "loud") || !strings.Contains(out, "slot=3") {
		t.Errorf("expected warn message with keyvals, got %q", out)
	}
}
