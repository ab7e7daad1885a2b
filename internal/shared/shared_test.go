package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestLoggers(t *testing.T) {
	t.Run("configured logger drops entries below the level", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewConfiguredLogger(&buf, LogConfig{Level: "warn"})

		l.Info("quiet")
		l.Warn("loud")

		if strings.Contains(buf.String(), "quiet") {
			t.Error("expected info entry to be dropped")
		}
		if !strings.Contains(buf.String(), "loud") {
			t.Error("expected warn entry to be written")
		}
	})

	t.Run("child logger carries its fields", func(t *testing.T) {
		var buf bytes.Buffer
		l := WithLogger(NewLogger(&buf), "component", "proxy")
		l.Info("hello")

		if !strings.Contains(buf.String(), "component=proxy") {
			t.Errorf("expected component field, got %q", buf.String())
		}
	})

	t.Run("file logger creates parent directories and appends", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "tui.log")

		l, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		SetLogLevel(l, log.DebugLevel)
		l.Debug("first")

		l, err = NewFileLogger(path)
		if err != nil {
			t.Fatalf("expected no error on reopen, got %v", err)
		}
		l.Info("second")

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log: %v", err)
		}
		if !strings.Contains(string(data), "first") || !strings.Contains(string(data), "second") {
			t.Errorf("expected both entries, got %q", data)
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected distinct ids")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("expected a UUID, got %q", a)
	}
}
