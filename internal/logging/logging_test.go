package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"WARN", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"loud", 0, true},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConfigureWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "skiff.log")

	closer, err := ConfigureWithFile(LevelWarn, path)
	if err != nil {
		t.Fatal(err)
	}

	// Terminal level is warn, but the file still records info.
	slog.Info("copied files", "count", 3)
	slog.Warn("ping failed")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "copied files") {
		t.Errorf("file log missing info record:\n%s", content)
	}
	if !strings.Contains(content, "ping failed") {
		t.Errorf("file log missing warn record:\n%s", content)
	}
}

func TestConfigureWithFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skiff.log")

	for i := 0; i < 2; i++ {
		closer, err := ConfigureWithFile(LevelInfo, path)
		if err != nil {
			t.Fatal(err)
		}
		slog.Info("run marker")
		if err := closer.Close(); err != nil {
			t.Fatal(err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "run marker"); got != 2 {
		t.Errorf("found %d markers, want 2 (log must append, not truncate)", got)
	}
}

func TestDefaultLogPath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state-test")
	if got := DefaultLogPath(); got != "/tmp/state-test/skiff/skiff.log" {
		t.Errorf("DefaultLogPath() = %q", got)
	}
}
