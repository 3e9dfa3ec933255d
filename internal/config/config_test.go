package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "itmdump.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
stimulus = 1
follow = true
retry_interval = "250ms"
log_level = "debug"
metrics_addr = "127.0.0.1:9464"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Stimulus != 1 {
		t.Fatalf("unexpected stimulus: %d", cfg.Stimulus)
	}
	if !cfg.Follow {
		t.Fatalf("expected follow enabled")
	}
	if cfg.RetryInterval != 250*time.Millisecond {
		t.Fatalf("unexpected retry interval: %v", cfg.RetryInterval)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel)
	}
	if cfg.MetricsAddr != "127.0.0.1:9464" {
		t.Fatalf("unexpected metrics addr: %q", cfg.MetricsAddr)
	}
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "absent.toml") {
		t.Errorf("error should name the path, got: %v", err)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		wantSub  string
	}{
		{"stimulus out of range", "stimulus = 300", "out of range"},
		{"negative stimulus", "stimulus = -1", "out of range"},
		{"bad duration", `retry_interval = "soon"`, "retry_interval"},
		{"zero duration", `retry_interval = "0s"`, "positive"},
		{"bad log level", `log_level = "loud"`, "log level"},
		{"not toml", "stimulus = = 1", "parsing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.contents)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err, tt.wantSub)
			}
		})
	}
}
