package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"coflow/internal/config"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, config.FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, `
[build]
optimize = false

[trace]
level = "detail"
format = "zap"

[run]
max_steps = 50
seed = 7
fuzz = true
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Discover(nested)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != path {
		t.Errorf("path = %q, want %q", cfg.Path, path)
	}
	if cfg.OptimizeEnabled() {
		t.Error("optimize should be disabled")
	}
	if cfg.Trace.Level != "detail" || cfg.Trace.Format != "zap" {
		t.Errorf("trace = %+v", cfg.Trace)
	}
	if cfg.Trace.Mode != "stream" || cfg.Trace.Ring != 4096 {
		t.Errorf("trace defaults not kept: %+v", cfg.Trace)
	}
	if cfg.Run.MaxSteps != 50 || cfg.Run.Seed != 7 || !cfg.Run.Fuzz {
		t.Errorf("run = %+v", cfg.Run)
	}
	if cfg.Run.Jobs <= 0 || cfg.Run.MaxRecover != 10 {
		t.Errorf("run defaults not filled: %+v", cfg.Run)
	}
}

func TestDiscoverWithoutFile(t *testing.T) {
	cfg, err := config.Discover(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != "" || !cfg.OptimizeEnabled() || cfg.Build.MaxDiagnostics != 100 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "[run]\nturbo = true\n", "unknown keys: run.turbo"},
		{"bad level", "[trace]\nlevel = \"loud\"\n", "[trace] level"},
		{"bad mode", "[trace]\nmode = \"tape\"\n", "[trace] mode"},
		{"negative steps", "[run]\nmax_steps = -1\n", "max_steps"},
		{"syntax", "[run\n", "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := config.Load(path)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
