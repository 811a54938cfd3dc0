// Package config loads coflow.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"coflow/internal/trace"
)

// FileName is the configuration file looked up from the working directory.
const FileName = "coflow.toml"

// Config is the decoded coflow.toml. Zero values are replaced by Default.
type Config struct {
	Build Build      `toml:"build"`
	Trace TraceTable `toml:"trace"`
	Run   Run        `toml:"run"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `toml:"-"`
}

type Build struct {
	Optimize       *bool `toml:"optimize"`
	MaxDiagnostics int   `toml:"max_diagnostics"`
}

type TraceTable struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Format string `toml:"format"`
	Output string `toml:"output"`
	Ring   int    `toml:"ring_size"`
}

type Run struct {
	MaxSteps   int    `toml:"max_steps"`
	Jobs       int    `toml:"jobs"`
	Fuzz       bool   `toml:"fuzz"`
	Seed       uint64 `toml:"seed"`
	MaxRecover int    `toml:"max_recover"`
	Snapshots  string `toml:"snapshots"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	optimize := true
	return Config{
		Build: Build{Optimize: &optimize, MaxDiagnostics: 100},
		Trace: TraceTable{Level: "off", Mode: "stream", Format: "auto", Output: "stderr", Ring: 4096},
		Run:   Run{MaxSteps: 1_000_000, Jobs: runtime.GOMAXPROCS(0), MaxRecover: 10},
	}
}

// OptimizeEnabled reports the effective [build] optimize value.
func (c *Config) OptimizeEnabled() bool {
	return c.Build.Optimize == nil || *c.Build.Optimize
}

// Find returns the nearest coflow.toml at or above startDir.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load decodes path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	fillDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads the nearest coflow.toml, or returns the defaults when there
// is none.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

func fillDefaults(cfg *Config) {
	def := Default()
	if cfg.Build.MaxDiagnostics <= 0 {
		cfg.Build.MaxDiagnostics = def.Build.MaxDiagnostics
	}
	if cfg.Trace.Ring <= 0 {
		cfg.Trace.Ring = def.Trace.Ring
	}
	if cfg.Run.Jobs <= 0 {
		cfg.Run.Jobs = def.Run.Jobs
	}
	if cfg.Run.MaxRecover <= 0 {
		cfg.Run.MaxRecover = def.Run.MaxRecover
	}
}

// Validate checks the trace settings parse and the run limits are sane.
func (c *Config) Validate() error {
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("[trace] level: %w", err)
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		return fmt.Errorf("[trace] mode: %w", err)
	}
	if _, err := trace.ParseFormat(c.Trace.Format); err != nil {
		return fmt.Errorf("[trace] format: %w", err)
	}
	if c.Run.MaxSteps < 0 {
		return fmt.Errorf("[run] max_steps must not be negative, got %d", c.Run.MaxSteps)
	}
	return nil
}
