package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"coflow/internal/cfa"
	"coflow/internal/config"
	"coflow/internal/coro"
	"coflow/internal/observ"
	"coflow/internal/trace"
)

// session carries the state shared by every command: resolved config,
// tracing, colors and the optional phase timer.
type session struct {
	cfg      config.Config
	ctx      context.Context
	useColor bool
	quiet    bool
	timer    *observ.Timer
	cleanup  func(failed bool)
}

func openSession(cmd *cobra.Command) (*session, error) {
	pf := cmd.Root().PersistentFlags()

	configPath, err := pf.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	var cfg config.Config
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		var wd string
		wd, err = os.Getwd()
		if err == nil {
			cfg, err = config.Discover(wd)
		}
	}
	if err != nil {
		return nil, err
	}

	colorFlag, err := pf.GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	useColor, err := colorEnabled(colorFlag, os.Stdout)
	if err != nil {
		return nil, err
	}
	color.NoColor = !useColor

	quiet, err := pf.GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	timings, err := pf.GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	maxDiagnostics, err := pf.GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if maxDiagnostics > 0 {
		cfg.Build.MaxDiagnostics = maxDiagnostics
	}

	cleanup, err := setupTracing(cmd, cfg.Trace)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:      cfg,
		ctx:      cmd.Context(),
		useColor: useColor,
		quiet:    quiet,
		cleanup:  cleanup,
	}
	if timings {
		s.timer = observ.NewTimer()
	}
	return s, nil
}

// close prints timings and releases the tracer.
func (s *session) close(errOut io.Writer, failed bool) {
	if s.timer != nil && !s.quiet {
		fmt.Fprint(errOut, s.timer.Summary())
	}
	if s.cleanup != nil {
		s.cleanup(failed)
	}
}

func (s *session) compileOptions(noOpt bool) cfa.Options {
	return cfa.Options{
		NoOptimize:     noOpt || !s.cfg.OptimizeEnabled(),
		MaxDiagnostics: s.cfg.Build.MaxDiagnostics,
		Timer:          s.timer,
	}
}

// coroOptions returns definition options; maxSteps overrides the config
// budget when positive.
func (s *session) coroOptions(maxSteps int, extra ...coro.Option) []coro.Option {
	if maxSteps <= 0 {
		maxSteps = s.cfg.Run.MaxSteps
	}
	opts := []coro.Option{
		coro.WithMaxSteps(maxSteps),
		coro.WithTracer(trace.FromContext(s.ctx)),
	}
	return append(opts, extra...)
}

// withSession opens a session around fn.
func withSession(cmd *cobra.Command, fn func(s *session) error) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	err = fn(s)
	s.close(cmd.ErrOrStderr(), err != nil)
	return err
}
