package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"coflow/internal/config"
	"coflow/internal/trace"
)

// setupTracing builds the tracer from config, with trace flags overriding
// it, and attaches it to the command context. The returned cleanup flushes
// and closes the tracer; ring contents are printed when the ring is the only
// sink or the command failed.
func setupTracing(cmd *cobra.Command, cfg config.TraceTable) (func(failed bool), error) {
	root := cmd.Root()
	pf := root.PersistentFlags()

	traceOutput, err := pf.GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := stringFlagOr(cmd, "trace-level", cfg.Level)
	if err != nil {
		return nil, err
	}
	modeStr, err := stringFlagOr(cmd, "trace-mode", cfg.Mode)
	if err != nil {
		return nil, err
	}
	formatStr, err := stringFlagOr(cmd, "trace-format", cfg.Format)
	if err != nil {
		return nil, err
	}
	ringSize, err := pf.GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	if ringSize <= 0 {
		ringSize = cfg.Ring
	}
	heartbeatInterval, err := pf.GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	// An output file alone implies phase tracing.
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func(bool) {}, nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace format: %w", err)
	}
	if traceOutput == "" {
		traceOutput = cfg.Output
	}
	if traceOutput == "" || traceOutput == "stderr" {
		traceOutput = "-"
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Heartbeat:  heartbeatInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)

	var heartbeat *trace.Heartbeat
	if heartbeatInterval > 0 {
		heartbeat = trace.StartHeartbeat(tracer, heartbeatInterval)
	}

	cleanup := func(failed bool) {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		var ring *trace.RingTracer
		switch t := tracer.(type) {
		case *trace.RingTracer:
			ring = t
		case *trace.MultiTracer:
			if failed {
				ring = t.Ring()
			}
		}
		if ring != nil {
			if err := ring.Dump(os.Stderr, format); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}

// stringFlagOr returns the persistent flag value when it was set, fallback
// otherwise.
func stringFlagOr(cmd *cobra.Command, name, fallback string) (string, error) {
	pf := cmd.Root().PersistentFlags()
	v, err := pf.GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	if !pf.Changed(name) {
		return fallback, nil
	}
	return v, nil
}
