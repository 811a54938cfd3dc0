// Package trace provides the tracing subsystem for lowering and execution.
//
// It records compile passes (build, optimize, linearize), coroutine instance
// state transitions and, at the most verbose level, every executed action.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	coflow run counter --trace=- --trace-level=detail
//
// # Architecture
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer kept for post-mortem dumps
//   - MultiTracer: fan-out to several tracers
//   - ZapTracer: forwards events to a zap logger
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only crash dumps
//   - LevelPhase: driver and pass boundaries
//   - LevelDetail: instance state transitions
//   - LevelDebug: everything including single actions
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "optimize", parentID)
//	defer span.End("")
package trace
