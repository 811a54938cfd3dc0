package cfa

import (
	"context"
	"fmt"
	"strconv"

	"coflow/internal/action"
	"coflow/internal/diag"
	"coflow/internal/ir"
	"coflow/internal/observ"
	"coflow/internal/trace"
)

// Options configures Compile.
type Options struct {
	Params     int    // leading slots seeded from call arguments
	Input      string // declared accept element type
	Output     string // declared yield element type
	NoOptimize bool
	// MaxDiagnostics caps collected diagnostics; 0 means 100.
	MaxDiagnostics int
	// Timer, when set, records one phase per pass.
	Timer *observ.Timer
}

// Result is a compiled definition.
type Result struct {
	Program *action.Program
	// Warnings holds non-fatal diagnostics. Errors are returned as *diag.Error.
	Warnings []diag.Diagnostic
	Stats    Stats
}

// Compile lowers root into a validated program: build, optimize (unless
// disabled), linearize, validate.
func Compile(ctx context.Context, name string, root *ir.Stmt, opts Options) (*Result, error) {
	tracer := trace.FromContext(ctx)
	maxDiags := opts.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = 100
	}

	var rootSpan *trace.Span
	if tracer.Enabled() {
		rootSpan = trace.Begin(tracer, trace.ScopePass, "compile", trace.ParentSpan(ctx))
		rootSpan.WithExtra("program", name)
	}
	phase := func(pass string) (func(note string), *trace.Span) {
		idx := opts.Timer.Begin(pass)
		span := trace.Begin(tracer, trace.ScopePass, pass, rootSpan.ID())
		return func(note string) {
			opts.Timer.End(idx, note)
			span.End(note)
		}, span
	}

	bag := diag.NewBag(maxDiags)
	done, _ := phase("build")
	b := NewBuilder(diag.BagReporter{Bag: bag}, opts.Params)
	g := b.Build(root)
	done("diags=" + strconv.Itoa(bag.Len()))
	bag.Sort()
	bag.Dedup()
	if b.Failed() || bag.HasErrors() {
		rootSpan.End("failed")
		if err := bag.Err(); err != nil {
			return nil, fmt.Errorf("cfa: %s: %w", name, err)
		}
		return nil, fmt.Errorf("cfa: %s: build failed; diagnostic limit %d reached", name, bag.Cap())
	}

	var stats Stats
	if !opts.NoOptimize {
		done, span := phase("optimize")
		g.Entry, stats = Optimize(g.Entry, g.Labels)
		span.WithExtra("fused", strconv.Itoa(stats.Fused)).
			WithExtra("collapsed", strconv.Itoa(stats.Collapsed))
		done("")
	}

	done, span := phase("linearize")
	lin, err := Linearize(g.Entry, g.Labels)
	if err != nil {
		done("error")
		rootSpan.End("failed")
		return nil, fmt.Errorf("cfa: %s: %w", name, linError(err))
	}
	span.WithExtra("actions", strconv.Itoa(len(lin.Actions)))
	done("")

	prog := &action.Program{
		Name:    name,
		Actions: lin.Actions,
		Labels:  lin.Labels,
		Params:  opts.Params,
		Slots:   g.Slots,
		Input:   opts.Input,
		Output:  opts.Output,
	}

	done, _ = phase("validate")
	err = action.Validate(prog)
	if err != nil {
		done("error")
		rootSpan.End("failed")
		return nil, fmt.Errorf("cfa: %s: %w", name, linError(err))
	}
	done("")
	rootSpan.End("")

	return &Result{Program: prog, Warnings: bag.Items(), Stats: stats}, nil
}

func linError(err error) error {
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.LinInvalidProgram, "", err.Error()))
	return bag.Err()
}
