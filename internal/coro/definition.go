package coro

import (
	"fmt"
	"sync/atomic"

	"coflow/internal/action"
	"coflow/internal/eval"
	"coflow/internal/ir"
	"coflow/internal/trace"
	"coflow/internal/vars"
)

// Waker receives wakeup requests from asynchronous resumptions.
type Waker interface {
	Wake(in *Instance)
}

// Option configures instances created by a Definition.
type Option func(*config)

type config struct {
	maxSteps int
	tracer   trace.Tracer
	waker    Waker
}

// WithMaxSteps bounds the actions executed by a single tick. Zero disables
// the bound.
func WithMaxSteps(n int) Option {
	return func(c *config) { c.maxSteps = n }
}

// WithTracer emits instance and step events to t.
func WithTracer(t trace.Tracer) Option {
	return func(c *config) {
		if t == nil {
			t = trace.Nop
		}
		c.tracer = t
	}
}

// WithWaker routes asynchronous resumptions through w instead of waking the
// instance inline.
func WithWaker(w Waker) Option {
	return func(c *config) { c.waker = w }
}

// Definition is an immutable compiled coroutine. It is safe for concurrent
// use; every instance gets its own frame.
type Definition struct {
	prog   *action.Program
	cfg    config
	nextID atomic.Uint64
}

// NewDefinition validates prog and binds opts to every instance.
func NewDefinition(prog *action.Program, opts ...Option) (*Definition, error) {
	if err := action.Validate(prog); err != nil {
		return nil, fmt.Errorf("coro: invalid program: %w", err)
	}
	d := &Definition{prog: prog, cfg: config{tracer: trace.Nop}}
	for _, opt := range opts {
		opt(&d.cfg)
	}
	return d, nil
}

// Program returns the shared action program.
func (d *Definition) Program() *action.Program { return d.prog }

// New creates an instance whose leading slots hold args, widened the same
// way snapshot decoding widens them. The instance starts Ready at position 0;
// an empty program is Terminated straight away.
func (d *Definition) New(args ...ir.Value) (*Instance, error) {
	if len(args) != d.prog.Params {
		return nil, fmt.Errorf("coro: %s takes %d arguments, got %d", d.prog.Name, d.prog.Params, len(args))
	}
	seed := make([]ir.Value, len(args))
	for i, v := range args {
		n, err := eval.Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("coro: %s argument %d: %w", d.prog.Name, i, err)
		}
		seed[i] = n
	}
	frame, err := vars.New(d.prog.Slots, seed)
	if err != nil {
		return nil, err
	}
	in := d.instance(frame)
	in.settle()
	return in, nil
}

func (d *Definition) instance(frame *vars.Frame) *Instance {
	return &Instance{
		def:      d,
		prog:     d.prog,
		id:       d.nextID.Add(1),
		frame:    frame,
		pending:  action.End,
		tracer:   d.cfg.tracer,
		waker:    d.cfg.waker,
		maxSteps: d.cfg.maxSteps,
	}
}
