package coro

import (
	"strconv"

	"coflow/internal/action"
	"coflow/internal/ir"
	"coflow/internal/trace"
	"coflow/internal/vars"
)

// Instance is one running coroutine.
type Instance struct {
	def   *Definition
	prog  *action.Program
	id    uint64
	frame *vars.Frame

	pos     int32
	state   State
	pending int32 // accept or yield action awaiting Give/Take, End otherwise
	// preludeDone records that the fused prelude of the action at pos has
	// run; it is cleared whenever pos changes.
	preludeDone bool

	running bool
	fresh   []*resumer
	steps   uint64
	// epoch invalidates outstanding resumers when it changes; waiting counts
	// armed resumers of the current epoch that have not been used.
	epoch   uint64
	waiting int

	tracer   trace.Tracer
	waker    Waker
	maxSteps int
}

var _ action.Env = (*Instance)(nil)

func (in *Instance) ID() uint64 { return in.id }

func (in *Instance) Definition() *Definition { return in.def }

func (in *Instance) State() State { return in.state }

// Position returns the index of the next action to run, or -1 at the end.
func (in *Instance) Position() int32 { return in.pos }

// Steps returns the number of actions executed so far.
func (in *Instance) Steps() uint64 { return in.steps }

// Vars returns the instance's variable frame.
func (in *Instance) Vars() *vars.Frame { return in.frame }

// Running reports whether a tick is in progress.
func (in *Instance) Running() bool { return in.running }

// Suspend forces the Suspended state. It is meant to be called from action
// effects; a terminated instance stays terminated.
func (in *Instance) Suspend() {
	if in.state == Terminated {
		return
	}
	in.setState(Suspended)
}

// Terminate forces the Terminated state. It never fails.
func (in *Instance) Terminate() {
	in.pending = action.End
	in.dropResumers()
	in.setState(Terminated)
}

// Waiting reports the number of handed-out resumers still expected to fire.
func (in *Instance) Waiting() int { return in.waiting }

// NewResumer returns a one-shot resumption handle storing into dst.
func (in *Instance) NewResumer(dst ir.Slot) action.Resumer {
	r := &resumer{in: in, dst: dst, epoch: in.epoch, state: resumerPending}
	if in.running {
		in.fresh = append(in.fresh, r)
	} else {
		r.arm()
	}
	return r
}

// Tick runs actions while the instance is Ready. It is a no-op in every
// other state.
func (in *Instance) Tick() error {
	if in.running {
		return in.reentrant("tick")
	}
	return in.tick()
}

// Wakeup moves a Ready or Suspended instance to Ready and ticks it.
func (in *Instance) Wakeup() error {
	if in.running {
		return in.reentrant("wakeup")
	}
	if in.state != Ready && in.state != Suspended {
		return newError(CodeBadState, "wakeup", in.state, "cannot wake a %s instance", in.state)
	}
	in.setState(Ready)
	return in.tick()
}

// Give ticks to a stable state, then delivers v to the pending accept.
func (in *Instance) Give(v ir.Value) error {
	if in.running {
		return in.reentrant("give")
	}
	if err := in.tick(); err != nil {
		return err
	}
	if in.state != Accepting {
		return newError(CodeBadState, "give", in.state, "instance is %s, not accepting", in.state)
	}
	a := &in.prog.Actions[in.pending]
	if err := a.Consumer(in, v); err != nil {
		return in.stepError(in.pending, a, err)
	}
	in.tracePoint("give", "")
	in.pending = action.End
	in.setState(Suspended)
	return in.Wakeup()
}

// Take ticks to a stable state, then computes the pending yield's value and
// resumes. The value is returned even when the resumed run fails.
func (in *Instance) Take() (ir.Value, error) {
	if in.running {
		return nil, in.reentrant("take")
	}
	if err := in.tick(); err != nil {
		return nil, err
	}
	if in.state != Yielding {
		return nil, newError(CodeBadState, "take", in.state, "instance is %s, not yielding", in.state)
	}
	a := &in.prog.Actions[in.pending]
	v, err := a.Producer(in)
	if err != nil {
		return nil, in.stepError(in.pending, a, err)
	}
	in.tracePoint("take", "")
	in.pending = action.End
	in.setState(Suspended)
	return v, in.Wakeup()
}

// Goto jumps to a label and resumes there.
func (in *Instance) Goto(label string) error {
	if in.running {
		return in.reentrant("goto")
	}
	if in.state == Terminated {
		return newError(CodeBadState, "goto", in.state, "instance is terminated")
	}
	idx, ok := in.prog.Label(label)
	if !ok {
		return newError(CodeUnknownLabel, "goto", in.state, "label %q not defined in %s", label, in.prog.Name)
	}
	in.tracePoint("goto", label, "target", action.FormatTarget(idx))
	in.dropResumers()
	in.jump(idx)
	in.pending = action.End
	in.setState(Suspended)
	return in.Wakeup()
}

func (in *Instance) tick() error {
	if in.state != Ready {
		return nil
	}
	in.running = true
	defer func() { in.running = false }()

	budget := in.maxSteps
	for in.state == Ready && in.prog.InRange(in.pos) {
		if in.maxSteps > 0 {
			if budget == 0 {
				return newError(CodeStepLimit, "tick", in.state, "%d steps without reaching a suspension point at a%d", in.maxSteps, in.pos)
			}
			budget--
		}
		err := in.step()
		// Only a step that actually paused waits on its resumers; the rest
		// went unused and must not wake the instance later.
		paused := err == nil && in.state != Ready
		for _, r := range in.fresh {
			switch {
			case r.state != resumerPending:
			case paused:
				r.arm()
			default:
				r.state = resumerStale
			}
		}
		in.fresh = in.fresh[:0]
		if err != nil {
			return err
		}
	}
	in.settle()
	return nil
}

// step runs the action at pos. On failure pos and state are left as they
// were before the failing closure ran.
func (in *Instance) step() error {
	pos := in.pos
	a := &in.prog.Actions[pos]
	in.steps++
	if in.tracer.Enabled() {
		trace.Point(in.tracer, trace.ScopeStep, "step", a.Desc,
			"id", strconv.FormatUint(in.id, 10),
			"pos", strconv.Itoa(int(pos)),
			"kind", a.Kind.String())
	}

	if a.Effect != nil && !in.preludeDone {
		if err := a.Effect(in); err != nil {
			return in.stepError(pos, a, err)
		}
		if a.Kind == action.KindSync {
			in.jump(a.Next)
			return nil
		}
		in.preludeDone = true
		if in.state != Ready {
			// The prelude paused; resume with the kind-specific step.
			return nil
		}
	}

	switch a.Kind {
	case action.KindSync:
		in.jump(a.Next)

	case action.KindSuspendPredicate:
		pause, err := a.Predicate(in)
		if err != nil {
			return in.stepError(pos, a, err)
		}
		if in.state == Terminated {
			return nil
		}
		in.jump(a.Next)
		if pause {
			in.setState(Suspended)
		}

	case action.KindBranch:
		ok, err := a.Cond(in)
		if err != nil {
			return in.stepError(pos, a, err)
		}
		if ok {
			in.jump(a.Next)
		} else {
			in.jump(a.Else)
		}

	case action.KindAccept:
		in.pending = pos
		in.jump(a.Next)
		in.setState(Accepting)

	case action.KindYield:
		in.pending = pos
		in.jump(a.Next)
		in.setState(Yielding)
	}
	return nil
}

// dropResumers makes every resumer handed out so far stale.
func (in *Instance) dropResumers() {
	in.epoch++
	in.waiting = 0
	for _, r := range in.fresh {
		r.state = resumerStale
	}
	in.fresh = in.fresh[:0]
}

func (in *Instance) jump(pos int32) {
	in.pos = pos
	in.preludeDone = false
}

// settle terminates an instance that ran off the end of its program.
func (in *Instance) settle() {
	if in.prog.InRange(in.pos) {
		return
	}
	if in.state == Ready || in.state == Suspended {
		in.setState(Terminated)
	}
}

func (in *Instance) setState(s State) {
	if in.state == s {
		return
	}
	from := in.state
	in.state = s
	if in.tracer.Enabled() {
		trace.Point(in.tracer, trace.ScopeInstance, "state", s.String(),
			"id", strconv.FormatUint(in.id, 10),
			"from", from.String(),
			"pos", action.FormatTarget(in.pos))
	}
}

func (in *Instance) tracePoint(name, detail string, kv ...string) {
	if !in.tracer.Enabled() {
		return
	}
	kv = append(kv, "id", strconv.FormatUint(in.id, 10))
	trace.Point(in.tracer, trace.ScopeInstance, name, detail, kv...)
}

func (in *Instance) reentrant(op string) error {
	return newError(CodeReentrant, op, in.state, "called while a tick is running")
}

func (in *Instance) stepError(pos int32, a *action.Action, err error) error {
	return &StepError{Pos: pos, Kind: a.Kind, Desc: a.Desc, Err: err}
}
