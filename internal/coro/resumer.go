package coro

import (
	"coflow/internal/action"
	"coflow/internal/ir"
)

type resumerState uint8

const (
	resumerPending resumerState = iota // created during a step that has not returned yet
	resumerArmed                       // the instance paused waiting for it
	resumerDone
	resumerStale // issued by a failed step or dropped before it was armed
)

// resumer is the one-shot handle given to async callees and suspend
// registrars. It is not safe for concurrent use: resume from the driving
// goroutine, or hand the call to a scheduler (see sched.Executor.Post).
type resumer struct {
	in    *Instance
	dst   ir.Slot
	epoch uint64
	state resumerState
}

var _ action.Resumer = (*resumer)(nil)

// Resume stores v into the destination slot. A resumption that arrives
// before the suspending action returned completes it synchronously; a later
// one wakes the instance, through the Waker when one is configured.
func (r *resumer) Resume(v ir.Value) error {
	if r.state == resumerStale || r.epoch != r.in.epoch {
		return newError(CodeStaleResumer, "resume", r.in.state, "instance moved on since the resumer was issued")
	}
	if r.state == resumerDone {
		return newError(CodeResumedTwice, "resume", r.in.state, "resumer already used")
	}
	if r.dst.IsValid() {
		if err := r.in.frame.Set(r.dst, v); err != nil {
			return err
		}
	}
	armed := r.state == resumerArmed
	r.state = resumerDone
	if !armed {
		return nil
	}
	r.in.waiting--
	r.in.tracePoint("resume", "")
	if r.in.waker != nil {
		r.in.waker.Wake(r.in)
		return nil
	}
	return r.in.Wakeup()
}

func (r *resumer) Resumed() bool {
	return r.state == resumerDone
}

func (r *resumer) arm() {
	if r.state == resumerPending && r.epoch == r.in.epoch {
		r.state = resumerArmed
		r.in.waiting++
	}
}
