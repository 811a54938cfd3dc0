// Package driver runs compiled coroutine instances on behalf of the CLI:
// feeding accepts, collecting yields, recovering through labels and waiting
// for asynchronous host calls.
package driver

import (
	"context"
	"errors"
	"fmt"

	"coflow/internal/coro"
	"coflow/internal/ir"
	"coflow/internal/sched"
)

// ErrInputExhausted is returned when an instance accepts more values than
// were supplied.
var ErrInputExhausted = errors.New("driver: input exhausted")

var errLimit = errors.New("driver: event limit reached")

// EventKind classifies what the driver observed.
type EventKind uint8

const (
	EventYield EventKind = iota
	EventAccept
	EventSuspend
	EventGoto
	EventTerminate
)

func (k EventKind) String() string {
	switch k {
	case EventYield:
		return "yield"
	case EventAccept:
		return "accept"
	case EventSuspend:
		return "suspend"
	case EventGoto:
		return "goto"
	case EventTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// Event is one externally visible step of a run.
type Event struct {
	Kind  EventKind
	Value ir.Value
	Label string
}

func (e Event) String() string {
	switch e.Kind {
	case EventYield, EventAccept:
		return fmt.Sprintf("%s %v", e.Kind, e.Value)
	case EventGoto:
		return "goto " + e.Label
	default:
		return e.Kind.String()
	}
}

// Options control a single Drive call.
type Options struct {
	Inputs []ir.Value
	// Recover is the label to jump to when the instance parks on a bare
	// suspend; MaxRecover bounds the jumps (default 10). Once exhausted the
	// instance is woken instead.
	Recover    string
	MaxRecover int
	// Limit stops the run after that many events; zero means unlimited.
	Limit int
	// Pending reports outstanding asynchronous host calls. While it is
	// positive a suspended instance is waited on, not woken.
	Pending func() int
	// OnEvent observes events as they happen.
	OnEvent func(Event)
}

// Transcript is the outcome of Drive.
type Transcript struct {
	Events []Event
	// Stopped reports that Limit cut the run short; the instance is left in
	// a resumable state.
	Stopped bool
	State   coro.State
	Steps   uint64
}

// Strings renders the events one per element.
func (t *Transcript) Strings() []string {
	out := make([]string, len(t.Events))
	for i, ev := range t.Events {
		out[i] = ev.String()
	}
	return out
}

type run struct {
	opts   Options
	tr     *Transcript
	inputs []ir.Value
}

// record appends ev to the transcript without checking the limit.
func (r *run) record(ev Event) {
	r.tr.Events = append(r.tr.Events, ev)
	if r.opts.OnEvent != nil {
		r.opts.OnEvent(ev)
	}
}

func (r *run) limitReached() bool {
	return r.opts.Limit > 0 && len(r.tr.Events) >= r.opts.Limit
}

// emit records ev and stops the run with errLimit once the limit is hit.
func (r *run) emit(ev Event) error {
	r.record(ev)
	if r.limitReached() {
		return errLimit
	}
	return nil
}

// Drive runs in on exec until it terminates, the event limit is reached, or
// ctx ends. in should not be spawned on exec yet.
func Drive(ctx context.Context, exec *sched.Executor, in *coro.Instance, opts Options) (*Transcript, error) {
	if opts.MaxRecover <= 0 {
		opts.MaxRecover = 10
	}
	r := &run{opts: opts, tr: &Transcript{}, inputs: opts.Inputs}
	exec.Spawn(in, sched.Handlers{
		Yield: func(_ sched.TaskID, v ir.Value) error {
			return r.emit(Event{Kind: EventYield, Value: v})
		},
		Accept: func(sched.TaskID) (ir.Value, error) {
			if len(r.inputs) == 0 {
				return nil, ErrInputExhausted
			}
			v := r.inputs[0]
			r.inputs = r.inputs[1:]
			// The value must reach the instance, so the limit is checked at
			// the next event instead.
			r.record(Event{Kind: EventAccept, Value: v})
			return v, nil
		},
	})

	err := r.loop(ctx, exec, in)
	r.tr.State = in.State()
	r.tr.Steps = in.Steps()
	if errors.Is(err, errLimit) {
		r.tr.Stopped = true
		return r.tr, nil
	}
	return r.tr, err
}

func (r *run) loop(ctx context.Context, exec *sched.Executor, in *coro.Instance) error {
	recovered := 0
	for {
		if err := exec.Drain(); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		switch in.State() {
		case coro.Terminated:
			r.record(Event{Kind: EventTerminate})
			return nil

		case coro.Suspended:
			if r.opts.Pending != nil && r.opts.Pending() > 0 {
				if err := exec.Wait(ctx); err != nil {
					return err
				}
				continue
			}
			if r.opts.Recover != "" && recovered < r.opts.MaxRecover {
				recovered++
				if err := r.emit(Event{Kind: EventGoto, Label: r.opts.Recover}); err != nil {
					return err
				}
				if err := in.Goto(r.opts.Recover); err != nil {
					return err
				}
			} else if err := r.emit(Event{Kind: EventSuspend}); err != nil {
				return err
			}
			exec.Wake(in)

		default:
			// Driven outside the executor, e.g. by an inline resumption.
			exec.Wake(in)
		}
	}
}
