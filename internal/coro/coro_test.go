package coro_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"coflow/internal/action"
	"coflow/internal/cfa"
	"coflow/internal/coro"
	"coflow/internal/eval"
	"coflow/internal/ir"
	"coflow/internal/trace"
)

func define(t *testing.T, root *ir.Stmt, params int, opts ...coro.Option) *coro.Definition {
	t.Helper()
	return defineWith(t, root, cfa.Options{Params: params}, opts...)
}

func defineWith(t *testing.T, root *ir.Stmt, copts cfa.Options, opts ...coro.Option) *coro.Definition {
	t.Helper()
	res, err := cfa.Compile(context.Background(), t.Name(), root, copts)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	def, err := coro.NewDefinition(res.Program, opts...)
	if err != nil {
		t.Fatalf("definition: %v", err)
	}
	return def
}

func start(t *testing.T, def *coro.Definition, args ...ir.Value) *coro.Instance {
	t.Helper()
	in, err := def.New(args...)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return in
}

// drive runs in to completion, feeding inputs to accepts and waking every
// suspension, and records what the outside world observed.
func drive(t *testing.T, in *coro.Instance, inputs ...ir.Value) []string {
	t.Helper()
	var out []string
	for guard := 0; guard < 1000; guard++ {
		if err := in.Tick(); err != nil {
			t.Fatalf("tick: %v", err)
		}
		switch in.State() {
		case coro.Terminated:
			return append(out, "end")
		case coro.Yielding:
			v, err := in.Take()
			if err != nil {
				t.Fatalf("take: %v", err)
			}
			out = append(out, fmt.Sprintf("yield %v", v))
		case coro.Accepting:
			if len(inputs) == 0 {
				t.Fatalf("program wants more input after %v", out)
			}
			v := inputs[0]
			inputs = inputs[1:]
			if err := in.Give(v); err != nil {
				t.Fatalf("give: %v", err)
			}
			out = append(out, fmt.Sprintf("accept %v", v))
		case coro.Suspended:
			out = append(out, "suspend")
			if err := in.Wakeup(); err != nil {
				t.Fatalf("wakeup: %v", err)
			}
		}
	}
	t.Fatalf("program did not terminate: %v", out)
	return nil
}

func counter() *ir.Stmt {
	return ir.Seq(
		ir.Assign(0, ir.Int(0)),
		ir.While(ir.Binary(ir.OpLt, ir.Load(0), ir.Int(3)), ir.Seq(
			ir.Yield(ir.Load(0)),
			ir.Assign(0, ir.Binary(ir.OpAdd, ir.Load(0), ir.Int(1))),
		)),
		ir.Terminate(),
	)
}

func summer() *ir.Stmt {
	return ir.Seq(
		ir.Assign(0, ir.Int(0)),
		ir.DoWhile(ir.Seq(
			ir.Accept(1),
			ir.Assign(0, ir.Binary(ir.OpAdd, ir.Load(0), ir.Load(1))),
		), ir.Binary(ir.OpNe, ir.Load(1), ir.Int(0))),
		ir.Yield(ir.Load(0)),
	)
}

func mixed() *ir.Stmt {
	return ir.Seq(
		ir.Assign(0, ir.Binary(ir.OpAdd, ir.AcceptExpr(), ir.AcceptExpr())),
		ir.If(
			ir.Binary(ir.OpAnd,
				ir.Binary(ir.OpGt, ir.Load(0), ir.Int(5)),
				ir.Binary(ir.OpEq, ir.AcceptExpr(), ir.Int(1))),
			ir.Yield(ir.Load(0)),
			ir.Yield(ir.Unary(ir.OpNeg, ir.Load(0))),
		),
		ir.Suspend(nil),
		ir.Yield(ir.Int(0)),
	)
}

func TestCounterScenario(t *testing.T) {
	in := start(t, define(t, counter(), 0))
	for want := int64(0); want < 3; want++ {
		v, err := in.Take()
		if err != nil {
			t.Fatalf("take %d: %v", want, err)
		}
		if v != want {
			t.Errorf("take = %v, want %d", v, want)
		}
	}
	_, err := in.Take()
	if !errors.Is(err, coro.ErrBadState) {
		t.Fatalf("fourth take: expected ErrBadState, got %v", err)
	}
	if in.State() != coro.Terminated {
		t.Errorf("state = %s, want terminated", in.State())
	}
}

func TestDoublerScenario(t *testing.T) {
	programs := map[string]*ir.Stmt{
		"statement":  ir.Seq(ir.Accept(0), ir.Yield(ir.Binary(ir.OpMul, ir.Load(0), ir.Int(2)))),
		"expression": ir.Seq(ir.Assign(0, ir.AcceptExpr()), ir.Yield(ir.Binary(ir.OpMul, ir.Load(0), ir.Int(2)))),
	}
	for name, root := range programs {
		t.Run(name, func(t *testing.T) {
			in := start(t, define(t, root, 0))
			if err := in.Give(5); err != nil {
				t.Fatalf("give: %v", err)
			}
			v, err := in.Take()
			if err != nil {
				t.Fatalf("take: %v", err)
			}
			if v != int64(10) {
				t.Errorf("take = %v (%T), want 10", v, v)
			}
			if in.State() != coro.Terminated {
				t.Errorf("state = %s, want terminated", in.State())
			}
		})
	}
}

func TestAcceptLeavesSuccessorPosition(t *testing.T) {
	def := define(t, ir.Seq(ir.Accept(0), ir.Yield(ir.Load(0))), 0)
	in := start(t, def)
	if err := in.Tick(); err != nil {
		t.Fatal(err)
	}
	if in.State() != coro.Accepting || in.Position() != def.Program().Actions[0].Next {
		t.Fatalf("state=%s pos=%d after accept", in.State(), in.Position())
	}
	if err := in.Give("only"); err != nil {
		t.Fatal(err)
	}
	if err := in.Give("again"); !errors.Is(err, coro.ErrBadState) {
		t.Errorf("second give: expected ErrBadState, got %v", err)
	}
	if v, _ := in.Take(); v != "only" {
		t.Errorf("take = %v, want only", v)
	}
}

func TestLoopCorrectness(t *testing.T) {
	pre := ir.Seq(
		ir.While(ir.Binary(ir.OpLt, ir.Load(0), ir.Int(0)), ir.Yield(ir.Int(1))),
		ir.Yield(ir.Int(2)),
	)
	got := drive(t, start(t, define(t, pre, 1), 5))
	if want := []string{"yield 2", "end"}; !reflect.DeepEqual(got, want) {
		t.Errorf("pre-condition loop: %v, want %v", got, want)
	}

	post := ir.Seq(
		ir.DoWhile(ir.Yield(ir.Int(1)), ir.Binary(ir.OpLt, ir.Load(0), ir.Int(0))),
		ir.Yield(ir.Int(2)),
	)
	got = drive(t, start(t, define(t, post, 1), 5))
	if want := []string{"yield 1", "yield 2", "end"}; !reflect.DeepEqual(got, want) {
		t.Errorf("post-condition loop: %v, want %v", got, want)
	}
}

func TestBreakAndContinue(t *testing.T) {
	// i := 0; while true { i++; if i == 2 { continue }; if i > 3 { break }; yield i }
	root := ir.Seq(
		ir.Assign(0, ir.Int(0)),
		ir.While(ir.Bool(true), ir.Seq(
			ir.Assign(0, ir.Binary(ir.OpAdd, ir.Load(0), ir.Int(1))),
			ir.If(ir.Binary(ir.OpEq, ir.Load(0), ir.Int(2)), ir.Continue(), nil),
			ir.If(ir.Binary(ir.OpGt, ir.Load(0), ir.Int(3)), ir.Break(), nil),
			ir.Yield(ir.Load(0)),
		)),
	)
	got := drive(t, start(t, define(t, root, 0)))
	if want := []string{"yield 1", "yield 3", "end"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTerminationIdempotent(t *testing.T) {
	in := start(t, define(t, ir.Seq(ir.Terminate(), ir.Label("after"), ir.Yield(ir.Int(1))), 0))
	if err := in.Tick(); err != nil {
		t.Fatal(err)
	}
	pos, st := in.Position(), in.State()
	if st != coro.Terminated {
		t.Fatalf("state = %s, want terminated", st)
	}
	for i := 0; i < 3; i++ {
		if err := in.Tick(); err != nil {
			t.Fatal(err)
		}
		if in.Position() != pos || in.State() != st {
			t.Fatalf("tick changed a terminated instance: pos=%d state=%s", in.Position(), in.State())
		}
	}
	if err := in.Wakeup(); !errors.Is(err, coro.ErrBadState) {
		t.Errorf("wakeup: expected ErrBadState, got %v", err)
	}
	if err := in.Goto("after"); !errors.Is(err, coro.ErrBadState) {
		t.Errorf("goto: expected ErrBadState, got %v", err)
	}
}

func TestEmptyProgramStartsTerminated(t *testing.T) {
	in := start(t, define(t, ir.Seq(), 0))
	if in.State() != coro.Terminated {
		t.Errorf("state = %s, want terminated", in.State())
	}
}

func TestGotoRoundTrip(t *testing.T) {
	root := ir.Seq(
		ir.Label("start"),
		ir.Assign(0, ir.Int(1)),
		ir.Yield(ir.Load(0)),
		ir.Assign(0, ir.Binary(ir.OpAdd, ir.Load(0), ir.Int(1))),
		ir.Yield(ir.Load(0)),
		ir.Terminate(),
		ir.Label("again"),
		ir.Yield(ir.Int(100)),
		ir.Label("done"),
	)
	def := define(t, root, 0)

	natural := drive(t, start(t, def))
	jumped := start(t, def)
	if err := jumped.Goto("start"); err != nil {
		t.Fatal(err)
	}
	if got := drive(t, jumped); !reflect.DeepEqual(got, natural) {
		t.Errorf("goto start: %v, natural %v", got, natural)
	}

	in := start(t, def)
	if _, err := in.Take(); err != nil {
		t.Fatal(err)
	}
	if err := in.Goto("again"); err != nil {
		t.Fatal(err)
	}
	if v, err := in.Take(); err != nil || v != int64(100) {
		t.Errorf("take after goto = %v, %v", v, err)
	}
	if in.State() != coro.Terminated {
		t.Errorf("falling into the end label must terminate, state = %s", in.State())
	}

	in = start(t, def)
	if err := in.Goto("nowhere"); !errors.Is(err, coro.ErrUnknownLabel) {
		t.Errorf("expected ErrUnknownLabel, got %v", err)
	}
	if err := in.Goto("done"); err != nil || in.State() != coro.Terminated {
		t.Errorf("goto done: %v, state %s", err, in.State())
	}
}

func TestOptimizerPreservesBehavior(t *testing.T) {
	tests := []struct {
		name   string
		root   *ir.Stmt
		inputs []ir.Value
	}{
		{"counter", counter(), nil},
		{"summer", summer(), []ir.Value{3, 4, 0}},
		{"mixed", mixed(), []ir.Value{3, 4, 1}},
		{"mixed short", mixed(), []ir.Value{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plain := drive(t, start(t, defineWith(t, tt.root, cfa.Options{NoOptimize: true})), tt.inputs...)
			opt := drive(t, start(t, defineWith(t, tt.root, cfa.Options{})), tt.inputs...)
			if !reflect.DeepEqual(plain, opt) {
				t.Errorf("optimized %v, unoptimized %v", opt, plain)
			}
		})
	}
}

func TestMixedTrace(t *testing.T) {
	got := drive(t, start(t, define(t, mixed(), 0)), 3, 4, 1)
	want := []string{"accept 3", "accept 4", "accept 1", "yield 7", "suspend", "yield 0", "end"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	got = drive(t, start(t, define(t, mixed(), 0)), 1, 2)
	want = []string{"accept 1", "accept 2", "yield -3", "suspend", "yield 0", "end"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("short-circuit: got %v, want %v", got, want)
	}
}

func TestSuspendRegistrar(t *testing.T) {
	var saved action.Resumer
	reg := action.RegisterFunc(func(r action.Resumer) (bool, error) {
		saved = r
		return true, nil
	})
	root := ir.Seq(ir.Suspend(ir.Const(reg)), ir.Yield(ir.Int(1)))
	in := start(t, define(t, root, 0))
	if err := in.Tick(); err != nil {
		t.Fatal(err)
	}
	if in.State() != coro.Suspended || saved == nil {
		t.Fatalf("state = %s, resumer %v", in.State(), saved)
	}
	if err := saved.Resume(nil); err != nil {
		t.Fatal(err)
	}
	if in.State() != coro.Yielding {
		t.Errorf("resume must wake the instance, state = %s", in.State())
	}
	if err := saved.Resume(nil); !errors.Is(err, coro.ErrResumedTwice) {
		t.Errorf("expected ErrResumedTwice, got %v", err)
	}

	noPause := ir.Seq(ir.Suspend(ir.Bool(false)), ir.Yield(ir.Int(2)))
	in = start(t, define(t, noPause, 0))
	if err := in.Tick(); err != nil || in.State() != coro.Yielding {
		t.Errorf("false registrar must not pause: %s, %v", in.State(), err)
	}
}

func TestSuspendingCallCompletesSynchronously(t *testing.T) {
	double := action.AsyncFunc(func(args []ir.Value, r action.Resumer) error {
		n, _ := args[0].(int64)
		return r.Resume(n * 2)
	})
	root := ir.Seq(
		ir.SuspendingCall(0, ir.Const(double), ir.Int(21)),
		ir.Yield(ir.Load(0)),
	)
	in := start(t, define(t, root, 0))
	if err := in.Tick(); err != nil {
		t.Fatal(err)
	}
	if in.State() != coro.Yielding {
		t.Fatalf("synchronous completion must not pause, state = %s", in.State())
	}
	if v, _ := in.Take(); v != int64(42) {
		t.Errorf("take = %v, want 42", v)
	}
}

type recordingWaker struct{ woken []*coro.Instance }

func (w *recordingWaker) Wake(in *coro.Instance) { w.woken = append(w.woken, in) }

func TestAwaitResumesLater(t *testing.T) {
	var pending action.Resumer
	later := action.AsyncFunc(func(_ []ir.Value, r action.Resumer) error {
		pending = r
		return nil
	})
	root := ir.Yield(ir.Binary(ir.OpAdd, ir.Int(1), ir.Await(ir.Const(later))))

	direct := start(t, define(t, root, 0))
	if err := direct.Tick(); err != nil || direct.State() != coro.Suspended {
		t.Fatalf("await must pause: %s, %v", direct.State(), err)
	}
	if err := pending.Resume(int64(41)); err != nil {
		t.Fatal(err)
	}
	if v, err := direct.Take(); err != nil || v != int64(42) {
		t.Errorf("take = %v, %v", v, err)
	}

	waker := &recordingWaker{}
	scheduled := start(t, define(t, root, 0, coro.WithWaker(waker)))
	if err := scheduled.Tick(); err != nil {
		t.Fatal(err)
	}
	if err := pending.Resume(int64(1)); err != nil {
		t.Fatal(err)
	}
	if len(waker.woken) != 1 || waker.woken[0] != scheduled {
		t.Fatalf("waker calls = %d", len(waker.woken))
	}
	if scheduled.State() != coro.Suspended {
		t.Fatalf("waker must defer the wakeup, state = %s", scheduled.State())
	}
	if err := scheduled.Wakeup(); err != nil {
		t.Fatal(err)
	}
	if v, _ := scheduled.Take(); v != int64(2) {
		t.Errorf("take = %v, want 2", v)
	}
}

func TestEffectFailureKeepsPosition(t *testing.T) {
	root := ir.Seq(
		ir.Generic(ir.Binary(ir.OpDiv, ir.Int(1), ir.Load(0))),
		ir.Yield(ir.Int(1)),
	)
	in := start(t, define(t, root, 1), int64(0))
	err := in.Tick()
	if !errors.Is(err, eval.ErrDivByZero) {
		t.Fatalf("expected division error, got %v", err)
	}
	var se *coro.StepError
	if !errors.As(err, &se) || se.Pos != 0 {
		t.Errorf("expected StepError at a0, got %v", err)
	}
	if in.Position() != 0 || in.State() != coro.Ready {
		t.Errorf("pos=%d state=%s after failure", in.Position(), in.State())
	}

	in = start(t, define(t, ir.Yield(ir.Binary(ir.OpDiv, ir.Int(1), ir.Load(0))), 1), int64(0))
	if _, err := in.Take(); !errors.Is(err, eval.ErrDivByZero) {
		t.Fatalf("expected division error, got %v", err)
	}
	if in.State() != coro.Yielding {
		t.Errorf("failed producer must leave the yield pending, state = %s", in.State())
	}
}

func TestReentrantDriving(t *testing.T) {
	var self *coro.Instance
	poke := action.HostFunc(func([]ir.Value) (ir.Value, error) {
		return nil, self.Tick()
	})
	in := start(t, define(t, ir.Generic(ir.Call(ir.Const(poke))), 0))
	self = in
	if err := in.Tick(); !errors.Is(err, coro.ErrReentrant) {
		t.Fatalf("expected ErrReentrant, got %v", err)
	}
}

func TestStepLimit(t *testing.T) {
	spin := ir.While(ir.Bool(true), ir.Assign(0, ir.Binary(ir.OpAdd, ir.Load(0), ir.Int(1))))
	in := start(t, define(t, spin, 1, coro.WithMaxSteps(10)), int64(0))
	if err := in.Tick(); !errors.Is(err, coro.ErrStepLimit) {
		t.Fatalf("expected ErrStepLimit, got %v", err)
	}
	if in.State() != coro.Ready {
		t.Errorf("state = %s, want ready", in.State())
	}
}

func TestArgumentCount(t *testing.T) {
	def := define(t, ir.Yield(ir.Load(0)), 1)
	if _, err := def.New(); err == nil {
		t.Error("expected an error for missing arguments")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	def := define(t, counter(), 0)
	in := start(t, def)
	if v, _ := in.Take(); v != int64(0) {
		t.Fatalf("take = %v", v)
	}
	snap, err := in.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "counter.snap")
	if err := coro.WriteSnapshot(path, snap); err != nil {
		t.Fatal(err)
	}
	loaded, err := coro.ReadSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}
	restored, err := def.Restore(loaded)
	if err != nil {
		t.Fatal(err)
	}
	if restored.State() != coro.Yielding || restored.Position() != in.Position() {
		t.Fatalf("restored state=%s pos=%d", restored.State(), restored.Position())
	}
	for want := int64(1); want < 3; want++ {
		if v, err := restored.Take(); err != nil || v != want {
			t.Fatalf("take = %v, %v; want %d", v, err, want)
		}
	}

	other := define(t, summer(), 0)
	if _, err := other.Restore(loaded); !errors.Is(err, coro.ErrSnapshot) {
		t.Errorf("expected ErrSnapshot for a different program, got %v", err)
	}
}

func TestTracerSeesTransitions(t *testing.T) {
	ring := trace.NewRingTracer(64, trace.LevelDetail)
	in := start(t, define(t, ir.Yield(ir.Int(1)), 0, coro.WithTracer(ring)))
	if _, err := in.Take(); err != nil {
		t.Fatal(err)
	}
	var states []string
	for _, ev := range ring.Snapshot() {
		if ev.Name == "state" {
			states = append(states, ev.Detail)
		}
	}
	want := []string{"yielding", "suspended", "ready", "terminated"}
	if !reflect.DeepEqual(states, want) {
		t.Errorf("state events = %v, want %v", states, want)
	}
}

func TestSnapshotRefusesOutstandingResumer(t *testing.T) {
	var pending action.Resumer
	later := action.AsyncFunc(func(_ []ir.Value, r action.Resumer) error {
		pending = r
		return nil
	})
	def := define(t, ir.Yield(ir.Binary(ir.OpAdd, ir.Int(1), ir.Await(ir.Const(later)))), 0)
	in := start(t, def)
	if err := in.Tick(); err != nil {
		t.Fatal(err)
	}
	if in.Waiting() != 1 {
		t.Fatalf("waiting = %d, want 1", in.Waiting())
	}
	if _, err := in.Snapshot(); !errors.Is(err, coro.ErrBadState) {
		t.Fatalf("expected ErrBadState while the await is outstanding, got %v", err)
	}
	if err := pending.Resume(int64(2)); err != nil {
		t.Fatal(err)
	}
	if in.Waiting() != 0 {
		t.Errorf("waiting = %d after resume", in.Waiting())
	}
	if _, err := in.Snapshot(); err != nil {
		t.Errorf("snapshot after resume: %v", err)
	}
	if v, err := in.Take(); err != nil || v != int64(3) {
		t.Errorf("take = %v, %v", v, err)
	}
}

func TestParkedStateErrors(t *testing.T) {
	tests := []struct {
		name string
		root *ir.Stmt
		want coro.State
		call func(*coro.Instance) error
	}{
		{"wakeup while accepting", ir.Accept(0), coro.Accepting, func(in *coro.Instance) error { return in.Wakeup() }},
		{"take while accepting", ir.Accept(0), coro.Accepting, func(in *coro.Instance) error {
			_, err := in.Take()
			return err
		}},
		{"wakeup while yielding", ir.Yield(ir.Int(1)), coro.Yielding, func(in *coro.Instance) error { return in.Wakeup() }},
		{"give while yielding", ir.Yield(ir.Int(1)), coro.Yielding, func(in *coro.Instance) error { return in.Give(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := start(t, define(t, tt.root, 0))
			if err := in.Tick(); err != nil {
				t.Fatal(err)
			}
			if in.State() != tt.want {
				t.Fatalf("state = %s, want %s", in.State(), tt.want)
			}
			pos := in.Position()
			if err := tt.call(in); !errors.Is(err, coro.ErrBadState) {
				t.Errorf("expected ErrBadState, got %v", err)
			}
			if in.State() != tt.want || in.Position() != pos {
				t.Errorf("failed call changed the instance: state=%s pos=%d", in.State(), in.Position())
			}
		})
	}
}

func TestResumerStaleAfterGotoOrTerminate(t *testing.T) {
	var pending action.Resumer
	later := action.AsyncFunc(func(_ []ir.Value, r action.Resumer) error {
		pending = r
		return nil
	})
	root := ir.Seq(
		ir.SuspendingCall(0, ir.Const(later)),
		ir.Yield(ir.Load(0)),
		ir.Label("recover"),
		ir.Yield(ir.Int(7)),
	)
	def := define(t, root, 0)

	in := start(t, def)
	if err := in.Tick(); err != nil {
		t.Fatal(err)
	}
	if err := in.Goto("recover"); err != nil {
		t.Fatal(err)
	}
	if in.Waiting() != 0 {
		t.Errorf("goto must drop outstanding resumers, waiting = %d", in.Waiting())
	}
	if err := pending.Resume(int64(1)); !errors.Is(err, coro.ErrStaleResumer) {
		t.Fatalf("expected ErrStaleResumer after goto, got %v", err)
	}
	if v, err := in.Take(); err != nil || v != int64(7) {
		t.Errorf("take = %v, %v; want 7", v, err)
	}

	in = start(t, def)
	if err := in.Tick(); err != nil {
		t.Fatal(err)
	}
	in.Terminate()
	if err := pending.Resume(int64(1)); !errors.Is(err, coro.ErrStaleResumer) {
		t.Fatalf("expected ErrStaleResumer after terminate, got %v", err)
	}
	if in.State() != coro.Terminated {
		t.Errorf("state = %s, want terminated", in.State())
	}
}

func TestRegistrarThatDeclinesLeavesNoWaiter(t *testing.T) {
	var kept action.Resumer
	decline := action.RegisterFunc(func(r action.Resumer) (bool, error) {
		kept = r
		return false, nil
	})
	root := ir.Seq(ir.Suspend(ir.Const(decline)), ir.Yield(ir.Int(1)), ir.Yield(ir.Int(2)))
	in := start(t, define(t, root, 0))
	if err := in.Tick(); err != nil {
		t.Fatal(err)
	}
	if in.State() != coro.Yielding || in.Waiting() != 0 {
		t.Fatalf("state=%s waiting=%d, want yielding with no waiter", in.State(), in.Waiting())
	}
	if _, err := in.Snapshot(); err != nil {
		t.Errorf("snapshot: %v", err)
	}
	if err := kept.Resume(nil); !errors.Is(err, coro.ErrStaleResumer) {
		t.Fatalf("expected ErrStaleResumer, got %v", err)
	}
	if in.State() != coro.Yielding {
		t.Errorf("stale resume changed the state to %s", in.State())
	}
	if v, err := in.Take(); err != nil || v != int64(1) {
		t.Errorf("take = %v, %v; want 1", v, err)
	}
}

func TestArgumentsKeepTypeAcrossSnapshot(t *testing.T) {
	def := define(t, ir.Seq(ir.Suspend(nil), ir.Yield(ir.Load(0))), 1)
	in := start(t, def, 5)
	if err := in.Tick(); err != nil {
		t.Fatal(err)
	}
	snap, err := in.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	data, err := snap.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := coro.UnmarshalSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}
	restored, err := def.Restore(decoded)
	if err != nil {
		t.Fatal(err)
	}
	for name, inst := range map[string]*coro.Instance{"live": in, "restored": restored} {
		if err := inst.Wakeup(); err != nil {
			t.Fatalf("%s wakeup: %v", name, err)
		}
		v, err := inst.Take()
		if err != nil {
			t.Fatalf("%s take: %v", name, err)
		}
		if v != int64(5) {
			t.Errorf("%s take = %v (%T), want int64 5", name, v, v)
		}
	}
}
