package cfa

import (
	"fmt"

	"coflow/internal/action"
	"coflow/internal/diag"
	"coflow/internal/eval"
	"coflow/internal/ir"
)

// thunk evaluates a lowered expression against an instance.
type thunk func(env action.Env) (ir.Value, error)

func failing(msg string) thunk {
	return func(action.Env) (ir.Value, error) {
		return nil, fmt.Errorf("cfa: %s", msg)
	}
}

// expr lowers e ahead of next. Accept and await primitives inside e become
// nodes that run before next; the returned thunk computes the value of e and
// must be evaluated by next.
func (b *Builder) expr(e *ir.Expr, next *Node) (*Node, thunk) {
	if e == nil {
		b.errorf(diag.CfaMissingOperand, "missing expression")
		return next, failing("missing expression")
	}
	if !e.Suspends() {
		return next, b.pure(e)
	}

	switch d := e.Data.(type) {
	case ir.AcceptExprData:
		t := b.temp()
		n := newNode(action.KindAccept, fmt.Sprintf("$%d := accept", t))
		n.Consumer = storeTo(t)
		n.setSuccs(next)
		return n, load(t)

	case ir.CallData:
		if e.Kind == ir.ExprCall {
			entry, vals := b.exprs(callOperands(d.Callee, d.Args), next)
			return entry, hostCall(vals)
		}
		t := b.temp()
		n := newNode(action.KindSuspendPredicate, fmt.Sprintf("$%d := %s", t, e))
		n.setSuccs(next)
		entry, vals := b.exprs(callOperands(d.Callee, d.Args), n)
		n.Predicate = asyncCall(vals, t)
		return entry, load(t)

	case ir.StoreData:
		if !b.checkSlot(d.Slot, false) {
			return next, failing("bad store")
		}
		entry, val := b.expr(d.Value, next)
		return entry, store(d.Slot, val)

	case ir.UnaryData:
		entry, x := b.expr(d.X, next)
		return entry, unary(d.Op, x)

	case ir.BinaryData:
		if d.Op.ShortCircuit() {
			if d.Y.Suspends() {
				return b.shortCircuit(e, d, next)
			}
			entry, x := b.expr(d.X, next)
			return entry, logical(d.Op, x, b.pure(d.Y))
		}
		entry, vals := b.exprs([]*ir.Expr{d.X, d.Y}, next)
		return entry, binary(d.Op, vals[0], vals[1])
	}

	b.errorf(diag.CfaMalformedExpr, "%s: unexpected payload %T", e.Kind, e.Data)
	return next, failing("malformed expression")
}

// exprs lowers operands that are evaluated left to right. Operands before the
// last suspending one are spilled into temporaries so their values are taken
// before the suspension; later operands stay lazy.
func (b *Builder) exprs(list []*ir.Expr, next *Node) (*Node, []thunk) {
	vals := make([]thunk, len(list))
	last := -1
	for i, e := range list {
		if e.Suspends() {
			last = i
		}
	}
	for i := last + 1; i < len(list); i++ {
		vals[i] = b.pure(list[i])
	}

	cur := next
	for i := last; i >= 0; i-- {
		e := list[i]
		if i == last {
			cur, vals[i] = b.expr(e, cur)
			continue
		}
		if e != nil && e.Kind == ir.ExprConst {
			vals[i] = b.pure(e)
			continue
		}
		t := b.temp()
		spill := newNode(action.KindSync, fmt.Sprintf("$%d := %s", t, e))
		spill.setSuccs(cur)
		entry, val := b.expr(e, spill)
		spill.Effects = []action.Effect{spillTo(t, val)}
		vals[i] = load(t)
		cur = entry
	}
	return cur, vals
}

// shortCircuit lowers x && y or x || y where y suspends. The result lands in
// a temporary written on both arms.
func (b *Builder) shortCircuit(e *ir.Expr, d ir.BinaryData, next *Node) (*Node, thunk) {
	t := b.temp()
	decided := d.Op == ir.OpOr

	short := newNode(action.KindSync, fmt.Sprintf("$%d := %t", t, decided))
	short.Effects = []action.Effect{func(env action.Env) error {
		return env.Vars().Set(t, decided)
	}}
	short.setSuccs(next)

	full := newNode(action.KindSync, fmt.Sprintf("$%d := %s", t, d.Y))
	full.setSuccs(next)
	yEntry, y := b.expr(d.Y, full)
	full.Effects = []action.Effect{func(env action.Env) error {
		v, err := y(env)
		if err != nil {
			return err
		}
		ok, err := eval.Truth(v)
		if err != nil {
			return err
		}
		return env.Vars().Set(t, ok)
	}}

	br := newNode(action.KindBranch, e.String())
	if d.Op == ir.OpAnd {
		br.setSuccs(yEntry, short)
	} else {
		br.setSuccs(short, yEntry)
	}
	xEntry, x := b.expr(d.X, br)
	br.Cond = truth(x)
	return xEntry, load(t)
}

// pure compiles an expression that contains no suspension primitive.
func (b *Builder) pure(e *ir.Expr) thunk {
	if e == nil {
		b.errorf(diag.CfaMissingOperand, "missing expression")
		return failing("missing expression")
	}

	switch d := e.Data.(type) {
	case ir.ConstData:
		v, err := eval.Normalize(d.Value)
		if err != nil {
			b.errorf(diag.CfaMalformedExpr, "constant %s: %v", e, err)
			return failing("bad constant")
		}
		return func(action.Env) (ir.Value, error) { return v, nil }
	case ir.LoadData:
		if !b.checkSlot(d.Slot, false) {
			return failing("bad load")
		}
		return load(d.Slot)
	case ir.StoreData:
		if !b.checkSlot(d.Slot, false) {
			return failing("bad store")
		}
		return store(d.Slot, b.pure(d.Value))
	case ir.UnaryData:
		return unary(d.Op, b.pure(d.X))
	case ir.BinaryData:
		x, y := b.pure(d.X), b.pure(d.Y)
		if d.Op.ShortCircuit() {
			return logical(d.Op, x, y)
		}
		return binary(d.Op, x, y)
	case ir.CallData:
		if e.Kind != ir.ExprCall {
			break
		}
		vals := make([]thunk, 0, len(d.Args)+1)
		for _, op := range callOperands(d.Callee, d.Args) {
			vals = append(vals, b.pure(op))
		}
		return hostCall(vals)
	}

	if e.Kind == ir.ExprAccept || e.Kind == ir.ExprAwait {
		b.errorf(diag.CfaBadSuspension, "%s is not allowed here", e)
		return failing("suspension in pure context")
	}
	b.errorf(diag.CfaMalformedExpr, "%s: unexpected payload %T", e.Kind, e.Data)
	return failing("malformed expression")
}

func load(s ir.Slot) thunk {
	return func(env action.Env) (ir.Value, error) {
		return env.Vars().Get(s)
	}
}

func store(s ir.Slot, val thunk) thunk {
	return func(env action.Env) (ir.Value, error) {
		v, err := val(env)
		if err != nil {
			return nil, err
		}
		if err := env.Vars().Set(s, v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func storeTo(s ir.Slot) action.Consumer {
	return func(env action.Env, v ir.Value) error {
		if !s.IsValid() {
			return nil
		}
		return env.Vars().Set(s, v)
	}
}

func spillTo(s ir.Slot, val thunk) action.Effect {
	return func(env action.Env) error {
		v, err := val(env)
		if err != nil {
			return err
		}
		return env.Vars().Set(s, v)
	}
}

func discard(val thunk) action.Effect {
	return func(env action.Env) error {
		_, err := val(env)
		return err
	}
}

func truth(val thunk) action.Cond {
	return func(env action.Env) (bool, error) {
		v, err := val(env)
		if err != nil {
			return false, err
		}
		return eval.Truth(v)
	}
}

func unary(op ir.UnaryOp, x thunk) thunk {
	return func(env action.Env) (ir.Value, error) {
		v, err := x(env)
		if err != nil {
			return nil, err
		}
		return eval.Unary(op, v)
	}
}

func binary(op ir.BinaryOp, x, y thunk) thunk {
	return func(env action.Env) (ir.Value, error) {
		a, err := x(env)
		if err != nil {
			return nil, err
		}
		c, err := y(env)
		if err != nil {
			return nil, err
		}
		return eval.Binary(op, a, c)
	}
}

// logical evaluates y only when x does not decide the result.
func logical(op ir.BinaryOp, x, y thunk) thunk {
	return func(env action.Env) (ir.Value, error) {
		a, err := x(env)
		if err != nil {
			return nil, err
		}
		ok, err := eval.Truth(a)
		if err != nil {
			return nil, err
		}
		if ok == (op == ir.OpOr) {
			return ok, nil
		}
		c, err := y(env)
		if err != nil {
			return nil, err
		}
		return eval.Truth(c)
	}
}

func evalOperands(env action.Env, vals []thunk) (ir.Value, []ir.Value, error) {
	if len(vals) == 0 {
		return nil, nil, fmt.Errorf("cfa: call without callee")
	}
	callee, err := vals[0](env)
	if err != nil {
		return nil, nil, err
	}
	args := make([]ir.Value, len(vals)-1)
	for i, val := range vals[1:] {
		if args[i], err = val(env); err != nil {
			return nil, nil, err
		}
	}
	return callee, args, nil
}

func hostCall(vals []thunk) thunk {
	return func(env action.Env) (ir.Value, error) {
		callee, args, err := evalOperands(env, vals)
		if err != nil {
			return nil, err
		}
		switch f := callee.(type) {
		case action.HostFunc:
			return f(args)
		case func([]ir.Value) (ir.Value, error):
			return f(args)
		}
		return nil, fmt.Errorf("cfa: callee of type %T is not a host function", callee)
	}
}

// asyncCall hands the callee a resumer bound to dst. The instance pauses
// unless the callee resumed it before returning.
func asyncCall(vals []thunk, dst ir.Slot) action.Predicate {
	return func(env action.Env) (bool, error) {
		callee, args, err := evalOperands(env, vals)
		if err != nil {
			return false, err
		}
		r := env.NewResumer(dst)
		switch f := callee.(type) {
		case action.AsyncFunc:
			err = f(args, r)
		case func([]ir.Value, action.Resumer) error:
			err = f(args, r)
		default:
			return false, fmt.Errorf("cfa: callee of type %T is not an async function", callee)
		}
		if err != nil {
			return false, err
		}
		return !r.Resumed(), nil
	}
}

func pauseAlways(action.Env) (bool, error) { return true, nil }

func register(reg thunk) action.Predicate {
	return func(env action.Env) (bool, error) {
		v, err := reg(env)
		if err != nil {
			return false, err
		}
		var fn func(action.Resumer) (bool, error)
		switch f := v.(type) {
		case nil:
			return true, nil
		case bool:
			return f, nil
		case action.RegisterFunc:
			fn = f
		case func(action.Resumer) (bool, error):
			fn = f
		default:
			return false, fmt.Errorf("cfa: suspend registrar of type %T", v)
		}
		r := env.NewResumer(ir.NoSlot)
		pause, err := fn(r)
		if err != nil {
			return false, err
		}
		return pause && !r.Resumed(), nil
	}
}
