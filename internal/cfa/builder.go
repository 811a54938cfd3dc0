package cfa

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"coflow/internal/action"
	"coflow/internal/diag"
	"coflow/internal/ir"
)

type loopCtx struct {
	cont *Node // condition entry, target of continue and of the body's fallthrough
	exit *Node // outer continuation, target of break
}

// Graph is the output of Builder.Build.
type Graph struct {
	Entry  *Node // nil for a program that does nothing
	Labels map[string]*Node
	Slots  int // variable slots including temporaries
}

// Builder lowers one IR tree into an action graph.
// A Builder is single-use and not safe for concurrent use.
type Builder struct {
	rep    diag.Reporter
	params int

	path   []string
	loops  []loopCtx
	labels map[string]*Node
	slots  int
	failed bool
}

// NewBuilder creates a builder reporting into rep. The first params slots are
// seeded from call arguments.
func NewBuilder(rep diag.Reporter, params int) *Builder {
	if rep == nil {
		rep = diag.NopReporter{}
	}
	return &Builder{
		rep:    rep,
		params: params,
		labels: make(map[string]*Node),
	}
}

// Failed reports whether any error was reported during Build.
func (b *Builder) Failed() bool { return b.failed }

// Build lowers root. Temporaries are allocated above the highest slot the
// tree references.
func (b *Builder) Build(root *ir.Stmt) *Graph {
	b.slots = max(b.params, maxSlotStmt(root)+1)
	if b.params < 0 {
		b.errorf(diag.CfaSlotOutOfRange, "negative parameter count %d", b.params)
	}

	entry := b.stmt(root, nil)
	if entry != nil {
		entry.pinned = true
	}
	return &Graph{Entry: entry, Labels: b.labels, Slots: b.slots}
}

func (b *Builder) enter(format string, args ...any) func() {
	b.path = append(b.path, fmt.Sprintf(format, args...))
	return func() { b.path = b.path[:len(b.path)-1] }
}

func (b *Builder) errorf(code diag.Code, format string, args ...any) {
	b.failed = true
	b.rep.Report(code, diag.SevError, strings.Join(b.path, "."), fmt.Sprintf(format, args...))
}

func (b *Builder) warnf(code diag.Code, format string, args ...any) {
	b.rep.Report(code, diag.SevWarning, strings.Join(b.path, "."), fmt.Sprintf(format, args...))
}

// temp allocates a fresh slot private to this definition.
func (b *Builder) temp() ir.Slot {
	s, err := safecast.Conv[int32](b.slots)
	if err != nil {
		b.errorf(diag.CfaTooManySlots, "cannot allocate temporary slot %d", b.slots)
		return ir.NoSlot
	}
	b.slots++
	return ir.Slot(s)
}

func (b *Builder) checkSlot(s ir.Slot, allowNone bool) bool {
	if s.IsValid() || (allowNone && s == ir.NoSlot) {
		return true
	}
	b.errorf(diag.CfaSlotOutOfRange, "slot %d out of range", s)
	return false
}

func (b *Builder) malformedStmt(st *ir.Stmt, next *Node) *Node {
	b.errorf(diag.CfaMalformedStmt, "%s: unexpected payload %T", strings.ToLower(st.Kind.String()), st.Data)
	return next
}

// stmt returns the entry node of st, given the node that runs after it.
func (b *Builder) stmt(st *ir.Stmt, next *Node) *Node {
	if st == nil {
		b.errorf(diag.CfaMalformedStmt, "nil statement")
		return next
	}

	switch st.Kind {
	case ir.StmtSeq:
		data, ok := st.Data.(ir.SeqData)
		if !ok {
			return b.malformedStmt(st, next)
		}
		return b.seq(data.Stmts, next)

	case ir.StmtIf:
		data, ok := st.Data.(ir.IfData)
		if !ok {
			return b.malformedStmt(st, next)
		}
		return b.ifStmt(data, next)

	case ir.StmtWhile:
		data, ok := st.Data.(ir.WhileData)
		if !ok {
			return b.malformedStmt(st, next)
		}
		return b.while(data, next)

	case ir.StmtBreak:
		if len(b.loops) == 0 {
			b.errorf(diag.CfaBreakOutsideLoop, "break outside of a loop")
			return next
		}
		return b.loops[len(b.loops)-1].exit

	case ir.StmtContinue:
		if len(b.loops) == 0 {
			b.errorf(diag.CfaContinueOutside, "continue outside of a loop")
			return next
		}
		return b.loops[len(b.loops)-1].cont

	case ir.StmtLabel:
		data, ok := st.Data.(ir.LabelData)
		if !ok {
			return b.malformedStmt(st, next)
		}
		return b.label(data.Name, next)

	case ir.StmtTerminate:
		n := newNode(action.KindSync, "terminate")
		n.Effects = []action.Effect{func(env action.Env) error {
			env.Terminate()
			return nil
		}}
		return n

	case ir.StmtSuspend:
		data, ok := st.Data.(ir.SuspendData)
		if !ok {
			return b.malformedStmt(st, next)
		}
		return b.suspend(data, next)

	case ir.StmtYield:
		data, ok := st.Data.(ir.YieldData)
		if !ok {
			return b.malformedStmt(st, next)
		}
		n := newNode(action.KindYield, "yield "+data.Value.String())
		n.setSuccs(next)
		pop := b.enter("value")
		entry, val := b.expr(data.Value, n)
		pop()
		n.Producer = action.Producer(val)
		return entry

	case ir.StmtAccept:
		data, ok := st.Data.(ir.AcceptData)
		if !ok {
			return b.malformedStmt(st, next)
		}
		if !b.checkSlot(data.Dst, true) {
			return next
		}
		desc := "accept"
		if data.Dst.IsValid() {
			desc = fmt.Sprintf("$%d := accept", data.Dst)
		}
		n := newNode(action.KindAccept, desc)
		n.Consumer = storeTo(data.Dst)
		n.setSuccs(next)
		return n

	case ir.StmtSuspendingCall:
		data, ok := st.Data.(ir.SuspendingCallData)
		if !ok {
			return b.malformedStmt(st, next)
		}
		if !b.checkSlot(data.Dst, true) {
			return next
		}
		call := ir.Await(data.Callee, data.Args...)
		desc := call.String()
		if data.Dst.IsValid() {
			desc = fmt.Sprintf("$%d := %s", data.Dst, desc)
		}
		n := newNode(action.KindSuspendPredicate, desc)
		n.setSuccs(next)
		entry, vals := b.exprs(callOperands(data.Callee, data.Args), n)
		n.Predicate = asyncCall(vals, data.Dst)
		return entry

	case ir.StmtGeneric:
		data, ok := st.Data.(ir.GenericData)
		if !ok {
			return b.malformedStmt(st, next)
		}
		n := newNode(action.KindSync, data.Expr.String())
		n.setSuccs(next)
		entry, val := b.expr(data.Expr, n)
		n.Effects = []action.Effect{discard(val)}
		return entry

	default:
		b.errorf(diag.CfaMalformedStmt, "unknown statement kind %d", st.Kind)
		return next
	}
}

// seq folds right to left so each statement is built against its successor.
func (b *Builder) seq(stmts []*ir.Stmt, next *Node) *Node {
	for i := 0; i+1 < len(stmts); i++ {
		if !jumps(stmts[i]) || stmts[i+1] == nil || stmts[i+1].Kind == ir.StmtLabel {
			continue
		}
		pop := b.enter("seq[%d]", i+1)
		b.warnf(diag.CfaUnreachableCode, "statement after %s is unreachable", strings.ToLower(stmts[i].Kind.String()))
		pop()
	}

	cur := next
	for i := len(stmts) - 1; i >= 0; i-- {
		pop := b.enter("seq[%d]", i)
		cur = b.stmt(stmts[i], cur)
		pop()
	}
	return cur
}

func jumps(st *ir.Stmt) bool {
	if st == nil {
		return false
	}
	switch st.Kind {
	case ir.StmtBreak, ir.StmtContinue, ir.StmtTerminate:
		return true
	}
	return false
}

func (b *Builder) arm(name string, st *ir.Stmt, next *Node) *Node {
	pop := b.enter("%s", name)
	defer pop()
	return b.stmt(st, next)
}

func (b *Builder) ifStmt(data ir.IfData, next *Node) *Node {
	if data.Cond == nil || data.Then == nil {
		b.errorf(diag.CfaMissingOperand, "if without condition or then branch")
		return next
	}
	thenEntry := b.arm("then", data.Then, next)
	elseEntry := next
	if data.Else != nil {
		elseEntry = b.arm("else", data.Else, next)
	}

	if v, ok := data.Cond.BoolConst(); ok {
		if v {
			return thenEntry
		}
		return elseEntry
	}

	br := newNode(action.KindBranch, "if "+data.Cond.String())
	br.setSuccs(thenEntry, elseEntry)
	pop := b.enter("cond")
	entry, val := b.expr(data.Cond, br)
	pop()
	br.Cond = truth(val)
	return entry
}

func (b *Builder) while(data ir.WhileData, next *Node) *Node {
	if data.Cond == nil || data.Body == nil {
		b.errorf(diag.CfaMissingOperand, "while without condition or body")
		return next
	}

	if v, ok := data.Cond.BoolConst(); ok {
		if !v {
			// The body is still lowered so its diagnostics and labels exist.
			b.loops = append(b.loops, loopCtx{cont: next, exit: next})
			body := b.arm("body", data.Body, next)
			b.loops = b.loops[:len(b.loops)-1]
			if data.PostCondition {
				return body
			}
			return next
		}

		head := newNode(action.KindSync, "loop")
		b.loops = append(b.loops, loopCtx{cont: head, exit: next})
		body := b.arm("body", data.Body, head)
		b.loops = b.loops[:len(b.loops)-1]
		head.setSuccs(body)
		if data.PostCondition {
			return body
		}
		return head
	}

	br := newNode(action.KindBranch, "while "+data.Cond.String())
	pop := b.enter("cond")
	head, val := b.expr(data.Cond, br)
	pop()
	br.Cond = truth(val)

	b.loops = append(b.loops, loopCtx{cont: head, exit: next})
	body := b.arm("body", data.Body, head)
	b.loops = b.loops[:len(b.loops)-1]

	br.setSuccs(body, next)
	if data.PostCondition {
		return body
	}
	return head
}

func (b *Builder) label(name string, next *Node) *Node {
	name = action.NormalizeLabel(name)
	if strings.TrimSpace(name) == "" {
		b.errorf(diag.CfaEmptyLabel, "empty label name")
		return next
	}
	if _, dup := b.labels[name]; dup {
		b.errorf(diag.CfaDuplicateLabel, "label %q already defined", name)
		return next
	}
	n := newNode(action.KindSync, "label "+name)
	n.label = name
	n.pinned = true
	n.setSuccs(next)
	b.labels[name] = n
	return n
}

func (b *Builder) suspend(data ir.SuspendData, next *Node) *Node {
	n := newNode(action.KindSuspendPredicate, "suspend")
	n.setSuccs(next)
	if data.Registrar == nil {
		n.Predicate = pauseAlways
		return n
	}
	if data.Registrar.Suspends() {
		b.errorf(diag.CfaBadSuspension, "suspend registrar %s must not itself suspend", data.Registrar)
		return next
	}
	pop := b.enter("registrar")
	reg := b.pure(data.Registrar)
	pop()
	n.Desc = "suspend " + data.Registrar.String()
	n.Predicate = register(reg)
	return n
}

func callOperands(callee *ir.Expr, args []*ir.Expr) []*ir.Expr {
	ops := make([]*ir.Expr, 0, len(args)+1)
	ops = append(ops, callee)
	return append(ops, args...)
}
