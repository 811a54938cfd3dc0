package cfa_test

import (
	"context"
	"errors"
	"testing"

	"coflow/internal/action"
	"coflow/internal/cfa"
	"coflow/internal/diag"
	"coflow/internal/ir"
)

func compile(t *testing.T, root *ir.Stmt, opts cfa.Options) *cfa.Result {
	t.Helper()
	res, err := cfa.Compile(context.Background(), "test", root, opts)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return res
}

func kinds(p *action.Program) []action.Kind {
	out := make([]action.Kind, len(p.Actions))
	for i := range p.Actions {
		out[i] = p.Actions[i].Kind
	}
	return out
}

func sameKinds(got, want []action.Kind) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
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

func TestCounterLayout(t *testing.T) {
	p := compile(t, counter(), cfa.Options{}).Program

	want := []action.Kind{action.KindSync, action.KindBranch, action.KindYield, action.KindSync, action.KindSync}
	if !sameKinds(kinds(p), want) {
		t.Fatalf("kinds = %v, want %v", kinds(p), want)
	}
	br := p.Actions[1]
	if br.Next != 2 || br.Else != 4 {
		t.Errorf("branch targets = %d/%d, want 2/4", br.Next, br.Else)
	}
	if p.Actions[3].Next != 1 {
		t.Errorf("loop back-edge = %d, want 1", p.Actions[3].Next)
	}
	if p.Actions[4].Next != action.End {
		t.Errorf("terminate must not have a successor, got %d", p.Actions[4].Next)
	}
	if p.Slots != 1 {
		t.Errorf("slots = %d, want 1", p.Slots)
	}
}

func TestOptimizeFusesStraightLine(t *testing.T) {
	root := ir.Seq(
		ir.Assign(0, ir.Int(1)),
		ir.Assign(1, ir.Int(2)),
		ir.Yield(ir.Load(1)),
	)

	plain := compile(t, root, cfa.Options{NoOptimize: true})
	if len(plain.Program.Actions) != 3 {
		t.Fatalf("unoptimized: %d actions, want 3", len(plain.Program.Actions))
	}

	opt := compile(t, root, cfa.Options{})
	if len(opt.Program.Actions) != 1 {
		t.Fatalf("optimized: %d actions, want 1", len(opt.Program.Actions))
	}
	a := opt.Program.Actions[0]
	if a.Kind != action.KindYield || a.Effect == nil {
		t.Errorf("expected yield with prelude, got %s", action.FormatAction(0, &a))
	}
	if opt.Stats.Fused != 2 {
		t.Errorf("fused = %d, want 2", opt.Stats.Fused)
	}
}

func TestOptimizeKeepsLabelsAddressable(t *testing.T) {
	root := ir.Seq(
		ir.Assign(0, ir.Int(1)),
		ir.Label("again"),
		ir.Assign(0, ir.Binary(ir.OpAdd, ir.Load(0), ir.Int(1))),
		ir.Yield(ir.Load(0)),
	)
	p := compile(t, root, cfa.Options{}).Program

	idx, ok := p.Label("again")
	if !ok {
		t.Fatal("label again missing")
	}
	if idx != 1 {
		t.Fatalf("label index = %d, want 1", idx)
	}
	if p.Actions[0].Next != idx {
		t.Errorf("entry must jump to the label target, got %d", p.Actions[0].Next)
	}
	for i := range p.Actions {
		if p.Actions[i].Desc == "label again" {
			t.Errorf("label anchor emitted as a%d", i)
		}
	}
}

func TestLabelAtEndResolvesToEnd(t *testing.T) {
	p := compile(t, ir.Seq(ir.Yield(ir.Int(1)), ir.Label("done")), cfa.Options{}).Program
	if idx, ok := p.Label("done"); !ok || idx != action.End {
		t.Errorf("done = %d, %v; want end", idx, ok)
	}
}

func TestLabelOnlyReachableByGoto(t *testing.T) {
	root := ir.Seq(
		ir.Terminate(),
		ir.Label("recover"),
		ir.Yield(ir.Int(7)),
	)
	p := compile(t, root, cfa.Options{}).Program
	if len(p.Actions) != 2 {
		t.Fatalf("actions = %d, want 2", len(p.Actions))
	}
	if p.Actions[0].Desc != "terminate" {
		t.Errorf("a0 must be the entry, got %q", p.Actions[0].Desc)
	}
	if idx, _ := p.Label("recover"); idx != 1 || p.Actions[1].Kind != action.KindYield {
		t.Errorf("recover -> %s", action.FormatTarget(idx))
	}
}

func TestLiteralConditions(t *testing.T) {
	p := compile(t, ir.If(ir.Bool(true), ir.Yield(ir.Int(1)), ir.Yield(ir.Int(2))), cfa.Options{}).Program
	if len(p.Actions) != 1 || p.Actions[0].Desc != "yield 1" {
		t.Errorf("if true: got %d actions", len(p.Actions))
	}

	p = compile(t, ir.While(ir.Bool(false), ir.Yield(ir.Int(1))), cfa.Options{}).Program
	if len(p.Actions) != 0 {
		t.Errorf("while false: got %d actions, want 0", len(p.Actions))
	}

	p = compile(t, ir.DoWhile(ir.Yield(ir.Int(1)), ir.Bool(false)), cfa.Options{}).Program
	if !sameKinds(kinds(p), []action.Kind{action.KindYield}) {
		t.Errorf("do-while false: kinds = %v", kinds(p))
	}

	p = compile(t, ir.While(ir.Bool(true), ir.Seq(ir.Yield(ir.Int(1)), ir.Break())), cfa.Options{NoOptimize: true}).Program
	for i := range p.Actions {
		if p.Actions[i].Kind == action.KindBranch {
			t.Errorf("while true must not test its condition (a%d)", i)
		}
	}
}

func TestPostConditionLoopEntersBody(t *testing.T) {
	root := ir.DoWhile(ir.Yield(ir.Load(0)), ir.Binary(ir.OpLt, ir.Load(0), ir.Int(0)))
	p := compile(t, root, cfa.Options{NoOptimize: true}).Program
	if p.Actions[0].Kind != action.KindYield {
		t.Fatalf("a0 = %s, want yield", p.Actions[0].Kind)
	}
	br := p.Actions[1]
	if br.Kind != action.KindBranch || br.Next != 0 || br.Else != action.End {
		t.Errorf("condition = %s", action.FormatAction(1, &br))
	}
}

func TestEmptyBranchCollapses(t *testing.T) {
	root := ir.Seq(
		ir.If(ir.Binary(ir.OpEq, ir.Load(0), ir.Int(1)), ir.Seq(), ir.Seq()),
		ir.Yield(ir.Int(0)),
	)
	res := compile(t, root, cfa.Options{})
	if res.Stats.Collapsed != 1 {
		t.Errorf("collapsed = %d, want 1", res.Stats.Collapsed)
	}
	if !sameKinds(kinds(res.Program), []action.Kind{action.KindYield}) {
		t.Errorf("kinds = %v", kinds(res.Program))
	}
}

func TestSuspendingOperandSpillsLeftSide(t *testing.T) {
	root := ir.Yield(ir.Binary(ir.OpAdd, ir.Load(0), ir.AcceptExpr()))
	p := compile(t, root, cfa.Options{NoOptimize: true}).Program

	want := []action.Kind{action.KindSync, action.KindAccept, action.KindYield}
	if !sameKinds(kinds(p), want) {
		t.Fatalf("kinds = %v, want %v", kinds(p), want)
	}
	if p.Actions[0].Desc != "$2 := $0" || p.Actions[1].Desc != "$1 := accept" {
		t.Errorf("descs = %q, %q", p.Actions[0].Desc, p.Actions[1].Desc)
	}
	if p.Slots != 3 {
		t.Errorf("slots = %d, want 3", p.Slots)
	}
}

func TestShortCircuitWithSuspendingRight(t *testing.T) {
	root := ir.If(ir.Binary(ir.OpAnd, ir.Load(0), ir.AcceptExpr()), ir.Yield(ir.Int(1)), nil)
	p := compile(t, root, cfa.Options{NoOptimize: true}).Program

	var branches, accepts int
	for i := range p.Actions {
		switch p.Actions[i].Kind {
		case action.KindBranch:
			branches++
		case action.KindAccept:
			accepts++
		}
	}
	if branches != 2 || accepts != 1 {
		t.Errorf("branches=%d accepts=%d, want 2 and 1", branches, accepts)
	}
	if p.Actions[0].Kind != action.KindBranch {
		t.Errorf("left operand must be tested first, a0 = %s", p.Actions[0].Kind)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		root *ir.Stmt
		code diag.Code
	}{
		{"break", ir.Seq(ir.Break()), diag.CfaBreakOutsideLoop},
		{"continue", ir.If(ir.Load(0), ir.Continue(), nil), diag.CfaContinueOutside},
		{"duplicate label", ir.Seq(ir.Label("a"), ir.Label("a")), diag.CfaDuplicateLabel},
		{"empty label", ir.Label(" "), diag.CfaEmptyLabel},
		{"nil statement", ir.Seq(nil), diag.CfaMalformedStmt},
		{"bad slot", ir.Yield(ir.Load(-3)), diag.CfaSlotOutOfRange},
		{"suspending registrar", ir.Suspend(ir.AcceptExpr()), diag.CfaBadSuspension},
		{"missing operand", ir.Generic(ir.Binary(ir.OpAdd, ir.Int(1), nil)), diag.CfaMissingOperand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cfa.Compile(context.Background(), tt.name, tt.root, cfa.Options{})
			var de *diag.Error
			if !errors.As(err, &de) {
				t.Fatalf("expected *diag.Error, got %v", err)
			}
			if !de.Has(tt.code) {
				t.Errorf("missing %s in %v", tt.code.ID(), de)
			}
		})
	}
}

func TestDiagnosticLimitDropsError(t *testing.T) {
	// The unreachable warning fills the bag before the break error arrives.
	root := ir.Seq(ir.Terminate(), ir.Yield(ir.Int(1)), ir.Break())
	_, err := cfa.Compile(context.Background(), "capped", root, cfa.Options{MaxDiagnostics: 1})
	if err == nil {
		t.Fatal("expected a build failure")
	}
	var de *diag.Error
	if errors.As(err, &de) {
		t.Fatalf("dropped error must not surface as diagnostics: %v", de)
	}
	if want := "cfa: capped: build failed; diagnostic limit 1 reached"; err.Error() != want {
		t.Errorf("err = %q, want %q", err, want)
	}
}

func TestUnreachableWarning(t *testing.T) {
	res := compile(t, ir.Seq(ir.Terminate(), ir.Yield(ir.Int(1))), cfa.Options{})
	if len(res.Warnings) != 1 || res.Warnings[0].Code != diag.CfaUnreachableCode {
		t.Fatalf("warnings = %v", res.Warnings)
	}
	if res.Warnings[0].Path != "seq[1]" {
		t.Errorf("path = %q", res.Warnings[0].Path)
	}
}

func TestLinearizeDeterministic(t *testing.T) {
	b := cfa.NewBuilder(nil, 0)
	g := b.Build(ir.Seq(counter(), ir.Label("tail"), ir.Yield(ir.Int(9))))
	if b.Failed() {
		t.Fatal("build failed")
	}
	cfa.Optimize(g.Entry, g.Labels)

	first, err := cfa.Linearize(g.Entry, g.Labels)
	if err != nil {
		t.Fatal(err)
	}
	second, err := cfa.Linearize(g.Entry, g.Labels)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Actions) != len(second.Actions) {
		t.Fatalf("lengths differ: %d vs %d", len(first.Actions), len(second.Actions))
	}
	for i := range first.Actions {
		x := action.FormatAction(int32(i), &first.Actions[i])
		y := action.FormatAction(int32(i), &second.Actions[i])
		if x != y {
			t.Errorf("a%d differs: %q vs %q", i, x, y)
		}
	}
	if first.Labels["tail"] != second.Labels["tail"] {
		t.Errorf("label maps differ")
	}
	if g.Entry.Index() != 0 {
		t.Errorf("entry index = %d, want 0", g.Entry.Index())
	}
}

func TestEmptyProgram(t *testing.T) {
	p := compile(t, ir.Seq(), cfa.Options{}).Program
	if len(p.Actions) != 0 {
		t.Errorf("actions = %d, want 0", len(p.Actions))
	}
}
