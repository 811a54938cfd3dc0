package ir_test

import (
	"strings"
	"testing"

	"coflow/internal/ir"
)

func TestExprSuspends(t *testing.T) {
	tests := []struct {
		name string
		expr *ir.Expr
		want bool
	}{
		{"const", ir.Int(1), false},
		{"load", ir.Load(0), false},
		{"accept", ir.AcceptExpr(), true},
		{"nested accept", ir.Binary(ir.OpAdd, ir.Int(1), ir.Unary(ir.OpNeg, ir.AcceptExpr())), true},
		{"store of await", ir.Store(2, ir.Await(ir.Load(0))), true},
		{"call arg accept", ir.Call(ir.Load(0), ir.Int(1), ir.AcceptExpr()), true},
		{"plain call", ir.Call(ir.Load(0), ir.Int(1)), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.Suspends(); got != tt.want {
				t.Errorf("Suspends() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoolConst(t *testing.T) {
	if v, ok := ir.Bool(true).BoolConst(); !ok || !v {
		t.Errorf("expected literal true, got %v %v", v, ok)
	}
	if _, ok := ir.Int(1).BoolConst(); ok {
		t.Errorf("int literal must not be a bool constant")
	}
	if _, ok := ir.Load(0).BoolConst(); ok {
		t.Errorf("load must not be a bool constant")
	}
}

func TestDump(t *testing.T) {
	prog := ir.Seq(
		ir.Assign(0, ir.Int(0)),
		ir.While(ir.Binary(ir.OpLt, ir.Load(0), ir.Int(3)), ir.Seq(
			ir.Yield(ir.Load(0)),
			ir.Assign(0, ir.Binary(ir.OpAdd, ir.Load(0), ir.Int(1))),
		)),
		ir.Label("done"),
		ir.Terminate(),
	)
	var sb strings.Builder
	if err := ir.Dump(&sb, prog); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	want := "$0 := 0\n" +
		"while ($0 < 3) {\n" +
		"  yield $0\n" +
		"  $0 := ($0 + 1)\n" +
		"}\n" +
		"done:\n" +
		"terminate\n"
	if sb.String() != want {
		t.Errorf("Dump mismatch:\n got: %q\nwant: %q", sb.String(), want)
	}
}
