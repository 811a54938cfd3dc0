package catalog

import "coflow/internal/ir"

func init() {
	register(&Program{
		Name:    "counter",
		Summary: "yields 0, 1, 2 then terminates",
		Output:  "int",
		build:   func(Host) *ir.Stmt { return counter() },
	})
	register(&Program{
		Name:    "doubler",
		Summary: "accepts one value and yields it doubled",
		Input:   "int",
		Output:  "int",
		Inputs:  []ir.Value{int64(5)},
		build:   func(Host) *ir.Stmt { return doubler() },
	})
	register(&Program{
		Name:    "summer",
		Summary: "accepts values until 0, then yields their sum",
		Input:   "int",
		Output:  "int",
		Inputs:  []ir.Value{int64(3), int64(4), int64(5), int64(0)},
		build:   func(Host) *ir.Stmt { return summer() },
	})
	register(&Program{
		Name:    "fetch",
		Summary: "awaits fetch(i) for i < n and yields each result",
		Params:  1,
		Output:  "string",
		Args:    []ir.Value{int64(3)},
		build:   fetch,
	})
	register(&Program{
		Name:    "retry",
		Summary: "accepts until a non-negative value; failures park for a goto retry",
		Input:   "int",
		Output:  "int",
		Inputs:  []ir.Value{int64(-1), int64(-2), int64(7)},
		Recover: "retry",
		build:   func(Host) *ir.Stmt { return retry() },
	})
}

// x := 0; while x < 3 { yield x; x := x + 1 }; terminate
func counter() *ir.Stmt {
	const x ir.Slot = 0
	return ir.Seq(
		ir.Assign(x, ir.Int(0)),
		ir.While(ir.Binary(ir.OpLt, ir.Load(x), ir.Int(3)), ir.Seq(
			ir.Yield(ir.Load(x)),
			ir.Assign(x, ir.Binary(ir.OpAdd, ir.Load(x), ir.Int(1))),
		)),
		ir.Terminate(),
	)
}

// v := accept(); yield v * 2
func doubler() *ir.Stmt {
	const v ir.Slot = 0
	return ir.Seq(
		ir.Assign(v, ir.AcceptExpr()),
		ir.Yield(ir.Binary(ir.OpMul, ir.Load(v), ir.Int(2))),
	)
}

// sum := 0; do { v := accept(); sum := sum + v } while v != 0; yield sum
func summer() *ir.Stmt {
	const sum, v ir.Slot = 0, 1
	return ir.Seq(
		ir.Assign(sum, ir.Int(0)),
		ir.DoWhile(ir.Seq(
			ir.Accept(v),
			ir.Assign(sum, ir.Binary(ir.OpAdd, ir.Load(sum), ir.Load(v))),
		), ir.Binary(ir.OpNe, ir.Load(v), ir.Int(0))),
		ir.Yield(ir.Load(sum)),
	)
}

// i := 0; while i < n { yield await fetch(i); i := i + 1 }
func fetch(h Host) *ir.Stmt {
	const n, i ir.Slot = 0, 1
	return ir.Seq(
		ir.Assign(i, ir.Int(0)),
		ir.While(ir.Binary(ir.OpLt, ir.Load(i), ir.Load(n)), ir.Seq(
			ir.Yield(ir.Await(ir.Const(h.Fetch), ir.Load(i))),
			ir.Assign(i, ir.Binary(ir.OpAdd, ir.Load(i), ir.Int(1))),
		)),
	)
}

// attempts := 0
// retry: attempts := attempts + 1; x := accept()
// if x < 0 { yield -attempts; suspend; terminate }
// yield x * 10
func retry() *ir.Stmt {
	const attempts, x ir.Slot = 0, 1
	return ir.Seq(
		ir.Assign(attempts, ir.Int(0)),
		ir.Label("retry"),
		ir.Assign(attempts, ir.Binary(ir.OpAdd, ir.Load(attempts), ir.Int(1))),
		ir.Accept(x),
		ir.If(ir.Binary(ir.OpLt, ir.Load(x), ir.Int(0)), ir.Seq(
			ir.Yield(ir.Unary(ir.OpNeg, ir.Load(attempts))),
			ir.Suspend(nil),
			ir.Terminate(),
		), nil),
		ir.Yield(ir.Binary(ir.OpMul, ir.Load(x), ir.Int(10))),
	)
}
