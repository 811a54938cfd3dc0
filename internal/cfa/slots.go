package cfa

import "coflow/internal/ir"

// maxSlotStmt returns the highest slot referenced by st, or -1.
func maxSlotStmt(st *ir.Stmt) int {
	if st == nil {
		return -1
	}
	hi := -1
	switch d := st.Data.(type) {
	case ir.SeqData:
		for _, s := range d.Stmts {
			hi = max(hi, maxSlotStmt(s))
		}
	case ir.IfData:
		hi = max(maxSlotExpr(d.Cond), maxSlotStmt(d.Then), maxSlotStmt(d.Else))
	case ir.WhileData:
		hi = max(maxSlotExpr(d.Cond), maxSlotStmt(d.Body))
	case ir.SuspendData:
		hi = maxSlotExpr(d.Registrar)
	case ir.YieldData:
		hi = maxSlotExpr(d.Value)
	case ir.AcceptData:
		hi = int(d.Dst)
	case ir.SuspendingCallData:
		hi = max(int(d.Dst), maxSlotExpr(d.Callee), maxSlotExprs(d.Args))
	case ir.GenericData:
		hi = maxSlotExpr(d.Expr)
	}
	return hi
}

func maxSlotExpr(e *ir.Expr) int {
	if e == nil {
		return -1
	}
	switch d := e.Data.(type) {
	case ir.LoadData:
		return int(d.Slot)
	case ir.StoreData:
		return max(int(d.Slot), maxSlotExpr(d.Value))
	case ir.UnaryData:
		return maxSlotExpr(d.X)
	case ir.BinaryData:
		return max(maxSlotExpr(d.X), maxSlotExpr(d.Y))
	case ir.CallData:
		return max(maxSlotExpr(d.Callee), maxSlotExprs(d.Args))
	}
	return -1
}

func maxSlotExprs(es []*ir.Expr) int {
	hi := -1
	for _, e := range es {
		hi = max(hi, maxSlotExpr(e))
	}
	return hi
}
