package ir

// Constructors used by front ends and tests to assemble IR trees.

func Seq(stmts ...*Stmt) *Stmt {
	return &Stmt{Kind: StmtSeq, Data: SeqData{Stmts: stmts}}
}

func If(cond *Expr, then, els *Stmt) *Stmt {
	return &Stmt{Kind: StmtIf, Data: IfData{Cond: cond, Then: then, Else: els}}
}

func While(cond *Expr, body *Stmt) *Stmt {
	return &Stmt{Kind: StmtWhile, Data: WhileData{Cond: cond, Body: body}}
}

// DoWhile builds a post-condition loop: body runs once before cond is tested.
func DoWhile(body *Stmt, cond *Expr) *Stmt {
	return &Stmt{Kind: StmtWhile, Data: WhileData{Cond: cond, Body: body, PostCondition: true}}
}

func Break() *Stmt { return &Stmt{Kind: StmtBreak, Data: BreakData{}} }

func Continue() *Stmt { return &Stmt{Kind: StmtContinue, Data: ContinueData{}} }

func Label(name string) *Stmt {
	return &Stmt{Kind: StmtLabel, Data: LabelData{Name: name}}
}

func Terminate() *Stmt { return &Stmt{Kind: StmtTerminate, Data: TerminateData{}} }

// Suspend pauses unconditionally when registrar is nil.
func Suspend(registrar *Expr) *Stmt {
	return &Stmt{Kind: StmtSuspend, Data: SuspendData{Registrar: registrar}}
}

func Yield(value *Expr) *Stmt {
	return &Stmt{Kind: StmtYield, Data: YieldData{Value: value}}
}

// Accept stores the accepted value into dst (NoSlot discards it).
func Accept(dst Slot) *Stmt {
	return &Stmt{Kind: StmtAccept, Data: AcceptData{Dst: dst}}
}

func SuspendingCall(dst Slot, callee *Expr, args ...*Expr) *Stmt {
	return &Stmt{Kind: StmtSuspendingCall, Data: SuspendingCallData{Callee: callee, Args: args, Dst: dst}}
}

func Generic(e *Expr) *Stmt {
	return &Stmt{Kind: StmtGeneric, Data: GenericData{Expr: e}}
}

// Assign is shorthand for Generic(Store(slot, value)).
func Assign(slot Slot, value *Expr) *Stmt {
	return Generic(Store(slot, value))
}

func Const(v Value) *Expr {
	return &Expr{Kind: ExprConst, Data: ConstData{Value: v}}
}

// Int builds an int64 constant.
func Int(v int64) *Expr { return Const(v) }

func Bool(v bool) *Expr { return Const(v) }

func Load(slot Slot) *Expr {
	return &Expr{Kind: ExprLoad, Data: LoadData{Slot: slot}}
}

func Store(slot Slot, value *Expr) *Expr {
	return &Expr{Kind: ExprStore, Data: StoreData{Slot: slot, Value: value}}
}

func Unary(op UnaryOp, x *Expr) *Expr {
	return &Expr{Kind: ExprUnary, Data: UnaryData{Op: op, X: x}}
}

func Binary(op BinaryOp, x, y *Expr) *Expr {
	return &Expr{Kind: ExprBinary, Data: BinaryData{Op: op, X: x, Y: y}}
}

func Call(callee *Expr, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Data: CallData{Callee: callee, Args: args}}
}

func AcceptExpr() *Expr {
	return &Expr{Kind: ExprAccept, Data: AcceptExprData{}}
}

func Await(callee *Expr, args ...*Expr) *Expr {
	return &Expr{Kind: ExprAwait, Data: CallData{Callee: callee, Args: args}}
}
