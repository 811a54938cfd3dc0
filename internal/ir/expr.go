package ir

// Value is an uninterpreted host value flowing through slots, accepts and yields.
type Value = any

// Slot indexes the per-instance variable record.
type Slot int32

// NoSlot marks an absent destination.
const NoSlot Slot = -1

// IsValid reports whether the slot addresses a variable.
func (s Slot) IsValid() bool { return s >= 0 }

// ExprKind enumerates IR expression kinds.
type ExprKind uint8

const (
	// ExprConst is a literal value.
	ExprConst ExprKind = iota
	// ExprLoad reads a slot.
	ExprLoad
	// ExprStore writes a slot and yields the stored value.
	ExprStore
	// ExprUnary applies a unary operator.
	ExprUnary
	// ExprBinary applies a binary operator.
	ExprBinary
	// ExprCall invokes a synchronous host function.
	ExprCall
	// ExprAccept waits for one input value and evaluates to it.
	ExprAccept
	// ExprAwait invokes an async host function and evaluates to its resumption value.
	ExprAwait
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprConst:
		return "Const"
	case ExprLoad:
		return "Load"
	case ExprStore:
		return "Store"
	case ExprUnary:
		return "Unary"
	case ExprBinary:
		return "Binary"
	case ExprCall:
		return "Call"
	case ExprAccept:
		return "Accept"
	case ExprAwait:
		return "Await"
	default:
		return "Unknown"
	}
}

// Expr represents an IR expression.
type Expr struct {
	Kind ExprKind
	Data ExprData
}

// ExprData is the interface for expression-specific data.
type ExprData interface {
	exprData()
}

// ConstData holds data for ExprConst.
type ConstData struct {
	Value Value
}

func (ConstData) exprData() {}

// LoadData holds data for ExprLoad.
type LoadData struct {
	Slot Slot
}

func (LoadData) exprData() {}

// StoreData holds data for ExprStore.
type StoreData struct {
	Slot  Slot
	Value *Expr
}

func (StoreData) exprData() {}

// UnaryOp enumerates unary operators.
type UnaryOp uint8

const (
	OpNeg UnaryOp = iota + 1
	OpNot
)

func (op UnaryOp) String() string {
	switch op {
	case OpNeg:
		return "-"
	case OpNot:
		return "!"
	default:
		return "?"
	}
}

// UnaryData holds data for ExprUnary.
type UnaryData struct {
	Op UnaryOp
	X  *Expr
}

func (UnaryData) exprData() {}

// BinaryOp enumerates binary operators.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota + 1
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd // short-circuit
	OpOr  // short-circuit
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		return "?"
	}
}

// ShortCircuit reports whether the right operand is conditionally evaluated.
func (op BinaryOp) ShortCircuit() bool {
	return op == OpAnd || op == OpOr
}

// BinaryData holds data for ExprBinary.
type BinaryData struct {
	Op BinaryOp
	X  *Expr
	Y  *Expr
}

func (BinaryData) exprData() {}

// CallData holds data for ExprCall and ExprAwait.
type CallData struct {
	Callee *Expr
	Args   []*Expr
}

func (CallData) exprData() {}

// AcceptExprData holds data for ExprAccept.
type AcceptExprData struct{}

func (AcceptExprData) exprData() {}

// Suspends reports whether evaluating e may pause the instance, i.e. whether
// an accept or await occurs anywhere inside it.
func (e *Expr) Suspends() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case ExprAccept, ExprAwait:
		return true
	case ExprStore:
		if d, ok := e.Data.(StoreData); ok {
			return d.Value.Suspends()
		}
	case ExprUnary:
		if d, ok := e.Data.(UnaryData); ok {
			return d.X.Suspends()
		}
	case ExprBinary:
		if d, ok := e.Data.(BinaryData); ok {
			return d.X.Suspends() || d.Y.Suspends()
		}
	case ExprCall:
		if d, ok := e.Data.(CallData); ok {
			if d.Callee.Suspends() {
				return true
			}
			for _, a := range d.Args {
				if a.Suspends() {
					return true
				}
			}
		}
	}
	return false
}

// BoolConst reports the literal value of e when it is a boolean constant.
func (e *Expr) BoolConst() (value, ok bool) {
	if e == nil || e.Kind != ExprConst {
		return false, false
	}
	d, isConst := e.Data.(ConstData)
	if !isConst {
		return false, false
	}
	b, isBool := d.Value.(bool)
	return b, isBool
}
