package ir

// StmtKind enumerates IR statement kinds.
type StmtKind uint8

const (
	// StmtSeq represents an ordered list of statements.
	StmtSeq StmtKind = iota
	// StmtIf represents if/else.
	StmtIf
	// StmtWhile represents a pre- or post-condition loop.
	StmtWhile
	// StmtBreak leaves the innermost loop.
	StmtBreak
	// StmtContinue re-enters the innermost loop condition.
	StmtContinue
	// StmtLabel marks a named, externally addressable resumption point.
	StmtLabel
	// StmtTerminate halts the instance.
	StmtTerminate
	// StmtSuspend pauses, optionally after handing a resumer to a registrar.
	StmtSuspend
	// StmtYield publishes one output value.
	StmtYield
	// StmtAccept waits for one input value.
	StmtAccept
	// StmtSuspendingCall invokes an async callee and pauses until it resumes.
	StmtSuspendingCall
	// StmtGeneric evaluates an expression for its side effects.
	StmtGeneric
)

// String returns a human-readable name for the statement kind.
func (k StmtKind) String() string {
	switch k {
	case StmtSeq:
		return "Seq"
	case StmtIf:
		return "If"
	case StmtWhile:
		return "While"
	case StmtBreak:
		return "Break"
	case StmtContinue:
		return "Continue"
	case StmtLabel:
		return "Label"
	case StmtTerminate:
		return "Terminate"
	case StmtSuspend:
		return "Suspend"
	case StmtYield:
		return "Yield"
	case StmtAccept:
		return "Accept"
	case StmtSuspendingCall:
		return "SuspendingCall"
	case StmtGeneric:
		return "Generic"
	default:
		return "Unknown"
	}
}

// Stmt represents an IR statement.
type Stmt struct {
	Kind StmtKind
	Data StmtData // Kind-specific payload
}

// StmtData is the interface for statement-specific data.
type StmtData interface {
	stmtData()
}

// SeqData holds data for StmtSeq.
type SeqData struct {
	Stmts []*Stmt
}

func (SeqData) stmtData() {}

// IfData holds data for StmtIf.
type IfData struct {
	Cond *Expr
	Then *Stmt
	Else *Stmt // nil if no else branch
}

func (IfData) stmtData() {}

// WhileData holds data for StmtWhile.
type WhileData struct {
	Cond          *Expr
	Body          *Stmt
	PostCondition bool // true for do/while: body runs before the first test
}

func (WhileData) stmtData() {}

// BreakData holds data for StmtBreak.
type BreakData struct{}

func (BreakData) stmtData() {}

// ContinueData holds data for StmtContinue.
type ContinueData struct{}

func (ContinueData) stmtData() {}

// LabelData holds data for StmtLabel.
type LabelData struct {
	Name string
}

func (LabelData) stmtData() {}

// TerminateData holds data for StmtTerminate.
type TerminateData struct{}

func (TerminateData) stmtData() {}

// SuspendData holds data for StmtSuspend.
type SuspendData struct {
	Registrar *Expr // nil pauses unconditionally
}

func (SuspendData) stmtData() {}

// YieldData holds data for StmtYield.
type YieldData struct {
	Value *Expr
}

func (YieldData) stmtData() {}

// AcceptData holds data for StmtAccept.
type AcceptData struct {
	Dst Slot // NoSlot discards the accepted value
}

func (AcceptData) stmtData() {}

// SuspendingCallData holds data for StmtSuspendingCall.
type SuspendingCallData struct {
	Callee *Expr
	Args   []*Expr
	Dst    Slot // receives the resumption value; NoSlot discards it
}

func (SuspendingCallData) stmtData() {}

// GenericData holds data for StmtGeneric.
type GenericData struct {
	Expr *Expr
}

func (GenericData) stmtData() {}
