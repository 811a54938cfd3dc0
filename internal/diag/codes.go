package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Control-flow construction
	CfaInfo             Code = 1000
	CfaBreakOutsideLoop Code = 1001
	CfaContinueOutside  Code = 1002
	CfaDuplicateLabel   Code = 1003
	CfaEmptyLabel       Code = 1004
	CfaMalformedStmt    Code = 1005
	CfaMalformedExpr    Code = 1006
	CfaMissingOperand   Code = 1007
	CfaUnreachableCode  Code = 1008
	CfaSlotOutOfRange   Code = 1009
	CfaTooManySlots     Code = 1010
	CfaBadSuspension    Code = 1011

	// Linearization
	LinInfo           Code = 2000
	LinInvalidProgram Code = 2001
	LinDanglingLabel  Code = 2002
)

var (
	codeDescription = map[Code]string{
		UnknownCode:         "Unknown error",
		CfaInfo:             "Control-flow information",
		CfaBreakOutsideLoop: "break outside of a loop",
		CfaContinueOutside:  "continue outside of a loop",
		CfaDuplicateLabel:   "duplicate label",
		CfaEmptyLabel:       "empty label name",
		CfaMalformedStmt:    "malformed statement",
		CfaMalformedExpr:    "malformed expression",
		CfaMissingOperand:   "missing operand",
		CfaUnreachableCode:  "unreachable statement",
		CfaSlotOutOfRange:   "slot out of range",
		CfaTooManySlots:     "too many slots",
		CfaBadSuspension:    "unsupported use of a suspension primitive",
		LinInfo:             "Linearization information",
		LinInvalidProgram:   "linearized program failed validation",
		LinDanglingLabel:    "label does not resolve to a reachable action",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("CFA%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("LIN%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
