package coro

import (
	"fmt"

	"coflow/internal/action"
)

// ErrorCode identifies a usage error.
type ErrorCode int

// Stable codes - do not change values.
const (
	CodeBadState     ErrorCode = 3001 // CO3001: operation not valid in the current state
	CodeUnknownLabel ErrorCode = 3002 // CO3002: goto to a label the program does not define
	CodeReentrant    ErrorCode = 3003 // CO3003: driving operation called while a tick is running
	CodeStepLimit    ErrorCode = 3004 // CO3004: tick exceeded the configured step budget
	CodeResumedTwice ErrorCode = 3005 // CO3005: resumer used more than once
	CodeSnapshot     ErrorCode = 3006 // CO3006: snapshot does not fit the definition
	CodeStaleResumer ErrorCode = 3007 // CO3007: resumer outlived a goto, terminate or restore
)

// String returns the code in "CO3001" form.
func (c ErrorCode) String() string {
	return fmt.Sprintf("CO%d", c)
}

// Error is a driving-contract violation. Match with errors.Is against the
// Err* sentinels.
type Error struct {
	Code    ErrorCode
	Op      string
	State   State
	Message string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("coro %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("coro %s: %s: %s", e.Code, e.Op, e.Message)
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrBadState     = &Error{Code: CodeBadState, Message: "operation not valid in the current state"}
	ErrUnknownLabel = &Error{Code: CodeUnknownLabel, Message: "unknown label"}
	ErrReentrant    = &Error{Code: CodeReentrant, Message: "re-entrant driving"}
	ErrStepLimit    = &Error{Code: CodeStepLimit, Message: "step limit exceeded"}
	ErrResumedTwice = &Error{Code: CodeResumedTwice, Message: "resumed twice"}
	ErrSnapshot     = &Error{Code: CodeSnapshot, Message: "snapshot mismatch"}
	ErrStaleResumer = &Error{Code: CodeStaleResumer, Message: "stale resumer"}
)

func newError(code ErrorCode, op string, st State, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, State: st, Message: fmt.Sprintf(format, args...)}
}

// StepError is a failure raised by an action closure. The instance stays at
// the failing action.
type StepError struct {
	Pos  int32
	Kind action.Kind
	Desc string
	Err  error
}

func (e *StepError) Error() string {
	if e.Desc == "" {
		return fmt.Sprintf("coro: a%d %s: %v", e.Pos, e.Kind, e.Err)
	}
	return fmt.Sprintf("coro: a%d %s (%s): %v", e.Pos, e.Kind, e.Desc, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
