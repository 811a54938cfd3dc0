// Package action defines the linearized action array executed by the runtime.
//
// An Action is one step of the lowered state machine. Successor fields are
// indices into Program.Actions; End (-1) means the program has finished.
package action

import (
	"golang.org/x/text/unicode/norm"

	"coflow/internal/ir"
	"coflow/internal/vars"
)

// Kind enumerates action kinds. The set is closed.
type Kind uint8

const (
	KindSync Kind = iota
	KindSuspendPredicate
	KindBranch
	KindAccept
	KindYield
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSync:
		return "sync"
	case KindSuspendPredicate:
		return "suspend?"
	case KindBranch:
		return "branch"
	case KindAccept:
		return "accept"
	case KindYield:
		return "yield"
	default:
		return "unknown"
	}
}

// End is the successor index meaning "end of program".
const End int32 = -1

// Env is the view of a running instance that action closures receive.
type Env interface {
	// Vars returns the instance's variable record.
	Vars() *vars.Frame
	// Suspend forces the instance into the suspended state.
	Suspend()
	// Terminate forces the instance into the terminated state.
	Terminate()
	// NewResumer returns a one-shot resumption handle; the resumption value
	// is stored into dst unless dst is ir.NoSlot.
	NewResumer(dst ir.Slot) Resumer
}

// Resumer resumes a paused instance exactly once.
type Resumer interface {
	Resume(v ir.Value) error
	// Resumed reports whether Resume has already been called.
	Resumed() bool
}

type (
	// Effect runs side effects with no control-flow choice.
	Effect func(env Env) error
	// Predicate reports whether the instance should pause.
	Predicate func(env Env) (bool, error)
	// Cond selects a Branch successor.
	Cond func(env Env) (bool, error)
	// Consumer receives one externally supplied value.
	Consumer func(env Env, v ir.Value) error
	// Producer computes one externally requested value.
	Producer func(env Env) (ir.Value, error)
)

// Host function shapes that IR callee expressions may evaluate to.
type (
	// HostFunc is a synchronous host call.
	HostFunc func(args []ir.Value) (ir.Value, error)
	// AsyncFunc is a suspending host call. It must eventually call r.Resume,
	// either before returning or later from the driving application.
	AsyncFunc func(args []ir.Value, r Resumer) error
	// RegisterFunc receives the resumer of a suspend point and reports
	// whether the instance should pause.
	RegisterFunc func(r Resumer) (bool, error)
)

// Action is one record of the linearized array.
type Action struct {
	Kind Kind
	// Effect is the body of a Sync action. For the other kinds it is an
	// optional prelude run before the kind-specific step.
	Effect    Effect
	Predicate Predicate
	Cond      Cond
	Consumer  Consumer
	Producer  Producer
	Next      int32 // successor; the true target for Branch
	Else      int32 // false target for Branch, End otherwise
	Desc      string
}

// Program is an immutable, linearized coroutine definition.
// It may be shared read-only across any number of instances.
type Program struct {
	Name    string
	Actions []Action
	Labels  map[string]int32
	Params  int    // leading slots seeded from call arguments
	Slots   int    // total slots including temporaries
	Input   string // declared accept element type (opaque)
	Output  string // declared yield element type (opaque)
}

// NormalizeLabel canonicalizes a label name.
func NormalizeLabel(name string) string {
	return norm.NFC.String(name)
}

// Label resolves a label name to its action index.
func (p *Program) Label(name string) (int32, bool) {
	if p == nil {
		return End, false
	}
	idx, ok := p.Labels[NormalizeLabel(name)]
	return idx, ok
}

// InRange reports whether pos addresses an action.
func (p *Program) InRange(pos int32) bool {
	return p != nil && pos >= 0 && int(pos) < len(p.Actions)
}
