// Package coro executes linearized action programs as resumable coroutines.
//
// An Instance owns its position, execution state and variable frame. It is
// driven one call at a time by the application: Tick, Wakeup, Give, Take and
// Goto advance it until the next suspension point. Instances are not safe for
// concurrent use; independent instances of one Definition may run on separate
// goroutines.
package coro

import "fmt"

// State is the execution state of an instance.
type State uint8

const (
	Ready State = iota
	Suspended
	Terminated
	// Accepting waits for Give; the pending accept action holds the consumer.
	Accepting
	// Yielding waits for Take; the pending yield action holds the producer.
	Yielding
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Suspended:
		return "suspended"
	case Terminated:
		return "terminated"
	case Accepting:
		return "accepting"
	case Yielding:
		return "yielding"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// ParseState is the inverse of State.String.
func ParseState(s string) (State, error) {
	for st := Ready; st <= Yielding; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return Ready, fmt.Errorf("coro: unknown state %q", s)
}
