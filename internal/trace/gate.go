package trace

import "sync/atomic"

// gate is the admission and sequencing state shared by the concrete sinks.
// Heartbeats pass every level above off.
type gate struct {
	level Level
	seq   atomic.Uint64
}

func (g *gate) admit(ev *Event) bool {
	if ev.Kind == KindHeartbeat {
		return g.level > LevelOff
	}
	return g.level.ShouldEmit(ev.Scope)
}

// stamp copies ev with the sink's next sequence number.
func (g *gate) stamp(ev *Event) Event {
	out := *ev
	out.Seq = g.seq.Add(1)
	return out
}

// Level returns the sink's tracing level.
func (g *gate) Level() Level { return g.level }

// Enabled reports whether the sink records anything.
func (g *gate) Enabled() bool { return g.level > LevelOff }
