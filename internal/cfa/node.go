// Package cfa lowers IR statement trees into an action graph, optimizes the
// graph and linearizes it into an action.Program.
//
// The graph is built right to left: every statement is lowered against the
// node that runs after it, so successors always exist before the node that
// jumps to them. Loop heads are the only nodes whose successors are patched
// after the fact.
package cfa

import (
	"strings"

	"coflow/internal/action"
)

const (
	indexUnassigned = -1
)

// Node is one vertex of the action graph. Nodes are mutable while the graph
// is built and optimized; the linearizer only reads them.
type Node struct {
	Kind action.Kind
	// Effects run in order before the kind-specific step. For Sync nodes
	// they are the whole behavior.
	Effects   []action.Effect
	Predicate action.Predicate
	Cond      action.Cond
	Consumer  action.Consumer
	Producer  action.Producer
	// Succs holds one successor, two for Branch ([onTrue, onFalse]) and none
	// for a terminate node. A nil entry is the end of the program.
	Succs []*Node
	Desc  string

	preds  map[*Node]struct{}
	label  string
	pinned bool
	index  int
}

func newNode(kind action.Kind, desc string) *Node {
	return &Node{Kind: kind, Desc: desc, index: indexUnassigned}
}

// Index returns the final array position, or -1 before linearization and for
// nodes that were folded away.
func (n *Node) Index() int {
	if n == nil {
		return indexUnassigned
	}
	return n.index
}

// Label returns the label name anchored at n, if any.
func (n *Node) Label() string {
	if n == nil {
		return ""
	}
	return n.label
}

// Preds returns the number of distinct predecessors.
func (n *Node) Preds() int {
	if n == nil {
		return 0
	}
	return len(n.preds)
}

func (n *Node) setSuccs(succs ...*Node) {
	for _, old := range n.Succs {
		if old != nil {
			delete(old.preds, n)
		}
	}
	n.Succs = succs
	for _, s := range succs {
		if s == nil {
			continue
		}
		if s.preds == nil {
			s.preds = make(map[*Node]struct{}, 1)
		}
		s.preds[n] = struct{}{}
	}
}

// isAnchor reports whether n only names its successor and performs no work.
func (n *Node) isAnchor() bool {
	return n != nil && n.label != "" && n.Kind == action.KindSync &&
		len(n.Effects) == 0 && len(n.Succs) == 1
}

func (n *Node) prelude() action.Effect {
	switch len(n.Effects) {
	case 0:
		return nil
	case 1:
		return n.Effects[0]
	}
	effects := append([]action.Effect(nil), n.Effects...)
	return func(env action.Env) error {
		for _, eff := range effects {
			if err := eff(env); err != nil {
				return err
			}
		}
		return nil
	}
}

func joinDesc(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return strings.Join([]string{a, b}, "; ")
	}
}
