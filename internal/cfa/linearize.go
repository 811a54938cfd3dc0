package cfa

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"coflow/internal/action"
)

// Linear is the output of Linearize.
type Linear struct {
	Actions []action.Action
	Labels  map[string]int32
}

// Linearize assigns array positions in depth-first preorder from entry,
// successor 0 before successor 1, then from each label in name order so that
// code reachable only through goto is kept. Label anchors emit no action and
// resolve to their successor's position; a label at the end of the program
// resolves to action.End. The result depends only on the graph shape, so
// linearizing the same graph twice yields identical output.
func Linearize(entry *Node, labels map[string]*Node) (*Linear, error) {
	l := linearizer{index: make(map[*Node]int32)}
	names := sortedLabelNames(labels)
	start := resolve(entry)
	if start == nil {
		// Position 0 must stay the program start even when only labels
		// lead anywhere.
		for _, name := range names {
			if resolve(labels[name]) != nil {
				start = newNode(action.KindSync, "end")
				break
			}
		}
	}
	l.discover(start)
	for _, name := range names {
		if labels[name] == nil {
			return nil, fmt.Errorf("cfa: label %q has no node", name)
		}
		l.discover(labels[name])
	}
	if l.err != nil {
		return nil, l.err
	}

	out := &Linear{
		Actions: make([]action.Action, len(l.order)),
		Labels:  make(map[string]int32, len(labels)),
	}
	var errs []error
	for i, n := range l.order {
		a, err := l.emit(n)
		if err != nil {
			errs = append(errs, fmt.Errorf("a%d: %w", i, err))
		}
		out.Actions[i] = a
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	for _, name := range names {
		out.Labels[name] = l.target(labels[name])
	}
	for n, idx := range l.index {
		n.index = int(idx)
	}
	return out, nil
}

type linearizer struct {
	index map[*Node]int32
	order []*Node
	err   error
}

// resolve skips label anchors. Anchor successors are fixed when the anchor is
// created, so anchor chains are acyclic.
func resolve(n *Node) *Node {
	for n.isAnchor() {
		n = n.Succs[0]
	}
	return n
}

func (l *linearizer) discover(root *Node) {
	stack := []*Node{resolve(root)}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}
		if _, done := l.index[n]; done {
			continue
		}
		idx, err := safecast.Conv[int32](len(l.order))
		if err != nil {
			l.err = fmt.Errorf("cfa: too many actions: %w", err)
			return
		}
		l.index[n] = idx
		l.order = append(l.order, n)
		for i := len(n.Succs) - 1; i >= 0; i-- {
			stack = append(stack, resolve(n.Succs[i]))
		}
	}
}

func (l *linearizer) target(n *Node) int32 {
	n = resolve(n)
	if n == nil {
		return action.End
	}
	if idx, ok := l.index[n]; ok {
		return idx
	}
	return action.End
}

func (l *linearizer) emit(n *Node) (action.Action, error) {
	a := action.Action{
		Kind:      n.Kind,
		Effect:    n.prelude(),
		Predicate: n.Predicate,
		Cond:      n.Cond,
		Consumer:  n.Consumer,
		Producer:  n.Producer,
		Next:      action.End,
		Else:      action.End,
		Desc:      n.Desc,
	}
	switch n.Kind {
	case action.KindBranch:
		if len(n.Succs) != 2 {
			return a, fmt.Errorf("branch with %d successors", len(n.Succs))
		}
		a.Next = l.target(n.Succs[0])
		a.Else = l.target(n.Succs[1])
	default:
		if len(n.Succs) > 1 {
			return a, fmt.Errorf("%s with %d successors", n.Kind, len(n.Succs))
		}
		if len(n.Succs) == 1 {
			a.Next = l.target(n.Succs[0])
		}
	}
	return a, nil
}
