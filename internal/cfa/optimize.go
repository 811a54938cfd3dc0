package cfa

import (
	"sort"

	"coflow/internal/action"
)

// Stats counts the rewrites performed by Optimize.
type Stats struct {
	Fused     int // Sync nodes merged into their predecessor
	Collapsed int // branches whose arms were identical
}

// Optimize fuses straight-line chains in the graph rooted at entry and at
// every label. A Sync node absorbs its sole successor when that successor has
// no other predecessor and is neither the entry, a label anchor, nor a node
// already visited. Loop heads are reached from two edges and are never fused
// across. The entry node itself is not replaced.
func Optimize(entry *Node, labels map[string]*Node) (*Node, Stats) {
	o := optimizer{seen: make(map[*Node]bool)}
	o.run(entry)
	for _, name := range sortedLabelNames(labels) {
		o.run(labels[name])
	}
	return entry, o.stats
}

type optimizer struct {
	seen  map[*Node]bool
	stats Stats
}

func (o *optimizer) run(root *Node) {
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil || o.seen[n] {
			continue
		}
		o.seen[n] = true
		o.simplify(n)
		for i := len(n.Succs) - 1; i >= 0; i-- {
			stack = append(stack, n.Succs[i])
		}
	}
}

func (o *optimizer) simplify(n *Node) {
	for {
		if n.Kind == action.KindBranch && len(n.Succs) == 2 && n.Succs[0] == n.Succs[1] {
			o.collapse(n)
			continue
		}
		if n.Kind != action.KindSync || len(n.Succs) != 1 || n.label != "" {
			return
		}
		s := n.Succs[0]
		if !o.fusable(n, s) {
			return
		}
		fuse(n, s)
		o.stats.Fused++
	}
}

func (o *optimizer) fusable(n, s *Node) bool {
	if s == nil || s == n || s.pinned || o.seen[s] {
		return false
	}
	if len(s.preds) != 1 {
		return false
	}
	_, only := s.preds[n]
	return only
}

func fuse(n, s *Node) {
	n.Effects = append(n.Effects, s.Effects...)
	n.Kind = s.Kind
	n.Predicate = s.Predicate
	n.Cond = s.Cond
	n.Consumer = s.Consumer
	n.Producer = s.Producer
	n.Desc = joinDesc(n.Desc, s.Desc)
	succs := s.Succs
	s.setSuccs()
	n.setSuccs(succs...)
}

// collapse turns a Branch with identical arms into a Sync that still
// evaluates the condition.
func (o *optimizer) collapse(n *Node) {
	cond := n.Cond
	if cond != nil {
		n.Effects = append(n.Effects, func(env action.Env) error {
			_, err := cond(env)
			return err
		})
	}
	n.Kind = action.KindSync
	n.Cond = nil
	n.setSuccs(n.Succs[0])
	o.stats.Collapsed++
}

func sortedLabelNames(labels map[string]*Node) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
