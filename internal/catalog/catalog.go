// Package catalog holds the built-in coroutine programs shipped with the CLI.
package catalog

import (
	"context"
	"fmt"
	"sort"

	"coflow/internal/action"
	"coflow/internal/cfa"
	"coflow/internal/ir"
)

// Host supplies the host functions a program calls into.
type Host struct {
	// Fetch is the suspending lookup used by the fetch program. Nil selects
	// InlineFetch.
	Fetch action.AsyncFunc
}

// Program is a named IR program with default inputs for demo runs.
type Program struct {
	Name    string
	Summary string
	Params  int
	Input   string
	Output  string
	// Args and Inputs feed `coflow run` when no values are given.
	Args   []ir.Value
	Inputs []ir.Value
	// Recover names the label a driver jumps to when the program parks on a
	// bare suspend; empty means wake it instead.
	Recover string

	build func(h Host) *ir.Stmt
}

// Root builds a fresh IR tree bound to h.
func (p *Program) Root(h Host) *ir.Stmt {
	if h.Fetch == nil {
		h.Fetch = InlineFetch
	}
	return p.build(h)
}

// Compile lowers the program. Params, Input and Output in opts are taken
// from the program.
func (p *Program) Compile(ctx context.Context, h Host, opts cfa.Options) (*cfa.Result, error) {
	opts.Params = p.Params
	opts.Input = p.Input
	opts.Output = p.Output
	return cfa.Compile(ctx, p.Name, p.Root(h), opts)
}

var registry = map[string]*Program{}

func register(p *Program) {
	if _, dup := registry[p.Name]; dup {
		panic(fmt.Sprintf("catalog: duplicate program %q", p.Name))
	}
	registry[p.Name] = p
}

// Lookup returns the program registered under name.
func Lookup(name string) (*Program, bool) {
	p, ok := registry[name]
	return p, ok
}

// Names returns the registered program names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered programs sorted by name.
func All() []*Program {
	names := Names()
	out := make([]*Program, len(names))
	for i, name := range names {
		out[i] = registry[name]
	}
	return out
}

// InlineFetch resolves fetch(key) synchronously with "item-<key>".
func InlineFetch(args []ir.Value, r action.Resumer) error {
	return r.Resume(FetchResult(args))
}

// FetchResult is the value InlineFetch resolves to.
func FetchResult(args []ir.Value) ir.Value {
	if len(args) == 0 {
		return "item"
	}
	return fmt.Sprintf("item-%v", args[0])
}
