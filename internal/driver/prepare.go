package driver

import (
	"context"
	"fmt"

	"coflow/internal/catalog"
	"coflow/internal/cfa"
	"coflow/internal/coro"
)

// Prepared is a catalog program compiled into a definition.
type Prepared struct {
	Program *catalog.Program
	Result  *cfa.Result
	Def     *coro.Definition
}

// Prepare looks up name, compiles it against host and binds opts to the
// resulting definition. The compile phases are recorded on copts.Timer when
// one is set.
func Prepare(ctx context.Context, name string, host catalog.Host, copts cfa.Options, opts ...coro.Option) (*Prepared, error) {
	p, ok := catalog.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("driver: unknown program %q (available: %v)", name, catalog.Names())
	}
	res, err := p.Compile(ctx, host, copts)
	if err != nil {
		return nil, err
	}
	var def *coro.Definition
	err = copts.Timer.Measure("define", func() error {
		def, err = coro.NewDefinition(res.Program, opts...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Prepared{Program: p, Result: res, Def: def}, nil
}
