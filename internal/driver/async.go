package driver

import (
	"sync"
	"sync/atomic"
	"time"

	"coflow/internal/action"
	"coflow/internal/catalog"
	"coflow/internal/ir"
	"coflow/internal/sched"
)

// AsyncFetch resolves fetch calls from background goroutines after a delay.
// Results are handed back through exec.Post so resumers only ever run on the
// driving goroutine.
type AsyncFetch struct {
	exec    *sched.Executor
	delay   time.Duration
	pending atomic.Int64
	wg      sync.WaitGroup
}

// NewAsyncFetch returns a fetch host bound to exec.
func NewAsyncFetch(exec *sched.Executor, delay time.Duration) *AsyncFetch {
	return &AsyncFetch{exec: exec, delay: delay}
}

// Call has the action.AsyncFunc shape.
func (f *AsyncFetch) Call(args []ir.Value, r action.Resumer) error {
	key := append([]ir.Value(nil), args...)
	f.pending.Add(1)
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		time.Sleep(f.delay)
		f.exec.Post(func() error {
			f.pending.Add(-1)
			return r.Resume(catalog.FetchResult(key))
		})
	}()
	return nil
}

// Pending returns the number of calls whose result has not been delivered.
func (f *AsyncFetch) Pending() int {
	return int(f.pending.Load())
}

// Host returns a catalog host routing fetch through f.
func (f *AsyncFetch) Host() catalog.Host {
	return catalog.Host{Fetch: f.Call}
}

// Close waits for background goroutines to finish.
func (f *AsyncFetch) Close() {
	f.wg.Wait()
}
