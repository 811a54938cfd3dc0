// Package sched drives many coroutine instances cooperatively on one
// goroutine. Wakeups may be requested from anywhere; instances only ever run
// on the goroutine calling Drain or Run.
package sched

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"

	"coflow/internal/coro"
	"coflow/internal/ir"
	"coflow/internal/trace"
)

// TaskID identifies a spawned instance.
type TaskID uint64

// TaskStatus describes task scheduling state.
type TaskStatus uint8

const (
	TaskReady TaskStatus = iota
	TaskRunning
	TaskWaiting
	TaskDone
)

func (s TaskStatus) String() string {
	switch s {
	case TaskReady:
		return "ready"
	case TaskRunning:
		return "running"
	case TaskWaiting:
		return "waiting"
	case TaskDone:
		return "done"
	default:
		return "unknown"
	}
}

// Handlers connect a task's accepts and yields to the host. A nil handler
// leaves the instance parked in that state until the host drives it.
type Handlers struct {
	Yield  func(id TaskID, v ir.Value) error
	Accept func(id TaskID) (ir.Value, error)
}

// Task stores executor-visible task state.
type Task struct {
	ID       TaskID
	Instance *coro.Instance
	Status   TaskStatus
	Polls    int
	Err      error
	handlers Handlers
}

// Config configures executor scheduling behavior.
type Config struct {
	// Fuzz picks the next ready task at random instead of FIFO; the order is
	// reproducible for a given Seed.
	Fuzz   bool
	Seed   uint64
	Tracer trace.Tracer
}

// Executor schedules instances with a deterministic FIFO ready queue by
// default. It implements coro.Waker; pass it to coro.WithWaker so async
// resumptions enqueue instead of running inline.
type Executor struct {
	cfg Config

	mu       sync.Mutex
	nextID   TaskID
	ready    []TaskID
	readySet map[TaskID]struct{}
	tasks    map[TaskID]*Task
	byInst   map[*coro.Instance]TaskID
	posted   []func() error
	live     int
	rng      *rand.Rand
	signal   chan struct{}
}

var _ coro.Waker = (*Executor)(nil)

// NewExecutor constructs an executor with the provided configuration.
func NewExecutor(cfg Config) *Executor {
	if cfg.Tracer == nil {
		cfg.Tracer = trace.Nop
	}
	e := &Executor{
		cfg:      cfg,
		nextID:   1,
		readySet: make(map[TaskID]struct{}),
		tasks:    make(map[TaskID]*Task),
		byInst:   make(map[*coro.Instance]TaskID),
		signal:   make(chan struct{}, 1),
	}
	if cfg.Fuzz {
		seed := cfg.Seed
		if seed == 0 {
			seed = 1
		}
		e.rng = rand.New(rand.NewSource(int64(seed))) //nolint:gosec // deterministic scheduler seed
	}
	return e
}

// Spawn registers an instance and enqueues it for execution.
func (e *Executor) Spawn(in *coro.Instance, h Handlers) TaskID {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id, ok := e.byInst[in]; ok {
		return id
	}
	id := e.nextID
	e.nextID++
	e.tasks[id] = &Task{ID: id, Instance: in, Status: TaskReady, handlers: h}
	e.byInst[in] = id
	e.live++
	e.enqueueLocked(id)
	e.point("spawn", id)
	return id
}

// Task returns a task by ID.
func (e *Executor) Task(id TaskID) *Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tasks[id]
}

// Live returns the number of tasks that have not finished.
func (e *Executor) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.live
}

// Wake enqueues the task owning in. Unknown or finished instances are
// ignored. Safe for concurrent use.
func (e *Executor) Wake(in *coro.Instance) {
	e.mu.Lock()
	id, ok := e.byInst[in]
	if ok {
		if task := e.tasks[id]; task != nil && task.Status != TaskDone {
			e.enqueueLocked(id)
			e.point("wake", id)
		}
	}
	e.mu.Unlock()
	e.notify()
}

// Post queues fn to run on the driving goroutine before the next poll. Use it
// to resume an instance from another goroutine. Safe for concurrent use.
func (e *Executor) Post(fn func() error) {
	e.mu.Lock()
	e.posted = append(e.posted, fn)
	e.mu.Unlock()
	e.notify()
}

// NextReady returns the next ready task according to scheduler policy.
func (e *Executor) NextReady() (TaskID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for len(e.ready) > 0 {
		idx := 0
		if e.rng != nil {
			idx = e.rng.Intn(len(e.ready))
		}
		id := e.ready[idx]
		copy(e.ready[idx:], e.ready[idx+1:])
		e.ready = e.ready[:len(e.ready)-1]
		delete(e.readySet, id)
		task := e.tasks[id]
		if task == nil || task.Status == TaskDone {
			continue
		}
		task.Status = TaskRunning
		return id, true
	}
	return 0, false
}

// Drain runs posted callbacks and ready tasks until both queues are empty.
// A failing task is marked done and its error returned.
func (e *Executor) Drain() error {
	for {
		if fns := e.takePosted(); len(fns) > 0 {
			for _, fn := range fns {
				if err := fn(); err != nil {
					return fmt.Errorf("sched: posted callback: %w", err)
				}
			}
			continue
		}
		id, ok := e.NextReady()
		if !ok {
			return nil
		}
		task := e.Task(id)
		err := e.poll(task)
		e.finish(task, err)
		if err != nil {
			return fmt.Errorf("sched: task %d: %w", id, err)
		}
	}
}

// Run drains repeatedly, blocking for wakeups, until every task has finished
// or ctx ends.
func (e *Executor) Run(ctx context.Context) error {
	for {
		if err := e.Drain(); err != nil {
			return err
		}
		if e.Live() == 0 {
			return nil
		}
		if err := e.Wait(ctx); err != nil {
			return err
		}
	}
}

// Wait blocks until a wakeup or post arrives, or ctx ends.
func (e *Executor) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.signal:
		return nil
	}
}

// poll advances the instance until it terminates or parks.
func (e *Executor) poll(t *Task) error {
	in := t.Instance
	t.Polls++
	var err error
	switch in.State() {
	case coro.Ready:
		err = in.Tick()
	case coro.Suspended:
		err = in.Wakeup()
	}
	for err == nil {
		switch in.State() {
		case coro.Yielding:
			if t.handlers.Yield == nil {
				return nil
			}
			// A failed producer leaves the yield pending; the handler only
			// sees values that were actually taken.
			v, terr := in.Take()
			if terr != nil && in.State() == coro.Yielding {
				return terr
			}
			err = t.handlers.Yield(t.ID, v)
			if terr != nil {
				err = terr
			}
		case coro.Accepting:
			if t.handlers.Accept == nil {
				return nil
			}
			var v ir.Value
			if v, err = t.handlers.Accept(t.ID); err == nil {
				err = in.Give(v)
			}
		default:
			return nil
		}
	}
	return err
}

func (e *Executor) finish(t *Task, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case err != nil:
		t.Err = err
		t.Status = TaskDone
	case t.Instance.State() == coro.Terminated:
		t.Status = TaskDone
	default:
		if _, queued := e.readySet[t.ID]; queued {
			t.Status = TaskReady
		} else {
			t.Status = TaskWaiting
		}
		return
	}
	e.live--
	delete(e.byInst, t.Instance)
	e.point("done", t.ID)
}

func (e *Executor) takePosted() []func() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	fns := e.posted
	e.posted = nil
	return fns
}

func (e *Executor) enqueueLocked(id TaskID) {
	if _, ok := e.readySet[id]; ok {
		return
	}
	e.ready = append(e.ready, id)
	e.readySet[id] = struct{}{}
	if task := e.tasks[id]; task != nil && task.Status == TaskWaiting {
		task.Status = TaskReady
	}
}

func (e *Executor) notify() {
	select {
	case e.signal <- struct{}{}:
	default:
	}
}

func (e *Executor) point(name string, id TaskID) {
	trace.Point(e.cfg.Tracer, trace.ScopeInstance, name, "", "task", strconv.FormatUint(uint64(id), 10))
}
