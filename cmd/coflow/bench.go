package main

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"coflow/internal/catalog"
	"coflow/internal/coro"
	"coflow/internal/driver"
	"coflow/internal/sched"
	"coflow/internal/ui"
)

var (
	benchInstances int
	benchJobs      int
	benchUI        string
)

func init() {
	benchCmd.Flags().IntVarP(&benchInstances, "instances", "n", 1000, "instances to run per program")
	benchCmd.Flags().IntVarP(&benchJobs, "jobs", "j", 0, "instances driven in parallel (0 = from config)")
	benchCmd.Flags().StringVar(&benchUI, "ui", "auto", "progress UI mode (auto|on|off)")
}

var benchCmd = &cobra.Command{
	Use:   "bench [programs...]",
	Short: "Run many instances of programs in parallel and report throughput",
	RunE: func(cmd *cobra.Command, args []string) error {
		if benchInstances <= 0 {
			return fmt.Errorf("--instances must be positive, got %d", benchInstances)
		}
		mode, err := readUIMode(benchUI)
		if err != nil {
			return err
		}
		names := args
		if len(names) == 0 {
			names = catalog.Names()
		}
		return withSession(cmd, func(s *session) error {
			preps := make([]*driver.Prepared, 0, len(names))
			for _, name := range names {
				prep, err := prepare(cmd, s, name, catalog.Host{}, false, 0)
				if err != nil {
					return err
				}
				preps = append(preps, prep)
			}
			jobs := benchJobs
			if jobs <= 0 {
				jobs = s.cfg.Run.Jobs
			}
			b := &bench{instances: benchInstances, jobs: jobs, maxRecover: s.cfg.Run.MaxRecover}

			var results []benchResult
			if shouldUseTUI(mode) && !s.quiet {
				results, err = runBenchWithUI(s.ctx, "bench", names, b, preps)
			} else {
				results, err = b.run(s.ctx, preps, ui.ChannelSink{})
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), benchTable(results, !s.useColor).String())
			return err
		})
	},
}

type bench struct {
	instances  int
	jobs       int
	maxRecover int
}

type benchResult struct {
	name      string
	instances int
	events    int64
	steps     uint64
	elapsed   time.Duration
}

// run benchmarks each program in turn; instances of one program run on up
// to b.jobs goroutines, each with its own executor.
func (b *bench) run(ctx context.Context, preps []*driver.Prepared, sink ui.ChannelSink) ([]benchResult, error) {
	results := make([]benchResult, 0, len(preps))
	for _, prep := range preps {
		res, err := b.runOne(ctx, prep, sink)
		if err != nil {
			sink.Publish(ui.Event{Item: prep.Program.Name, Status: ui.StatusError, Total: b.instances})
			return nil, fmt.Errorf("%s: %w", prep.Program.Name, err)
		}
		sink.Publish(ui.Event{Item: prep.Program.Name, Status: ui.StatusDone, Done: b.instances, Total: b.instances})
		results = append(results, res)
	}
	return results, nil
}

func (b *bench) runOne(ctx context.Context, prep *driver.Prepared, sink ui.ChannelSink) (benchResult, error) {
	var (
		events atomic.Int64
		steps  atomic.Uint64
		done   atomic.Int64
	)
	name := prep.Program.Name
	sink.Publish(ui.Event{Item: name, Status: ui.StatusRunning, Total: b.instances})
	start := time.Now()
	err := sched.RunParallel(ctx, b.instances, b.jobs, func(ctx context.Context, _ int) error {
		tr, err := driveOnce(ctx, prep, b.maxRecover)
		if err != nil {
			return err
		}
		events.Add(int64(len(tr.Events)))
		steps.Add(tr.Steps)
		n := done.Add(1)
		sink.Publish(ui.Event{Item: name, Status: ui.StatusRunning, Done: int(n), Total: b.instances})
		return nil
	})
	if err != nil {
		return benchResult{}, err
	}
	return benchResult{
		name:      name,
		instances: b.instances,
		events:    events.Load(),
		steps:     steps.Load(),
		elapsed:   time.Since(start),
	}, nil
}

func driveOnce(ctx context.Context, prep *driver.Prepared, maxRecover int) (*driver.Transcript, error) {
	in, err := prep.Def.New(prep.Program.Args...)
	if err != nil {
		return nil, err
	}
	exec := sched.NewExecutor(sched.Config{})
	tr, err := driver.Drive(ctx, exec, in, driver.Options{
		Inputs:     prep.Program.Inputs,
		Recover:    prep.Program.Recover,
		MaxRecover: maxRecover,
	})
	if err != nil {
		return nil, err
	}
	if tr.State != coro.Terminated {
		return nil, fmt.Errorf("instance ended %s", tr.State)
	}
	return tr, nil
}

func benchTable(results []benchResult, plain bool) *ui.Table {
	tbl := &ui.Table{
		Headers: []string{"PROGRAM", "INSTANCES", "EVENTS", "STEPS", "ELAPSED", "NS/INSTANCE"},
		Plain:   plain,
	}
	for _, r := range results {
		perInstance := int64(0)
		if r.instances > 0 {
			perInstance = r.elapsed.Nanoseconds() / int64(r.instances)
		}
		tbl.Rows = append(tbl.Rows, []string{
			r.name,
			strconv.Itoa(r.instances),
			strconv.FormatInt(r.events, 10),
			strconv.FormatUint(r.steps, 10),
			fmt.Sprintf("%.1f ms", toMillis(r.elapsed)),
			strconv.FormatInt(perInstance, 10),
		})
	}
	return tbl
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
