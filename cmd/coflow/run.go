package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"coflow/internal/catalog"
	"coflow/internal/coro"
	"coflow/internal/driver"
	"coflow/internal/sched"
	"coflow/internal/trace"
)

type runFlags struct {
	inputs   []string
	async    time.Duration
	maxSteps int
	limit    int
	fuzz     bool
	seed     uint64
	noOpt    bool
}

var runOpts runFlags

func init() {
	f := runCmd.Flags()
	f.StringSliceVar(&runOpts.inputs, "input", nil, "values fed to accepts, comma separated (default: program inputs)")
	f.DurationVar(&runOpts.async, "async", 0, "complete host fetches asynchronously after this delay (0 = inline)")
	f.IntVar(&runOpts.maxSteps, "max-steps", 0, "step budget per tick (0 = from config)")
	f.IntVar(&runOpts.limit, "limit", 0, "stop after this many events (0 = unlimited)")
	f.BoolVar(&runOpts.fuzz, "fuzz", false, "poll ready tasks in seeded random order")
	f.Uint64Var(&runOpts.seed, "seed", 0, "seed for --fuzz (0 = from config)")
	f.BoolVar(&runOpts.noOpt, "no-opt", false, "skip chain fusion and branch collapsing")
}

var runCmd = &cobra.Command{
	Use:   "run <program> [args...]",
	Short: "Run a program and print its events",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			exec := newExecutor(cmd, s, runOpts.fuzz, runOpts.seed)
			host, pending, extra, closeHost := hostFor(exec, runOpts.async)
			defer closeHost()

			prep, err := prepare(cmd, s, args[0], host, runOpts.noOpt, runOpts.maxSteps, extra...)
			if err != nil {
				return err
			}
			in, err := prep.Def.New(valuesOr(args[1:], prep.Program.Args)...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var tr *driver.Transcript
			err = s.timer.Measure("run", func() error {
				tr, err = driver.Drive(s.ctx, exec, in, driver.Options{
					Inputs:     valuesOr(runOpts.inputs, prep.Program.Inputs),
					Recover:    prep.Program.Recover,
					MaxRecover: s.cfg.Run.MaxRecover,
					Limit:      runOpts.limit,
					Pending:    pending,
					OnEvent:    func(ev driver.Event) { printEvent(out, ev) },
				})
				return err
			})
			if err != nil {
				return err
			}
			if !s.quiet {
				printOutcome(cmd.ErrOrStderr(), tr)
			}
			return nil
		})
	},
}

// newExecutor builds an executor with the fuzz flags layered over config.
func newExecutor(cmd *cobra.Command, s *session, fuzz bool, seed uint64) *sched.Executor {
	flags := cmd.Flags()
	if !flags.Changed("fuzz") {
		fuzz = s.cfg.Run.Fuzz
	}
	if !flags.Changed("seed") {
		seed = s.cfg.Run.Seed
	}
	return sched.NewExecutor(sched.Config{
		Fuzz:   fuzz,
		Seed:   seed,
		Tracer: trace.FromContext(s.ctx),
	})
}

// hostFor returns the host bindings for the given fetch delay. A positive
// delay completes fetches from background goroutines through exec.
func hostFor(exec *sched.Executor, delay time.Duration) (catalog.Host, func() int, []coro.Option, func()) {
	if delay <= 0 {
		return catalog.Host{}, nil, nil, func() {}
	}
	fetch := driver.NewAsyncFetch(exec, delay)
	return fetch.Host(), fetch.Pending, []coro.Option{coro.WithWaker(exec)}, fetch.Close
}

var (
	yieldColor     = color.New(color.FgGreen)
	acceptColor    = color.New(color.FgCyan)
	gotoColor      = color.New(color.FgYellow)
	suspendColor   = color.New(color.FgMagenta)
	terminateColor = color.New(color.Faint)
)

func printEvent(out io.Writer, ev driver.Event) {
	c := terminateColor
	switch ev.Kind {
	case driver.EventYield:
		c = yieldColor
	case driver.EventAccept:
		c = acceptColor
	case driver.EventGoto:
		c = gotoColor
	case driver.EventSuspend:
		c = suspendColor
	}
	fmt.Fprintln(out, c.Sprint(ev.String()))
}

func printOutcome(out io.Writer, tr *driver.Transcript) {
	if tr.Stopped {
		fmt.Fprintf(out, "stopped after %d events: state %s, %d steps\n", len(tr.Events), tr.State, tr.Steps)
		return
	}
	fmt.Fprintf(out, "state %s, %d steps\n", tr.State, tr.Steps)
}
