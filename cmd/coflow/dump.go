package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"coflow/internal/action"
	"coflow/internal/catalog"
	"coflow/internal/coro"
	"coflow/internal/diag"
	"coflow/internal/driver"
	"coflow/internal/ir"
	"coflow/internal/ui"
)

var (
	dumpFormat string
	dumpNoOpt  bool
	dumpStats  bool
)

func init() {
	dumpCmd.Flags().StringVar(&dumpFormat, "format", "table", "output format (table|text|ir)")
	dumpCmd.Flags().BoolVar(&dumpNoOpt, "no-opt", false, "skip chain fusion and branch collapsing")
	dumpCmd.Flags().BoolVar(&dumpStats, "stats", false, "print optimizer statistics and the program fingerprint")
}

var dumpCmd = &cobra.Command{
	Use:   "dump <program>",
	Short: "Show the lowered action table of a program",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			out := cmd.OutOrStdout()
			if dumpFormat == "ir" {
				p, ok := catalog.Lookup(args[0])
				if !ok {
					return fmt.Errorf("unknown program %q (available: %s)", args[0], strings.Join(catalog.Names(), ", "))
				}
				return ir.Dump(out, p.Root(catalog.Host{}))
			}

			prep, err := prepare(cmd, s, args[0], catalog.Host{}, dumpNoOpt, 0)
			if err != nil {
				return err
			}
			prog := prep.Result.Program
			switch dumpFormat {
			case "text":
				if err := action.Dump(out, prog); err != nil {
					return err
				}
			case "table":
				if _, err := fmt.Fprint(out, actionTable(prog, !s.useColor).String()); err != nil {
					return err
				}
				writeLabels(out, prog)
			default:
				return fmt.Errorf("unsupported format %q (must be table, text or ir)", dumpFormat)
			}
			if dumpStats {
				st := prep.Result.Stats
				fmt.Fprintf(out, "fused %d, collapsed %d, fingerprint %s\n", st.Fused, st.Collapsed, prog.Fingerprint())
			}
			return nil
		})
	},
}

func actionTable(p *action.Program, plain bool) *ui.Table {
	tbl := &ui.Table{
		Headers: []string{"IDX", "KIND", "NEXT", "PRELUDE", "DESC"},
		MaxCell: 72,
		Plain:   plain,
	}
	for i := range p.Actions {
		a := &p.Actions[i]
		next := action.FormatTarget(a.Next)
		if a.Kind == action.KindBranch {
			next += "|" + action.FormatTarget(a.Else)
		}
		prelude := "-"
		if a.Kind != action.KindSync && a.Effect != nil {
			prelude = "yes"
		}
		tbl.Rows = append(tbl.Rows, []string{
			fmt.Sprintf("a%d", i),
			a.Kind.String(),
			next,
			prelude,
			a.Desc,
		})
	}
	return tbl
}

func writeLabels(out io.Writer, p *action.Program) {
	names := action.SortedLabels(p)
	if len(names) == 0 {
		return
	}
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " -> " + action.FormatTarget(p.Labels[name])
	}
	fmt.Fprintf(out, "labels: %s\n", strings.Join(parts, ", "))
}

// prepare compiles a catalog program for the session and reports its
// diagnostics on stderr.
func prepare(cmd *cobra.Command, s *session, name string, host catalog.Host, noOpt bool, maxSteps int, extra ...coro.Option) (*driver.Prepared, error) {
	prep, err := driver.Prepare(s.ctx, name, host, s.compileOptions(noOpt), s.coroOptions(maxSteps, extra...)...)
	var derr *diag.Error
	if errors.As(err, &derr) {
		if rerr := diag.Render(cmd.ErrOrStderr(), derr.Items, s.useColor); rerr != nil {
			return nil, rerr
		}
		return nil, fmt.Errorf("%s: %d diagnostics", name, len(derr.Items))
	}
	if err != nil {
		return nil, err
	}
	if len(prep.Result.Warnings) > 0 && !s.quiet {
		if err := diag.Render(cmd.ErrOrStderr(), prep.Result.Warnings, s.useColor); err != nil {
			return nil, err
		}
	}
	return prep, nil
}
