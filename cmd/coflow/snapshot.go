package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"coflow/internal/catalog"
	"coflow/internal/coro"
	"coflow/internal/driver"
	"coflow/internal/ui"
)

const appName = "coflow"

var (
	snapshotDir    string
	snapshotAfter  int
	snapshotInputs []string
)

func init() {
	snapshotCmd.PersistentFlags().StringVar(&snapshotDir, "dir", "", "snapshot directory (default: from config, then $XDG_STATE_HOME/coflow/snapshots)")
	snapshotSaveCmd.Flags().IntVar(&snapshotAfter, "after", 1, "number of events to run before saving")
	snapshotSaveCmd.Flags().StringSliceVar(&snapshotInputs, "input", nil, "values fed to accepts, comma separated (default: program inputs)")

	snapshotCmd.AddCommand(snapshotSaveCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotDropCmd)
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save, list and drop paused instances",
}

func openStore(s *session, dir string) (*driver.Store, error) {
	if dir == "" {
		dir = s.cfg.Run.Snapshots
	}
	return driver.OpenStore(appName, dir)
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save <program> <name> [args...]",
	Short: "Run a program for a number of events and save the paused instance",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if snapshotAfter <= 0 {
			return fmt.Errorf("--after must be positive, got %d", snapshotAfter)
		}
		return withSession(cmd, func(s *session) error {
			store, err := openStore(s, snapshotDir)
			if err != nil {
				return err
			}
			exec := newExecutor(cmd, s, false, 0)
			prep, err := prepare(cmd, s, args[0], catalog.Host{}, false, 0)
			if err != nil {
				return err
			}
			in, err := prep.Def.New(valuesOr(args[2:], prep.Program.Args)...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tr, err := driver.Drive(s.ctx, exec, in, driver.Options{
				Inputs:     valuesOr(snapshotInputs, prep.Program.Inputs),
				Recover:    prep.Program.Recover,
				MaxRecover: s.cfg.Run.MaxRecover,
				Limit:      snapshotAfter,
				OnEvent:    func(ev driver.Event) { printEvent(out, ev) },
			})
			if err != nil {
				return err
			}
			if !tr.Stopped {
				return fmt.Errorf("%s finished after %d events; nothing to save", args[0], len(tr.Events))
			}
			return saveInstance(cmd, s, store, args[1], in)
		})
	},
}

func saveInstance(cmd *cobra.Command, s *session, store *driver.Store, name string, in *coro.Instance) error {
	snap, err := in.Snapshot()
	if err != nil {
		return err
	}
	if err := store.Put(name, snap); err != nil {
		return err
	}
	if !s.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "saved %s: %s at a%d (%s)\n", name, snap.Program, snap.Position, snap.State)
	}
	return nil
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			store, err := openStore(s, snapshotDir)
			if err != nil {
				return err
			}
			names, err := store.List()
			if err != nil {
				return err
			}
			tbl := &ui.Table{
				Headers: []string{"NAME", "PROGRAM", "STATE", "POS", "FINGERPRINT"},
				Plain:   !s.useColor,
			}
			for _, name := range names {
				snap, ok, err := store.Get(name)
				if err != nil {
					tbl.Rows = append(tbl.Rows, []string{name, "?", "unreadable", "-", err.Error()})
					continue
				}
				if !ok {
					continue
				}
				tbl.Rows = append(tbl.Rows, []string{
					name,
					snap.Program,
					snap.State.String(),
					fmt.Sprintf("a%d", snap.Position),
					snap.Fingerprint,
				})
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), tbl.String())
			return err
		})
	},
}

var snapshotDropCmd = &cobra.Command{
	Use:   "drop <name>...",
	Short: "Delete saved snapshots",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			store, err := openStore(s, snapshotDir)
			if err != nil {
				return err
			}
			for _, name := range args {
				if err := store.Drop(name); err != nil {
					return err
				}
			}
			return nil
		})
	},
}
