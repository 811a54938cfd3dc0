package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"coflow/internal/catalog"
	"coflow/internal/driver"
)

var (
	resumeDir    string
	resumeInputs []string
	resumeLimit  int
	resumeKeep   bool
)

func init() {
	resumeCmd.Flags().StringVar(&resumeDir, "dir", "", "snapshot directory (default: from config, then $XDG_STATE_HOME/coflow/snapshots)")
	resumeCmd.Flags().StringSliceVar(&resumeInputs, "input", nil, "values fed to accepts, comma separated")
	resumeCmd.Flags().IntVar(&resumeLimit, "limit", 0, "stop after this many events and save again (0 = unlimited)")
	resumeCmd.Flags().BoolVar(&resumeKeep, "keep", false, "keep the snapshot after the instance terminates")
}

var resumeCmd = &cobra.Command{
	Use:   "resume <name>",
	Short: "Restore a saved instance and keep running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		return withSession(cmd, func(s *session) error {
			store, err := openStore(s, resumeDir)
			if err != nil {
				return err
			}
			snap, ok, err := store.Get(name)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no snapshot named %q in %s", name, store.Dir())
			}

			exec := newExecutor(cmd, s, false, 0)
			prep, err := prepare(cmd, s, snap.Program, catalog.Host{}, false, 0)
			if err != nil {
				return err
			}
			in, err := prep.Def.Restore(snap)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tr, err := driver.Drive(s.ctx, exec, in, driver.Options{
				Inputs:     parseValues(resumeInputs),
				Recover:    prep.Program.Recover,
				MaxRecover: s.cfg.Run.MaxRecover,
				Limit:      resumeLimit,
				OnEvent:    func(ev driver.Event) { printEvent(out, ev) },
			})
			if err != nil {
				return err
			}
			if tr.Stopped {
				return saveInstance(cmd, s, store, name, in)
			}
			if !s.quiet {
				printOutcome(cmd.ErrOrStderr(), tr)
			}
			if resumeKeep {
				return nil
			}
			return store.Drop(name)
		})
	},
}
