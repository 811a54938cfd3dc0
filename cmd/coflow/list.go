package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"coflow/internal/catalog"
	"coflow/internal/ui"
)

var listFormat string

func init() {
	listCmd.Flags().StringVar(&listFormat, "format", "table", "output format (table|json)")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in programs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			out := cmd.OutOrStdout()
			switch listFormat {
			case "table":
				tbl := programTable(catalog.All(), !s.useColor)
				_, err := fmt.Fprint(out, tbl.String())
				return err
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(programEntries(catalog.All()))
			default:
				return fmt.Errorf("unsupported format %q (must be table or json)", listFormat)
			}
		})
	},
}

type programEntry struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
	Params  int    `json:"params"`
	Accepts string `json:"accepts,omitempty"`
	Yields  string `json:"yields,omitempty"`
	Args    string `json:"args,omitempty"`
	Inputs  string `json:"inputs,omitempty"`
	Recover string `json:"recover,omitempty"`
}

func programEntries(progs []*catalog.Program) []programEntry {
	entries := make([]programEntry, 0, len(progs))
	for _, p := range progs {
		e := programEntry{
			Name:    p.Name,
			Summary: p.Summary,
			Params:  p.Params,
			Accepts: p.Input,
			Yields:  p.Output,
			Recover: p.Recover,
		}
		if len(p.Args) > 0 {
			e.Args = formatValues(p.Args)
		}
		if len(p.Inputs) > 0 {
			e.Inputs = formatValues(p.Inputs)
		}
		entries = append(entries, e)
	}
	return entries
}

func programTable(progs []*catalog.Program, plain bool) *ui.Table {
	tbl := &ui.Table{
		Headers: []string{"NAME", "PARAMS", "ACCEPTS", "YIELDS", "DEFAULTS", "SUMMARY"},
		MaxCell: 60,
		Plain:   plain,
	}
	for _, p := range progs {
		defaults := "-"
		switch {
		case len(p.Args) > 0 && len(p.Inputs) > 0:
			defaults = "args " + formatValues(p.Args) + " inputs " + formatValues(p.Inputs)
		case len(p.Args) > 0:
			defaults = "args " + formatValues(p.Args)
		case len(p.Inputs) > 0:
			defaults = "inputs " + formatValues(p.Inputs)
		}
		tbl.Rows = append(tbl.Rows, []string{
			p.Name,
			strconv.Itoa(p.Params),
			orDash(p.Input),
			orDash(p.Output),
			defaults,
			p.Summary,
		})
	}
	return tbl
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
