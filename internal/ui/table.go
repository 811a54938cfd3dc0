package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Table renders rows under a bold header with columns padded to their widest
// cell. Cells wider than maxCell terminal cells are truncated; zero keeps
// them whole.
type Table struct {
	Headers []string
	Rows    [][]string
	MaxCell int
	// Plain disables styling, for pipes and tests.
	Plain bool
}

func (t *Table) widths() []int {
	widths := make([]int, len(t.Headers))
	measure := func(row []string) {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if w := runewidth.StringWidth(t.cell(cell)); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		measure(row)
	}
	return widths
}

func (t *Table) cell(s string) string {
	if t.MaxCell > 0 {
		return Truncate(s, t.MaxCell)
	}
	return s
}

// String renders the table, one line per row with a trailing newline.
func (t *Table) String() string {
	widths := t.widths()
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	var b strings.Builder
	line := func(row []string, style *lipgloss.Style) {
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = t.cell(row[i])
			}
			last := i == len(widths)-1
			if !last {
				cell = runewidth.FillRight(cell, widths[i])
			}
			if style != nil && !t.Plain {
				cell = style.Render(cell)
			}
			b.WriteString(cell)
			if !last {
				b.WriteString("  ")
			}
		}
		b.WriteString("\n")
	}
	line(t.Headers, &header)
	for _, row := range t.Rows {
		line(row, nil)
	}
	return b.String()
}
