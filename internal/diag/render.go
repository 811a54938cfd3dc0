package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	pathColor    = color.New(color.Faint)
)

// Render writes one line per diagnostic. Colors are applied only when
// useColor is set.
func Render(w io.Writer, items []Diagnostic, useColor bool) error {
	for _, d := range items {
		sev := d.Severity.String()
		id := d.Code.ID()
		where := d.Path
		if useColor {
			sev = severityColor(d.Severity).Sprint(sev)
			if where != "" {
				where = pathColor.Sprint(where)
			}
		}
		var err error
		if where != "" {
			_, err = fmt.Fprintf(w, "%s %s at %s: %s\n", sev, id, where, d.Message)
		} else {
			_, err = fmt.Fprintf(w, "%s %s: %s\n", sev, id, d.Message)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func severityColor(s Severity) *color.Color {
	switch s {
	case SevError:
		return errorColor
	case SevWarning:
		return warningColor
	default:
		return infoColor
	}
}
