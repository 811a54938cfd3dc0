package action

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Dump writes a human-readable representation of the program.
// The output is deterministic for a given program.
func Dump(w io.Writer, p *Program) error {
	if w == nil || p == nil {
		return nil
	}
	_, err := io.WriteString(w, dumpString(p))
	return err
}

func dumpString(p *Program) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "program %s: params=%d slots=%d actions=%d\n", p.Name, p.Params, p.Slots, len(p.Actions))
	if p.Input != "" || p.Output != "" {
		fmt.Fprintf(&sb, "  accepts=%s yields=%s\n", orUnit(p.Input), orUnit(p.Output))
	}
	for i := range p.Actions {
		sb.WriteString("  ")
		sb.WriteString(FormatAction(int32(i), &p.Actions[i])) //nolint:gosec // G115: bounded by action count
		sb.WriteString("\n")
	}
	names := SortedLabels(p)
	if len(names) > 0 {
		sb.WriteString("  labels:\n")
		for _, name := range names {
			fmt.Fprintf(&sb, "    %s -> %s\n", name, FormatTarget(p.Labels[name]))
		}
	}
	return sb.String()
}

// FormatAction renders a single action as "aN: kind -> targets ; desc".
func FormatAction(idx int32, a *Action) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "a%d: %-8s", idx, a.Kind)
	switch a.Kind {
	case KindBranch:
		fmt.Fprintf(&sb, " -> %s | %s", FormatTarget(a.Next), FormatTarget(a.Else))
	default:
		fmt.Fprintf(&sb, " -> %s", FormatTarget(a.Next))
	}
	if a.Kind != KindSync && a.Effect != nil {
		sb.WriteString(" +prelude")
	}
	if a.Desc != "" {
		sb.WriteString(" ; ")
		sb.WriteString(a.Desc)
	}
	return sb.String()
}

// FormatTarget renders a successor index.
func FormatTarget(idx int32) string {
	if idx == End {
		return "end"
	}
	return fmt.Sprintf("a%d", idx)
}

// SortedLabels returns label names in index order, then name order.
func SortedLabels(p *Program) []string {
	names := make([]string, 0, len(p.Labels))
	for name := range p.Labels {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := p.Labels[names[i]], p.Labels[names[j]]
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})
	return names
}

// Fingerprint identifies the program shape; snapshots are bound to it.
func (p *Program) Fingerprint() string {
	if p == nil {
		return ""
	}
	sum := sha256.Sum256([]byte(dumpString(p)))
	return hex.EncodeToString(sum[:8])
}

func orUnit(s string) string {
	if s == "" {
		return "()"
	}
	return s
}
