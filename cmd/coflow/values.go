package main

import (
	"fmt"
	"strconv"
	"strings"

	"coflow/internal/ir"
)

// parseValue reads a command-line literal: integers, floats and booleans
// are typed, a double-quoted literal is unquoted, anything else stays a
// plain string.
func parseValue(s string) ir.Value {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if s == "true" || s == "false" {
		return s == "true"
	}
	if len(s) >= 2 && s[0] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return s
}

func parseValues(items []string) []ir.Value {
	if len(items) == 0 {
		return nil
	}
	out := make([]ir.Value, len(items))
	for i, item := range items {
		out[i] = parseValue(item)
	}
	return out
}

// valuesOr returns the parsed items, or fallback when none were given.
func valuesOr(items []string, fallback []ir.Value) []ir.Value {
	if len(items) == 0 {
		return fallback
	}
	return parseValues(items)
}

func formatValues(vs []ir.Value) string {
	if len(vs) == 0 {
		return "-"
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, ",")
}

func formatValue(v ir.Value) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case nil:
		return "()"
	default:
		return fmt.Sprint(x)
	}
}
