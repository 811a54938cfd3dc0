// Package diag defines the diagnostic model reported by the lowering pipeline.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Path – the IR location of the offending statement, e.g.
//     "seq[2]/while/body/seq[0]". The IR carries no source spans, so the
//     statement path is the primary locator.
//
// # Emitting diagnostics
//
// Producers report through a Reporter so emission stays decoupled from
// storage. BagReporter aggregates into a Bag, which supports sorting and
// deduplication. A Bag holding errors converts to an error value via Err, and
// Render prints it for the CLI.
package diag
