// Package diag defines the diagnostic model shared by the lexer, parser and
// interpreter of own scripts.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: Info, Warning or Error.
//   - Code: compact numeric identifier (see codes.go) with stable string form
//     (LEX1xxx, SYN2xxx, OWN3xxx, IO4xxx, PRJ5xxx).
//   - Message: human oriented text; keep it short and actionable.
//   - Primary: the source.Span pointing at the offending site.
//   - Notes: secondary spans, e.g. "value moved here" or "previous borrow
//     occurs here". Each note must add context rather than repeat the message.
//   - Fixes: optional edits, for example inserting a missing `mut`.
//
// # Emitting diagnostics
//
// Phases report through a Reporter. ReportError and ReportWarning return a
// ReportBuilder that accepts WithNote and WithFix before Emit.
// BagReporter collects into a Bag which supports sorting, deduplication and a
// size limit; DedupReporter drops repeated reports.
//
// Rendering lives in internal/diagfmt. The golden/short single-line format in
// golden.go is used by tests and the CLI "short" output.
package diag
