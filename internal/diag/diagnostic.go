package diag

import (
	"slices"

	"ownlab/internal/source"
)

// Note is a secondary location attached to a diagnostic, such as the move
// or borrow that invalidated the primary use.
type Note struct {
	Span source.Span
	Msg  string
}

// FixEdit replaces the text covered by Span with NewText. An empty span
// inserts.
type FixEdit struct {
	Span    source.Span
	NewText string
}

// Fix is a suggested correction applied by `ownlab fix`.
type Fix struct {
	Title string
	Edits []FixEdit
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Primary: primary, Message: msg}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

// WithNote returns a copy of d with one more note; d itself is unchanged.
func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(slices.Clip(d.Notes), Note{Span: sp, Msg: msg})
	return d
}

// WithFix returns a copy of d with one more fix; d itself is unchanged.
func (d Diagnostic) WithFix(title string, edits ...FixEdit) Diagnostic {
	d.Fixes = append(slices.Clip(d.Fixes), Fix{Title: title, Edits: edits})
	return d
}
