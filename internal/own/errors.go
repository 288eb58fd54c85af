package own

import (
	"errors"
	"fmt"
	"strings"

	"ownlab/internal/diag"
	"ownlab/internal/source"
)

var (
	// ErrUseAfterMove matches uses of moved-out or released bindings.
	ErrUseAfterMove = errors.New("use of moved value")
	// ErrBorrowConflict matches violations of shared/exclusive exclusivity.
	ErrBorrowConflict = errors.New("borrow conflict")
	// ErrDanglingReference matches borrows that would outlive their referent.
	ErrDanglingReference = errors.New("dangling reference")
)

// Error is a rejected ownership operation.
type Error struct {
	Code diag.Code
	Op   string
	Name string
	Site source.Span

	// Prior points at the earlier operation that caused the rejection,
	// e.g. where the value was moved or where the conflicting borrow began.
	Prior     source.Span
	PriorNote string
	// Insert is text that fixes the error when inserted at the start of
	// Prior, such as "mut " for a binding that must be mutable.
	Insert string

	Detail string
	// Cause is the underlying heap fault for OwnHeapFault.
	Cause error
}

func (e *Error) Error() string {
	return e.Code.ID() + ": " + e.Message()
}

// Message is the human-readable part of the error without the code.
func (e *Error) Message() string {
	msg := e.Code.Title()
	if e.Name != "" {
		msg += fmt.Sprintf(" `%s`", e.Name)
	}
	if e.Op != "" {
		msg += " in " + e.Op
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap maps the diagnostic code onto the error kinds callers match with errors.Is.
func (e *Error) Unwrap() error {
	switch e.Code {
	case diag.OwnUseAfterMove, diag.OwnUseAfterRelease:
		return ErrUseAfterMove
	case diag.OwnBorrowConflict, diag.OwnBorrowMutation, diag.OwnBorrowMove, diag.OwnBorrowImmutable:
		return ErrBorrowConflict
	case diag.OwnDanglingReference, diag.OwnBorrowExpired:
		return ErrDanglingReference
	case diag.OwnHeapFault:
		return e.Cause
	default:
		return nil
	}
}

// Diagnostic converts the error into a diagnostic, with the prior site as a note.
func (e *Error) Diagnostic() diag.Diagnostic {
	d := diag.NewError(e.Code, e.Site, e.Message())
	if e.Prior.IsValid() && e.PriorNote != "" {
		d = d.WithNote(e.Prior, e.PriorNote)
	}
	if e.Prior.IsValid() && e.Insert != "" {
		at := source.Span{File: e.Prior.File, Start: e.Prior.Start, End: e.Prior.Start}
		d = d.WithFix(fmt.Sprintf("insert `%s`", strings.TrimSpace(e.Insert)), diag.FixEdit{Span: at, NewText: e.Insert})
	}
	return d
}

// CodeOf extracts the diagnostic code from err, or diag.UnknownCode.
func CodeOf(err error) diag.Code {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code
	}
	return diag.UnknownCode
}
