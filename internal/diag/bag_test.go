package diag

import (
	"testing"

	"ownlab/internal/source"
)

func TestBagLimitSortAndDedup(t *testing.T) {
	bag := NewBag(3)
	r := NewDedupReporter(BagReporter{Bag: bag})

	late := source.Span{File: 1, Start: 10, End: 12}
	early := source.Span{File: 1, Start: 2, End: 4}

	ReportError(r, OwnBorrowConflict, late, "conflict").Emit()
	ReportError(r, OwnBorrowConflict, late, "conflict").Emit()
	ReportWarning(r, OwnInfo, early, "hint").WithNote(late, "here").Emit()

	if bag.Len() != 2 {
		t.Fatalf("dedup reporter kept %d diagnostics, want 2", bag.Len())
	}
	if !bag.HasErrors() || !bag.HasWarnings() {
		t.Fatalf("expected both errors and warnings")
	}

	bag.Sort()
	if got := bag.Items()[0].Code; got != OwnInfo {
		t.Fatalf("first after sort = %v, want %v", got, OwnInfo)
	}

	bag.Add(NewError(OwnUseAfterMove, early, "a"))
	if bag.Add(NewError(OwnUseAfterMove, early, "b")) {
		t.Fatalf("bag accepted diagnostic over its limit")
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(0)
	b := ReportError(BagReporter{Bag: bag}, OwnBorrowMove, source.Span{}, "move while borrowed").
		WithFix("clone instead", FixEdit{NewText: ".clone()"})
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("Emit twice stored %d diagnostics", bag.Len())
	}
	if fixes := bag.Items()[0].Fixes; len(fixes) != 1 || fixes[0].Title != "clone instead" {
		t.Fatalf("fix not recorded: %+v", fixes)
	}
}

func TestWithNoteDoesNotAlias(t *testing.T) {
	base := NewError(OwnUseAfterMove, source.Span{File: 1, Start: 4, End: 5}, "use of moved value").
		WithNote(source.Span{File: 1, Start: 0, End: 1}, "value moved here")
	a := base.WithNote(source.Span{}, "a")
	b := base.WithNote(source.Span{}, "b")
	if len(base.Notes) != 1 || a.Notes[1].Msg != "a" || b.Notes[1].Msg != "b" {
		t.Fatalf("notes aliased: base=%v a=%v b=%v", base.Notes, a.Notes, b.Notes)
	}

	var got []Code
	r := ReporterFunc(func(d Diagnostic) { got = append(got, d.Code) })
	ReportError(r, a.Code, a.Primary, a.Message).Emit()
	if len(got) != 1 || got[0] != OwnUseAfterMove {
		t.Fatalf("ReporterFunc got %v", got)
	}
}
