package own

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"ownlab/internal/source"
)

func TestBorrowTableBeginAndEndScope(t *testing.T) {
	bt := NewBorrowTable()
	const x BindingID = 1
	const outer, inner ScopeID = 1, 2

	a, issue := bt.Begin(source.Span{}, BorrowShared, x, outer)
	if issue.Blocked() {
		t.Fatalf("first shared blocked: %+v", issue)
	}
	b, issue := bt.Begin(source.Span{}, BorrowShared, x, inner)
	if issue.Blocked() {
		t.Fatalf("second shared blocked: %+v", issue)
	}
	if _, issue := bt.Begin(source.Span{}, BorrowExclusive, x, inner); issue.Kind != BorrowIssueConflictShared || issue.Borrow != a {
		t.Fatalf("exclusive over shared: %+v", issue)
	}
	if issue := bt.MutationAllowed(x); issue.Kind != BorrowIssueConflictShared {
		t.Fatalf("mutation allowed while shared: %+v", issue)
	}
	if issue := bt.ReadAllowed(x); issue.Blocked() {
		t.Fatalf("read blocked by shared borrow: %+v", issue)
	}

	if diff := cmp.Diff([]BorrowID{b}, bt.EndScope(inner, source.Span{})); diff != "" {
		t.Fatalf("ended mismatch (-want +got):\n%s", diff)
	}
	shared, excl := bt.Live(x)
	if diff := cmp.Diff([]BorrowID{a}, shared); diff != "" || excl != NoBorrowID {
		t.Fatalf("live after inner end: shared=%v excl=%d", shared, excl)
	}
	if !bt.End(a, source.Span{}) || bt.End(a, source.Span{}) {
		t.Fatalf("End should succeed once")
	}

	c, issue := bt.Begin(source.Span{}, BorrowExclusive, x, outer)
	if issue.Blocked() {
		t.Fatalf("exclusive after all ended: %+v", issue)
	}
	if issue := bt.ReadAllowed(x); issue.Kind != BorrowIssueConflictExclusive || issue.Borrow != c {
		t.Fatalf("read allowed while exclusive: %+v", issue)
	}
	if got := len(bt.Infos()); got != 3 {
		t.Fatalf("infos = %d, want 3", got)
	}
}

func TestBorrowTableRehome(t *testing.T) {
	bt := NewBorrowTable()
	const x BindingID = 1
	const outer, inner ScopeID = 1, 2
	id, _ := bt.Begin(source.Span{}, BorrowShared, x, inner)
	bt.Rehome(id, outer)
	if ended := bt.EndScope(inner, source.Span{}); len(ended) != 0 {
		t.Fatalf("rehomed borrow ended with old scope: %v", ended)
	}
	if ended := bt.EndScope(outer, source.Span{}); len(ended) != 1 || ended[0] != id {
		t.Fatalf("rehomed borrow not ended with new scope: %v", ended)
	}
	if info := bt.Info(id); info == nil || !info.Ended || info.Scope != outer {
		t.Fatalf("info = %+v", info)
	}
}
