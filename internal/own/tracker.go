package own

import (
	"fmt"

	"fortio.org/safecast"

	"ownlab/internal/diag"
	"ownlab/internal/heap"
	"ownlab/internal/source"
	"ownlab/internal/trace"
)

// BindingID identifies a binding; moves create new bindings.
type BindingID uint32

// ScopeID identifies a scope within a tracker.
type ScopeID uint32

type binding struct {
	name     string
	scope    ScopeID
	handle   heap.Handle
	mut      bool
	life     life
	declared source.Span
	// ended is where the binding stopped owning (move, drop or release).
	ended   source.Span
	movedTo string
}

// Tracker is the runtime ownership checker for one run.
// It is not safe for concurrent use; run one tracker per goroutine.
type Tracker struct {
	heap     *heap.Heap
	borrows  *BorrowTable
	bindings []binding
	handles  []handle
	scopes   []*Scope
	root     *Scope

	site source.Span
	sink EventSink
	seq  uint64
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithSink sends every ownership event to sink.
func WithSink(sink EventSink) Option {
	return func(t *Tracker) {
		if sink == nil {
			return
		}
		if t.sink == nil {
			t.sink = sink
			return
		}
		t.sink = Sinks{t.sink, sink}
	}
}

// WithHeap uses h as backing storage instead of a fresh heap.
func WithHeap(h *heap.Heap) Option {
	return func(t *Tracker) {
		if h != nil {
			t.heap = h
		}
	}
}

// WithTracer forwards events to tr as op-level trace points.
func WithTracer(tr trace.Tracer, parent uint64) Option {
	if tr == nil || !tr.Enabled() {
		return func(*Tracker) {}
	}
	return WithSink(NewTraceSink(tr, parent))
}

// NewTracker creates a tracker with an open root scope.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		borrows:  NewBorrowTable(),
		bindings: []binding{{}},
		handles:  []handle{{}},
		scopes:   []*Scope{nil},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.heap == nil {
		t.heap = heap.New()
	}
	t.root = t.newScope("root", nil, false)
	return t
}

// Root returns the outermost scope.
func (t *Tracker) Root() *Scope { return t.root }

// Heap exposes the backing storage for inspection.
func (t *Tracker) Heap() *heap.Heap { return t.heap }

// Borrows exposes the borrow table for inspection.
func (t *Tracker) Borrows() *BorrowTable { return t.borrows }

// SetSite records the source location of the operations that follow.
func (t *Tracker) SetSite(span source.Span) { t.site = span }

// Site returns the current source location.
func (t *Tracker) Site() source.Span { return t.site }

func (t *Tracker) newScope(name string, parent *Scope, frame bool) *Scope {
	value, err := safecast.Conv[uint32](len(t.scopes))
	if err != nil {
		panic(fmt.Errorf("scope table overflow: %w", err))
	}
	s := &Scope{
		t:      t,
		id:     ScopeID(value),
		parent: parent,
		name:   name,
		frame:  frame,
	}
	if parent != nil {
		s.depth = parent.depth + 1
		if parent.closed {
			s.closed = true
		} else {
			parent.children = append(parent.children, s)
		}
	}
	t.scopes = append(t.scopes, s)
	if !s.closed {
		s.emit(Event{Kind: EvScopeEnter})
	}
	return s
}

func (t *Tracker) newBinding(s *Scope, name string, handle heap.Handle, mut bool) *Owned {
	value, err := safecast.Conv[uint32](len(t.bindings))
	if err != nil {
		panic(fmt.Errorf("binding table overflow: %w", err))
	}
	id := BindingID(value)
	t.bindings = append(t.bindings, binding{
		name:     name,
		scope:    s.id,
		handle:   handle,
		mut:      mut,
		declared: t.site,
	})
	s.owned = append(s.owned, id)
	return &Owned{t: t, id: id}
}

func (t *Tracker) binding(id BindingID) *binding {
	return &t.bindings[id]
}

func (t *Tracker) scope(id ScopeID) *Scope {
	if int(id) >= len(t.scopes) {
		return nil
	}
	return t.scopes[id]
}

// nested reports whether inner is outer or lies inside it.
func (t *Tracker) nested(inner, outer ScopeID) bool {
	for s := t.scope(inner); s != nil; s = s.parent {
		if s.id == outer {
			return true
		}
	}
	return false
}

func (t *Tracker) emit(ev Event) {
	if t.sink == nil {
		return
	}
	t.seq++
	ev.Seq = t.seq
	if !ev.Site.IsValid() {
		ev.Site = t.site
	}
	t.sink.Record(ev)
}

// reject logs the failure and hands the error back.
func (t *Tracker) reject(s *Scope, err *Error) *Error {
	s.emit(Event{Kind: EvReject, Binding: err.Name, Code: err.Code, Detail: err.Op})
	return err
}

// checkLive rejects access to bindings that no longer own their value.
func (t *Tracker) checkLive(b *binding, op string) *Error {
	switch b.life {
	case lifeMoved:
		note := "value moved here"
		if b.movedTo != "" {
			note = fmt.Sprintf("value moved into `%s` here", b.movedTo)
		}
		return &Error{Code: diag.OwnUseAfterMove, Op: op, Name: b.name, Site: t.site, Prior: b.ended, PriorNote: note}
	case lifeDropped:
		return &Error{Code: diag.OwnUseAfterMove, Op: op, Name: b.name, Site: t.site, Prior: b.ended, PriorNote: "value dropped here"}
	case lifeReleased:
		return &Error{Code: diag.OwnUseAfterRelease, Op: op, Name: b.name, Site: t.site, Prior: b.ended, PriorNote: "value released here at end of scope"}
	}
	return nil
}

// issueError converts a borrow table conflict into an Error.
func (t *Tracker) issueError(code diag.Code, op, name string, issue BorrowIssue) *Error {
	err := &Error{Code: code, Op: op, Name: name, Site: t.site}
	if info := t.borrows.Info(issue.Borrow); info != nil {
		err.Prior = info.Span
		switch info.Kind {
		case BorrowExclusive:
			err.PriorNote = "exclusive borrow occurs here"
		default:
			err.PriorNote = "shared borrow occurs here"
		}
	}
	return err
}

func (t *Tracker) heapFault(op, name string, cause error) *Error {
	return &Error{Code: diag.OwnHeapFault, Op: op, Name: name, Site: t.site, Detail: cause.Error(), Cause: cause}
}

// BindingInfo is a read-only view of a binding for listings.
type BindingInfo struct {
	ID      BindingID
	Name    string
	Scope   string
	State   string
	Mutable bool
	Handle  heap.Handle
}

// Bindings lists every binding ever created, in creation order.
func (t *Tracker) Bindings() []BindingInfo {
	out := make([]BindingInfo, 0, len(t.bindings)-1)
	for i := 1; i < len(t.bindings); i++ {
		o := &Owned{t: t, id: BindingID(i)} //nolint:gosec // bounded by table length
		b := t.binding(o.id)
		out = append(out, BindingInfo{
			ID:      o.id,
			Name:    b.name,
			Scope:   t.scope(b.scope).name,
			State:   o.Describe(),
			Mutable: b.mut,
			Handle:  b.handle,
		})
	}
	return out
}
