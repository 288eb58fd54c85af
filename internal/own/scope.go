package own

import (
	"errors"
	"fmt"

	"ownlab/internal/diag"
	"ownlab/internal/heap"
	"ownlab/internal/source"
)

// Scope is a lexical region. Bindings created in a scope are released when
// it closes, in reverse declaration order; borrows created in it end first.
type Scope struct {
	t        *Tracker
	id       ScopeID
	parent   *Scope
	name     string
	depth    int
	frame    bool
	owned    []BindingID
	children []*Scope
	closed   bool
}

// BindOption configures a new binding.
type BindOption func(*binding)

// Mut makes the binding mutable.
func Mut() BindOption {
	return func(b *binding) { b.mut = true }
}

// MutIf makes the binding mutable when cond holds.
func MutIf(cond bool) BindOption {
	return func(b *binding) { b.mut = b.mut || cond }
}

// DeclaredAt records where the binding's name appears. Without it the
// current site is used.
func DeclaredAt(span source.Span) BindOption {
	return func(b *binding) {
		if span.IsValid() {
			b.declared = span
		}
	}
}

func (s *Scope) ID() ScopeID      { return s.id }
func (s *Scope) Name() string     { return s.name }
func (s *Scope) Depth() int       { return s.depth }
func (s *Scope) Closed() bool     { return s.closed }
func (s *Scope) Parent() *Scope   { return s.parent }
func (s *Scope) Tracker() *Tracker { return s.t }

func (s *Scope) emit(ev Event) {
	ev.Scope = s.name
	ev.Depth = s.depth
	s.t.emit(ev)
}

// Enter opens a child scope. Entering a closed scope yields a closed child.
func (s *Scope) Enter(name string) *Scope {
	return s.t.newScope(name, s, false)
}

func (s *Scope) checkOpen(op string) *Error {
	if !s.closed {
		return nil
	}
	return &Error{Code: diag.OwnUseAfterRelease, Op: op, Name: s.name, Site: s.t.site, Detail: "scope already closed"}
}

func (s *Scope) bind(name string, handle heap.Handle, opts []BindOption) *Owned {
	o := s.t.newBinding(s, name, handle, false)
	b := s.t.binding(o.id)
	for _, opt := range opts {
		opt(b)
	}
	return o
}

// Create allocates content and binds it to name in s.
func (s *Scope) Create(name, content string, opts ...BindOption) (*Owned, error) {
	if err := s.checkOpen("create"); err != nil {
		return nil, s.t.reject(s, err)
	}
	o := s.bind(name, s.t.heap.Alloc(content), opts)
	s.emit(Event{Kind: EvCreate, Binding: name, Detail: content})
	return o, nil
}

// Move transfers ownership from src to a new binding in s.
// src becomes moved-out; any later use of it is rejected.
func (s *Scope) Move(name string, src *Owned, opts ...BindOption) (*Owned, error) {
	if err := s.checkOpen("move"); err != nil {
		return nil, s.t.reject(s, err)
	}
	b := src.binding()
	if err := s.t.checkLive(b, "move"); err != nil {
		return nil, s.t.reject(s, err)
	}
	if issue := s.t.borrows.MoveAllowed(src.id); issue.Blocked() {
		return nil, s.t.reject(s, s.t.issueError(diag.OwnBorrowMove, "move", b.name, issue))
	}
	from := b.name
	handle := b.handle
	b.life = lifeMoved
	b.ended = s.t.site
	b.movedTo = name
	o := s.bind(name, handle, opts)
	s.emit(Event{Kind: EvMove, From: from, Binding: name})
	return o, nil
}

// Clone deep-copies the text readable through src into a new binding.
// src may be an owner or a borrow of one.
func (s *Scope) Clone(name string, src Value, opts ...BindOption) (*Owned, error) {
	if err := s.checkOpen("clone"); err != nil {
		return nil, s.t.reject(s, err)
	}
	target, err := readTarget(src, "clone")
	if err != nil {
		return nil, s.t.reject(s, err)
	}
	b := s.t.binding(target)
	handle, herr := s.t.heap.Clone(b.handle)
	if herr != nil {
		return nil, s.t.reject(s, s.t.heapFault("clone", b.name, herr))
	}
	o := s.bind(name, handle, opts)
	s.emit(Event{Kind: EvClone, From: b.name, Binding: name})
	return o, nil
}

// readTarget validates read access through v and returns the binding read.
func readTarget(v Value, op string) (BindingID, *Error) {
	switch x := v.(type) {
	case *Owned:
		return x.id, x.checkRead(op)
	case *Shared:
		return x.binding, x.check(op)
	case *Exclusive:
		return x.binding, x.check(op)
	default:
		return 0, &Error{Code: diag.OwnTypeMismatch, Op: op, Detail: fmt.Sprintf("expected String, found %s", kindOf(v))}
	}
}

func kindOf(v Value) string {
	if v == nil {
		return "nothing"
	}
	return v.Kind().String()
}

// BorrowShared creates a read-only borrow of src that ends when s closes.
func (s *Scope) BorrowShared(src *Owned) (*Shared, error) {
	id, err := s.borrow(src, BorrowShared)
	if err != nil {
		return nil, err
	}
	return &Shared{t: s.t, id: id, binding: src.id}, nil
}

// BorrowExclusive creates a read-write borrow of src that ends when s closes.
func (s *Scope) BorrowExclusive(src *Owned) (*Exclusive, error) {
	id, err := s.borrow(src, BorrowExclusive)
	if err != nil {
		return nil, err
	}
	h := s.t.newHandle(id, 0, s.id, "&mut "+src.Name())
	return &Exclusive{t: s.t, id: id, binding: src.id, h: h}, nil
}

func (s *Scope) borrow(src *Owned, kind BorrowKind) (BorrowID, error) {
	op := "borrow " + kind.String()
	if err := s.checkOpen(op); err != nil {
		return NoBorrowID, s.t.reject(s, err)
	}
	b := src.binding()
	if err := s.t.checkLive(b, op); err != nil {
		return NoBorrowID, s.t.reject(s, err)
	}
	if kind == BorrowExclusive && !b.mut {
		return NoBorrowID, s.t.reject(s, &Error{
			Code: diag.OwnBorrowImmutable, Op: op, Name: b.name, Site: s.t.site,
			Prior: b.declared, PriorNote: fmt.Sprintf("consider changing this to `mut %s`", b.name), Insert: "mut ",
		})
	}
	if !s.t.nested(s.id, b.scope) {
		return NoBorrowID, s.t.reject(s, &Error{
			Code: diag.OwnDanglingReference, Op: op, Name: b.name, Site: s.t.site,
			Prior: b.declared, PriorNote: "borrowed value does not live long enough",
		})
	}
	id, issue := s.t.borrows.Begin(s.t.site, kind, src.id, s.id)
	if issue.Blocked() {
		return NoBorrowID, s.t.reject(s, s.t.issueError(diag.OwnBorrowConflict, op, b.name, issue))
	}
	s.emit(Event{Kind: EvBorrowStart, Binding: b.name, Borrow: id, BorrowKind: kind})
	return id, nil
}

// Let binds v in s: owned values move, scalars copy and borrows are kept
// alive until s closes. Tuples are bound element-wise as name.0, name.1, ...
func (s *Scope) Let(name string, v Value, opts ...BindOption) (Value, error) {
	if err := s.checkOpen("let"); err != nil {
		return nil, s.t.reject(s, err)
	}
	switch x := v.(type) {
	case *Owned:
		return s.Move(name, x, opts...)
	case *Shared:
		if err := s.keepBorrow(x.id, x.binding, "let"); err != nil {
			return nil, err
		}
		s.emit(Event{Kind: EvCopy, Binding: name, Borrow: x.id, BorrowKind: BorrowShared})
		return x, nil
	case *Exclusive:
		if err := x.check("let"); err != nil {
			return nil, s.t.reject(s, err)
		}
		if err := s.keepBorrow(x.id, x.binding, "let"); err != nil {
			return nil, err
		}
		moved := s.moveExclusive(x, name)
		s.emit(Event{Kind: EvMove, Binding: name, Borrow: x.id, BorrowKind: BorrowExclusive})
		return moved, nil
	case Tuple:
		out := Tuple{Elems: make([]Value, len(x.Elems))}
		for i, e := range x.Elems {
			bound, err := s.Let(fmt.Sprintf("%s.%d", name, i), e, opts...)
			if err != nil {
				return nil, err
			}
			out.Elems[i] = bound
		}
		return out, nil
	case nil:
		return nil, s.t.reject(s, &Error{Code: diag.OwnTypeMismatch, Op: "let", Name: name, Site: s.t.site, Detail: "no value"})
	default:
		s.emit(Event{Kind: EvCopy, Binding: name})
		return v, nil
	}
}

// keepBorrow extends a live borrow so that it ends no earlier than s.
func (s *Scope) keepBorrow(id BorrowID, target BindingID, op string) *Error {
	info := s.t.borrows.Info(id)
	if info == nil {
		return nil
	}
	if info.Ended {
		return s.t.reject(s, expiredError(s.t, info, op))
	}
	b := s.t.binding(target)
	if !s.t.nested(s.id, b.scope) {
		return s.t.reject(s, &Error{
			Code: diag.OwnDanglingReference, Op: op, Name: b.name, Site: s.t.site,
			Prior: b.declared, PriorNote: "borrowed value does not live long enough",
		})
	}
	if info.Scope != s.id && s.t.nested(info.Scope, s.id) {
		s.t.borrows.Rehome(id, s.id)
	}
	return nil
}

// Close ends the scope: open children close first, then borrows created in
// the scope end, then owned bindings are released in reverse declaration
// order. Moved-out and dropped bindings are skipped. Closing twice is a no-op.
func (s *Scope) Close() error {
	if s.closed {
		return nil
	}
	var errs []error
	children := append([]*Scope(nil), s.children...)
	for i := len(children) - 1; i >= 0; i-- {
		if err := children[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, id := range s.t.borrows.EndScope(s.id, s.t.site) {
		s.emitBorrowEnd(id)
	}
	for i := len(s.owned) - 1; i >= 0; i-- {
		if err := s.release(s.owned[i]); err != nil {
			errs = append(errs, err)
		}
	}
	s.closed = true
	if s.parent != nil {
		s.parent.children = dropScope(s.parent.children, s)
	}
	s.emit(Event{Kind: EvScopeExit})
	return errors.Join(errs...)
}

func (s *Scope) release(id BindingID) error {
	b := s.t.binding(id)
	if b.life != lifeOwned {
		return nil
	}
	// Borrows always end no later than their owner's scope; anything left
	// here was created through an unrelated scope.
	shared, excl := s.t.borrows.Live(id)
	if excl != NoBorrowID {
		shared = append(shared, excl)
	}
	for _, bid := range shared {
		if s.t.borrows.End(bid, s.t.site) {
			s.emitBorrowEnd(bid)
		}
	}
	b.life = lifeReleased
	b.ended = s.t.site
	if err := s.t.heap.Free(b.handle); err != nil {
		return s.t.heapFault("release", b.name, err)
	}
	s.emit(Event{Kind: EvRelease, Binding: b.name})
	return nil
}

func (s *Scope) emitBorrowEnd(id BorrowID) {
	info := s.t.borrows.Info(id)
	if info == nil {
		return
	}
	s.emit(Event{Kind: EvBorrowEnd, Binding: s.t.binding(info.Binding).name, Borrow: id, BorrowKind: info.Kind})
}

func dropScope(list []*Scope, target *Scope) []*Scope {
	for i, c := range list {
		if c == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
