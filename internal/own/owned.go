package own

import (
	"fmt"

	"ownlab/internal/diag"
	"ownlab/internal/heap"
)

// Owned is the single owning binding of a heap value.
type Owned struct {
	t  *Tracker
	id BindingID
}

func (*Owned) Kind() Kind { return KindOwned }
func (*Owned) sealed()    {}

func (o *Owned) binding() *binding { return o.t.binding(o.id) }

// ID returns the binding id.
func (o *Owned) ID() BindingID { return o.id }

// Name returns the binding name.
func (o *Owned) Name() string { return o.binding().name }

// Mutable reports whether the binding was declared mut.
func (o *Owned) Mutable() bool { return o.binding().mut }

// Handle returns the backing storage handle.
func (o *Owned) Handle() heap.Handle { return o.binding().handle }

// Scope returns the scope that releases the value.
func (o *Owned) Scope() *Scope { return o.t.scope(o.binding().scope) }

// State reports the binding state, deriving borrow states from live borrows.
func (o *Owned) State() State {
	switch o.binding().life {
	case lifeMoved:
		return StateMovedOut
	case lifeDropped, lifeReleased:
		return StateReleased
	}
	shared, excl := o.t.borrows.Live(o.id)
	switch {
	case excl != NoBorrowID:
		return StateBorrowedExclusive
	case len(shared) > 0:
		return StateBorrowedShared
	default:
		return StateOwned
	}
}

// Describe is State with the shared borrow count, e.g. "borrowed-shared(2)".
func (o *Owned) Describe() string {
	st := o.State()
	if st == StateBorrowedShared {
		shared, _ := o.t.borrows.Live(o.id)
		return fmt.Sprintf("%s(%d)", st, len(shared))
	}
	return st.String()
}

func (o *Owned) checkRead(op string) *Error {
	b := o.binding()
	if err := o.t.checkLive(b, op); err != nil {
		return err
	}
	if issue := o.t.borrows.ReadAllowed(o.id); issue.Blocked() {
		return o.t.issueError(diag.OwnBorrowConflict, op, b.name, issue)
	}
	return nil
}

func (o *Owned) scopeForEvents() *Scope {
	return o.t.scope(o.binding().scope)
}

func (o *Owned) object(op string) (*heap.Object, error) {
	if err := o.checkRead(op); err != nil {
		return nil, o.t.reject(o.scopeForEvents(), err)
	}
	obj, err := o.t.heap.Get(o.binding().handle)
	if err != nil {
		return nil, o.t.reject(o.scopeForEvents(), o.t.heapFault(op, o.Name(), err))
	}
	o.scopeForEvents().emit(Event{Kind: EvRead, Binding: o.Name(), Detail: op})
	return obj, nil
}

// Text reads the value through its owner.
func (o *Owned) Text() (string, error) {
	obj, err := o.object("read")
	if err != nil {
		return "", err
	}
	return obj.Text(), nil
}

// Len returns the length in bytes.
func (o *Owned) Len() (int, error) {
	obj, err := o.object("len")
	if err != nil {
		return 0, err
	}
	return obj.Len(), nil
}

// Cap returns the capacity in bytes.
func (o *Owned) Cap() (int, error) {
	obj, err := o.object("capacity")
	if err != nil {
		return 0, err
	}
	return obj.Cap(), nil
}

// Append mutates the value through its owner. The binding must be mut
// and not borrowed.
func (o *Owned) Append(s string) error {
	b := o.binding()
	scope := o.scopeForEvents()
	if err := o.t.checkLive(b, "push_str"); err != nil {
		return o.t.reject(scope, err)
	}
	if !b.mut {
		return o.t.reject(scope, &Error{
			Code: diag.OwnBorrowImmutable, Op: "push_str", Name: b.name, Site: o.t.site,
			Prior: b.declared, PriorNote: fmt.Sprintf("consider changing this to `mut %s`", b.name), Insert: "mut ",
		})
	}
	if issue := o.t.borrows.MutationAllowed(o.id); issue.Blocked() {
		return o.t.reject(scope, o.t.issueError(diag.OwnBorrowMutation, "push_str", b.name, issue))
	}
	if err := o.t.heap.Append(b.handle, s); err != nil {
		return o.t.reject(scope, o.t.heapFault("push_str", b.name, err))
	}
	scope.emit(Event{Kind: EvWrite, Binding: b.name, Detail: s})
	return nil
}

// Drop releases the value before its scope ends.
func (o *Owned) Drop() error {
	b := o.binding()
	scope := o.t.scope(b.scope)
	if err := o.t.checkLive(b, "drop"); err != nil {
		return o.t.reject(scope, err)
	}
	if issue := o.t.borrows.MoveAllowed(o.id); issue.Blocked() {
		return o.t.reject(scope, o.t.issueError(diag.OwnBorrowMove, "drop", b.name, issue))
	}
	b.life = lifeDropped
	b.ended = o.t.site
	if err := o.t.heap.Free(b.handle); err != nil {
		return o.t.reject(scope, o.t.heapFault("drop", b.name, err))
	}
	scope.emit(Event{Kind: EvDrop, Binding: b.name})
	return nil
}

// borrowRef is the part shared by both borrow handles.
type borrowRef struct {
	t       *Tracker
	id      BorrowID
	binding BindingID
	h       HandleID
}

// ID returns the borrow id.
func (r *borrowRef) ID() BorrowID { return r.id }

// Target returns the name of the borrowed binding.
func (r *borrowRef) Target() string { return r.t.binding(r.binding).name }

// Active reports whether the borrow has not ended yet.
func (r *borrowRef) Active() bool {
	info := r.t.borrows.Info(r.id)
	return info != nil && !info.Ended
}

func (r *borrowRef) scope() *Scope {
	if info := r.t.borrows.Info(r.id); info != nil {
		return r.t.scope(info.Scope)
	}
	return r.t.root
}

func (r *borrowRef) check(op string) *Error {
	info := r.t.borrows.Info(r.id)
	if info == nil {
		return &Error{Code: diag.OwnBorrowExpired, Op: op, Site: r.t.site, Detail: "unknown borrow"}
	}
	if info.Ended {
		return expiredError(r.t, info, op)
	}
	if err := r.t.checkHandle(r.h, op); err != nil {
		return err
	}
	return r.t.checkLive(r.t.binding(r.binding), op)
}

func expiredError(t *Tracker, info *BorrowInfo, op string) *Error {
	return &Error{
		Code: diag.OwnBorrowExpired, Op: op, Name: t.binding(info.Binding).name, Site: t.site,
		Prior: info.EndSpan, PriorNote: "borrow ended here",
	}
}

func (r *borrowRef) object(kind BorrowKind, op string) (*heap.Object, error) {
	if err := r.check(op); err != nil {
		return nil, r.t.reject(r.scope(), err)
	}
	b := r.t.binding(r.binding)
	obj, err := r.t.heap.Get(b.handle)
	if err != nil {
		return nil, r.t.reject(r.scope(), r.t.heapFault(op, b.name, err))
	}
	r.scope().emit(Event{Kind: EvRead, Binding: b.name, Borrow: r.id, BorrowKind: kind, Detail: op})
	return obj, nil
}

func (r *borrowRef) end() {
	if r.t.borrows.End(r.id, r.t.site) {
		r.scope().emitBorrowEnd(r.id)
	}
}

// Shared is a read-only borrow. Copying the handle does not create a new borrow.
type Shared struct {
	t       *Tracker
	id      BorrowID
	binding BindingID
}

func (*Shared) Kind() Kind { return KindShared }
func (*Shared) sealed()    {}

func (s *Shared) ref() *borrowRef { return &borrowRef{t: s.t, id: s.id, binding: s.binding} }

func (s *Shared) ID() BorrowID   { return s.id }
func (s *Shared) Target() string { return s.ref().Target() }
func (s *Shared) Active() bool   { return s.ref().Active() }
func (s *Shared) check(op string) *Error {
	return s.ref().check(op)
}

// Text reads the borrowed value.
func (s *Shared) Text() (string, error) {
	obj, err := s.ref().object(BorrowShared, "read")
	if err != nil {
		return "", err
	}
	return obj.Text(), nil
}

// Len returns the length of the borrowed value.
func (s *Shared) Len() (int, error) {
	obj, err := s.ref().object(BorrowShared, "len")
	if err != nil {
		return 0, err
	}
	return obj.Len(), nil
}

// Cap returns the capacity of the borrowed value.
func (s *Shared) Cap() (int, error) {
	obj, err := s.ref().object(BorrowShared, "capacity")
	if err != nil {
		return 0, err
	}
	return obj.Cap(), nil
}

// End finishes the borrow early. Ending twice is a no-op.
func (s *Shared) End() { s.ref().end() }

// Exclusive is a read-write borrow. The handle is move-only: binding it
// elsewhere makes this copy unusable.
type Exclusive struct {
	t       *Tracker
	id      BorrowID
	binding BindingID
	h       HandleID
}

func (*Exclusive) Kind() Kind { return KindExclusive }
func (*Exclusive) sealed()    {}

func (e *Exclusive) ref() *borrowRef {
	return &borrowRef{t: e.t, id: e.id, binding: e.binding, h: e.h}
}

func (e *Exclusive) ID() BorrowID   { return e.id }
func (e *Exclusive) Target() string { return e.ref().Target() }
func (e *Exclusive) Active() bool   { return e.ref().Active() }
func (e *Exclusive) check(op string) *Error {
	return e.ref().check(op)
}

// Text reads the borrowed value.
func (e *Exclusive) Text() (string, error) {
	obj, err := e.ref().object(BorrowExclusive, "read")
	if err != nil {
		return "", err
	}
	return obj.Text(), nil
}

// Len returns the length of the borrowed value.
func (e *Exclusive) Len() (int, error) {
	obj, err := e.ref().object(BorrowExclusive, "len")
	if err != nil {
		return 0, err
	}
	return obj.Len(), nil
}

// Cap returns the capacity of the borrowed value.
func (e *Exclusive) Cap() (int, error) {
	obj, err := e.ref().object(BorrowExclusive, "capacity")
	if err != nil {
		return 0, err
	}
	return obj.Cap(), nil
}

// Append mutates the borrowed value.
func (e *Exclusive) Append(s string) error {
	r := e.ref()
	if err := r.check("push_str"); err != nil {
		return e.t.reject(r.scope(), err)
	}
	b := e.t.binding(e.binding)
	if err := e.t.heap.Append(b.handle, s); err != nil {
		return e.t.reject(r.scope(), e.t.heapFault("push_str", b.name, err))
	}
	r.scope().emit(Event{Kind: EvWrite, Binding: b.name, Borrow: e.id, BorrowKind: BorrowExclusive, Detail: s})
	return nil
}

// End finishes the borrow early. Ending twice is a no-op.
func (e *Exclusive) End() { e.ref().end() }

// Drop retires the handle. Dropping the outermost handle ends the borrow;
// dropping a reborrow gives access back to its parent.
func (e *Exclusive) Drop() error {
	r := e.ref()
	if err := r.check("drop"); err != nil {
		return e.t.reject(r.scope(), err)
	}
	if e.h == 0 {
		e.End()
		return nil
	}
	e.t.markMoved(e.h, "drop")
	if e.t.handles[e.h].parent == 0 {
		e.End()
	}
	return nil
}
