package own

import (
	"fmt"

	"fortio.org/safecast"

	"ownlab/internal/diag"
	"ownlab/internal/source"
)

// HandleID identifies one exclusive borrow handle. Exclusive handles are
// move-only: binding one retires it and issues a successor. A reborrow
// issues a child that locks its parent while the child is live.
type HandleID uint32

type handle struct {
	borrow  BorrowID
	parent  HandleID
	home    ScopeID
	name    string
	site    source.Span
	moved   bool
	movedAt source.Span
	movedTo string
}

func (t *Tracker) newHandle(borrow BorrowID, parent HandleID, home ScopeID, name string) HandleID {
	value, err := safecast.Conv[uint32](len(t.handles))
	if err != nil {
		panic(fmt.Errorf("handle table overflow: %w", err))
	}
	t.handles = append(t.handles, handle{borrow: borrow, parent: parent, home: home, name: name, site: t.site})
	return HandleID(value)
}

// handleLive reports whether h can still be used or still locks its parent.
func (t *Tracker) handleLive(id HandleID) bool {
	h := &t.handles[id]
	if h.moved {
		return false
	}
	if s := t.scope(h.home); s == nil || s.closed {
		return false
	}
	info := t.borrows.Info(h.borrow)
	return info != nil && !info.Ended
}

// liveChild returns a live reborrow of id, if any.
func (t *Tracker) liveChild(id HandleID) HandleID {
	for i := len(t.handles) - 1; i > 0; i-- {
		if t.handles[i].parent == id && t.handleLive(HandleID(i)) { //nolint:gosec // bounded by table length
			return HandleID(i) //nolint:gosec // bounded by table length
		}
	}
	return 0
}

// checkHandle rejects moved handles and handles lent to a live reborrow.
func (t *Tracker) checkHandle(id HandleID, op string) *Error {
	if id == 0 {
		return nil
	}
	h := &t.handles[id]
	if h.moved {
		note := "value moved here"
		if h.movedTo != "" {
			note = fmt.Sprintf("value moved into `%s` here", h.movedTo)
		}
		return &Error{Code: diag.OwnUseAfterMove, Op: op, Name: h.name, Site: t.site, Prior: h.movedAt, PriorNote: note}
	}
	if child := t.liveChild(id); child != 0 {
		return &Error{
			Code: diag.OwnBorrowConflict, Op: op, Name: h.name, Site: t.site,
			Prior: t.handles[child].site, PriorNote: fmt.Sprintf("`%s` is reborrowed here", h.name),
			Detail: "second exclusive use while reborrowed",
		}
	}
	return nil
}

func (t *Tracker) markMoved(id HandleID, to string) {
	h := &t.handles[id]
	h.moved = true
	h.movedAt = t.site
	h.movedTo = to
}

// retire marks id as moved into name. The successor takes over id's
// parent so a moved reborrow keeps its parent locked.
func (t *Tracker) retire(id HandleID, to string, home ScopeID) HandleID {
	t.markMoved(id, to)
	h := &t.handles[id]
	return t.newHandle(h.borrow, h.parent, home, to)
}

// Handle returns the handle id; zero for handles built outside a tracker.
func (e *Exclusive) Handle() HandleID { return e.h }

// Reborrow issues a child handle of e that lives in s. e is unusable while
// the child is live.
func (s *Scope) Reborrow(e *Exclusive) (*Exclusive, error) {
	if err := s.checkOpen("reborrow"); err != nil {
		return nil, s.t.reject(s, err)
	}
	if err := e.check("reborrow"); err != nil {
		return nil, s.t.reject(s, err)
	}
	child := s.t.newHandle(e.id, e.h, s.id, "&mut *"+s.t.handles[e.h].name)
	return &Exclusive{t: s.t, id: e.id, binding: e.binding, h: child}, nil
}

// moveExclusive moves e into a new handle named name living in s.
func (s *Scope) moveExclusive(e *Exclusive, name string) *Exclusive {
	return &Exclusive{t: s.t, id: e.id, binding: e.binding, h: s.t.retire(e.h, name, s.id)}
}

// adoptExclusive moves a handle returned by callee into s. Parents owned by
// the callee are skipped so the handle locks the caller's own argument.
func (s *Scope) adoptExclusive(callee *Scope, e *Exclusive) {
	h := &s.t.handles[e.h]
	h.home = s.id
	for h.parent != 0 && s.t.nested(s.t.handles[h.parent].home, callee.id) {
		h.parent = s.t.handles[h.parent].parent
	}
}
