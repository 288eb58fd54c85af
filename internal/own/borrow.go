package own

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"ownlab/internal/source"
)

// BorrowID identifies a borrow entry.
type BorrowID uint32

// NoBorrowID marks the absence of a borrow.
const NoBorrowID BorrowID = 0

// BorrowKind differentiates shared vs exclusive borrows.
type BorrowKind uint8

const (
	BorrowShared BorrowKind = iota
	BorrowExclusive
)

func (k BorrowKind) String() string {
	if k == BorrowExclusive {
		return "&mut"
	}
	return "&"
}

// BorrowInfo stores metadata about each borrow.
type BorrowInfo struct {
	ID      BorrowID
	Kind    BorrowKind
	Binding BindingID
	Scope   ScopeID
	Span    source.Span
	Ended   bool
	EndSpan source.Span
}

type borrowState struct {
	shared []BorrowID
	excl   BorrowID
}

// BorrowIssueKind enumerates reasons a borrow-related action fails.
type BorrowIssueKind uint8

const (
	BorrowIssueNone BorrowIssueKind = iota
	// BorrowIssueConflictShared: a shared borrow blocks the action.
	BorrowIssueConflictShared
	// BorrowIssueConflictExclusive: an exclusive borrow blocks the action.
	BorrowIssueConflictExclusive
)

// BorrowIssue carries information about conflicts.
type BorrowIssue struct {
	Kind   BorrowIssueKind
	Borrow BorrowID
}

// Blocked reports whether the issue forbids the action.
func (i BorrowIssue) Blocked() bool {
	return i.Kind != BorrowIssueNone
}

// BorrowTable tracks live borrows per binding and per scope.
type BorrowTable struct {
	infos        []BorrowInfo
	bindingState map[BindingID]borrowState
	scopeBorrows map[ScopeID][]BorrowID
}

// NewBorrowTable builds an empty borrow table ready for tracking.
func NewBorrowTable() *BorrowTable {
	return &BorrowTable{
		infos:        []BorrowInfo{{}},
		bindingState: make(map[BindingID]borrowState),
		scopeBorrows: make(map[ScopeID][]BorrowID),
	}
}

// Begin registers a borrow of binding whose lifetime ends with scope.
// Shared borrows coexist with each other; an exclusive borrow excludes everything.
func (bt *BorrowTable) Begin(span source.Span, kind BorrowKind, binding BindingID, scope ScopeID) (BorrowID, BorrowIssue) {
	state := bt.bindingState[binding]
	switch kind {
	case BorrowShared:
		if state.excl != NoBorrowID {
			return NoBorrowID, BorrowIssue{Kind: BorrowIssueConflictExclusive, Borrow: state.excl}
		}
	case BorrowExclusive:
		if state.excl != NoBorrowID {
			return NoBorrowID, BorrowIssue{Kind: BorrowIssueConflictExclusive, Borrow: state.excl}
		}
		if len(state.shared) > 0 {
			return NoBorrowID, BorrowIssue{Kind: BorrowIssueConflictShared, Borrow: state.shared[0]}
		}
	}
	value, err := safecast.Conv[uint32](len(bt.infos))
	if err != nil {
		panic(fmt.Errorf("borrow table overflow: %w", err))
	}
	id := BorrowID(value)
	bt.infos = append(bt.infos, BorrowInfo{
		ID:      id,
		Kind:    kind,
		Binding: binding,
		Scope:   scope,
		Span:    span,
	})
	switch kind {
	case BorrowShared:
		state.shared = append(state.shared, id)
	case BorrowExclusive:
		state.excl = id
	}
	bt.bindingState[binding] = state
	bt.scopeBorrows[scope] = append(bt.scopeBorrows[scope], id)
	return id, BorrowIssue{}
}

// ReadAllowed verifies whether the owner itself may be read.
func (bt *BorrowTable) ReadAllowed(binding BindingID) BorrowIssue {
	state, ok := bt.bindingState[binding]
	if !ok {
		return BorrowIssue{}
	}
	if state.excl != NoBorrowID {
		return BorrowIssue{Kind: BorrowIssueConflictExclusive, Borrow: state.excl}
	}
	return BorrowIssue{}
}

// MutationAllowed verifies whether the owner itself may be mutated.
func (bt *BorrowTable) MutationAllowed(binding BindingID) BorrowIssue {
	state, ok := bt.bindingState[binding]
	if !ok {
		return BorrowIssue{}
	}
	if len(state.shared) > 0 {
		return BorrowIssue{Kind: BorrowIssueConflictShared, Borrow: state.shared[0]}
	}
	if state.excl != NoBorrowID {
		return BorrowIssue{Kind: BorrowIssueConflictExclusive, Borrow: state.excl}
	}
	return BorrowIssue{}
}

// MoveAllowed verifies whether the binding can be moved from or dropped.
func (bt *BorrowTable) MoveAllowed(binding BindingID) BorrowIssue {
	return bt.MutationAllowed(binding)
}

// End expires a single borrow. Ending an ended borrow is a no-op.
func (bt *BorrowTable) End(id BorrowID, span source.Span) bool {
	info := bt.Info(id)
	if info == nil || info.Ended {
		return false
	}
	info.Ended = true
	info.EndSpan = span
	state := bt.bindingState[info.Binding]
	switch info.Kind {
	case BorrowShared:
		state.shared = dropBorrowID(state.shared, id)
	case BorrowExclusive:
		if state.excl == id {
			state.excl = NoBorrowID
		}
	}
	if len(state.shared) == 0 && state.excl == NoBorrowID {
		delete(bt.bindingState, info.Binding)
	} else {
		bt.bindingState[info.Binding] = state
	}
	bt.scopeBorrows[info.Scope] = dropBorrowID(bt.scopeBorrows[info.Scope], id)
	return true
}

// EndScope expires all borrows whose lexical lifetime ends at scope and
// returns them in creation order.
func (bt *BorrowTable) EndScope(scope ScopeID, span source.Span) []BorrowID {
	ids := append([]BorrowID(nil), bt.scopeBorrows[scope]...)
	if len(ids) == 0 {
		return nil
	}
	slices.Sort(ids)
	ended := ids[:0]
	for _, id := range ids {
		if bt.End(id, span) {
			ended = append(ended, id)
		}
	}
	delete(bt.scopeBorrows, scope)
	return ended
}

// Rehome moves the end of a borrow's lifetime to another scope.
func (bt *BorrowTable) Rehome(id BorrowID, scope ScopeID) {
	info := bt.Info(id)
	if info == nil || info.Ended || info.Scope == scope {
		return
	}
	bt.scopeBorrows[info.Scope] = dropBorrowID(bt.scopeBorrows[info.Scope], id)
	info.Scope = scope
	bt.scopeBorrows[scope] = append(bt.scopeBorrows[scope], id)
}

// Live returns live borrows of a binding.
func (bt *BorrowTable) Live(binding BindingID) (shared []BorrowID, exclusive BorrowID) {
	state := bt.bindingState[binding]
	return append([]BorrowID(nil), state.shared...), state.excl
}

// Info returns metadata for the borrow.
func (bt *BorrowTable) Info(id BorrowID) *BorrowInfo {
	if bt == nil || id == NoBorrowID || int(id) >= len(bt.infos) {
		return nil
	}
	return &bt.infos[id]
}

// Infos returns a shallow copy of stored borrow infos (excluding sentinel).
func (bt *BorrowTable) Infos() []BorrowInfo {
	if bt == nil || len(bt.infos) <= 1 {
		return nil
	}
	out := make([]BorrowInfo, len(bt.infos)-1)
	copy(out, bt.infos[1:])
	return out
}

func dropBorrowID(ids []BorrowID, target BorrowID) []BorrowID {
	for i, id := range ids {
		if id == target {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
