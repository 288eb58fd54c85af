package driver

import (
	"strings"

	"ownlab/internal/heap"
	"ownlab/internal/own"
)

// Snapshot is the ownership state a run left behind: heap counters, the
// heap dump, and every binding and borrow the tracker saw.
type Snapshot struct {
	Heap     heap.Stats
	HeapDump string
	Bindings []own.BindingInfo
	Borrows  []own.BorrowInfo
}

func takeSnapshot(t *own.Tracker) *Snapshot {
	var dump strings.Builder
	_ = t.Heap().Dump(&dump) // strings.Builder does not fail
	return &Snapshot{
		Heap:     t.Heap().Stats(),
		HeapDump: dump.String(),
		Bindings: t.Bindings(),
		Borrows:  t.Borrows().Infos(),
	}
}

// BindingName returns the name of binding id, or "?" when unknown.
func (s *Snapshot) BindingName(id own.BindingID) string {
	for _, b := range s.Bindings {
		if b.ID == id {
			return b.Name
		}
	}
	return "?"
}
