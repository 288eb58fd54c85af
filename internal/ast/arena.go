package ast

import (
	"fmt"
	"iter"

	"fortio.org/safecast"
)

// Arena stores nodes of one type. Index 0 is never handed out, so a zero
// id reads as absent.
type Arena[T any] struct {
	data []T
}

func NewArena[T any](capHint uint) *Arena[T] {
	return &Arena[T]{data: make([]T, 0, capHint)}
}

// Push appends value and returns its 1-based index.
func (a *Arena[T]) Push(value T) uint32 {
	a.data = append(a.data, value)
	n, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic(fmt.Errorf("ast: arena full: %w", err))
	}
	return n
}

// Get returns nil for 0 and for indices past the end.
func (a *Arena[T]) Get(index uint32) *T {
	if i := int(index) - 1; i >= 0 && i < len(a.data) {
		return &a.data[i]
	}
	return nil
}

func (a *Arena[T]) Len() int { return len(a.data) }

// All yields every node with its index in allocation order.
func (a *Arena[T]) All() iter.Seq2[uint32, *T] {
	return func(yield func(uint32, *T) bool) {
		for i := range a.data {
			if !yield(uint32(i+1), &a.data[i]) { //nolint:gosec // bounded by Push
				return
			}
		}
	}
}
