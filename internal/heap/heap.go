package heap

import (
	"fmt"

	"ownlab/internal/trace"
)

// minGrowth is the smallest capacity an appending buffer grows to.
const minGrowth = 8

// Stats summarises allocation activity.
type Stats struct {
	Allocs    uint64
	Frees     uint64
	Live      int
	LiveBytes int
	PeakLive  int
}

// Heap stores all owned text buffers of a run.
// Handles are monotonically increasing and never reused within a run.
type Heap struct {
	next        Handle
	nextAllocID uint64
	objs        map[Handle]*Object
	stats       Stats

	tracer trace.Tracer
}

// Option configures a Heap.
type Option func(*Heap)

// WithTracer emits op-level trace points for allocations and frees.
func WithTracer(t trace.Tracer) Option {
	return func(h *Heap) {
		if t != nil {
			h.tracer = t
		}
	}
}

// New creates an empty heap.
func New(opts ...Option) *Heap {
	h := &Heap{
		next:        1,
		nextAllocID: 1,
		objs:        make(map[Handle]*Object, 32),
		tracer:      trace.Nop,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Heap) alloc(buf []byte) Handle {
	handle := h.next
	h.next++
	obj := &Object{
		Alive:   true,
		AllocID: h.nextAllocID,
		buf:     buf,
	}
	h.nextAllocID++
	h.objs[handle] = obj

	h.stats.Allocs++
	h.stats.Live++
	h.stats.LiveBytes += cap(buf)
	if h.stats.Live > h.stats.PeakLive {
		h.stats.PeakLive = h.stats.Live
	}
	trace.Point(h.tracer, trace.ScopeOp, 0, "heap.alloc", fmt.Sprintf("#%d", handle),
		trace.A("alloc", fmt.Sprint(obj.AllocID)),
		trace.A("cap", fmt.Sprint(cap(buf))))
	return handle
}

// Alloc stores the bytes of content unchanged in a new buffer whose
// capacity equals its length.
func (h *Heap) Alloc(content string) Handle {
	buf := make([]byte, len(content))
	copy(buf, content)
	return h.alloc(buf)
}

// Get returns the live object behind handle.
func (h *Heap) Get(handle Handle) (*Object, error) {
	if handle == NoHandle {
		return nil, &Fault{Code: FaultInvalidHandle, Message: "invalid handle 0"}
	}
	obj, ok := h.objs[handle]
	if !ok || obj == nil {
		return nil, &Fault{Code: FaultInvalidHandle, Handle: handle, Message: fmt.Sprintf("invalid handle %d", handle)}
	}
	if !obj.Alive {
		return nil, &Fault{
			Code:    FaultUseAfterFree,
			Handle:  handle,
			AllocID: obj.AllocID,
			Message: fmt.Sprintf("use after free: handle %d (alloc=%d)", handle, obj.AllocID),
		}
	}
	return obj, nil
}

// Text returns the contents of the buffer.
func (h *Heap) Text(handle Handle) (string, error) {
	obj, err := h.Get(handle)
	if err != nil {
		return "", err
	}
	return obj.Text(), nil
}

// Append writes s to the end of the buffer, doubling capacity when it runs out.
func (h *Heap) Append(handle Handle, s string) error {
	obj, err := h.Get(handle)
	if err != nil {
		return err
	}
	need := len(obj.buf) + len(s)
	if need > cap(obj.buf) {
		newCap := max(2*cap(obj.buf), need, minGrowth)
		grown := make([]byte, len(obj.buf), newCap)
		copy(grown, obj.buf)
		h.stats.LiveBytes += newCap - cap(obj.buf)
		obj.buf = grown
	}
	obj.buf = append(obj.buf, s...)
	return nil
}

// Clone allocates an independent copy of the buffer.
func (h *Heap) Clone(handle Handle) (Handle, error) {
	obj, err := h.Get(handle)
	if err != nil {
		return NoHandle, err
	}
	buf := make([]byte, len(obj.buf))
	copy(buf, obj.buf)
	return h.alloc(buf), nil
}

// Free releases the buffer. Freeing twice is a fault.
func (h *Heap) Free(handle Handle) error {
	if handle == NoHandle {
		return &Fault{Code: FaultInvalidHandle, Message: "invalid handle 0"}
	}
	obj, ok := h.objs[handle]
	if !ok || obj == nil {
		return &Fault{Code: FaultInvalidHandle, Handle: handle, Message: fmt.Sprintf("invalid handle %d", handle)}
	}
	if !obj.Alive {
		return &Fault{
			Code:    FaultDoubleFree,
			Handle:  handle,
			AllocID: obj.AllocID,
			Message: fmt.Sprintf("double free: handle %d (alloc=%d)", handle, obj.AllocID),
		}
	}

	obj.Alive = false
	h.stats.Frees++
	h.stats.Live--
	h.stats.LiveBytes -= cap(obj.buf)
	obj.buf = nil

	trace.Point(h.tracer, trace.ScopeOp, 0, "heap.free", fmt.Sprintf("#%d", handle))
	return nil
}

// Stats returns a snapshot of allocation counters.
func (h *Heap) Stats() Stats {
	return h.stats
}

func (h *Heap) lookup(handle Handle) (*Object, bool) {
	obj, ok := h.objs[handle]
	return obj, ok && obj != nil
}
