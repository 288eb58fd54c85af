package heap

// Handle is a stable, monotonically increasing reference to a heap object.
// Handle(0) is always invalid.
type Handle uint32

// NoHandle is the invalid handle.
const NoHandle Handle = 0

// Object is a growable text buffer. Length and capacity are tracked
// explicitly so the buffer behaves like an owned string: capacity only
// grows on append and a clone allocates exactly its length.
type Object struct {
	Alive   bool
	AllocID uint64

	buf []byte
}

// Len returns the number of bytes in use.
func (o *Object) Len() int { return len(o.buf) }

// Cap returns the allocated capacity in bytes.
func (o *Object) Cap() int { return cap(o.buf) }

// Text returns a copy of the buffer contents.
func (o *Object) Text() string { return string(o.buf) }
