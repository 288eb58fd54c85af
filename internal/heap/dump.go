package heap

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// dumpPreview caps how many bytes of each buffer the dump shows.
const dumpPreview = 32

// Dump writes live objects in handle order followed by a summary line.
//
//	#1 alloc=1 len=5 cap=5 "hello"
//	live=1 bytes=5 allocs=2 frees=1 peak=2
func (h *Heap) Dump(w io.Writer) error {
	var sb strings.Builder
	for handle := Handle(1); handle < h.next; handle++ {
		obj, ok := h.lookup(handle)
		if !ok || !obj.Alive {
			continue
		}
		text := obj.Text()
		if len(text) > dumpPreview {
			text = text[:dumpPreview] + "..."
		}
		fmt.Fprintf(&sb, "#%d alloc=%d len=%d cap=%d %s\n", handle, obj.AllocID, obj.Len(), obj.Cap(), strconv.Quote(text))
	}
	st := h.stats
	fmt.Fprintf(&sb, "live=%d bytes=%d allocs=%d frees=%d peak=%d\n", st.Live, st.LiveBytes, st.Allocs, st.Frees, st.PeakLive)
	_, err := io.WriteString(w, sb.String())
	return err
}
