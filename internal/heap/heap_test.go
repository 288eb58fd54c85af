package heap

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ownlab/internal/trace"
)

func TestAllocCapacityMatchesLength(t *testing.T) {
	h := New()
	handle := h.Alloc("hello")
	obj, err := h.Get(handle)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if obj.Len() != 5 || obj.Cap() != 5 {
		t.Fatalf("len/cap = %d/%d, want 5/5", obj.Len(), obj.Cap())
	}
	if obj.AllocID != 1 {
		t.Fatalf("alloc id = %d, want 1", obj.AllocID)
	}
}

func TestAllocKeepsBytesAsGiven(t *testing.T) {
	h := New()
	whole := h.Alloc("e\u0301")
	pieces := h.Alloc("e")
	if err := h.Append(pieces, "\u0301"); err != nil {
		t.Fatalf("append: %v", err)
	}
	for _, handle := range []Handle{whole, pieces} {
		obj, err := h.Get(handle)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if obj.Len() != 3 || obj.Text() != "e\u0301" {
			t.Fatalf("#%d: len %d text %q, want 3 bytes of decomposed text", handle, obj.Len(), obj.Text())
		}
	}
}

func TestAppendGrowth(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		appends []string
		want    string
		wantCap int
	}{
		{name: "empty grows to minimum", initial: "", appends: []string{"ab"}, want: "ab", wantCap: 8},
		{name: "doubles", initial: "hello", appends: []string{", world!"}, want: "hello, world!", wantCap: 13},
		{name: "doubling beats need", initial: "hello", appends: []string{" w"}, want: "hello w", wantCap: 10},
		{name: "fits without growth", initial: "hello", appends: []string{" w", "o"}, want: "hello wo", wantCap: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			handle := h.Alloc(tt.initial)
			for _, s := range tt.appends {
				if err := h.Append(handle, s); err != nil {
					t.Fatalf("append %q: %v", s, err)
				}
			}
			obj, err := h.Get(handle)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if obj.Text() != tt.want || obj.Cap() != tt.wantCap {
				t.Fatalf("got %q cap=%d, want %q cap=%d", obj.Text(), obj.Cap(), tt.want, tt.wantCap)
			}
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	h := New()
	orig := h.Alloc("hello")
	if err := h.Append(orig, "!"); err != nil {
		t.Fatalf("append: %v", err)
	}
	dup, err := h.Clone(orig)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if dup == orig {
		t.Fatalf("clone reused handle %d", dup)
	}
	if err := h.Append(dup, " world"); err != nil {
		t.Fatalf("append clone: %v", err)
	}
	o, _ := h.Get(orig)
	d, _ := h.Get(dup)
	if o.Text() != "hello!" || d.Text() != "hello! world" {
		t.Fatalf("orig=%q clone=%q", o.Text(), d.Text())
	}
	dupFresh, _ := h.Clone(orig)
	df, _ := h.Get(dupFresh)
	if df.Cap() != df.Len() {
		t.Fatalf("clone cap=%d len=%d, want equal", df.Cap(), df.Len())
	}
}

func TestFaults(t *testing.T) {
	h := New()
	handle := h.Alloc("x")
	if err := h.Free(handle); err != nil {
		t.Fatalf("free: %v", err)
	}

	tests := []struct {
		name string
		run  func() error
		want FaultCode
	}{
		{name: "use after free", run: func() error { _, err := h.Get(handle); return err }, want: FaultUseAfterFree},
		{name: "append after free", run: func() error { return h.Append(handle, "y") }, want: FaultUseAfterFree},
		{name: "double free", run: func() error { return h.Free(handle) }, want: FaultDoubleFree},
		{name: "zero handle", run: func() error { _, err := h.Get(NoHandle); return err }, want: FaultInvalidHandle},
		{name: "unknown handle", run: func() error { return h.Free(99) }, want: FaultInvalidHandle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			var fault *Fault
			if !errors.As(err, &fault) {
				t.Fatalf("expected *Fault, got %v", err)
			}
			if fault.Code != tt.want {
				t.Fatalf("code = %s, want %s", fault.Code, tt.want)
			}
		})
	}
}

func TestHandlesNeverReused(t *testing.T) {
	h := New()
	a := h.Alloc("a")
	if err := h.Free(a); err != nil {
		t.Fatalf("free: %v", err)
	}
	b := h.Alloc("b")
	if b == a {
		t.Fatalf("handle %d reused", a)
	}
}

func TestStatsAndDump(t *testing.T) {
	h := New()
	a := h.Alloc("hello")
	b := h.Alloc("hi")
	if err := h.Free(b); err != nil {
		t.Fatalf("free: %v", err)
	}
	want := Stats{Allocs: 2, Frees: 1, Live: 1, LiveBytes: 5, PeakLive: 2}
	if diff := cmp.Diff(want, h.Stats()); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}

	var sb strings.Builder
	if err := h.Dump(&sb); err != nil {
		t.Fatalf("dump: %v", err)
	}
	wantDump := "#1 alloc=1 len=5 cap=5 \"hello\"\nlive=1 bytes=5 allocs=2 frees=1 peak=2\n"
	if sb.String() != wantDump {
		t.Fatalf("dump = %q, want %q", sb.String(), wantDump)
	}
	_ = a
}

func TestTracerSeesAllocAndFree(t *testing.T) {
	ring := trace.NewRingTracer(16, trace.LevelDebug)
	h := New(WithTracer(ring))
	handle := h.Alloc("x")
	if err := h.Free(handle); err != nil {
		t.Fatalf("free: %v", err)
	}
	var names []string
	for _, ev := range ring.Snapshot() {
		names = append(names, ev.Name)
	}
	if diff := cmp.Diff([]string{"heap.alloc", "heap.free"}, names); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}
