package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"ownlab/internal/diag"
	"ownlab/internal/lesson"
	"ownlab/internal/own"
	"ownlab/internal/trace"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const moveProgram = `fn main() {
    let s = String::from("hello");
    takes_ownership(s);
    println!("{}", s);
}

fn takes_ownership(some_string: String) {
    println!("{}", some_string);
}
`

const okProgram = `fn main() {
    let s = String::from("hi");
    let r = &s;
    println!("{} {}", r, s.len());
}
`

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunSource(t *testing.T) {
	d := New(nil, nil)
	var stdout bytes.Buffer
	res, err := d.Run(context.Background(), Request{Name: "ok.own", Source: []byte(okProgram), Stdout: &stdout, Record: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Failed() {
		t.Fatalf("unexpected diagnostics: %+v", res.Bag.Items())
	}
	if res.Output != "hi 2\n" || stdout.String() != res.Output {
		t.Fatalf("output = %q, stdout = %q", res.Output, stdout.String())
	}
	if res.State.Heap.Live != 0 {
		t.Errorf("live allocations after run: %d", res.State.Heap.Live)
	}
	if res.Recording == nil || res.Recording.Header.Outcome != "ok" {
		t.Fatalf("recording = %+v", res.Recording)
	}
	if got, want := len(res.Recording.Events), len(res.Events); got != want {
		t.Errorf("recorded %d events, log has %d", got, want)
	}
	names := make([]string, 0, len(res.Timing.Phases))
	for _, p := range res.Timing.Phases {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{PhaseLoad, PhaseParse, PhaseRun}, names); diff != "" {
		t.Errorf("phases (-want +got):\n%s", diff)
	}
}

func TestRunReportsOwnershipError(t *testing.T) {
	d := New(nil, nil)
	var sunk []own.Event
	sink := own.SinkFunc(func(ev own.Event) { sunk = append(sunk, ev) })
	res, err := d.Run(context.Background(), Request{Name: "move.own", Source: []byte(moveProgram), Sink: sink, Record: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !errors.Is(res.Err, own.ErrUseAfterMove) {
		t.Fatalf("Err = %v, want use after move", res.Err)
	}
	if res.Code() != diag.OwnUseAfterMove {
		t.Fatalf("Code = %s", res.Code().ID())
	}
	if res.Output != "hello\n" {
		t.Errorf("output before failure = %q", res.Output)
	}
	if len(sunk) != len(res.Events) {
		t.Errorf("sink saw %d events, log %d", len(sunk), len(res.Events))
	}
	// after the reject only scope teardown may follow
	reject := slices.IndexFunc(res.Events, func(ev own.Event) bool { return ev.Kind == own.EvReject })
	if reject < 0 {
		t.Fatalf("no reject event in %d events", len(res.Events))
	}
	for _, ev := range res.Events[reject+1:] {
		switch ev.Kind {
		case own.EvRelease, own.EvBorrowEnd, own.EvScopeExit:
		default:
			t.Errorf("event after reject = %v, want release, borrow_end or scope_exit", ev.Kind)
		}
	}
	if last := res.Events[len(res.Events)-1]; last.Kind != own.EvScopeExit || last.Scope != "root" {
		t.Errorf("last event = %v in %q, want root scope_exit", last.Kind, last.Scope)
	}
	if got := res.Recording.Header.Outcome; got != diag.OwnUseAfterMove.ID() {
		t.Errorf("outcome = %q", got)
	}
}

func TestRunParseErrorSkipsInterpreter(t *testing.T) {
	d := New(nil, nil)
	res, err := d.Run(context.Background(), Request{Name: "bad.own", Source: []byte("fn main( {")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Failed() {
		t.Fatal("expected syntax errors")
	}
	if len(res.Events) != 0 || res.Err != nil || res.State != nil {
		t.Errorf("interpreter ran: events=%d err=%v", len(res.Events), res.Err)
	}
	for _, p := range res.Timing.Phases {
		if p.Name == PhaseRun {
			t.Error("run phase recorded after parse failure")
		}
	}
}

func TestRunMissingFile(t *testing.T) {
	d := New(nil, nil)
	_, err := d.Run(context.Background(), Request{Path: filepath.Join(t.TempDir(), "missing.own")})
	if err == nil {
		t.Fatal("expected load error")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := New(nil, nil)
	_, err := d.Run(ctx, Request{Name: "ok.own", Source: []byte(okProgram)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRunObserver(t *testing.T) {
	d := New(nil, nil)
	var got []string
	obs := func(ev PhaseEvent) {
		got = append(got, ev.String())
	}
	if _, err := d.Run(context.Background(), Request{Name: "ok.own", Source: []byte(okProgram), Observer: obs}); err != nil {
		t.Fatal(err)
	}
	want := []string{"load:start", "load:end", "parse:start", "parse:end", "run:start", "run:end"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("observer events (-want +got):\n%s", diff)
	}
}

func TestVerifyBuiltinLessons(t *testing.T) {
	lessons, err := lesson.Builtin()
	if err != nil {
		t.Fatal(err)
	}
	if len(lessons) == 0 {
		t.Fatal("no builtin lessons")
	}
	results, err := New(nil, nil).VerifyLessons(context.Background(), lessons, 4)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if !r.OK() {
			t.Errorf("%s: %s", r.Lesson.Name, r.Problem)
		}
	}
}

func TestCheckAll(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "b/move.own", moveProgram)
	writeScript(t, dir, "a/ok.own", okProgram)
	writeScript(t, dir, "a/notes.md", "not a script")
	bad := writeScript(t, dir, "c/bad.own", "fn main( {")

	fs, results, err := New(nil, nil).CheckAll(context.Background(), []string{dir, bad}, CheckOptions{Jobs: 2})
	if err != nil {
		t.Fatal(err)
	}
	type row struct {
		Rel  string
		Code string
	}
	var got []row
	for _, r := range results {
		rel, _ := filepath.Rel(dir, r.Path)
		got = append(got, row{Rel: filepath.ToSlash(rel), Code: r.Code().ID()})
		if fs.Get(r.FileID) == nil {
			t.Errorf("%s: file not in set", rel)
		}
	}
	want := []row{
		{"a/ok.own", diag.UnknownCode.ID()},
		{"b/move.own", diag.OwnUseAfterMove.ID()},
		{"c/bad.own", results[2].Code().ID()},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("results (-want +got):\n%s", diff)
	}
	if !results[2].Bag.HasErrors() {
		t.Error("bad.own should have syntax errors")
	}
}

func TestCheckAllUsesCache(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "move.own", moveProgram)
	cache, err := OpenDiskCacheAt(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	d := New(nil, nil)
	opts := CheckOptions{Cache: cache}

	_, first, err := d.CheckAll(context.Background(), []string{script}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first[0].Cached {
		t.Fatal("first check hit the cache")
	}
	_, second, err := d.CheckAll(context.Background(), []string{script}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second[0].Cached {
		t.Fatal("second check missed the cache")
	}
	if first[0].Code() != second[0].Code() {
		t.Errorf("cached code %s, fresh %s", second[0].Code().ID(), first[0].Code().ID())
	}
	if got, want := len(second[0].Bag.Items()[0].Notes), len(first[0].Bag.Items()[0].Notes); got != want {
		t.Errorf("cached notes = %d, want %d", got, want)
	}

	// A different entry point is a different check.
	_, third, err := d.CheckAll(context.Background(), []string{script}, CheckOptions{Cache: cache, Entry: "takes_ownership"})
	if err != nil {
		t.Fatal(err)
	}
	if third[0].Cached {
		t.Error("changed entry reused cached result")
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	_, fourth, err := d.CheckAll(context.Background(), []string{script}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if fourth[0].Cached {
		t.Error("hit after DropAll")
	}
}

func TestCheckAllObserverConcurrent(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.own", "b.own", "c.own", "d.own"} {
		writeScript(t, dir, name, okProgram)
	}
	var (
		mu    sync.Mutex
		paths = map[string]int{}
	)
	obs := func(ev PhaseEvent) {
		mu.Lock()
		defer mu.Unlock()
		if ev.Done && ev.Name == PhaseRun {
			paths[ev.Path]++
		}
	}
	_, results, err := New(nil, nil).CheckAll(context.Background(), []string{dir}, CheckOptions{Jobs: 3, Observer: obs})
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != len(results) {
		t.Fatalf("observer saw %d scripts, want %d", len(paths), len(results))
	}
}

func TestListScriptsMissing(t *testing.T) {
	if _, err := ListScripts([]string{filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestRunSnapshotAndHeapTrace(t *testing.T) {
	ring := trace.NewRingTracer(512, trace.LevelDebug)
	d := New(nil, ring)
	res, err := d.Run(context.Background(), Request{Name: "move.own", Source: []byte(moveProgram)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.State == nil {
		t.Fatal("no snapshot")
	}
	states := map[string]string{}
	for _, b := range res.State.Bindings {
		states[b.Name] = b.State
	}
	if diff := cmp.Diff(map[string]string{"String::from": "moved-out", "s": "moved-out", "some_string": "released"}, states); diff != "" {
		t.Errorf("binding states (-want +got):\n%s", diff)
	}
	if st := res.State.Heap; st.Allocs != 1 || st.Frees != 1 {
		t.Errorf("heap stats = %+v", st)
	}
	if !strings.Contains(res.State.HeapDump, "allocs=1 frees=1") {
		t.Errorf("heap dump = %q", res.State.HeapDump)
	}

	seen := map[string]bool{}
	for _, ev := range ring.Snapshot() {
		seen[ev.Name] = true
	}
	if !seen["heap.alloc"] || !seen["heap.free"] {
		t.Errorf("heap trace points missing: %v", seen)
	}
}
