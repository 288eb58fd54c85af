package observ

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestTimerReport(t *testing.T) {
	clock := time.Unix(0, 0)
	timer := NewTimer()
	timer.now = func() time.Time { return clock }

	step := func(d time.Duration, note string) func() string {
		return func() string {
			clock = clock.Add(d)
			return note
		}
	}
	if d := timer.Phase("parse", step(1500*time.Microsecond, "2 items")); d != 1500*time.Microsecond {
		t.Fatalf("parse took %v", d)
	}
	clock = clock.Add(time.Second) // gap between phases
	timer.Phase("run", step(2*time.Millisecond, ""))

	want := Report{
		TotalMS: 3.5,
		Phases: []PhaseReport{
			{Name: "parse", DurationMS: 1.5, Note: "2 items"},
			{Name: "run", DurationMS: 2},
		},
	}
	got := timer.Report()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
	if p, ok := got.Find("run"); !ok || p.DurationMS != 2 {
		t.Fatalf("Find(run) = %+v, %v", p, ok)
	}
	if _, ok := got.Find("lex"); ok {
		t.Fatalf("Find(lex) found a phase that never ran")
	}
}

func TestEmptyTimer(t *testing.T) {
	if diff := cmp.Diff(Report{}, NewTimer().Report()); diff != "" {
		t.Fatal(diff)
	}
}
