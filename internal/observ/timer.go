// Package observ collects per-phase wall-clock timings of one script run.
package observ

import "time"

// PhaseReport is one timed phase in milliseconds.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report lists phases in the order they ran.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Find returns the first phase called name.
func (r Report) Find(name string) (PhaseReport, bool) {
	for _, p := range r.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return PhaseReport{}, false
}

type phase struct {
	name string
	note string
	dur  time.Duration
}

// Timer is not safe for concurrent use; the driver keeps one per script.
type Timer struct {
	now    func() time.Time
	phases []phase
}

func NewTimer() *Timer { return &Timer{now: time.Now} }

// Phase runs fn, records its duration under name with the note fn
// returns, and reports the duration.
func (t *Timer) Phase(name string, fn func() string) time.Duration {
	start := t.now()
	note := fn()
	d := t.now().Sub(start)
	t.phases = append(t.phases, phase{name: name, note: note, dur: d})
	return d
}

// Report sums the recorded phases. Time spent between phases is not counted.
func (t *Timer) Report() Report {
	if len(t.phases) == 0 {
		return Report{}
	}
	r := Report{Phases: make([]PhaseReport, len(t.phases))}
	var total time.Duration
	for i, p := range t.phases {
		total += p.dur
		r.Phases[i] = PhaseReport{Name: p.name, DurationMS: millis(p.dur), Note: p.note}
	}
	r.TotalMS = millis(total)
	return r
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
