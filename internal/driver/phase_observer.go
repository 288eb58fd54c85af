package driver

import "time"

const (
	PhaseLoad  = "load"
	PhaseParse = "parse"
	PhaseRun   = "run"
)

// PhaseEvent is sent when a phase of one script starts and again when it
// finishes. Elapsed and Note are set only on the second event.
type PhaseEvent struct {
	Name    string
	Path    string
	Done    bool
	Elapsed time.Duration
	Note    string
}

func (ev PhaseEvent) String() string {
	if ev.Done {
		return ev.Name + ":end"
	}
	return ev.Name + ":start"
}

// PhaseObserver receives phase events. CheckAll calls it from several
// goroutines at once.
type PhaseObserver func(PhaseEvent)

func (o PhaseObserver) notify(ev PhaseEvent) {
	if o != nil {
		o(ev)
	}
}
