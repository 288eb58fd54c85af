package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota // no tracing
	LevelError               // everything, kept in a ring and dumped on failure
	LevelPhase               // driver and pass boundaries
	LevelDetail              // plus per-script spans
	LevelDebug               // plus every ownership operation
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

// widest is the finest scope each level lets through; 0 lets nothing through.
var widest = [...]Scope{
	LevelOff:    0,
	LevelError:  ScopeOp,
	LevelPhase:  ScopePass,
	LevelDetail: ScopeFile,
	LevelDebug:  ScopeOp,
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a level name; the empty string means off.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LevelOff, nil
	}
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// ShouldEmit reports whether events of scope pass this level.
func (l Level) ShouldEmit(scope Scope) bool {
	if int(l) >= len(widest) {
		return false
	}
	return scope != 0 && scope <= widest[l]
}

// gate implements the Level and Enabled half of Tracer for every sink.
type gate struct{ level Level }

func (g gate) Level() Level  { return g.level }
func (g gate) Enabled() bool { return g.level > LevelOff }

// admits lets heartbeats through regardless of scope.
func (g gate) admits(ev *Event) bool {
	return ev != nil && (ev.Kind == KindHeartbeat || g.level.ShouldEmit(ev.Scope))
}
