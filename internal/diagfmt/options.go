package diagfmt

import "slices"

// PathMode selects how file names appear in output. Its String form is the
// mode name understood by source.File.FormatPath.
type PathMode uint8

const (
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

var pathModeNames = [...]string{"auto", "absolute", "relative", "basename"}

// ParsePathMode maps a flag value to a PathMode; "" means auto.
func ParsePathMode(s string) (PathMode, bool) {
	if s == "" {
		return PathModeAuto, true
	}
	i := slices.Index(pathModeNames[:], s)
	if i < 0 {
		return PathModeAuto, false
	}
	return PathMode(i), true //nolint:gosec // i < len(pathModeNames)
}

func (m PathMode) String() string {
	if int(m) < len(pathModeNames) {
		return pathModeNames[m]
	}
	return pathModeNames[PathModeAuto]
}

// PrettyOpts configures pretty-printing. Context is the number of source
// lines shown around the primary span; a zero Width disables wrapping.
type PrettyOpts struct {
	Color       bool
	Context     int8
	PathMode    PathMode
	Width       uint8
	ShowNotes   bool
	ShowFixes   bool
	ShowPreview bool
}

// JSONOpts configures JSON output of diagnostics.
// Max caps the number of emitted diagnostics without touching the bag.
type JSONOpts struct {
	IncludePositions bool
	PathMode         PathMode
	Max              int
	IncludeNotes     bool
	IncludeFixes     bool
	IncludePreviews  bool
}

// EventOpts configures the ownership event listing.
type EventOpts struct {
	Color    bool
	PathMode PathMode
	// Sites appends the source position of each event.
	Sites bool
	// Reads includes read events, which are usually noise.
	Reads bool
}
