// Package version carries the build fingerprint of the ownlab binary.
package version

import (
	"runtime/debug"
	"strings"

	"github.com/fatih/color"
)

// Set through -ldflags "-X ownlab/internal/version.Version=...".
var (
	Version    = "0.1.0-dev"
	GitCommit  = ""
	GitMessage = ""
	BuildDate  = ""
)

// Info is the trimmed build metadata. Commit and Date fall back to the VCS
// stamp the go tool embeds when ldflags left them empty.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"git_commit,omitempty"`
	Message string `json:"git_message,omitempty"`
	Date    string `json:"build_date,omitempty"`
}

var readBuildInfo = debug.ReadBuildInfo

func Current() Info {
	info := Info{
		Version: orDefault(Version, "dev"),
		Commit:  strings.TrimSpace(GitCommit),
		Message: strings.TrimSpace(GitMessage),
		Date:    strings.TrimSpace(BuildDate),
	}
	if bi, ok := readBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && info.Commit == "":
				info.Commit = s.Value
			case s.Key == "vcs.time" && info.Date == "":
				info.Date = s.Value
			}
		}
	}
	return info
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

var semverColors = [3]*color.Color{
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgGreen, color.Bold),
	color.New(color.FgBlue, color.Bold),
}

// Pretty colors the major, minor and patch numbers of Version. Anything
// that is not x.y.z[-suffix] is returned as is.
func Pretty() string {
	v := orDefault(Version, "dev")
	core, suffix, hasSuffix := strings.Cut(v, "-")
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return v
	}
	for i, p := range parts {
		parts[i] = semverColors[i].Sprint(p)
	}
	out := strings.Join(parts, ".")
	if hasSuffix {
		out += "-" + suffix
	}
	return out
}
