package driver

import (
	"encoding/json"
	"fmt"

	"ownlab/internal/observ"
)

// TimingPayload is the machine readable form of a phase report.
type TimingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// NewTimingPayload wraps report for the given path.
func NewTimingPayload(kind, path string, report observ.Report) TimingPayload {
	if kind == "" {
		kind = "pipeline"
	}
	return TimingPayload{Kind: kind, Path: path, TotalMS: report.TotalMS, Phases: report.Phases}
}

// Summary renders the payload as one line.
func (p TimingPayload) Summary() string {
	msg := fmt.Sprintf("timings (%s): total %.2f ms", p.Kind, p.TotalMS)
	if p.Path != "" {
		msg = fmt.Sprintf("%s - %s", msg, p.Path)
	}
	return msg
}

// JSON encodes the payload on a single line.
func (p TimingPayload) JSON() ([]byte, error) {
	return json.Marshal(p)
}
