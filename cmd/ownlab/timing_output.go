package main

import (
	"fmt"
	"io"

	"ownlab/internal/driver"
	"ownlab/internal/observ"
)

// printTimings writes a phase report either as a one-line JSON payload
// or as the human readable summary.
func printTimings(out io.Writer, kind, path string, report observ.Report, asJSON bool) error {
	payload := driver.NewTimingPayload(kind, path, report)
	if asJSON {
		data, err := payload.JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	if _, err := fmt.Fprintln(out, payload.Summary()); err != nil {
		return err
	}
	for _, p := range report.Phases {
		if _, err := fmt.Fprintf(out, "  %-8s %7.2f ms\n", p.Name, p.DurationMS); err != nil {
			return err
		}
	}
	return nil
}
