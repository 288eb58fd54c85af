package main

import (
	"fmt"
	"io"
	"os"

	"ownlab/internal/diag"
	"ownlab/internal/diagfmt"
	"ownlab/internal/source"
)

type outputFormat string

const (
	formatPretty outputFormat = "pretty"
	formatJSON   outputFormat = "json"
	formatShort  outputFormat = "short"
)

func readFormat(value string) (outputFormat, error) {
	switch outputFormat(value) {
	case formatPretty, formatJSON, formatShort:
		return outputFormat(value), nil
	default:
		return "", fmt.Errorf("unsupported format %q (must be pretty, json or short)", value)
	}
}

type diagOptions struct {
	format   outputFormat
	color    bool
	pathMode diagfmt.PathMode
	notes    bool
}

// printDiagnostics renders bag in the requested format. Bags without
// diagnostics print nothing except in JSON mode, where an empty document
// keeps consumers simple.
func printDiagnostics(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts diagOptions) error {
	if bag == nil {
		return nil
	}
	bag.Sort()
	switch opts.format {
	case formatJSON:
		return diagfmt.JSON(w, bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         opts.pathMode,
			IncludeNotes:     opts.notes,
			IncludeFixes:     true,
		})
	case formatShort:
		return diagfmt.Short(w, bag, fs, opts.notes)
	default:
		if bag.Len() == 0 {
			return nil
		}
		diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{
			Color:     opts.color,
			Context:   1,
			PathMode:  opts.pathMode,
			ShowNotes: opts.notes,
			ShowFixes: true,
		})
		return nil
	}
}

func stderrColor(mode string) bool {
	return useColor(mode, os.Stderr)
}
