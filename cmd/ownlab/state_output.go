package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"ownlab/internal/driver"
)

// printState writes the heap dump followed by the binding and borrow
// tables of a finished run.
func printState(w io.Writer, snap *driver.Snapshot) error {
	if snap == nil {
		_, err := fmt.Fprintln(w, "-- heap --\n(program did not run)")
		return err
	}
	var b strings.Builder
	b.WriteString("-- heap --\n")
	b.WriteString(snap.HeapDump)

	b.WriteString("-- bindings --\n")
	rows := make([][]string, 0, len(snap.Bindings))
	for _, info := range snap.Bindings {
		mut := ""
		if info.Mutable {
			mut = "mut"
		}
		rows = append(rows, []string{info.Name, info.Scope, info.State, fmt.Sprintf("#%d", info.Handle), mut})
	}
	writeTable(&b, rows)

	b.WriteString("-- borrows --\n")
	rows = rows[:0]
	for _, info := range snap.Borrows {
		state := "active"
		if info.Ended {
			state = "ended"
		}
		rows = append(rows, []string{fmt.Sprintf("%s#%d", info.Kind, info.ID), snap.BindingName(info.Binding), state})
	}
	writeTable(&b, rows)

	_, err := io.WriteString(w, b.String())
	return err
}

// writeTable pads every column to its widest cell.
func writeTable(b *strings.Builder, rows [][]string) {
	if len(rows) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for _, row := range rows {
		b.WriteString(" ")
		for i, cell := range row {
			b.WriteString(" ")
			if i == len(row)-1 {
				b.WriteString(cell)
				continue
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
		}
		b.WriteString("\n")
	}
}
