package diagfmt

import (
	"fmt"
	"io"

	"ownlab/internal/diag"
	"ownlab/internal/source"
)

// Short writes one line per diagnostic: `SEV CODE path:line:col message`.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, includeNotes bool) error {
	if bag == nil || bag.Len() == 0 {
		return nil
	}
	out := diag.FormatShortDiagnostics(bag.Items(), fs, includeNotes)
	if out == "" {
		return nil
	}
	_, err := fmt.Fprintln(w, out)
	return err
}
