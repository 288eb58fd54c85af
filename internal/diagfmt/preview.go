package diagfmt

import (
	"bytes"
	"fmt"
	"strings"

	"ownlab/internal/diag"
	"ownlab/internal/source"
)

// editPreview holds the whole lines an edit touches, before and after it
// is applied.
type editPreview struct {
	before []string
	after  []string
}

func previewEdit(fs *source.FileSet, edit diag.FixEdit) (editPreview, error) {
	file := fs.Get(edit.Span.File)
	if file == nil {
		return editPreview{}, fmt.Errorf("file %d not found", edit.Span.File)
	}
	content := file.Content
	start, end := int(edit.Span.Start), int(edit.Span.End)
	if start > end || end > len(content) {
		return editPreview{}, fmt.Errorf("edit span %d..%d outside %s", start, end, file.Path)
	}

	// Widen to whole lines; the trailing newline is not part of the block.
	lo := bytes.LastIndexByte(content[:start], '\n') + 1
	hi := len(content)
	if i := bytes.IndexByte(content[end:], '\n'); i >= 0 {
		hi = end + i
	}
	block := string(content[lo:hi])
	patched := block[:start-lo] + edit.NewText + block[end-lo:]
	return editPreview{before: previewLines(block), after: previewLines(patched)}, nil
}

func previewLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
