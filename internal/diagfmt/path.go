package diagfmt

import (
	"fmt"

	"ownlab/internal/source"
)

func formatPath(f *source.File, fs *source.FileSet, mode PathMode) string {
	return f.FormatPath(mode.String(), fs.BaseDir())
}

// position renders the start of span as path:line:col. Spans that do not
// resolve in fs render as "".
func position(fs *source.FileSet, span source.Span, mode PathMode) string {
	if fs == nil || fs.Get(span.File) == nil {
		return ""
	}
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", formatPath(fs.Get(span.File), fs, mode), start.Line, start.Col)
}
