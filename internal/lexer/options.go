package lexer

import (
	"ownlab/internal/diag"
	"ownlab/internal/source"
)

// Options configures a Lexer. A nil Reporter drops lexical errors; lexing
// continues either way.
type Options struct {
	Reporter diag.Reporter
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(diag.NewError(code, sp, msg))
	}
}
