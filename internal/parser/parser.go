// Package parser builds the ast of one script from the lexer's tokens.
// Errors are reported and parsing resumes at the next item, so one run
// can surface several syntax errors.
package parser

import (
	"slices"

	"ownlab/internal/ast"
	"ownlab/internal/diag"
	"ownlab/internal/lexer"
	"ownlab/internal/source"
	"ownlab/internal/token"
)

// Options configures ParseFile. Errors past MaxErrors are counted but not
// reported; zero means no limit. A nil Reporter drops every error.
type Options struct {
	MaxErrors uint
	Reporter  diag.Reporter
}

// Result names the parsed file node. Bag is set when the reporter was a
// *diag.BagReporter. Errors counts every syntax error seen.
type Result struct {
	File   ast.FileID
	Bag    *diag.Bag
	Errors uint
}

type Parser struct {
	lx     *lexer.Lexer
	arenas *ast.Builder
	file   ast.FileID
	opts   Options
	errs   uint
	// lastSpan is the last consumed token; errors at EOF point just past it.
	lastSpan source.Span
	fnNames  map[string]source.Span
}

func ParseFile(lx *lexer.Lexer, arenas *ast.Builder, opts Options) Result {
	p := Parser{
		lx:       lx,
		arenas:   arenas,
		file:     arenas.Files.New(lx.EmptySpan()),
		opts:     opts,
		lastSpan: lx.EmptySpan(),
		fnNames:  map[string]source.Span{},
	}
	p.parseItems()

	res := Result{File: p.file, Errors: p.errs}
	if br, ok := opts.Reporter.(*diag.BagReporter); ok {
		res.Bag = br.Bag
	}
	return res
}

func (p *Parser) at(k token.Kind) bool { return p.lx.Peek().Kind == k }

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.lx.Peek().Kind)
}

// parseItems reads items until EOF. Doc lines in front of the first token
// belong to the file unless that token starts an item.
func (p *Parser) parseItems() {
	first := p.lx.Peek()
	file := p.arenas.Files.Get(p.file)
	if !isItemStarter(first.Kind) {
		file.Doc = first.Doc()
	}
	for !p.at(token.EOF) {
		if id, ok := p.parseItem(); ok {
			p.arenas.PushItem(p.file, id)
			continue
		}
		p.resyncTop()
	}
	file.Span = first.Span.Cover(p.lx.Peek().Span)
}

func (p *Parser) parseItem() (ast.ItemID, bool) {
	switch tok := p.lx.Peek(); tok.Kind {
	case token.KwFn:
		return p.parseFnItem()
	case token.KwConst:
		return p.parseConstItem()
	default:
		p.errorAt(diag.SynUnexpectedTopLevel, tok.Span, "expected 'fn' or 'const' at top level, got "+describe(tok))
		return ast.NoItemID, false
	}
}

func isItemStarter(k token.Kind) bool { return k == token.KwFn || k == token.KwConst }

// resyncTop skips to the next item start or EOF, always making progress.
func (p *Parser) resyncTop() {
	if !isItemStarter(p.lx.Peek().Kind) {
		p.advance()
	}
	p.resyncUntil(token.KwFn, token.KwConst)
}

// parseIdent accepts an identifier or `_`.
func (p *Parser) parseIdent() (token.Token, bool) {
	if p.atOr(token.Ident, token.Underscore) {
		return p.advance(), true
	}
	p.errorHere(diag.SynExpectIdentifier, "expected identifier, got "+describe(p.lx.Peek()))
	return token.Token{}, false
}
