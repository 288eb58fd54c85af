package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Ident represents an identifier token. Macro names (println) and
	// type names (String, i32) are identifiers too.
	Ident
	KwFn     // fn
	KwLet    // let
	KwConst  // const
	KwMut    // mut
	KwReturn // return
	KwTrue   // true
	KwFalse  // false

	IntLit    // 100_000, 0xff
	FloatLit  // 6.4, 1e3
	StringLit // "hello"
	CharLit   // 'z'

	Plus       // +
	Minus      // -
	Star       // *
	Slash      // /
	Percent    // %
	Assign     // =
	Bang       // !
	Amp        // &
	Colon      // :
	ColonColon // ::
	Semicolon  // ;
	Comma      // ,
	Dot        // .
	Arrow      // ->
	LParen     // (
	RParen     // )
	LBrace     // {
	RBrace     // }
	LBracket   // [
	RBracket   // ]
	Underscore // _
)

var kindNames = [...]string{
	Invalid:    "invalid",
	EOF:        "end of file",
	Ident:      "identifier",
	KwFn:       "fn",
	KwLet:      "let",
	KwConst:    "const",
	KwMut:      "mut",
	KwReturn:   "return",
	KwTrue:     "true",
	KwFalse:    "false",
	IntLit:     "integer literal",
	FloatLit:   "float literal",
	StringLit:  "string literal",
	CharLit:    "char literal",
	Plus:       "+",
	Minus:      "-",
	Star:       "*",
	Slash:      "/",
	Percent:    "%",
	Assign:     "=",
	Bang:       "!",
	Amp:        "&",
	Colon:      ":",
	ColonColon: "::",
	Semicolon:  ";",
	Comma:      ",",
	Dot:        ".",
	Arrow:      "->",
	LParen:     "(",
	RParen:     ")",
	LBrace:     "{",
	RBrace:     "}",
	LBracket:   "[",
	RBracket:   "]",
	Underscore: "_",
}

// String returns the spelling used in diagnostics.
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}
