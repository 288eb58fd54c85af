package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Лексические
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004
	LexUnterminatedChar         Code = 1005

	// Синтаксические
	SynInfo               Code = 2000
	SynUnexpectedToken    Code = 2001
	SynUnclosedParen      Code = 2002
	SynUnclosedBrace      Code = 2003
	SynUnclosedBracket    Code = 2004
	SynExpectIdentifier   Code = 2005
	SynExpectExpression   Code = 2006
	SynExpectType         Code = 2007
	SynExpectEquals       Code = 2008
	SynUnexpectedTopLevel Code = 2009
	SynInvalidTupleIndex  Code = 2010
	SynDuplicateFunction  Code = 2011

	// Владение и заимствования
	OwnInfo              Code = 3000
	OwnUseAfterMove      Code = 3001
	OwnBorrowConflict    Code = 3002
	OwnBorrowMutation    Code = 3003
	OwnBorrowMove        Code = 3004
	OwnDanglingReference Code = 3005
	OwnBorrowImmutable   Code = 3006
	OwnUseAfterRelease   Code = 3007
	OwnBorrowExpired     Code = 3008
	OwnUnresolvedSymbol  Code = 3009
	OwnTypeMismatch      Code = 3010
	OwnArityMismatch     Code = 3011
	OwnAssignImmutable   Code = 3012
	OwnIndexOutOfBounds  Code = 3013
	OwnDivisionByZero    Code = 3014
	OwnHeapFault         Code = 3015
	OwnNotCallable       Code = 3016
	OwnCallDepth         Code = 3017

	// Ввод/вывод
	IOLoadFileError Code = 4001

	// Проект
	ProjManifestError Code = 5001
	ProjLessonError   Code = 5002
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                 "Unknown error",
		LexInfo:                     "Lexical information",
		LexUnknownChar:              "Unknown character",
		LexUnterminatedString:       "Unterminated string",
		LexUnterminatedBlockComment: "Unterminated block comment",
		LexBadNumber:                "Bad number",
		LexUnterminatedChar:         "Unterminated char literal",
		SynInfo:                     "Syntax information",
		SynUnexpectedToken:          "Unexpected token",
		SynUnclosedParen:            "Unclosed parenthesis",
		SynUnclosedBrace:            "Unclosed brace",
		SynUnclosedBracket:          "Unclosed bracket",
		SynExpectIdentifier:         "Expected identifier",
		SynExpectExpression:         "Expected expression",
		SynExpectType:               "Expected type",
		SynExpectEquals:             "Expected '='",
		SynUnexpectedTopLevel:       "Unexpected top level",
		SynInvalidTupleIndex:        "Invalid tuple index",
		SynDuplicateFunction:        "Duplicate function",
		OwnInfo:                     "Ownership information",
		OwnUseAfterMove:             "use of moved value",
		OwnBorrowConflict:           "Borrow conflict",
		OwnBorrowMutation:           "Mutation while borrowed",
		OwnBorrowMove:               "Move while borrowed",
		OwnDanglingReference:        "Dangling reference",
		OwnBorrowImmutable:          "Cannot mutate immutable binding",
		OwnUseAfterRelease:          "use of released value",
		OwnBorrowExpired:            "Borrow used after its scope ended",
		OwnUnresolvedSymbol:         "Unresolved symbol",
		OwnTypeMismatch:             "Type mismatch",
		OwnArityMismatch:            "Wrong number of arguments",
		OwnAssignImmutable:          "Assignment to immutable binding",
		OwnIndexOutOfBounds:         "Index out of bounds",
		OwnDivisionByZero:           "Division by zero",
		OwnHeapFault:                "Heap fault",
		OwnNotCallable:              "Value is not callable",
		OwnCallDepth:                "Call depth limit exceeded",
		IOLoadFileError:             "I/O error loading file",
		ProjManifestError:           "Invalid ownlab.toml",
		ProjLessonError:             "Lesson expectation failed",
	}
)

type codeRange struct {
	base     int
	prefix   string
	category string
}

// ranges maps each block of a thousand codes to its ID prefix and category.
var ranges = [...]codeRange{
	{1000, "LEX", "lexical"},
	{2000, "SYN", "syntax"},
	{3000, "OWN", "ownership"},
	{4000, "IO", "io"},
	{5000, "PRJ", "project"},
}

func (c Code) lookup() (codeRange, bool) {
	for _, r := range ranges {
		if int(c) >= r.base && int(c) < r.base+1000 {
			return r, true
		}
	}
	return codeRange{}, false
}

// ID is the stable identifier printed in diagnostics, e.g. OWN3001.
func (c Code) ID() string {
	if r, ok := c.lookup(); ok {
		return fmt.Sprintf("%s%04d", r.prefix, int(c))
	}
	return "E0000"
}

// Category names the phase that reports c: lexical, syntax, ownership, io
// or project. Unknown codes have an empty category.
func (c Code) Category() string {
	r, _ := c.lookup()
	return r.category
}

// ParseCode resolves an identifier produced by Code.ID back into a Code.
func ParseCode(id string) (Code, bool) {
	for c := range codeDescription {
		if c != UnknownCode && c.ID() == id {
			return c, true
		}
	}
	return UnknownCode, false
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
