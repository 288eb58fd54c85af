package token

import "ownlab/internal/source"

type TriviaKind uint8

const (
	TriviaSpace TriviaKind = iota
	TriviaNewline
	TriviaLineComment
	TriviaBlockComment
	TriviaDocLine
)

// Trivia is whitespace or a comment. Text is the raw source slice.
type Trivia struct {
	Kind TriviaKind
	Span source.Span
	Text string
}
