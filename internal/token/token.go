package token

import (
	"strings"

	"ownlab/internal/source"
)

// Token is one significant token plus the trivia that precedes it.
type Token struct {
	Kind    Kind
	Span    source.Span
	Text    string
	Leading []Trivia
}

// IsLiteral includes true and false, which are keywords as well.
func (k Kind) IsLiteral() bool {
	return IntLit <= k && k <= CharLit || k == KwTrue || k == KwFalse
}

func (k Kind) IsOperator() bool { return Plus <= k && k <= Underscore }

func (k Kind) IsKeyword() bool { return KwFn <= k && k <= KwFalse }

// Doc collects the leading /// lines with the marker and one space removed.
func (t Token) Doc() []string {
	var out []string
	for _, tr := range t.Leading {
		if tr.Kind == TriviaDocLine {
			text := strings.TrimPrefix(tr.Text, "///")
			out = append(out, strings.TrimPrefix(text, " "))
		}
	}
	return out
}
