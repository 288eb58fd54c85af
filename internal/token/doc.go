// Package token defines lexical token kinds and trivia for own scripts.
// Invariants:
//   - Token.Text is the exact source slice covered by Token.Span.
//   - Comments, including /// doc lines, are leading Trivia and never
//     appear in the main token stream.
//   - Type names (String, i32, f64, ...) and macro names are identifiers;
//     the interpreter gives them meaning, not the lexer.
package token
