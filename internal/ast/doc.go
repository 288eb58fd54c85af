// Package ast holds the syntax tree of own scripts.
//
// Nodes live in typed arenas and are referenced by 1-based ids; id 0 means
// "absent". Each node records its kind and span, and a payload id pointing
// into the per-kind arena.
package ast
