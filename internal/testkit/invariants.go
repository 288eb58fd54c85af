package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"ownlab/internal/ast"
	"ownlab/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed file:
// 1) file.Span is non-empty and within file content bounds
// 2) every item span is non-empty and fully contained in file.Span
// 3) every statement of a function body lies inside its function, and
// statements of nested blocks lie inside the block
// 4) every expression span is non-empty and inside file.Span
func CheckSpanInvariants(b *ast.Builder, fileID ast.FileID, sf *source.File) error {
	if b == nil || sf == nil {
		return fmt.Errorf("nil builder or file")
	}
	f := b.Files.Get(fileID)
	if f == nil {
		return fmt.Errorf("file node not found")
	}

	if f.Span.End <= f.Span.Start {
		return fmt.Errorf("file span is empty: %v", f.Span)
	}
	if f.Span.File != sf.ID {
		return fmt.Errorf("file span points to different file id: got=%d want=%d", f.Span.File, sf.ID)
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if f.Span.End > lenContent {
		return fmt.Errorf("file span end beyond content: %d > %d", f.Span.End, lenContent)
	}

	for _, it := range f.Items {
		item := b.Items.Get(it)
		if item == nil {
			return fmt.Errorf("nil item for id=%d", it)
		}
		if err := within("item", item.Span, f.Span, sf.ID); err != nil {
			return err
		}
		fn := b.Items.Fn(it)
		if fn == nil {
			continue
		}
		if err := checkBlock(b, fn.Body, item.Span, sf.ID); err != nil {
			return fmt.Errorf("fn %s: %w", fn.Name, err)
		}
	}
	for id, expr := range b.Exprs.Arena.All() {
		if err := within(fmt.Sprintf("expr #%d", id), expr.Span, f.Span, sf.ID); err != nil {
			return err
		}
	}
	return nil
}

func checkBlock(b *ast.Builder, id ast.StmtID, parent source.Span, file source.FileID) error {
	st := b.Stmts.Get(id)
	if st == nil {
		return fmt.Errorf("nil statement for id=%d", id)
	}
	if err := within("block", st.Span, parent, file); err != nil {
		return err
	}
	block := b.Stmts.Block(id)
	if block == nil {
		return fmt.Errorf("statement %d is not a block", id)
	}
	for _, sid := range block.Stmts {
		inner := b.Stmts.Get(sid)
		if inner == nil {
			return fmt.Errorf("nil statement for id=%d", sid)
		}
		if inner.Kind == ast.StmtBlock {
			if err := checkBlock(b, sid, st.Span, file); err != nil {
				return err
			}
			continue
		}
		if err := within("statement", inner.Span, st.Span, file); err != nil {
			return err
		}
	}
	if block.Tail.IsValid() {
		if tail := b.Exprs.Get(block.Tail); tail != nil {
			if err := within("tail", tail.Span, st.Span, file); err != nil {
				return err
			}
		}
	}
	return nil
}

func within(what string, sp, outer source.Span, file source.FileID) error {
	if sp.End <= sp.Start {
		return fmt.Errorf("empty %s span: %v", what, sp)
	}
	if sp.File != file {
		return fmt.Errorf("%s span file mismatch: got=%d want=%d", what, sp.File, file)
	}
	if !outer.Contains(sp) {
		return fmt.Errorf("%s span %v is outside %v", what, sp, outer)
	}
	return nil
}
