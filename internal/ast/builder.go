package ast

// Hints are initial arena capacities. Zero fields fall back to sizes that
// fit a typical lesson script.
type Hints struct{ Files, Items, Stmts, Exprs, Types uint }

func (h Hints) orDefault() Hints {
	pick := func(v, def uint) uint {
		if v == 0 {
			return def
		}
		return v
	}
	return Hints{
		Files: pick(h.Files, 4),
		Items: pick(h.Items, 32),
		Stmts: pick(h.Stmts, 256),
		Exprs: pick(h.Exprs, 256),
		Types: pick(h.Types, 32),
	}
}

// Builder owns every arena of one parse.
type Builder struct {
	Files *Files
	Items *Items
	Stmts *Stmts
	Exprs *Exprs
	Types *Types
}

func NewBuilder(hints Hints) *Builder {
	h := hints.orDefault()
	return &Builder{
		Files: NewFiles(h.Files),
		Items: NewItems(h.Items),
		Stmts: NewStmts(h.Stmts),
		Exprs: NewExprs(h.Exprs),
		Types: NewTypes(h.Types),
	}
}

// PushItem appends item to the item list of file.
func (b *Builder) PushItem(file FileID, item ItemID) {
	if f := b.Files.Get(file); f != nil {
		f.Items = append(f.Items, item)
	}
}
