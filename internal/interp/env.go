package interp

import (
	"ownlab/internal/own"
	"ownlab/internal/source"
)

// variable is a name visible in an env. For owned strings val is the
// current binding; moving it does not remove the variable, so later uses
// are reported against the moved-out binding.
type variable struct {
	val     own.Value
	mut     bool
	decl    source.Span
	scope   *own.Scope
	isConst bool
}

// env is a lexical environment. Function bodies start from the globals,
// never from the caller.
type env struct {
	vars   map[string]*variable
	parent *env
	scope  *own.Scope
}

func newEnv(parent *env, scope *own.Scope) *env {
	return &env{vars: make(map[string]*variable), parent: parent, scope: scope}
}

func (e *env) lookup(name string) (*variable, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// define shadows any previous variable with the same name.
func (e *env) define(name string, v *variable) {
	if name == "" {
		return
	}
	e.vars[name] = v
}
