package codegen

import (
	"strconv"

	"github.com/funvibe/schemec/internal/ast"
	"github.com/funvibe/schemec/internal/sexpr"
)

func define(name string, value sexpr.Node) sexpr.Node {
	return sexpr.Call("define", sexpr.Atom(name), value)
}

func lambda(params []sexpr.Node, body ...sexpr.Node) sexpr.List {
	return sexpr.List{Items: append([]sexpr.Node{sexpr.Atom("lambda"), sexpr.L(params...)}, body...)}
}

func (g *generator) params(args []ast.Arg) []sexpr.Node {
	params := make([]sexpr.Node, len(args))
	for i, a := range args {
		if a.Names.IsDiscard() {
			params[i] = g.temp()
		} else {
			params[i] = local(a.Names.Name)
		}
	}
	return params
}

func (g *generator) function(f *ast.Function) (sexpr.Node, error) {
	name := qualified(g.module, f.Name)
	if f.Publicity.IsPublic() {
		g.export(name)
	}
	params := g.params(f.Arguments)

	if f.External != nil {
		g.registerImport(f.External.Module)
		call := sexpr.Call(f.External.Name, params...)
		return define(name, lambda(params, call)), nil
	}

	body, err := g.statements(f.Body)
	if err != nil {
		return nil, err
	}
	return define(name, lambda(params, body)), nil
}

// customType emits a constructor and a predicate per variant:
//
//	(define m.Some (lambda ($0) (vector 'Some (vector $0))))
//	(define m.Some? (lambda (%1) (eq? (vector-ref %1 0) 'Some)))
func (g *generator) customType(t *ast.CustomType) []sexpr.Node {
	var defs []sexpr.Node
	for _, ctor := range t.Constructors {
		name := qualified(g.module, ctor.Name)
		pred := predicateName(g.module, ctor.Name)
		if t.Publicity.IsPublic() {
			if !t.Opaque {
				g.export(name)
			}
			g.export(pred)
		}

		params := make([]sexpr.Node, ctor.Arity())
		for i := range params {
			params[i] = local(strconv.Itoa(i))
		}
		defs = append(defs, define(name, lambda(params, taggedValue(ctor.Name, params))))

		v := g.temp()
		test := sexpr.Call("eq?", sexpr.Call("vector-ref", v, sexpr.Atom("0")), sexpr.Quote(ctor.Name))
		defs = append(defs, define(pred, lambda([]sexpr.Node{v}, test)))
	}
	return defs
}

// taggedValue builds the runtime representation of a custom type value.
func taggedValue(tag string, fields []sexpr.Node) sexpr.Node {
	return sexpr.Call("vector", sexpr.Quote(tag), sexpr.Call("vector", fields...))
}

func (g *generator) moduleConstant(c *ast.ModuleConstant) (sexpr.Node, error) {
	name := qualified(g.module, c.Name)
	if c.Publicity.IsPublic() {
		g.export(name)
	}
	value, err := g.constant(c.Value)
	if err != nil {
		return nil, err
	}
	return define(name, value), nil
}
