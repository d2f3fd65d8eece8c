package codegen

import (
	"strings"

	"github.com/funvibe/schemec/internal/ast"
	"github.com/funvibe/schemec/internal/config"
	"github.com/funvibe/schemec/internal/sexpr"
)

// normalizeInt converts an integer literal to Scheme syntax:
// underscores are dropped and 0x, 0o, 0b prefixes become #x, #o, #b.
func normalizeInt(lit string) string {
	s := strings.ReplaceAll(lit, "_", "")
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			return "#x" + sign + s[2:]
		case 'o', 'O':
			return "#o" + sign + s[2:]
		case 'b', 'B':
			return "#b" + sign + s[2:]
		}
	}
	return sign + s
}

// normalizeFloat converts a float literal to Scheme syntax. `1.` and
// `1.e3` need a digit after the point.
func normalizeFloat(lit string) string {
	s := strings.ReplaceAll(lit, "_", "")
	if strings.HasSuffix(s, ".") {
		return s + "0"
	}
	return strings.Replace(s, ".e", ".0e", 1)
}

// emptyList is the empty list sentinel.
var emptyList = sexpr.Empty

// consChain builds (cons e1 (cons e2 ... tail)).
func consChain(elems []sexpr.Node, tail sexpr.Node) sexpr.Node {
	if tail == nil {
		tail = emptyList
	}
	out := tail
	for i := len(elems) - 1; i >= 0; i-- {
		out = sexpr.Call("cons", elems[i], out)
	}
	return out
}

// preludeValue returns the native encoding of prelude constructors
// without fields.
func (g *generator) preludeValue(module, name string) (sexpr.Node, bool) {
	if module != g.opts.PreludeModule {
		return nil, false
	}
	switch name {
	case config.TrueCtorName:
		return sexpr.True, true
	case config.FalseCtorName:
		return sexpr.False, true
	case config.NilCtorName:
		return sexpr.Call("void"), true
	}
	return nil, false
}

// record renders a reference to a constructor. Constructors without
// fields are values, so the reference calls them.
func (g *generator) record(r *ast.Record) sexpr.Node {
	if v, ok := g.preludeValue(r.Module, r.Name); ok {
		return v
	}
	ref := g.reference(r.Module, r.Name)
	if r.Arity == 0 {
		return sexpr.Call(string(ref))
	}
	return ref
}

func (g *generator) constant(c ast.Constant) (sexpr.Node, error) {
	switch c := c.(type) {
	case *ast.ConstInt:
		return sexpr.Atom(normalizeInt(c.Value)), nil
	case *ast.ConstFloat:
		return sexpr.Atom(normalizeFloat(c.Value)), nil
	case *ast.ConstString:
		return sexpr.Str(sexpr.EscapeString(c.Value)), nil

	case *ast.ConstTuple:
		elems, err := g.constants(c.Elements)
		if err != nil {
			return nil, err
		}
		return sexpr.Call("vector", elems...), nil

	case *ast.ConstList:
		elems, err := g.constants(c.Elements)
		if err != nil {
			return nil, err
		}
		return consChain(elems, nil), nil

	case *ast.ConstRecord:
		if len(c.Arguments) == 0 {
			if v, ok := g.preludeValue(c.Module, c.Name); ok {
				return v, nil
			}
		}
		fields, err := g.constants(c.Arguments)
		if err != nil {
			return nil, err
		}
		// Built inline, but the defining module is still a dependency
		g.registerImport(c.Module)
		return taggedValue(c.Name, fields), nil

	case *ast.ConstVar:
		return g.constantVar(c)

	case *ast.ConstStringConcat:
		left, err := g.constant(c.Left)
		if err != nil {
			return nil, err
		}
		right, err := g.constant(c.Right)
		if err != nil {
			return nil, err
		}
		return sexpr.Call("string-append", left, right), nil

	case *ast.ConstInvalid:
		return nil, invariantf("invalid constant reached code generation")
	}
	return nil, invariantf("unknown constant %T", c)
}

func (g *generator) constants(cs []ast.Constant) ([]sexpr.Node, error) {
	out := make([]sexpr.Node, len(cs))
	for i, c := range cs {
		n, err := g.constant(c)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (g *generator) constantVar(c *ast.ConstVar) (sexpr.Node, error) {
	switch v := c.Constructor.Variant.(type) {
	case *ast.ModuleFn:
		return g.reference(v.Module, v.Name), nil
	case *ast.Record:
		return g.record(v), nil
	case *ast.ModuleConstantVariant:
		return g.reference(v.Module, c.Name), nil
	case *ast.LocalConstant:
		return g.constant(v.Literal)
	}
	return nil, invariantf("constant %s refers to %T", c.Name, c.Constructor.Variant)
}
