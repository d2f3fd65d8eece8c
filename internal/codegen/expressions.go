package codegen

import (
	"strconv"

	"github.com/funvibe/schemec/internal/ast"
	"github.com/funvibe/schemec/internal/config"
	"github.com/funvibe/schemec/internal/sexpr"
)

func (g *generator) expr(e ast.Expr) (sexpr.Node, error) {
	switch e := e.(type) {
	case *ast.IntLiteral:
		return sexpr.Atom(normalizeInt(e.Value)), nil
	case *ast.FloatLiteral:
		return sexpr.Atom(normalizeFloat(e.Value)), nil
	case *ast.StringLiteral:
		return sexpr.Str(sexpr.EscapeString(e.Value)), nil

	case *ast.BlockExpression:
		return g.statements(e.Statements)

	case *ast.PipelineExpression:
		return g.pipeline(e)

	case *ast.VarExpression:
		return g.variable(e)

	case *ast.FnExpression:
		body, err := g.statements(e.Body)
		if err != nil {
			return nil, err
		}
		return lambda(g.params(e.Arguments), body), nil

	case *ast.ListExpression:
		elems, err := g.exprs(e.Elements)
		if err != nil {
			return nil, err
		}
		var tail sexpr.Node
		if e.Tail != nil {
			if tail, err = g.expr(e.Tail); err != nil {
				return nil, err
			}
		}
		return consChain(elems, tail), nil

	case *ast.CallExpression:
		fun, err := g.expr(e.Fun)
		if err != nil {
			return nil, err
		}
		args := make([]sexpr.Node, len(e.Args))
		for i, a := range e.Args {
			if args[i], err = g.expr(a.Value); err != nil {
				return nil, err
			}
		}
		return sexpr.L(append([]sexpr.Node{fun}, args...)...), nil

	case *ast.BinOpExpression:
		left, err := g.expr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := g.expr(e.Right)
		if err != nil {
			return nil, err
		}
		return binOp(e.Name, left, right)

	case *ast.CaseExpression:
		return g.caseExpr(e)

	case *ast.RecordAccess:
		record, err := g.expr(e.Record)
		if err != nil {
			return nil, err
		}
		return fieldRef(record, e.Index), nil

	case *ast.ModuleSelect:
		return g.moduleSelect(e)

	case *ast.TupleExpression:
		elems, err := g.exprs(e.Elements)
		if err != nil {
			return nil, err
		}
		return sexpr.Call("vector", elems...), nil

	case *ast.TupleIndex:
		tuple, err := g.expr(e.Tuple)
		if err != nil {
			return nil, err
		}
		return sexpr.Call("vector-ref", tuple, index(e.Index)), nil

	case *ast.TodoExpression:
		return g.runtimeError("todo", e.Message, config.TodoDefaultMessage)

	case *ast.PanicExpression:
		return g.runtimeError("panic", e.Message, config.PanicDefaultMessage)

	case *ast.RecordUpdate:
		return g.recordUpdate(e)

	case *ast.NegateBool:
		v, err := g.expr(e.Value)
		if err != nil {
			return nil, err
		}
		return sexpr.Call("not", v), nil

	case *ast.NegateInt:
		v, err := g.expr(e.Value)
		if err != nil {
			return nil, err
		}
		return sexpr.Call("-", v), nil

	case *ast.InvalidExpression:
		return nil, invariantf("invalid expression reached code generation at %d", e.Span.Start)
	}
	return nil, invariantf("unknown expression %T", e)
}

func (g *generator) exprs(es []ast.Expr) ([]sexpr.Node, error) {
	out := make([]sexpr.Node, len(es))
	for i, e := range es {
		n, err := g.expr(e)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func index(i int) sexpr.Atom {
	return sexpr.Atom(strconv.Itoa(i))
}

// fieldRef projects field i out of a custom type value.
func fieldRef(record sexpr.Node, i int) sexpr.Node {
	return sexpr.Call("vector-ref", sexpr.Call("vector-ref", record, sexpr.Atom("1")), index(i))
}

// pipeline rebinds the pipe variable once per assignment; let* evaluates
// them in order.
func (g *generator) pipeline(p *ast.PipelineExpression) (sexpr.Node, error) {
	bindings := make([]sexpr.Binding, len(p.Assignments))
	for i, a := range p.Assignments {
		v, err := g.expr(a.Value)
		if err != nil {
			return nil, err
		}
		bindings[i] = sexpr.Binding{Name: string(local(a.Name)), Value: v}
	}
	final, err := g.expr(p.Finally)
	if err != nil {
		return nil, err
	}
	return sexpr.LetStar(bindings, final), nil
}

func (g *generator) variable(v *ast.VarExpression) (sexpr.Node, error) {
	switch c := v.Constructor.Variant.(type) {
	case *ast.LocalVariable:
		return local(v.Name), nil
	case *ast.ModuleConstantVariant:
		return g.reference(c.Module, v.Name), nil
	case *ast.LocalConstant:
		return g.constant(c.Literal)
	case *ast.ModuleFn:
		return g.reference(c.Module, c.Name), nil
	case *ast.Record:
		return g.record(c), nil
	}
	return nil, invariantf("variable %s has no constructor", v.Name)
}

func (g *generator) moduleSelect(s *ast.ModuleSelect) (sexpr.Node, error) {
	switch c := s.Constructor.(type) {
	case *ast.ModuleFn:
		return g.reference(s.ModuleName, s.Label), nil
	case *ast.ModuleConstantVariant:
		return g.reference(s.ModuleName, s.Label), nil
	case *ast.LocalConstant:
		return g.constant(c.Literal)
	case *ast.Record:
		return g.record(c), nil
	}
	return nil, invariantf("module select %s.%s refers to %T", s.ModuleName, s.Label, s.Constructor)
}

func (g *generator) runtimeError(kind string, message ast.Expr, fallback string) (sexpr.Node, error) {
	var msg sexpr.Node = sexpr.Str(fallback)
	if message != nil {
		var err error
		if msg, err = g.expr(message); err != nil {
			return nil, err
		}
	}
	return sexpr.Call("error", sexpr.Quote(kind), msg), nil
}

// recordUpdate copies the field vector of the base record, patches the
// updated fields and rebuilds the value with the original tag:
//
//	(let* ([%1 base] [%2 (vector-copy (vector-ref %1 1))])
//	  (vector-set! %2 0 v)
//	  (vector (vector-ref %1 0) %2))
func (g *generator) recordUpdate(u *ast.RecordUpdate) (sexpr.Node, error) {
	spread, err := g.expr(u.Spread)
	if err != nil {
		return nil, err
	}
	base, fields := g.temp(), g.temp()
	bindings := []sexpr.Binding{
		{Name: string(base), Value: spread},
		{Name: string(fields), Value: sexpr.Call("vector-copy", sexpr.Call("vector-ref", base, sexpr.Atom("1")))},
	}
	body := make([]sexpr.Node, 0, len(u.Args)+1)
	for _, arg := range u.Args {
		v, err := g.expr(arg.Value)
		if err != nil {
			return nil, err
		}
		body = append(body, sexpr.Call("vector-set!", fields, index(arg.Index), v))
	}
	body = append(body, sexpr.Call("vector", sexpr.Call("vector-ref", base, sexpr.Atom("0")), fields))
	return sexpr.LetStar(bindings, body...), nil
}
