package codegen

import (
	"github.com/funvibe/schemec/internal/ast"
	"github.com/funvibe/schemec/internal/config"
	"github.com/funvibe/schemec/internal/sexpr"
)

// statements lowers a body. Expression statements run in order inside a
// begin; each assignment opens a scope wrapping everything after it.
func (g *generator) statements(stmts []ast.Statement) (sexpr.Node, error) {
	if len(stmts) == 0 {
		return nil, invariantf("empty statement list in %s", g.module)
	}

	var effects []sexpr.Node
	for i, stmt := range stmts {
		last := i == len(stmts)-1
		switch s := stmt.(type) {
		case *ast.ExpressionStatement:
			e, err := g.expr(s.Expression)
			if err != nil {
				return nil, err
			}
			effects = append(effects, e)
			if last {
				return sexpr.Begin(effects...), nil
			}

		case *ast.Assignment:
			var rest []ast.Statement
			if !last {
				rest = stmts[i+1:]
			}
			scope, err := g.assignmentScope(s, rest)
			if err != nil {
				return nil, err
			}
			return sexpr.Begin(append(effects, scope)...), nil

		case *ast.Use:
			return nil, invariantf("use statement reached code generation at %d", s.Span.Start)

		default:
			return nil, invariantf("unknown statement %T", stmt)
		}
	}
	return nil, invariantf("unreachable end of statement list")
}

// assignmentScope lowers `let pattern = value` followed by rest. When
// rest is empty the assignment yields the assigned value.
func (g *generator) assignmentScope(a *ast.Assignment, rest []ast.Statement) (sexpr.Node, error) {
	value, err := g.expr(a.Value)
	if err != nil {
		return nil, err
	}

	body := func(bound sexpr.Node) (sexpr.Node, error) {
		if len(rest) == 0 {
			return bound, nil
		}
		return g.statements(rest)
	}

	switch p := a.Pattern.(type) {
	case *ast.VariablePattern:
		name := local(p.Name)
		b, err := body(name)
		if err != nil {
			return nil, err
		}
		return sexpr.Let([]sexpr.Binding{{Name: string(name), Value: value}}, b), nil

	case *ast.DiscardPattern:
		tmp := g.temp()
		b, err := body(tmp)
		if err != nil {
			return nil, err
		}
		return sexpr.Let([]sexpr.Binding{{Name: string(tmp), Value: value}}, b), nil
	}

	// Destructuring or `let assert`: test the pattern and fail if it does
	// not match.
	tmp := g.temp()
	test, err := g.pattern(a.Pattern, tmp)
	if err != nil {
		return nil, err
	}
	bindings := []sexpr.Binding{{Name: string(tmp), Value: value}}

	// A custom message is a thunk bound beside the value: it runs only on
	// failure and is outside the pattern's declarations.
	var message sexpr.Node = sexpr.Str(config.AssertFailedMessage)
	if a.Message != nil {
		m, err := g.expr(a.Message)
		if err != nil {
			return nil, err
		}
		thunk := g.temp()
		bindings = append(bindings, sexpr.Binding{Name: string(thunk), Value: lambda(nil, m)})
		message = sexpr.L(thunk)
	}
	b, err := body(tmp)
	if err != nil {
		return nil, err
	}
	check := sexpr.Call("if", test, b, sexpr.Call("error", sexpr.Quote("let"), message))
	return sexpr.Let(bindings, declare(ast.BoundNames(a.Pattern), check)), nil
}

// declare wraps body in a let introducing each pattern variable,
// initialised to #f, so the pattern test can set! them.
func declare(names []string, body sexpr.Node) sexpr.Node {
	if len(names) == 0 {
		return body
	}
	bindings := make([]sexpr.Binding, len(names))
	for i, n := range names {
		bindings[i] = sexpr.Binding{Name: string(local(n)), Value: sexpr.False}
	}
	return sexpr.Let(bindings, body)
}
