package codegen

import (
	"github.com/funvibe/schemec/internal/ast"
	"github.com/funvibe/schemec/internal/config"
	"github.com/funvibe/schemec/internal/sexpr"
)

// pattern compiles p into a test over subject. The test evaluates to #t
// when p matches, assigning each pattern variable with set! on the way.
// Callers declare the variables beforehand, see declare.
func (g *generator) pattern(p ast.Pattern, subject sexpr.Atom) (sexpr.Node, error) {
	switch p := p.(type) {
	case *ast.IntPattern:
		return sexpr.Call("=", subject, sexpr.Atom(normalizeInt(p.Value))), nil
	case *ast.FloatPattern:
		return sexpr.Call("fl=", subject, sexpr.Atom(normalizeFloat(p.Value))), nil
	case *ast.StringPattern:
		return sexpr.Call("string=?", subject, sexpr.Str(sexpr.EscapeString(p.Value))), nil

	case *ast.VariablePattern:
		return sexpr.Begin(set(p.Name, subject), sexpr.True), nil

	case *ast.DiscardPattern:
		return sexpr.True, nil

	case *ast.AssignPattern:
		inner, err := g.pattern(p.Pattern, subject)
		if err != nil {
			return nil, err
		}
		return sexpr.Begin(set(p.Name, subject), inner), nil

	case *ast.ListPattern:
		return g.listPattern(p.Elements, p.Tail, subject)

	case *ast.ConstructorPattern:
		return g.constructorPattern(p, subject)

	case *ast.TuplePattern:
		var bindings []sexpr.Binding
		var tests []sexpr.Node
		for i, el := range p.Elements {
			if _, ok := el.(*ast.DiscardPattern); ok {
				continue
			}
			tmp := g.temp()
			bindings = append(bindings, sexpr.Binding{Name: string(tmp), Value: sexpr.Call("vector-ref", subject, index(i))})
			test, err := g.pattern(el, tmp)
			if err != nil {
				return nil, err
			}
			tests = append(tests, test)
		}
		if len(bindings) == 0 {
			return sexpr.True, nil
		}
		return sexpr.Let(bindings, sexpr.And(tests...)), nil

	case *ast.StringPrefixPattern:
		return g.stringPrefixPattern(p, subject), nil

	case *ast.InvalidPattern:
		return nil, invariantf("invalid pattern reached code generation at %d", p.Span.Start)
	}
	return nil, invariantf("unknown pattern %T", p)
}

func set(name string, value sexpr.Node) sexpr.Node {
	return sexpr.Call("set!", local(name), value)
}

// listPattern walks the cons cells of subject, one element pattern per
// cell. Without a tail pattern the list must end after the elements.
func (g *generator) listPattern(elems []ast.Pattern, tail ast.Pattern, subject sexpr.Atom) (sexpr.Node, error) {
	if len(elems) == 0 {
		if tail == nil {
			return sexpr.Call("null?", subject), nil
		}
		return g.pattern(tail, subject)
	}

	head, rest := g.temp(), g.temp()
	headTest, err := g.pattern(elems[0], head)
	if err != nil {
		return nil, err
	}
	restTest, err := g.listPattern(elems[1:], tail, rest)
	if err != nil {
		return nil, err
	}
	bindings := []sexpr.Binding{
		{Name: string(head), Value: sexpr.Call("car", subject)},
		{Name: string(rest), Value: sexpr.Call("cdr", subject)},
	}
	return sexpr.And(sexpr.Call("pair?", subject), sexpr.Let(bindings, sexpr.And(headTest, restTest))), nil
}

func (g *generator) constructorPattern(p *ast.ConstructorPattern, subject sexpr.Atom) (sexpr.Node, error) {
	if p.Module == g.opts.PreludeModule && len(p.Arguments) == 0 {
		switch p.Name {
		case config.TrueCtorName:
			return sexpr.Call("eq?", subject, sexpr.True), nil
		case config.FalseCtorName:
			return sexpr.Call("eq?", subject, sexpr.False), nil
		case config.NilCtorName:
			return sexpr.True, nil
		}
	}

	module := p.Module
	if module == "" {
		module = g.module
	}
	tagTest := sexpr.Call(string(g.reference(module, p.Name+"?")), subject)

	fields := g.temp()
	bindings := []sexpr.Binding{{Name: string(fields), Value: sexpr.Call("vector-ref", subject, sexpr.Atom("1"))}}
	var tests []sexpr.Node
	for i, arg := range p.Arguments {
		if _, ok := arg.(*ast.DiscardPattern); ok {
			continue
		}
		tmp := g.temp()
		bindings = append(bindings, sexpr.Binding{Name: string(tmp), Value: sexpr.Call("vector-ref", fields, index(i))})
		test, err := g.pattern(arg, tmp)
		if err != nil {
			return nil, err
		}
		tests = append(tests, test)
	}
	if len(tests) == 0 {
		return tagTest, nil
	}
	return sexpr.And(tagTest, sexpr.LetStar(bindings, sexpr.And(tests...))), nil
}

// stringPrefixPattern checks the prefix by length, then binds the prefix
// and the remaining suffix when the pattern names them.
func (g *generator) stringPrefixPattern(p *ast.StringPrefixPattern, subject sexpr.Atom) sexpr.Node {
	prefix := sexpr.Str(sexpr.EscapeString(p.LeftSideString))
	n := g.temp()
	tests := []sexpr.Node{
		sexpr.Call(">=", sexpr.Call("string-length", subject), n),
		sexpr.Call("string=?", sexpr.Call("substring", subject, sexpr.Atom("0"), n), prefix),
	}
	if p.LeftAssignment != "" {
		tests = append(tests, sexpr.Begin(set(p.LeftAssignment, prefix), sexpr.True))
	}
	if p.RightAssignment != "" {
		suffix := sexpr.Call("substring", subject, n, sexpr.Call("string-length", subject))
		tests = append(tests, sexpr.Begin(set(p.RightAssignment, suffix), sexpr.True))
	}
	return sexpr.Let([]sexpr.Binding{{Name: string(n), Value: sexpr.Call("string-length", prefix)}}, sexpr.And(tests...))
}

// caseExpr evaluates the subjects once, left to right, then tries each
// clause in a cond. A clause arm declares its own variables and yields a
// thunk for the body when the patterns and guard hold:
//
//	(let* ([%1 subject])
//	  (cond
//	    [(let ([$x #f]) (and test guard (lambda () body))) => (lambda (%k) (%k))]
//	    [else (error 'case "no case clause matched")]))
func (g *generator) caseExpr(c *ast.CaseExpression) (sexpr.Node, error) {
	subjects := make([]sexpr.Atom, len(c.Subjects))
	bindings := make([]sexpr.Binding, len(c.Subjects))
	for i, s := range c.Subjects {
		v, err := g.expr(s)
		if err != nil {
			return nil, err
		}
		subjects[i] = g.temp()
		bindings[i] = sexpr.Binding{Name: string(subjects[i]), Value: v}
	}

	arms := []sexpr.Node{sexpr.Atom("cond")}
	for i := range c.Clauses {
		arm, err := g.clause(&c.Clauses[i], subjects)
		if err != nil {
			return nil, err
		}
		arms = append(arms, arm)
	}
	noMatch := sexpr.Call("error", sexpr.Quote("case"), sexpr.Str(config.CaseNoMatchMessage))
	arms = append(arms, sexpr.Sq(sexpr.Atom("else"), noMatch))

	return sexpr.LetStar(bindings, sexpr.L(arms...)), nil
}

var thunkCaller = lambda([]sexpr.Node{sexpr.Atom("%k")}, sexpr.L(sexpr.Atom("%k")))

// clause lowers one case arm. The guard is tested after each row, so a
// row that matches but fails the guard falls through to the next
// alternative.
func (g *generator) clause(cl *ast.Clause, subjects []sexpr.Atom) (sexpr.Node, error) {
	var guard sexpr.Node = sexpr.True
	if cl.Guard != nil {
		var err error
		if guard, err = g.guard(cl.Guard); err != nil {
			return nil, err
		}
	}

	rows := append([][]ast.Pattern{cl.Patterns}, cl.AlternativePatterns...)
	tests := make([]sexpr.Node, len(rows))
	for i, row := range rows {
		test, err := g.patternRow(row, subjects)
		if err != nil {
			return nil, err
		}
		tests[i] = sexpr.And(test, guard)
	}

	then, err := g.expr(cl.Then)
	if err != nil {
		return nil, err
	}
	test := declare(cl.BoundNames(), sexpr.And(sexpr.Or(tests...), lambda(nil, then)))
	return sexpr.Sq(test, sexpr.Atom("=>"), thunkCaller), nil
}

// patternRow matches one pattern per subject.
func (g *generator) patternRow(patterns []ast.Pattern, subjects []sexpr.Atom) (sexpr.Node, error) {
	if len(patterns) != len(subjects) {
		return nil, invariantf("clause has %d patterns for %d subjects", len(patterns), len(subjects))
	}
	tests := make([]sexpr.Node, len(patterns))
	for i, p := range patterns {
		t, err := g.pattern(p, subjects[i])
		if err != nil {
			return nil, err
		}
		tests[i] = t
	}
	return sexpr.And(tests...), nil
}

func (g *generator) guard(gd ast.ClauseGuard) (sexpr.Node, error) {
	switch gd := gd.(type) {
	case *ast.GuardConstant:
		return g.constant(gd.Value)
	case *ast.GuardVar:
		return local(gd.Name), nil
	case *ast.GuardTupleIndex:
		tuple, err := g.guard(gd.Tuple)
		if err != nil {
			return nil, err
		}
		return sexpr.Call("vector-ref", tuple, index(gd.Index)), nil
	case *ast.GuardFieldAccess:
		container, err := g.guard(gd.Container)
		if err != nil {
			return nil, err
		}
		return fieldRef(container, gd.Index), nil
	case *ast.GuardModuleSelect:
		return g.reference(gd.Module, gd.Label), nil
	case *ast.GuardNot:
		v, err := g.guard(gd.Expression)
		if err != nil {
			return nil, err
		}
		return sexpr.Call("not", v), nil
	case *ast.GuardBinOp:
		left, err := g.guard(gd.Left)
		if err != nil {
			return nil, err
		}
		right, err := g.guard(gd.Right)
		if err != nil {
			return nil, err
		}
		return binOp(gd.Name, left, right)
	}
	return nil, invariantf("unknown guard %T", gd)
}
