package analyzer

import (
	"github.com/pkg/errors"

	"github.com/funvibe/schemec/internal/ast"
	"github.com/funvibe/schemec/internal/config"
	"github.com/funvibe/schemec/internal/diagnostics"
	"github.com/funvibe/schemec/internal/syntax"
	"github.com/funvibe/schemec/internal/typesystem"
)

// pipeTyper desugars `a |> f |> g` into a sequence of assignments to the
// pipe variable followed by a final expression:
//
//	_pipe = a
//	_pipe = f(_pipe)
//	g(_pipe)
//
// Each stage is rewritten according to its shape:
//
//	x |> fn(a) { .. }  ≡  (fn(a) { .. })(x)
//	x |> f(a)          ≡  f(a)(x)     when f takes exactly one argument
//	x |> f(a)          ≡  f(x, a)     otherwise
//	x |> f             ≡  f(x)
type pipeTyper struct {
	size             int
	argumentType     typesystem.Type
	argumentLocation ast.SrcSpan
	location         ast.SrcSpan
	assignments      []ast.PipelineAssignment
	typer            *ExprTyper
}

// InferPipeline types the stages of a pipeline. The pipe variable is only
// visible while the stages are inferred: the caller's scope is restored on
// every return path.
func InferPipeline(typer *ExprTyper, stages []syntax.Expr) (ast.Expr, error) {
	env := typer.Environment
	scope := env.Scope()
	defer env.RestoreScope(scope)

	if len(stages) < 2 {
		return nil, errors.Errorf("pipeline with %d stages", len(stages))
	}

	first := stages[0]
	typedFirst, err := typer.Infer(first)
	if err != nil {
		typer.reportError(err)
		typedFirst = &ast.InvalidExpression{Span: first.Location(), Typ: typer.NewUnboundVar()}
	}

	p := &pipeTyper{
		size:             len(stages),
		typer:            typer,
		argumentType:     typedFirst.Type(),
		argumentLocation: typedFirst.Location(),
		location: ast.SrcSpan{
			Start: typedFirst.Location().Start,
			End:   stages[len(stages)-1].Location().End,
		},
		assignments: make([]ast.PipelineAssignment, 0, len(stages)-1),
	}
	p.pushAssignmentNoUpdate(typedFirst)

	finally := p.inferEachExpression(stages[1:])
	return &ast.PipelineExpression{
		Span:        p.location,
		Assignments: p.assignments,
		Finally:     finally,
	}, nil
}

func (p *pipeTyper) inferEachExpression(stages []syntax.Expr) ast.Expr {
	var finally ast.Expr
	for i, stage := range stages {
		if p.typer.previousPanics {
			p.typer.warnForUnreachableCode(stage.Location())
		}
		p.warnIfCallFirstArgumentIsHole(stage)

		var call ast.Expr
		switch s := stage.(type) {
		case *syntax.Fn:
			fun, args, ret := p.typer.DoInferCall(s, []syntax.CallArg{p.untypedPipeArgument()}, s.Span)
			call = &ast.CallExpression{Span: s.Span, Typ: ret, Fun: fun, Args: args}

		case *syntax.Call:
			fun, err := p.typer.Infer(s.Fun)
			if err != nil {
				// Keep going with a placeholder so later stages are checked
				p.typer.reportError(err)
				fun = &ast.InvalidExpression{Span: s.Span, Typ: p.typer.NewUnboundVar()}
			}
			params, _, isFn := typesystem.FnTypes(p.typer.Environment.Resolve(fun.Type()))
			if isFn && len(params) == len(s.Arguments) {
				call = p.inferApplyToCallPipe(fun, s.Arguments, s.Span)
			} else {
				call = p.inferInsertPipe(fun, s.Arguments, s.Span)
			}

		default:
			call = p.inferApplyPipe(stage)
		}

		if i+2 == p.size {
			finally = call
		} else {
			p.pushAssignment(call)
		}
	}
	return finally
}

// untypedPipeArgument refers to the value on the left of the current stage.
func (p *pipeTyper) untypedPipeArgument() syntax.CallArg {
	return syntax.CallArg{
		Span:     p.argumentLocation,
		Value:    pipeVariable(p.argumentLocation),
		Implicit: ast.ImplicitPipe,
	}
}

func (p *pipeTyper) typedPipeArgument() ast.CallArg {
	return ast.CallArg{
		Span: p.argumentLocation,
		Value: &ast.VarExpression{
			Span: p.argumentLocation,
			Name: config.PipeVariable,
			Constructor: ast.ValueConstructor{
				Publicity: ast.Public,
				Type:      p.argumentType,
				Variant:   &ast.LocalVariable{Span: p.argumentLocation, Origin: ast.OriginGenerated},
			},
		},
		Implicit: ast.ImplicitPipe,
	}
}

func (p *pipeTyper) pushAssignment(expr ast.Expr) {
	p.argumentType = expr.Type()
	p.argumentLocation = expr.Location()
	p.pushAssignmentNoUpdate(expr)
}

func (p *pipeTyper) pushAssignmentNoUpdate(expr ast.Expr) {
	span := expr.Location()
	p.typer.Environment.InsertLocalVariable(config.PipeVariable, span, ast.OriginGenerated, expr.Type())
	p.assignments = append(p.assignments, ast.PipelineAssignment{
		Span:  span,
		Name:  config.PipeVariable,
		Value: expr,
	})
}

// inferApplyToCallPipe types `a |> b(c)` as `b(c)(a)`.
func (p *pipeTyper) inferApplyToCallPipe(fun ast.Expr, args []syntax.CallArg, span ast.SrcSpan) ast.Expr {
	fun, typedArgs, ret := p.typer.DoInferCallWithKnownFun(fun, args, span)
	inner := &ast.CallExpression{Span: span, Typ: ret, Fun: fun, Args: typedArgs}
	outer, outerArgs, outerRet := p.typer.DoInferCallWithKnownFun(inner, []syntax.CallArg{p.untypedPipeArgument()}, span)
	return &ast.CallExpression{Span: span, Typ: outerRet, Fun: outer, Args: outerArgs}
}

// inferInsertPipe types `a |> b(c)` as `b(a, c)`.
func (p *pipeTyper) inferInsertPipe(fun ast.Expr, args []syntax.CallArg, span ast.SrcSpan) ast.Expr {
	withPipe := make([]syntax.CallArg, 0, len(args)+1)
	withPipe = append(withPipe, p.untypedPipeArgument())
	withPipe = append(withPipe, args...)
	fun, typedArgs, ret := p.typer.DoInferCallWithKnownFun(fun, withPipe, span)
	return &ast.CallExpression{Span: span, Typ: ret, Fun: fun, Args: typedArgs}
}

// inferApplyPipe types `a |> b` as `b(a)`.
func (p *pipeTyper) inferApplyPipe(stage syntax.Expr) ast.Expr {
	fun, err := p.typer.Infer(stage)
	if err != nil {
		p.typer.reportError(err)
		fun = &ast.InvalidExpression{Span: stage.Location(), Typ: p.typer.NewUnboundVar()}
	}

	ret := p.typer.NewUnboundVar()
	expected := typesystem.Fn([]typesystem.Type{p.argumentType}, ret)
	if uerr := p.typer.Environment.Unify(fun.Type(), expected); uerr != nil {
		var de *diagnostics.DiagnosticError
		if isPipeTypeMismatch(uerr) {
			de = convertUnifyError(uerr, fun.Location())
			de.Situation = diagnostics.SituationPipeTypeMismatch
		} else {
			de = convertUnifyError(uerr.Flip(), fun.Location())
		}
		p.typer.Problems.Error(de)
	}

	return &ast.CallExpression{
		Span: fun.Location(),
		Typ:  ret,
		Fun:  fun,
		Args: []ast.CallArg{p.typedPipeArgument()},
	}
}

// isPipeTypeMismatch reports whether a failure to unify two functions of
// the same arity comes from their first parameters, which for a pipe stage
// means the piped value has the wrong type.
func isPipeTypeMismatch(err *typesystem.UnifyError) bool {
	if err.Kind != typesystem.CouldNotUnify {
		return false
	}
	a, _, okA := typesystem.FnTypes(err.Expected)
	b, _, okB := typesystem.FnTypes(err.Given)
	if !okA || !okB || len(a) != len(b) || len(a) == 0 {
		return false
	}
	_, uerr := typesystem.Unify(a[0], b[0])
	return uerr != nil
}

// warnIfCallFirstArgumentIsHole flags `x |> f(_, y)`, which is the same as
// `x |> f(y)`. A labelled hole is left alone.
func (p *pipeTyper) warnIfCallFirstArgumentIsHole(stage syntax.Expr) {
	fn, ok := stage.(*syntax.Fn)
	if !ok || fn.Kind != ast.CaptureFn || len(fn.Body) == 0 {
		return
	}
	stmt, ok := fn.Body[0].(*syntax.ExpressionStatement)
	if !ok {
		return
	}
	call, ok := stmt.Expression.(*syntax.Call)
	if !ok || len(call.Arguments) == 0 {
		return
	}
	first := call.Arguments[0]
	if first.IsCaptureHole() && first.Label == "" {
		p.typer.Problems.Warning(diagnostics.Warning{
			Kind: diagnostics.WarnRedundantPipeCapture,
			Span: first.Span,
		})
	}
}
