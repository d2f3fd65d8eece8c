package analyzer

import (
	"github.com/funvibe/schemec/internal/ast"
	"github.com/funvibe/schemec/internal/diagnostics"
	"github.com/funvibe/schemec/internal/syntax"
	"github.com/funvibe/schemec/internal/typesystem"
)

// DoInferCall infers fun and then the call of it with args. A callee that
// cannot be inferred is reported and replaced by an invalid expression so
// the arguments still get checked.
func (t *ExprTyper) DoInferCall(fun syntax.Expr, args []syntax.CallArg, span ast.SrcSpan) (ast.Expr, []ast.CallArg, typesystem.Type) {
	typedFun, err := t.Infer(fun)
	if err != nil {
		t.reportError(err)
		typedFun = &ast.InvalidExpression{Span: fun.Location(), Typ: t.NewUnboundVar()}
	}
	return t.DoInferCallWithKnownFun(typedFun, args, span)
}

// DoInferCallWithKnownFun checks args against the already typed callee and
// returns the typed arguments and the type of the call.
func (t *ExprTyper) DoInferCallWithKnownFun(fun ast.Expr, args []syntax.CallArg, span ast.SrcSpan) (ast.Expr, []ast.CallArg, typesystem.Type) {
	env := t.Environment
	funType := env.Resolve(fun.Type())

	switch ft := funType.(type) {
	case typesystem.TFunc:
		if len(ft.Params) != len(args) {
			t.Problems.Error(diagnostics.NewErrorf(diagnostics.ErrA002, span,
				"expected %d arguments, got %d", len(ft.Params), len(args)))
			return fun, t.inferArgs(args, nil), ft.ReturnType
		}
		return fun, t.inferArgs(args, ft.Params), ft.ReturnType

	case typesystem.TVar:
		// Unknown callee: learn its type from the arguments
		typed := t.inferArgs(args, nil)
		params := make([]typesystem.Type, len(typed))
		for i, a := range typed {
			params[i] = a.Value.Type()
		}
		ret := t.NewUnboundVar()
		if uerr := env.Unify(funType, typesystem.Fn(params, ret)); uerr != nil {
			t.Problems.Error(convertUnifyError(uerr, fun.Location()))
		}
		return fun, typed, ret
	}

	t.Problems.Error(diagnostics.NewErrorf(diagnostics.ErrA004, fun.Location(),
		"%s is not a function", funType))
	return fun, t.inferArgs(args, nil), t.NewUnboundVar()
}

// inferArgs types each argument, unifying it with the matching entry of
// params when params is not nil. Failures are reported and the argument is
// replaced by an invalid expression.
func (t *ExprTyper) inferArgs(args []syntax.CallArg, params []typesystem.Type) []ast.CallArg {
	typed := make([]ast.CallArg, len(args))
	for i, arg := range args {
		value, err := t.Infer(arg.Value)
		if err != nil {
			t.reportError(err)
			typ := t.NewUnboundVar()
			if params != nil {
				typ = params[i]
			}
			value = &ast.InvalidExpression{Span: arg.Span, Typ: typ}
		} else if params != nil {
			if uerr := t.Environment.Unify(params[i], value.Type()); uerr != nil {
				t.Problems.Error(convertUnifyError(uerr, arg.Value.Location()))
			}
		}
		typed[i] = ast.CallArg{Label: arg.Label, Span: arg.Span, Value: value, Implicit: arg.Implicit}
	}
	return typed
}
