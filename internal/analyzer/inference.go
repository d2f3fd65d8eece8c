package analyzer

import (
	"github.com/funvibe/schemec/internal/ast"
	"github.com/funvibe/schemec/internal/config"
	"github.com/funvibe/schemec/internal/diagnostics"
	"github.com/funvibe/schemec/internal/syntax"
	"github.com/funvibe/schemec/internal/typesystem"
)

// ExprTyper infers the types of untyped expressions and builds the typed
// tree. Errors that do not prevent building a node are reported to
// Problems; Infer returns an error only when no node can be built.
type ExprTyper struct {
	Environment *Environment
	Problems    *diagnostics.Problems

	// Set once an expression that always panics has been inferred in the
	// current function body.
	previousPanics bool
	// Unreachable code is reported once per function body.
	warnedUnreachable bool
}

func NewExprTyper(env *Environment, problems *diagnostics.Problems) *ExprTyper {
	return &ExprTyper{Environment: env, Problems: problems}
}

// NewUnboundVar returns a fresh type variable.
func (t *ExprTyper) NewUnboundVar() typesystem.Type {
	return t.Environment.FreshVar()
}

// Infer types a single expression.
func (t *ExprTyper) Infer(expr syntax.Expr) (ast.Expr, error) {
	switch e := expr.(type) {
	case *syntax.Int:
		return &ast.IntLiteral{Span: e.Span, Value: e.Value}, nil
	case *syntax.Float:
		return &ast.FloatLiteral{Span: e.Span, Value: e.Value}, nil
	case *syntax.String:
		return &ast.StringLiteral{Span: e.Span, Value: e.Value}, nil
	case *syntax.Var:
		return t.inferVar(e)
	case *syntax.Fn:
		return t.inferFn(e)
	case *syntax.Call:
		fun, args, typ := t.DoInferCall(e.Fun, e.Arguments, e.Span)
		return &ast.CallExpression{Span: e.Span, Typ: typ, Fun: fun, Args: args}, nil
	case *syntax.Tuple:
		return t.inferTuple(e)
	case *syntax.List:
		return t.inferList(e)
	case *syntax.BinOp:
		return t.inferBinOp(e)
	case *syntax.Block:
		return t.inferBlock(e)
	case *syntax.Pipeline:
		return InferPipeline(t, e.Expressions)
	case *syntax.Todo:
		msg, err := t.inferMessage(e.Message)
		if err != nil {
			return nil, err
		}
		t.previousPanics = true
		return &ast.TodoExpression{Span: e.Span, Typ: t.NewUnboundVar(), Message: msg}, nil
	case *syntax.Panic:
		msg, err := t.inferMessage(e.Message)
		if err != nil {
			return nil, err
		}
		t.previousPanics = true
		return &ast.PanicExpression{Span: e.Span, Typ: t.NewUnboundVar(), Message: msg}, nil
	case *syntax.NegateInt:
		value, err := t.inferOfType(e.Value, typesystem.Int)
		if err != nil {
			return nil, err
		}
		return &ast.NegateInt{Span: e.Span, Value: value}, nil
	case *syntax.NegateBool:
		value, err := t.inferOfType(e.Value, typesystem.Bool)
		if err != nil {
			return nil, err
		}
		return &ast.NegateBool{Span: e.Span, Value: value}, nil
	}
	return nil, diagnostics.NewErrorf(diagnostics.ErrA006, expr.Location(), "unsupported expression %T", expr)
}

// inferOfType infers expr and requires it to have type want.
func (t *ExprTyper) inferOfType(expr syntax.Expr, want typesystem.Type) (ast.Expr, error) {
	typed, err := t.Infer(expr)
	if err != nil {
		return nil, err
	}
	if uerr := t.Environment.Unify(want, typed.Type()); uerr != nil {
		return nil, convertUnifyError(uerr, expr.Location())
	}
	return typed, nil
}

func (t *ExprTyper) inferMessage(msg syntax.Expr) (ast.Expr, error) {
	if msg == nil {
		return nil, nil
	}
	return t.inferOfType(msg, typesystem.String)
}

func (t *ExprTyper) inferVar(e *syntax.Var) (ast.Expr, error) {
	vc, ok := t.Environment.GetVariable(e.Name)
	if !ok {
		return nil, diagnostics.NewErrorf(diagnostics.ErrA001, e.Span, "unknown variable %s", e.Name)
	}
	return &ast.VarExpression{Span: e.Span, Name: e.Name, Constructor: vc}, nil
}

func (t *ExprTyper) inferFn(e *syntax.Fn) (ast.Expr, error) {
	env := t.Environment
	scope := env.Scope()
	panics, warned := t.previousPanics, t.warnedUnreachable
	defer func() {
		env.RestoreScope(scope)
		t.previousPanics, t.warnedUnreachable = panics, warned
	}()
	t.previousPanics, t.warnedUnreachable = false, false

	args := make([]ast.Arg, len(e.Arguments))
	params := make([]typesystem.Type, len(e.Arguments))
	for i, a := range e.Arguments {
		typ := a.Annotation
		if typ == nil {
			typ = t.NewUnboundVar()
		}
		params[i] = typ
		names := ast.ArgNames{Kind: ast.ArgNamed, Name: a.Name}
		if a.IsDiscard() {
			names = ast.ArgNames{Kind: ast.ArgDiscard, Name: a.Name}
		} else {
			env.InsertLocalVariable(a.Name, a.Span, ast.OriginSource, typ)
		}
		args[i] = ast.Arg{Span: a.Span, Names: names, Type: typ}
	}

	body, err := t.inferStatements(e.Body)
	if err != nil {
		return nil, err
	}
	ret := statementsType(body)
	if e.ReturnAnnotation != nil {
		if uerr := env.Unify(e.ReturnAnnotation, ret); uerr != nil {
			return nil, convertUnifyError(uerr, e.Span)
		}
		ret = e.ReturnAnnotation
	}

	return &ast.FnExpression{
		Span:       e.Span,
		Kind:       e.Kind,
		Typ:        typesystem.Fn(params, ret),
		Arguments:  args,
		Body:       body,
		ReturnType: ret,
	}, nil
}

func (t *ExprTyper) inferTuple(e *syntax.Tuple) (ast.Expr, error) {
	elems := make([]ast.Expr, len(e.Elements))
	types := make([]typesystem.Type, len(e.Elements))
	for i, el := range e.Elements {
		typed, err := t.Infer(el)
		if err != nil {
			return nil, err
		}
		elems[i] = typed
		types[i] = typed.Type()
	}
	return &ast.TupleExpression{Span: e.Span, Typ: typesystem.TTuple{Elements: types}, Elements: elems}, nil
}

func (t *ExprTyper) inferList(e *syntax.List) (ast.Expr, error) {
	elemType := t.NewUnboundVar()
	elems := make([]ast.Expr, len(e.Elements))
	for i, el := range e.Elements {
		typed, err := t.inferOfType(el, elemType)
		if err != nil {
			return nil, err
		}
		elems[i] = typed
	}
	listType := typesystem.List(elemType)
	var tail ast.Expr
	if e.Tail != nil {
		typed, err := t.inferOfType(e.Tail, listType)
		if err != nil {
			return nil, err
		}
		tail = typed
	}
	return &ast.ListExpression{Span: e.Span, Typ: listType, Elements: elems, Tail: tail}, nil
}

// binOpTypes returns the operand and result type of an operator. A nil
// operand type means both sides must agree on any type.
func binOpTypes(op ast.BinOp) (operand, result typesystem.Type) {
	switch op {
	case ast.And, ast.Or:
		return typesystem.Bool, typesystem.Bool
	case ast.Eq, ast.NotEq:
		return nil, typesystem.Bool
	case ast.LtInt, ast.LtEqInt, ast.GtInt, ast.GtEqInt:
		return typesystem.Int, typesystem.Bool
	case ast.LtFloat, ast.LtEqFloat, ast.GtFloat, ast.GtEqFloat:
		return typesystem.Float, typesystem.Bool
	case ast.AddInt, ast.SubInt, ast.MultInt, ast.DivInt, ast.RemainderInt:
		return typesystem.Int, typesystem.Int
	case ast.AddFloat, ast.SubFloat, ast.MultFloat, ast.DivFloat:
		return typesystem.Float, typesystem.Float
	case ast.Concatenate:
		return typesystem.String, typesystem.String
	}
	return nil, typesystem.Nil
}

func (t *ExprTyper) inferBinOp(e *syntax.BinOp) (ast.Expr, error) {
	operand, result := binOpTypes(e.Name)
	if operand == nil {
		operand = t.NewUnboundVar()
	}
	left, err := t.inferOfType(e.Left, operand)
	if err != nil {
		return nil, err
	}
	right, err := t.inferOfType(e.Right, operand)
	if err != nil {
		return nil, err
	}
	return &ast.BinOpExpression{Span: e.Span, Typ: result, Name: e.Name, Left: left, Right: right}, nil
}

func (t *ExprTyper) inferBlock(e *syntax.Block) (ast.Expr, error) {
	scope := t.Environment.Scope()
	defer t.Environment.RestoreScope(scope)
	stmts, err := t.inferStatements(e.Statements)
	if err != nil {
		return nil, err
	}
	return &ast.BlockExpression{Span: e.Span, Statements: stmts}, nil
}

func (t *ExprTyper) inferStatements(stmts []syntax.Statement) ([]ast.Statement, error) {
	typed := make([]ast.Statement, 0, len(stmts))
	for _, stmt := range stmts {
		if t.previousPanics {
			t.warnForUnreachableCode(stmt.Location())
		}
		switch s := stmt.(type) {
		case *syntax.ExpressionStatement:
			expr, err := t.Infer(s.Expression)
			if err != nil {
				return nil, err
			}
			typed = append(typed, &ast.ExpressionStatement{Expression: expr})
		case *syntax.Assignment:
			value, err := t.Infer(s.Value)
			if err != nil {
				return nil, err
			}
			var pattern ast.Pattern = &ast.VariablePattern{Span: s.Span, Name: s.Name}
			if (syntax.FnArg{Name: s.Name}).IsDiscard() {
				pattern = &ast.DiscardPattern{Span: s.Span, Name: s.Name}
			} else {
				t.Environment.InsertLocalVariable(s.Name, s.Span, ast.OriginSource, value.Type())
			}
			typed = append(typed, &ast.Assignment{Span: s.Span, Kind: ast.Let, Pattern: pattern, Value: value})
		default:
			return nil, diagnostics.NewErrorf(diagnostics.ErrA006, stmt.Location(), "unsupported statement %T", stmt)
		}
	}
	return typed, nil
}

func statementsType(stmts []ast.Statement) typesystem.Type {
	return (&ast.BlockExpression{Statements: stmts}).Type()
}

func (t *ExprTyper) warnForUnreachableCode(span ast.SrcSpan) {
	if t.warnedUnreachable {
		return
	}
	t.warnedUnreachable = true
	t.Problems.Warning(diagnostics.Warning{Kind: diagnostics.WarnUnreachableCode, Span: span})
}

// pipeVariable builds the untyped reference to the current pipe value.
func pipeVariable(span ast.SrcSpan) *syntax.Var {
	return &syntax.Var{Span: span, Name: config.PipeVariable}
}
