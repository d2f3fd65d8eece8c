package analyzer

import (
	"strings"
	"testing"

	"github.com/funvibe/schemec/internal/ast"
	"github.com/funvibe/schemec/internal/config"
	"github.com/funvibe/schemec/internal/diagnostics"
	"github.com/funvibe/schemec/internal/syntax"
	"github.com/funvibe/schemec/internal/typesystem"
)

func span(start, end uint32) ast.SrcSpan {
	return ast.SrcSpan{Start: start, End: end}
}

func moduleFn(name string, t typesystem.Type) ast.ValueConstructor {
	params, _, _ := typesystem.FnTypes(t)
	return ast.ValueConstructor{
		Publicity: ast.Public,
		Type:      t,
		Variant:   &ast.ModuleFn{Module: "app", Name: name, Arity: len(params)},
	}
}

// newTestTyper returns a typer whose module defines:
//
//	add(Int, Int) -> Int
//	double(Int) -> Int
//	two_args(Int, Int) -> Int
//	make_adder(Int) -> fn(Int) -> Int
//	identity(a) -> a
func newTestTyper() *ExprTyper {
	env := NewEnvironment("app")
	i := typesystem.Int
	env.InsertModuleValue("add", moduleFn("add", typesystem.Fn([]typesystem.Type{i, i}, i)))
	env.InsertModuleValue("double", moduleFn("double", typesystem.Fn([]typesystem.Type{i}, i)))
	env.InsertModuleValue("two_args", moduleFn("two_args", typesystem.Fn([]typesystem.Type{i, i}, i)))
	env.InsertModuleValue("make_adder", moduleFn("make_adder",
		typesystem.Fn([]typesystem.Type{i}, typesystem.Fn([]typesystem.Type{i}, i))))
	a := typesystem.TVar{Name: "a"}
	env.InsertModuleValue("identity", moduleFn("identity", typesystem.Fn([]typesystem.Type{a}, a)))
	return NewExprTyper(env, diagnostics.NewProblems())
}

func intLit(v string, s ast.SrcSpan) *syntax.Int { return &syntax.Int{Span: s, Value: v} }
func strLit(v string, s ast.SrcSpan) *syntax.String {
	return &syntax.String{Span: s, Value: v}
}
func variable(name string, s ast.SrcSpan) *syntax.Var { return &syntax.Var{Span: s, Name: name} }

func call(fun syntax.Expr, s ast.SrcSpan, args ...syntax.Expr) *syntax.Call {
	c := &syntax.Call{Span: s, Fun: fun}
	for _, a := range args {
		c.Arguments = append(c.Arguments, syntax.CallArg{Span: a.Location(), Value: a})
	}
	return c
}

func inferPipeline(t *testing.T, typer *ExprTyper, stages ...syntax.Expr) *ast.PipelineExpression {
	t.Helper()
	expr, err := InferPipeline(typer, stages)
	if err != nil {
		t.Fatalf("InferPipeline: %v", err)
	}
	pipe, ok := expr.(*ast.PipelineExpression)
	if !ok {
		t.Fatalf("expected *ast.PipelineExpression, got %T", expr)
	}
	return pipe
}

func expectNoProblems(t *testing.T, typer *ExprTyper) {
	t.Helper()
	for _, e := range typer.Problems.Errors() {
		t.Errorf("unexpected error: %v", e)
	}
	for _, w := range typer.Problems.Warnings() {
		t.Errorf("unexpected warning: %v", w)
	}
}

func expectResolved(t *testing.T, typer *ExprTyper, got typesystem.Type, want typesystem.Type) {
	t.Helper()
	resolved := typer.Environment.Resolve(got)
	if resolved.String() != want.String() {
		t.Errorf("type = %s, want %s", resolved, want)
	}
}

func expectPipeArg(t *testing.T, arg ast.CallArg) {
	t.Helper()
	if arg.Implicit != ast.ImplicitPipe {
		t.Errorf("argument is not marked as implicit pipe argument")
	}
	v, ok := arg.Value.(*ast.VarExpression)
	if !ok || v.Name != config.PipeVariable {
		t.Fatalf("expected reference to %s, got %#v", config.PipeVariable, arg.Value)
	}
	if lv, ok := v.Constructor.Variant.(*ast.LocalVariable); !ok || lv.Origin != ast.OriginGenerated {
		t.Errorf("pipe variable should be a generated local, got %#v", v.Constructor.Variant)
	}
}

func TestPipelineProducesOneAssignmentPerNonFinalStage(t *testing.T) {
	for length := 2; length <= 5; length++ {
		typer := newTestTyper()
		stages := []syntax.Expr{intLit("1", span(0, 1))}
		for i := 1; i < length; i++ {
			stages = append(stages, variable("double", span(uint32(i*10), uint32(i*10+6))))
		}

		if typer.Environment.HasLocal(config.PipeVariable) {
			t.Fatalf("pipe variable bound before the pipeline")
		}
		pipe := inferPipeline(t, typer, stages...)
		if typer.Environment.HasLocal(config.PipeVariable) {
			t.Errorf("length %d: pipe variable leaked into the enclosing scope", length)
		}

		if got := len(pipe.Assignments); got != length-1 {
			t.Errorf("length %d: %d assignments, want %d", length, got, length-1)
		}
		for _, a := range pipe.Assignments {
			if a.Name != config.PipeVariable {
				t.Errorf("assignment binds %q", a.Name)
			}
		}
		expectResolved(t, typer, pipe.Type(), typesystem.Int)
		expectNoProblems(t, typer)
	}
}

func TestPipelineCaptureThenBareStage(t *testing.T) {
	// 1 |> add(_, 2) |> double
	typer := newTestTyper()
	capture := syntax.Capture(span(5, 14), variable("add", span(5, 8)),
		[]syntax.CallArg{syntax.Hole(span(9, 10)), {Span: span(12, 13), Value: intLit("2", span(12, 13))}})
	pipe := inferPipeline(t, typer,
		intLit("1", span(0, 1)),
		capture,
		variable("double", span(18, 24)),
	)

	if len(pipe.Assignments) != 2 {
		t.Fatalf("got %d assignments, want 2", len(pipe.Assignments))
	}
	if _, ok := pipe.Assignments[0].Value.(*ast.IntLiteral); !ok {
		t.Errorf("first assignment should be the literal, got %T", pipe.Assignments[0].Value)
	}

	second, ok := pipe.Assignments[1].Value.(*ast.CallExpression)
	if !ok {
		t.Fatalf("second assignment should be a call, got %T", pipe.Assignments[1].Value)
	}
	fn, ok := second.Fun.(*ast.FnExpression)
	if !ok || fn.Kind != ast.CaptureFn {
		t.Fatalf("second stage should call the capture, got %#v", second.Fun)
	}
	if len(second.Args) != 1 {
		t.Fatalf("capture called with %d args", len(second.Args))
	}
	expectPipeArg(t, second.Args[0])
	expectResolved(t, typer, second.Type(), typesystem.Int)

	final, ok := pipe.Finally.(*ast.CallExpression)
	if !ok {
		t.Fatalf("final should be a call, got %T", pipe.Finally)
	}
	if v, ok := final.Fun.(*ast.VarExpression); !ok || v.Name != "double" {
		t.Errorf("final should call double, got %#v", final.Fun)
	}
	expectPipeArg(t, final.Args[0])
	expectResolved(t, typer, pipe.Type(), typesystem.Int)

	if errs := typer.Problems.Errors(); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
	warns := typer.Problems.Warnings()
	if len(warns) != 1 || warns[0].Kind != diagnostics.WarnRedundantPipeCapture || warns[0].Span != span(9, 10) {
		t.Errorf("expected one redundant capture warning at the hole, got %v", warns)
	}
}

func TestPipelineInsertsPipeAsFirstArgument(t *testing.T) {
	// 1 |> add(2)
	typer := newTestTyper()
	pipe := inferPipeline(t, typer,
		intLit("1", span(0, 1)),
		call(variable("add", span(5, 8)), span(5, 11), intLit("2", span(9, 10))),
	)
	final := pipe.Finally.(*ast.CallExpression)
	if v, ok := final.Fun.(*ast.VarExpression); !ok || v.Name != "add" {
		t.Fatalf("expected add to be called directly, got %#v", final.Fun)
	}
	if len(final.Args) != 2 {
		t.Fatalf("got %d args, want 2", len(final.Args))
	}
	expectPipeArg(t, final.Args[0])
	if lit, ok := final.Args[1].Value.(*ast.IntLiteral); !ok || lit.Value != "2" {
		t.Errorf("second argument should be the explicit 2, got %#v", final.Args[1].Value)
	}
	expectResolved(t, typer, pipe.Type(), typesystem.Int)
	expectNoProblems(t, typer)
}

func TestPipelineCallsResultOfCurriedCall(t *testing.T) {
	// 1 |> make_adder(2) is make_adder(2)(1)
	typer := newTestTyper()
	pipe := inferPipeline(t, typer,
		intLit("1", span(0, 1)),
		call(variable("make_adder", span(5, 15)), span(5, 18), intLit("2", span(16, 17))),
	)
	outer, ok := pipe.Finally.(*ast.CallExpression)
	if !ok {
		t.Fatalf("final should be a call, got %T", pipe.Finally)
	}
	if len(outer.Args) != 1 {
		t.Fatalf("outer call has %d args, want 1", len(outer.Args))
	}
	expectPipeArg(t, outer.Args[0])

	inner, ok := outer.Fun.(*ast.CallExpression)
	if !ok {
		t.Fatalf("outer callee should be the inner call, got %T", outer.Fun)
	}
	if v, ok := inner.Fun.(*ast.VarExpression); !ok || v.Name != "make_adder" {
		t.Errorf("inner call should be make_adder, got %#v", inner.Fun)
	}
	if len(inner.Args) != 1 || inner.Args[0].Implicit != ast.Explicit {
		t.Errorf("inner call should only carry the explicit argument, got %#v", inner.Args)
	}
	expectResolved(t, typer, inner.Type(), typesystem.Fn([]typesystem.Type{typesystem.Int}, typesystem.Int))
	expectResolved(t, typer, pipe.Type(), typesystem.Int)
	expectNoProblems(t, typer)
}

func TestPipelineClosureStage(t *testing.T) {
	// 1 |> fn(x) { x + 1 }
	typer := newTestTyper()
	closure := &syntax.Fn{
		Span:      span(5, 20),
		Kind:      ast.AnonymousFn,
		Arguments: []syntax.FnArg{{Span: span(8, 9), Name: "x"}},
		Body: []syntax.Statement{&syntax.ExpressionStatement{Expression: &syntax.BinOp{
			Span:  span(13, 18),
			Name:  ast.AddInt,
			Left:  variable("x", span(13, 14)),
			Right: intLit("1", span(17, 18)),
		}}},
	}
	pipe := inferPipeline(t, typer, intLit("1", span(0, 1)), closure)
	final := pipe.Finally.(*ast.CallExpression)
	if _, ok := final.Fun.(*ast.FnExpression); !ok {
		t.Fatalf("closure should be called directly, got %T", final.Fun)
	}
	expectPipeArg(t, final.Args[0])
	expectResolved(t, typer, pipe.Type(), typesystem.Int)
	if typer.Environment.HasLocal("x") {
		t.Errorf("closure parameter leaked")
	}
	expectNoProblems(t, typer)
}

func TestPipeTypeMismatchSituation(t *testing.T) {
	// "a" |> double
	typer := newTestTyper()
	pipe := inferPipeline(t, typer, strLit("a", span(0, 3)), variable("double", span(7, 13)))

	errs := typer.Problems.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
	err := errs[0]
	if err.Code != diagnostics.ErrA003 || err.Situation != diagnostics.SituationPipeTypeMismatch {
		t.Errorf("expected pipe type mismatch, got %v", err)
	}
	if err.Span != span(7, 13) {
		t.Errorf("error should point at the stage, got %v", err.Span)
	}
	// Reported as the callee expecting Int while the pipe gives a String
	if !strings.Contains(err.Message, "expected fn(Int) -> Int, got fn(String)") {
		t.Errorf("unexpected message %q", err.Message)
	}
	// The pipeline is still built
	if _, ok := pipe.Finally.(*ast.CallExpression); !ok {
		t.Errorf("final stage missing")
	}
}

func TestPipeArityMismatchIsFlippedError(t *testing.T) {
	tests := []struct {
		name  string
		stage syntax.Expr
		want  string
	}{
		{
			name:  "wrong arity",
			stage: variable("two_args", span(5, 13)),
			want:  "got fn(Int, Int) -> Int",
		},
		{
			name:  "not a function",
			stage: intLit("5", span(5, 6)),
			want:  "got Int",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typer := newTestTyper()
			inferPipeline(t, typer, intLit("1", span(0, 1)), tt.stage)
			errs := typer.Problems.Errors()
			if len(errs) != 1 {
				t.Fatalf("expected one error, got %v", errs)
			}
			err := errs[0]
			if err.Situation != diagnostics.SituationNone {
				t.Errorf("expected a generic mismatch, got situation %v", err.Situation)
			}
			if !strings.Contains(err.Message, "expected fn(Int) -> ") || !strings.Contains(err.Message, tt.want) {
				t.Errorf("unexpected message %q", err.Message)
			}
		})
	}
}

func TestPipelineContinuesAfterUnknownCallee(t *testing.T) {
	// 1 |> missing(2) |> double
	typer := newTestTyper()
	pipe := inferPipeline(t, typer,
		intLit("1", span(0, 1)),
		call(variable("missing", span(5, 12)), span(5, 15), intLit("2", span(13, 14))),
		variable("double", span(19, 25)),
	)

	errs := typer.Problems.Errors()
	if len(errs) != 1 || errs[0].Code != diagnostics.ErrA001 {
		t.Fatalf("expected a single unknown variable error, got %v", errs)
	}
	stage, ok := pipe.Assignments[1].Value.(*ast.CallExpression)
	if !ok {
		t.Fatalf("second assignment should be a call, got %T", pipe.Assignments[1].Value)
	}
	if _, ok := stage.Fun.(*ast.InvalidExpression); !ok {
		t.Errorf("unknown callee should be replaced by a placeholder, got %T", stage.Fun)
	}
	if len(stage.Args) != 2 {
		t.Errorf("pipe should be inserted before the explicit argument, got %d args", len(stage.Args))
	}
	if _, ok := pipe.Finally.(*ast.CallExpression); !ok {
		t.Errorf("later stages should still be typed")
	}
}

func TestPipelineUnknownBareStage(t *testing.T) {
	typer := newTestTyper()
	pipe := inferPipeline(t, typer, intLit("1", span(0, 1)), variable("nope", span(5, 9)))
	final := pipe.Finally.(*ast.CallExpression)
	if _, ok := final.Fun.(*ast.InvalidExpression); !ok {
		t.Errorf("expected placeholder callee, got %T", final.Fun)
	}
	if errs := typer.Problems.Errors(); len(errs) != 1 || errs[0].Code != diagnostics.ErrA001 {
		t.Errorf("expected only the unknown variable error, got %v", errs)
	}
}

func TestRedundantCaptureWarning(t *testing.T) {
	two := syntax.CallArg{Span: span(12, 13), Value: intLit("2", span(12, 13))}
	labelled := syntax.Hole(span(9, 10))
	labelled.Label = "x"

	tests := []struct {
		name string
		args []syntax.CallArg
		warn bool
	}{
		{"hole first", []syntax.CallArg{syntax.Hole(span(9, 10)), two}, true},
		{"hole second", []syntax.CallArg{two, syntax.Hole(span(9, 10))}, false},
		{"labelled hole", []syntax.CallArg{labelled, two}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typer := newTestTyper()
			capture := syntax.Capture(span(5, 14), variable("add", span(5, 8)), tt.args)
			inferPipeline(t, typer, intLit("1", span(0, 1)), capture)
			warned := false
			for _, w := range typer.Problems.Warnings() {
				if w.Kind == diagnostics.WarnRedundantPipeCapture {
					warned = true
				}
			}
			if warned != tt.warn {
				t.Errorf("warned = %v, want %v", warned, tt.warn)
			}
		})
	}
}

func TestUnreachableStageAfterPanic(t *testing.T) {
	typer := newTestTyper()
	inferPipeline(t, typer, &syntax.Panic{Span: span(0, 5)}, variable("double", span(9, 15)))
	warns := typer.Problems.Warnings()
	if len(warns) != 1 || warns[0].Kind != diagnostics.WarnUnreachableCode || warns[0].Span != span(9, 15) {
		t.Errorf("expected an unreachable code warning on the second stage, got %v", warns)
	}
}

func TestPipelineRestoresShadowedPipeVariable(t *testing.T) {
	typer := newTestTyper()
	env := typer.Environment
	env.InsertLocalVariable(config.PipeVariable, span(0, 0), ast.OriginGenerated, typesystem.String)

	inferPipeline(t, typer, intLit("1", span(0, 1)), variable("double", span(5, 11)))

	vc, ok := env.GetVariable(config.PipeVariable)
	if !ok {
		t.Fatalf("outer pipe variable lost")
	}
	if vc.Type.String() != typesystem.String.String() {
		t.Errorf("outer pipe variable now has type %s", vc.Type)
	}
}

func TestPipelineWithTooFewStagesFails(t *testing.T) {
	typer := newTestTyper()
	before := typer.Environment.Scope()
	if _, err := InferPipeline(typer, []syntax.Expr{intLit("1", span(0, 1))}); err == nil {
		t.Fatal("expected an error for a single stage pipeline")
	}
	if len(typer.Environment.Scope()) != len(before) {
		t.Errorf("scope changed")
	}
}

func TestNestedPipelineInsideClosure(t *testing.T) {
	// 1 |> fn(x) { x |> double }
	typer := newTestTyper()
	inner := &syntax.Pipeline{
		Span:        span(13, 25),
		Expressions: []syntax.Expr{variable("x", span(13, 14)), variable("double", span(18, 24))},
	}
	closure := &syntax.Fn{
		Span:      span(5, 26),
		Arguments: []syntax.FnArg{{Span: span(8, 9), Name: "x"}},
		Body:      []syntax.Statement{&syntax.ExpressionStatement{Expression: inner}},
	}
	pipe := inferPipeline(t, typer, intLit("1", span(0, 1)), closure)
	expectResolved(t, typer, pipe.Type(), typesystem.Int)
	expectNoProblems(t, typer)
	if typer.Environment.HasLocal(config.PipeVariable) {
		t.Errorf("pipe variable leaked")
	}
}
