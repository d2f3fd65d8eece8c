// Package syntax is the untyped expression tree handed to inference by
// the parser. Only the forms the expression typer understands are modelled.
package syntax

import (
	"github.com/funvibe/schemec/internal/ast"
	"github.com/funvibe/schemec/internal/config"
	"github.com/funvibe/schemec/internal/typesystem"
)

type Expr interface {
	untypedNode()
	Location() ast.SrcSpan
}

type Int struct {
	Span  ast.SrcSpan
	Value string
}

type Float struct {
	Span  ast.SrcSpan
	Value string
}

type String struct {
	Span  ast.SrcSpan
	Value string
}

type Var struct {
	Span ast.SrcSpan
	Name string
}

// FnArg is a closure parameter. An empty Name or one starting with `_`
// binds nothing. Annotation is optional.
type FnArg struct {
	Span       ast.SrcSpan
	Name       string
	Annotation typesystem.Type
}

// IsDiscard reports whether the parameter binds no variable.
func (a FnArg) IsDiscard() bool {
	return a.Name == "" || (a.Name[0] == '_' && a.Name != config.CaptureVariable)
}

// Fn is an anonymous function or a `f(_, x)` capture. A capture has a
// single parameter named config.CaptureVariable and a body made of one
// call.
type Fn struct {
	Span             ast.SrcSpan
	Kind             ast.FnKind
	Arguments        []FnArg
	Body             []Statement
	ReturnAnnotation typesystem.Type
}

type CallArg struct {
	Label    string
	Span     ast.SrcSpan
	Value    Expr
	Implicit ast.ImplicitCallArgOrigin
}

// IsCaptureHole reports whether the argument is the `_` of a capture.
func (a CallArg) IsCaptureHole() bool {
	v, ok := a.Value.(*Var)
	return ok && v.Name == config.CaptureVariable
}

type Call struct {
	Span      ast.SrcSpan
	Fun       Expr
	Arguments []CallArg
}

type Tuple struct {
	Span     ast.SrcSpan
	Elements []Expr
}

type List struct {
	Span     ast.SrcSpan
	Elements []Expr
	Tail     Expr
}

type BinOp struct {
	Span  ast.SrcSpan
	Name  ast.BinOp
	Left  Expr
	Right Expr
}

type Block struct {
	Span       ast.SrcSpan
	Statements []Statement
}

// Pipeline is `a |> b |> c`; Expressions holds at least two stages.
type Pipeline struct {
	Span        ast.SrcSpan
	Expressions []Expr
}

type Todo struct {
	Span    ast.SrcSpan
	Message Expr
}

type Panic struct {
	Span    ast.SrcSpan
	Message Expr
}

type NegateInt struct {
	Span  ast.SrcSpan
	Value Expr
}

type NegateBool struct {
	Span  ast.SrcSpan
	Value Expr
}

func (*Int) untypedNode()        {}
func (*Float) untypedNode()      {}
func (*String) untypedNode()     {}
func (*Var) untypedNode()        {}
func (*Fn) untypedNode()         {}
func (*Call) untypedNode()       {}
func (*Tuple) untypedNode()      {}
func (*List) untypedNode()       {}
func (*BinOp) untypedNode()      {}
func (*Block) untypedNode()      {}
func (*Pipeline) untypedNode()   {}
func (*Todo) untypedNode()       {}
func (*Panic) untypedNode()      {}
func (*NegateInt) untypedNode()  {}
func (*NegateBool) untypedNode() {}

func (e *Int) Location() ast.SrcSpan        { return e.Span }
func (e *Float) Location() ast.SrcSpan      { return e.Span }
func (e *String) Location() ast.SrcSpan     { return e.Span }
func (e *Var) Location() ast.SrcSpan        { return e.Span }
func (e *Fn) Location() ast.SrcSpan         { return e.Span }
func (e *Call) Location() ast.SrcSpan       { return e.Span }
func (e *Tuple) Location() ast.SrcSpan      { return e.Span }
func (e *List) Location() ast.SrcSpan       { return e.Span }
func (e *BinOp) Location() ast.SrcSpan      { return e.Span }
func (e *Block) Location() ast.SrcSpan      { return e.Span }
func (e *Pipeline) Location() ast.SrcSpan   { return e.Span }
func (e *Todo) Location() ast.SrcSpan       { return e.Span }
func (e *Panic) Location() ast.SrcSpan      { return e.Span }
func (e *NegateInt) Location() ast.SrcSpan  { return e.Span }
func (e *NegateBool) Location() ast.SrcSpan { return e.Span }

type Statement interface {
	statementNode()
	Location() ast.SrcSpan
}

type ExpressionStatement struct {
	Expression Expr
}

// Assignment is `let name = value`.
type Assignment struct {
	Span  ast.SrcSpan
	Name  string
	Value Expr
}

func (*ExpressionStatement) statementNode() {}
func (*Assignment) statementNode()          {}

func (s *ExpressionStatement) Location() ast.SrcSpan { return s.Expression.Location() }
func (s *Assignment) Location() ast.SrcSpan          { return s.Span }

// Capture builds the closure the parser produces for `fun(args)` where
// one argument is `_`.
func Capture(span ast.SrcSpan, fun Expr, args []CallArg) *Fn {
	return &Fn{
		Span:      span,
		Kind:      ast.CaptureFn,
		Arguments: []FnArg{{Span: span, Name: config.CaptureVariable}},
		Body: []Statement{&ExpressionStatement{
			Expression: &Call{Span: span, Fun: fun, Arguments: args},
		}},
	}
}

// Hole is the `_` argument of a capture.
func Hole(span ast.SrcSpan) CallArg {
	return CallArg{Span: span, Value: &Var{Span: span, Name: config.CaptureVariable}}
}
