// Package ast defines the fully typed tree produced by inference and
// consumed by the code generator.
package ast

import (
	"github.com/funvibe/schemec/internal/typesystem"
)

// SrcSpan is a byte range in the source file.
type SrcSpan struct {
	Start uint32
	End   uint32
}

// Publicity controls whether a definition is exported from its module.
type Publicity int

const (
	Private Publicity = iota
	Public
)

func (p Publicity) IsPublic() bool { return p == Public }

// Module is the root node of a typed module.
type Module struct {
	Name        string // Slash separated path, e.g. "app/user"
	Definitions []Definition
}

// Definition is a top level item of a module.
type Definition interface {
	definitionNode()
	Location() SrcSpan
}

// ExternalBinding names a function implemented by the target runtime.
type ExternalBinding struct {
	Module string // Library providing Name, empty for host builtins
	Name   string
}

// Function is a named module function.
type Function struct {
	Span       SrcSpan
	Name       string
	Publicity  Publicity
	Arguments  []Arg
	Body       []Statement
	ReturnType typesystem.Type
	External   *ExternalBinding // When set the body is ignored
}

func (f *Function) definitionNode()   {}
func (f *Function) Location() SrcSpan { return f.Span }

// Import records a source level import. It has no runtime effect: module
// dependencies are discovered from qualified references during generation.
type Import struct {
	Span   SrcSpan
	Module string
	As     string
}

func (i *Import) definitionNode()   {}
func (i *Import) Location() SrcSpan { return i.Span }

// ModuleConstant is a named compile-time constant.
type ModuleConstant struct {
	Span      SrcSpan
	Name      string
	Publicity Publicity
	Value     Constant
}

func (c *ModuleConstant) definitionNode()   {}
func (c *ModuleConstant) Location() SrcSpan { return c.Span }

// ArgNameKind distinguishes how a parameter is named.
type ArgNameKind int

const (
	ArgDiscard ArgNameKind = iota
	ArgLabelledDiscard
	ArgNamed
	ArgNamedLabelled
)

// ArgNames holds the binding name and optional label of a parameter.
type ArgNames struct {
	Kind  ArgNameKind
	Name  string
	Label string
}

// IsDiscard reports whether the parameter binds no variable.
func (n ArgNames) IsDiscard() bool {
	return n.Kind == ArgDiscard || n.Kind == ArgLabelledDiscard
}

// Arg is a function or closure parameter.
type Arg struct {
	Span  SrcSpan
	Names ArgNames
	Type  typesystem.Type
}

// ImplicitCallArgOrigin records why the compiler inserted a call argument.
type ImplicitCallArgOrigin int

const (
	Explicit ImplicitCallArgOrigin = iota
	ImplicitPipe
)

// CallArg is one argument of a typed call.
type CallArg struct {
	Label    string
	Span     SrcSpan
	Value    Expr
	Implicit ImplicitCallArgOrigin
}

// Statement is one element of a function body or block.
type Statement interface {
	statementNode()
	Location() SrcSpan
}

// ExpressionStatement evaluates an expression, possibly discarding its value.
type ExpressionStatement struct {
	Expression Expr
}

func (s *ExpressionStatement) statementNode()    {}
func (s *ExpressionStatement) Location() SrcSpan { return s.Expression.Location() }

// AssignmentKind distinguishes `let` from `let assert`.
type AssignmentKind int

const (
	Let AssignmentKind = iota
	LetAssert
)

// Assignment binds the names of Pattern to Value for the rest of the block.
type Assignment struct {
	Span    SrcSpan
	Kind    AssignmentKind
	Pattern Pattern
	Value   Expr
	Message Expr // Optional `let assert ... as message`
}

func (s *Assignment) statementNode()    {}
func (s *Assignment) Location() SrcSpan { return s.Span }

// Use is desugared by the front end and never reaches code generation.
type Use struct {
	Span SrcSpan
}

func (s *Use) statementNode()    {}
func (s *Use) Location() SrcSpan { return s.Span }
