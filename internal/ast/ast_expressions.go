package ast

import (
	"github.com/funvibe/schemec/internal/typesystem"
)

// Expr is a typed expression. The set of implementations is closed: every
// consumer switches over all of them.
type Expr interface {
	expressionNode()
	Location() SrcSpan
	Type() typesystem.Type
}

// IntLiteral keeps the source spelling, which may use `_`, 0x, 0o or 0b.
type IntLiteral struct {
	Span  SrcSpan
	Value string
}

func (e *IntLiteral) expressionNode()       {}
func (e *IntLiteral) Location() SrcSpan     { return e.Span }
func (e *IntLiteral) Type() typesystem.Type { return typesystem.Int }

// FloatLiteral keeps the source spelling.
type FloatLiteral struct {
	Span  SrcSpan
	Value string
}

func (e *FloatLiteral) expressionNode()       {}
func (e *FloatLiteral) Location() SrcSpan     { return e.Span }
func (e *FloatLiteral) Type() typesystem.Type { return typesystem.Float }

// StringLiteral keeps the source text between the quotes, escapes included.
type StringLiteral struct {
	Span  SrcSpan
	Value string
}

func (e *StringLiteral) expressionNode()       {}
func (e *StringLiteral) Location() SrcSpan     { return e.Span }
func (e *StringLiteral) Type() typesystem.Type { return typesystem.String }

// BlockExpression is a nested statement list with its own scope.
type BlockExpression struct {
	Span       SrcSpan
	Statements []Statement
}

func (e *BlockExpression) expressionNode()   {}
func (e *BlockExpression) Location() SrcSpan { return e.Span }
func (e *BlockExpression) Type() typesystem.Type {
	if len(e.Statements) == 0 {
		return typesystem.Nil
	}
	switch last := e.Statements[len(e.Statements)-1].(type) {
	case *ExpressionStatement:
		return last.Expression.Type()
	case *Assignment:
		return last.Value.Type()
	}
	return typesystem.Nil
}

// PipelineAssignment binds one intermediate pipeline value.
type PipelineAssignment struct {
	Span  SrcSpan
	Name  string
	Value Expr
}

// PipelineExpression is the desugared form of `a |> f |> g`.
type PipelineExpression struct {
	Span        SrcSpan
	Assignments []PipelineAssignment
	Finally     Expr
}

func (e *PipelineExpression) expressionNode()       {}
func (e *PipelineExpression) Location() SrcSpan     { return e.Span }
func (e *PipelineExpression) Type() typesystem.Type { return e.Finally.Type() }

// VarExpression references a value through its resolved constructor.
type VarExpression struct {
	Span        SrcSpan
	Name        string
	Constructor ValueConstructor
}

func (e *VarExpression) expressionNode()       {}
func (e *VarExpression) Location() SrcSpan     { return e.Span }
func (e *VarExpression) Type() typesystem.Type { return e.Constructor.Type }

// FnKind distinguishes anonymous functions from `f(_, x)` captures.
type FnKind int

const (
	AnonymousFn FnKind = iota
	CaptureFn
)

// FnExpression is a closure.
type FnExpression struct {
	Span       SrcSpan
	Kind       FnKind
	Typ        typesystem.Type
	Arguments  []Arg
	Body       []Statement
	ReturnType typesystem.Type
}

func (e *FnExpression) expressionNode()       {}
func (e *FnExpression) Location() SrcSpan     { return e.Span }
func (e *FnExpression) Type() typesystem.Type { return e.Typ }

// ListExpression is `[a, b, ..tail]`; Tail is nil for a proper list literal.
type ListExpression struct {
	Span     SrcSpan
	Typ      typesystem.Type
	Elements []Expr
	Tail     Expr
}

func (e *ListExpression) expressionNode()       {}
func (e *ListExpression) Location() SrcSpan     { return e.Span }
func (e *ListExpression) Type() typesystem.Type { return e.Typ }

// CallExpression applies Fun to Args.
type CallExpression struct {
	Span SrcSpan
	Typ  typesystem.Type
	Fun  Expr
	Args []CallArg
}

func (e *CallExpression) expressionNode()       {}
func (e *CallExpression) Location() SrcSpan     { return e.Span }
func (e *CallExpression) Type() typesystem.Type { return e.Typ }

// BinOpExpression applies a binary operator.
type BinOpExpression struct {
	Span  SrcSpan
	Typ   typesystem.Type
	Name  BinOp
	Left  Expr
	Right Expr
}

func (e *BinOpExpression) expressionNode()       {}
func (e *BinOpExpression) Location() SrcSpan     { return e.Span }
func (e *BinOpExpression) Type() typesystem.Type { return e.Typ }

// CaseExpression matches one or more subjects against clauses in order.
type CaseExpression struct {
	Span     SrcSpan
	Typ      typesystem.Type
	Subjects []Expr
	Clauses  []Clause
}

func (e *CaseExpression) expressionNode()       {}
func (e *CaseExpression) Location() SrcSpan     { return e.Span }
func (e *CaseExpression) Type() typesystem.Type { return e.Typ }

// RecordAccess reads a labelled field by its positional index.
type RecordAccess struct {
	Span   SrcSpan
	Typ    typesystem.Type
	Label  string
	Index  int
	Record Expr
}

func (e *RecordAccess) expressionNode()       {}
func (e *RecordAccess) Location() SrcSpan     { return e.Span }
func (e *RecordAccess) Type() typesystem.Type { return e.Typ }

// ModuleSelect is `module.label`.
type ModuleSelect struct {
	Span        SrcSpan
	Typ         typesystem.Type
	Label       string
	ModuleName  string
	ModuleAlias string
	Constructor ValueConstructorVariant
}

func (e *ModuleSelect) expressionNode()       {}
func (e *ModuleSelect) Location() SrcSpan     { return e.Span }
func (e *ModuleSelect) Type() typesystem.Type { return e.Typ }

// TupleExpression is `#(a, b, ...)`.
type TupleExpression struct {
	Span     SrcSpan
	Typ      typesystem.Type
	Elements []Expr
}

func (e *TupleExpression) expressionNode()       {}
func (e *TupleExpression) Location() SrcSpan     { return e.Span }
func (e *TupleExpression) Type() typesystem.Type { return e.Typ }

// TupleIndex is `tuple.0`.
type TupleIndex struct {
	Span  SrcSpan
	Typ   typesystem.Type
	Index int
	Tuple Expr
}

func (e *TupleIndex) expressionNode()       {}
func (e *TupleIndex) Location() SrcSpan     { return e.Span }
func (e *TupleIndex) Type() typesystem.Type { return e.Typ }

// TodoExpression always fails at runtime; Message is optional.
type TodoExpression struct {
	Span    SrcSpan
	Typ     typesystem.Type
	Message Expr
}

func (e *TodoExpression) expressionNode()       {}
func (e *TodoExpression) Location() SrcSpan     { return e.Span }
func (e *TodoExpression) Type() typesystem.Type { return e.Typ }

// PanicExpression always fails at runtime; Message is optional.
type PanicExpression struct {
	Span    SrcSpan
	Typ     typesystem.Type
	Message Expr
}

func (e *PanicExpression) expressionNode()       {}
func (e *PanicExpression) Location() SrcSpan     { return e.Span }
func (e *PanicExpression) Type() typesystem.Type { return e.Typ }

// RecordUpdateArg overrides one field of the spread record.
type RecordUpdateArg struct {
	Span  SrcSpan
	Label string
	Index int
	Value Expr
}

// RecordUpdate is `Ctor(..base, field: value)`.
type RecordUpdate struct {
	Span   SrcSpan
	Typ    typesystem.Type
	Spread Expr
	Args   []RecordUpdateArg
}

func (e *RecordUpdate) expressionNode()       {}
func (e *RecordUpdate) Location() SrcSpan     { return e.Span }
func (e *RecordUpdate) Type() typesystem.Type { return e.Typ }

// NegateBool is `!value`.
type NegateBool struct {
	Span  SrcSpan
	Value Expr
}

func (e *NegateBool) expressionNode()       {}
func (e *NegateBool) Location() SrcSpan     { return e.Span }
func (e *NegateBool) Type() typesystem.Type { return typesystem.Bool }

// NegateInt is `-value`.
type NegateInt struct {
	Span  SrcSpan
	Value Expr
}

func (e *NegateInt) expressionNode()       {}
func (e *NegateInt) Location() SrcSpan     { return e.Span }
func (e *NegateInt) Type() typesystem.Type { return typesystem.Int }

// InvalidExpression stands in for an expression that failed inference.
type InvalidExpression struct {
	Span SrcSpan
	Typ  typesystem.Type
}

func (e *InvalidExpression) expressionNode()       {}
func (e *InvalidExpression) Location() SrcSpan     { return e.Span }
func (e *InvalidExpression) Type() typesystem.Type { return e.Typ }

// BinOp is a binary operator tag. Int and float variants of the same
// spelling are distinct tags.
type BinOp int

const (
	And BinOp = iota
	Or
	Eq
	NotEq
	LtInt
	LtEqInt
	LtFloat
	LtEqFloat
	GtEqInt
	GtInt
	GtEqFloat
	GtFloat
	AddInt
	AddFloat
	SubInt
	SubFloat
	MultInt
	MultFloat
	DivInt
	DivFloat
	RemainderInt
	Concatenate
)

var binOpNames = [...]string{
	And:          "&&",
	Or:           "||",
	Eq:           "==",
	NotEq:        "!=",
	LtInt:        "<",
	LtEqInt:      "<=",
	LtFloat:      "<.",
	LtEqFloat:    "<=.",
	GtEqInt:      ">=",
	GtInt:        ">",
	GtEqFloat:    ">=.",
	GtFloat:      ">.",
	AddInt:       "+",
	AddFloat:     "+.",
	SubInt:       "-",
	SubFloat:     "-.",
	MultInt:      "*",
	MultFloat:    "*.",
	DivInt:       "/",
	DivFloat:     "/.",
	RemainderInt: "%",
	Concatenate:  "<>",
}

func (op BinOp) String() string {
	if int(op) < len(binOpNames) {
		return binOpNames[op]
	}
	return "?"
}

// BinOpFromString looks up an operator by its source spelling.
func BinOpFromString(s string) (BinOp, bool) {
	for i, name := range binOpNames {
		if name == s {
			return BinOp(i), true
		}
	}
	return 0, false
}

// ValueConstructor is what a variable name resolves to.
type ValueConstructor struct {
	Publicity Publicity
	Type      typesystem.Type
	Variant   ValueConstructorVariant
}

// ValueConstructorVariant says how a name is represented at runtime.
type ValueConstructorVariant interface {
	variantNode()
}

// VariableOrigin distinguishes user variables from compiler generated ones.
type VariableOrigin int

const (
	OriginSource VariableOrigin = iota
	OriginGenerated
)

// LocalVariable is a function parameter, let binding or pattern variable.
type LocalVariable struct {
	Span   SrcSpan
	Origin VariableOrigin
}

// ModuleConstantVariant is a constant defined at module level.
type ModuleConstantVariant struct {
	Module  string
	Literal Constant
}

// LocalConstant is a constant inlined at its use site.
type LocalConstant struct {
	Literal Constant
}

// ModuleFn is a module level function.
type ModuleFn struct {
	Module   string
	Name     string
	Arity    int
	External *ExternalBinding
}

// Record is a custom type constructor.
type Record struct {
	Module            string
	Name              string
	Arity             int
	ConstructorsCount int
}

func (*LocalVariable) variantNode()         {}
func (*ModuleConstantVariant) variantNode() {}
func (*LocalConstant) variantNode()         {}
func (*ModuleFn) variantNode()              {}
func (*Record) variantNode()                {}
