package ast

import (
	"github.com/funvibe/schemec/internal/typesystem"
)

// RecordConstructorArg is one field of a custom type variant.
type RecordConstructorArg struct {
	Label string // Empty for positional fields
	Type  typesystem.Type
}

// RecordConstructor is one variant of a custom type.
type RecordConstructor struct {
	Span      SrcSpan
	Name      string
	Arguments []RecordConstructorArg
}

// Arity is the number of fields the variant carries.
func (c *RecordConstructor) Arity() int { return len(c.Arguments) }

// CustomType is a declared sum type.
type CustomType struct {
	Span         SrcSpan
	Name         string
	Publicity    Publicity
	Opaque       bool // Constructors are not exported
	Parameters   []string
	Constructors []RecordConstructor
}

func (t *CustomType) definitionNode()   {}
func (t *CustomType) Location() SrcSpan { return t.Span }

// TypeAlias has no runtime representation.
type TypeAlias struct {
	Span      SrcSpan
	Name      string
	Publicity Publicity
	Type      typesystem.Type
}

func (t *TypeAlias) definitionNode()   {}
func (t *TypeAlias) Location() SrcSpan { return t.Span }

// Constant is a compile-time value: the right hand side of a module
// constant, a local constant reference, or a guard literal.
type Constant interface {
	constantNode()
}

type ConstInt struct {
	Value string
}

type ConstFloat struct {
	Value string
}

type ConstString struct {
	Value string
}

type ConstTuple struct {
	Elements []Constant
}

type ConstList struct {
	Elements []Constant
}

// ConstRecord builds a custom type value; Arguments are positional.
type ConstRecord struct {
	Module    string
	Name      string
	Arguments []Constant
}

// ConstVar references another constant, a function or a constructor.
type ConstVar struct {
	Module      string
	Name        string
	Constructor ValueConstructor
}

// ConstStringConcat is `"a" <> "b"` in constant position.
type ConstStringConcat struct {
	Left  Constant
	Right Constant
}

// ConstInvalid stands in for a constant that failed analysis.
type ConstInvalid struct{}

func (*ConstInt) constantNode()          {}
func (*ConstFloat) constantNode()        {}
func (*ConstString) constantNode()       {}
func (*ConstTuple) constantNode()        {}
func (*ConstList) constantNode()         {}
func (*ConstRecord) constantNode()       {}
func (*ConstVar) constantNode()          {}
func (*ConstStringConcat) constantNode() {}
func (*ConstInvalid) constantNode()      {}
