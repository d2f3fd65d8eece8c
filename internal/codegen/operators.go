package codegen

import (
	"github.com/funvibe/schemec/internal/ast"
	"github.com/funvibe/schemec/internal/sexpr"
)

var binOpPrimitives = map[ast.BinOp]string{
	ast.And:          "and",
	ast.Or:           "or",
	ast.Eq:           "equal?",
	ast.LtInt:        "<",
	ast.LtEqInt:      "<=",
	ast.GtInt:        ">",
	ast.GtEqInt:      ">=",
	ast.LtFloat:      "fl<",
	ast.LtEqFloat:    "fl<=",
	ast.GtFloat:      "fl>",
	ast.GtEqFloat:    "fl>=",
	ast.AddInt:       "+",
	ast.SubInt:       "-",
	ast.MultInt:      "*",
	ast.DivInt:       "quotient",
	ast.RemainderInt: "remainder",
	ast.AddFloat:     "fl+",
	ast.SubFloat:     "fl-",
	ast.MultFloat:    "fl*",
	ast.DivFloat:     "fl/",
	ast.Concatenate:  "string-append",
}

func binOp(op ast.BinOp, left, right sexpr.Node) (sexpr.Node, error) {
	if op == ast.NotEq {
		return sexpr.Call("not", sexpr.Call("equal?", left, right)), nil
	}
	prim, ok := binOpPrimitives[op]
	if !ok {
		return nil, invariantf("unknown operator %v", op)
	}
	return sexpr.Call(prim, left, right), nil
}
