package analyzer

import (
	"github.com/funvibe/schemec/internal/ast"
	"github.com/funvibe/schemec/internal/diagnostics"
	"github.com/funvibe/schemec/internal/typesystem"
)

// convertUnifyError turns a unification failure into a user facing error
// located at span.
func convertUnifyError(err *typesystem.UnifyError, span ast.SrcSpan) *diagnostics.DiagnosticError {
	if err.Kind == typesystem.RecursiveType {
		return diagnostics.NewErrorf(diagnostics.ErrA005, span,
			"recursive type: %s occurs in %s", err.Expected, err.Given)
	}
	return diagnostics.NewErrorf(diagnostics.ErrA003, span,
		"type mismatch: expected %s, got %s", err.Expected, err.Given)
}

// reportError records err in the problem sink.
func (t *ExprTyper) reportError(err error) {
	if de, ok := err.(*diagnostics.DiagnosticError); ok {
		t.Problems.Error(de)
		return
	}
	t.Problems.Error(diagnostics.NewError(diagnostics.ErrI001, ast.SrcSpan{}, err.Error()))
}
