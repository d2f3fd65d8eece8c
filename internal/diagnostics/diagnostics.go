// Package diagnostics holds the user-facing errors and warnings produced
// while typing a module.
package diagnostics

import (
	"fmt"
	"sort"
	"sync"

	"github.com/funvibe/schemec/internal/ast"
)

type ErrorCode string

// Analyzer errors
const (
	ErrA001 ErrorCode = "A001" // Unknown variable
	ErrA002 ErrorCode = "A002" // Wrong number of arguments
	ErrA003 ErrorCode = "A003" // Type mismatch
	ErrA004 ErrorCode = "A004" // Value is not a function
	ErrA005 ErrorCode = "A005" // Recursive type
	ErrA006 ErrorCode = "A006" // Unsupported expression
)

// Internal errors
const (
	ErrI001 ErrorCode = "I001" // Compiler invariant violated
)

// Situation narrows down where a type mismatch happened so it can be
// explained better than a bare expected/given pair.
type Situation int

const (
	SituationNone Situation = iota
	// The value on the left of |> does not fit the first parameter of
	// the function on the right.
	SituationPipeTypeMismatch
)

func (s Situation) String() string {
	switch s {
	case SituationPipeTypeMismatch:
		return "pipe type mismatch"
	}
	return ""
}

// DiagnosticError is a single error attached to a source span.
type DiagnosticError struct {
	Code      ErrorCode
	File      string
	Span      ast.SrcSpan
	Message   string
	Situation Situation
}

func (e *DiagnosticError) Error() string {
	loc := fmt.Sprintf("%d:%d", e.Span.Start, e.Span.End)
	if e.File != "" {
		loc = e.File + ":" + loc
	}
	if e.Situation != SituationNone {
		return fmt.Sprintf("error[%s] %s: %s (%s)", e.Code, loc, e.Message, e.Situation)
	}
	return fmt.Sprintf("error[%s] %s: %s", e.Code, loc, e.Message)
}

func NewError(code ErrorCode, span ast.SrcSpan, msg string) *DiagnosticError {
	return &DiagnosticError{Code: code, Span: span, Message: msg}
}

func NewErrorf(code ErrorCode, span ast.SrcSpan, format string, args ...interface{}) *DiagnosticError {
	return NewError(code, span, fmt.Sprintf(format, args...))
}

// WarningKind identifies a lint.
type WarningKind int

const (
	// WarnRedundantPipeCapture: `x |> f(_, y)` where `x |> f(y)` means
	// the same thing.
	WarnRedundantPipeCapture WarningKind = iota + 1
	// WarnUnreachableCode: code following an expression that always panics.
	WarnUnreachableCode
)

func (k WarningKind) String() string {
	switch k {
	case WarnRedundantPipeCapture:
		return "redundant function capture in pipeline"
	case WarnUnreachableCode:
		return "unreachable code"
	}
	return "warning"
}

type Warning struct {
	Kind WarningKind
	File string
	Span ast.SrcSpan
}

func (w Warning) String() string {
	if w.File != "" {
		return fmt.Sprintf("warning %s:%d:%d: %s", w.File, w.Span.Start, w.Span.End, w.Kind)
	}
	return fmt.Sprintf("warning %d:%d: %s", w.Span.Start, w.Span.End, w.Kind)
}

// Problems collects the errors and warnings of one module. It is safe for
// concurrent use.
type Problems struct {
	mu       sync.Mutex
	errors   []*DiagnosticError
	warnings []Warning
}

func NewProblems() *Problems {
	return &Problems{}
}

func (p *Problems) Error(err *DiagnosticError) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors = append(p.errors, err)
}

func (p *Problems) Warning(w Warning) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.warnings = append(p.warnings, w)
}

func (p *Problems) HasErrors() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.errors) > 0
}

// Errors returns a copy of the collected errors ordered by position.
func (p *Problems) Errors() []*DiagnosticError {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*DiagnosticError, len(p.errors))
	copy(out, p.errors)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Span.Start < out[j].Span.Start
	})
	return out
}

// Warnings returns a copy of the collected warnings ordered by position.
func (p *Problems) Warnings() []Warning {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Warning, len(p.warnings))
	copy(out, p.warnings)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Span.Start < out[j].Span.Start
	})
	return out
}
