package typesystem

import "fmt"

// UnifyErrorKind classifies a unification failure.
type UnifyErrorKind int

const (
	CouldNotUnify UnifyErrorKind = iota
	RecursiveType
)

// UnifyError is returned by Unify. Expected and Given follow the argument
// order of the Unify call that failed.
type UnifyError struct {
	Kind     UnifyErrorKind
	Expected Type
	Given    Type
}

func (e *UnifyError) Error() string {
	if e.Kind == RecursiveType {
		return fmt.Sprintf("recursive type: %s occurs in %s", e.Expected, e.Given)
	}
	return fmt.Sprintf("cannot unify %s with %s", e.Expected, e.Given)
}

// Flip swaps the expected and given sides of a unification error, used when
// the caller passed the operands in the opposite order to how the mismatch
// should be described to the user.
func (e *UnifyError) Flip() *UnifyError {
	if e.Kind != CouldNotUnify {
		return e
	}
	return &UnifyError{Kind: e.Kind, Expected: e.Given, Given: e.Expected}
}
