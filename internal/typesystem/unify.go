package typesystem

import (
	"reflect"
)

// Unify attempts to find a substitution that makes t1 and t2 equal.
// t1 is the expected type and t2 the given one; a failure is always
// reported as a *UnifyError carrying the outermost pair that disagreed.
func Unify(t1, t2 Type) (Subst, error) {
	s, err := unifyInternal(t1, t2)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func unifyInternal(t1, t2 Type) (Subst, *UnifyError) {
	if reflect.DeepEqual(t1, t2) {
		return Subst{}, nil
	}

	switch a := t1.(type) {
	case TVar:
		return Bind(a, t2)

	case TCon:
		switch b := t2.(type) {
		case TVar:
			return Bind(b, a)
		case TCon:
			if a.Name == b.Name && a.Module == b.Module {
				return Subst{}, nil
			}
		}
		return nil, couldNotUnify(t1, t2)

	case TApp:
		switch b := t2.(type) {
		case TVar:
			return Bind(b, a)
		case TApp:
			if len(a.Args) != len(b.Args) {
				return nil, couldNotUnify(t1, t2)
			}
			s, err := unifyInternal(a.Constructor, b.Constructor)
			if err != nil {
				return nil, couldNotUnify(t1, t2)
			}
			for i := range a.Args {
				s2, err := unifyInternal(a.Args[i].Apply(s), b.Args[i].Apply(s))
				if err != nil {
					return nil, couldNotUnify(t1, t2)
				}
				s = s2.Compose(s)
			}
			return s, nil
		}
		return nil, couldNotUnify(t1, t2)

	case TTuple:
		switch b := t2.(type) {
		case TVar:
			return Bind(b, a)
		case TTuple:
			if len(a.Elements) != len(b.Elements) {
				return nil, couldNotUnify(t1, t2)
			}
			s := Subst{}
			for i := range a.Elements {
				s2, err := unifyInternal(a.Elements[i].Apply(s), b.Elements[i].Apply(s))
				if err != nil {
					return nil, couldNotUnify(t1, t2)
				}
				s = s2.Compose(s)
			}
			return s, nil
		}
		return nil, couldNotUnify(t1, t2)

	case TFunc:
		switch b := t2.(type) {
		case TVar:
			return Bind(b, a)
		case TFunc:
			if len(a.Params) != len(b.Params) {
				return nil, couldNotUnify(t1, t2)
			}
			s := Subst{}
			for i := range a.Params {
				s2, err := unifyInternal(a.Params[i].Apply(s), b.Params[i].Apply(s))
				if err != nil {
					return nil, couldNotUnify(t1, t2)
				}
				s = s2.Compose(s)
			}
			s2, err := unifyInternal(a.ReturnType.Apply(s), b.ReturnType.Apply(s))
			if err != nil {
				return nil, couldNotUnify(t1, t2)
			}
			return s2.Compose(s), nil
		}
		return nil, couldNotUnify(t1, t2)
	}

	return nil, couldNotUnify(t1, t2)
}

// Bind binds a type variable to a type, performing the occurs check.
func Bind(tv TVar, t Type) (Subst, *UnifyError) {
	if tVal, ok := t.(TVar); ok && tVal.Name == tv.Name {
		return Subst{}, nil
	}

	// Occurs check: ensure tv does not appear in t (to avoid infinite types like a = List a)
	if OccursCheck(tv, t) {
		return nil, &UnifyError{Kind: RecursiveType, Expected: tv, Given: t}
	}

	return Subst{tv.Name: t}, nil
}

// OccursCheck returns true if tv appears free in t.
func OccursCheck(tv TVar, t Type) bool {
	for _, v := range t.FreeTypeVariables() {
		if v.Name == tv.Name {
			return true
		}
	}
	return false
}

func couldNotUnify(expected, given Type) *UnifyError {
	return &UnifyError{Kind: CouldNotUnify, Expected: expected, Given: given}
}
