package analyzer

import (
	"fmt"

	"github.com/funvibe/schemec/internal/ast"
	"github.com/funvibe/schemec/internal/typesystem"
)

// Scope maps local variable names to what they resolve to.
type Scope map[string]ast.ValueConstructor

// Clone returns an independent copy of the scope.
func (s Scope) Clone() Scope {
	c := make(Scope, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// Environment holds the state of one inference pass over a module.
// Module level values are generalized and instantiated at each use;
// locals are monomorphic.
type Environment struct {
	CurrentModule string

	scope        Scope
	moduleValues map[string]ast.ValueConstructor
	counter      int
	subst        typesystem.Subst
}

func NewEnvironment(module string) *Environment {
	return &Environment{
		CurrentModule: module,
		scope:         Scope{},
		moduleValues:  make(map[string]ast.ValueConstructor),
		subst:         typesystem.Subst{},
	}
}

// InsertLocalVariable binds name in the current scope, shadowing any
// previous binding.
func (env *Environment) InsertLocalVariable(name string, span ast.SrcSpan, origin ast.VariableOrigin, t typesystem.Type) {
	env.scope[name] = ast.ValueConstructor{
		Publicity: ast.Private,
		Type:      t,
		Variant:   &ast.LocalVariable{Span: span, Origin: origin},
	}
}

// InsertModuleValue registers a module function, constant or constructor.
func (env *Environment) InsertModuleValue(name string, vc ast.ValueConstructor) {
	env.moduleValues[name] = vc
}

// GetVariable resolves name against the local scope first and the module
// values second. Module values come back with a freshly instantiated type.
func (env *Environment) GetVariable(name string) (ast.ValueConstructor, bool) {
	if vc, ok := env.scope[name]; ok {
		return vc, true
	}
	if vc, ok := env.moduleValues[name]; ok {
		vc.Type = env.Instantiate(vc.Type)
		return vc, true
	}
	return ast.ValueConstructor{}, false
}

// HasLocal reports whether name is bound in the local scope.
func (env *Environment) HasLocal(name string) bool {
	_, ok := env.scope[name]
	return ok
}

// Scope returns a snapshot of the local scope.
func (env *Environment) Scope() Scope {
	return env.scope.Clone()
}

// RestoreScope replaces the local scope with a snapshot taken earlier.
func (env *Environment) RestoreScope(s Scope) {
	env.scope = s
}

// FreshVar generates a fresh type variable with a unique name.
func (env *Environment) FreshVar() typesystem.TVar {
	env.counter++
	return typesystem.TVar{Name: fmt.Sprintf("t%d", env.counter)}
}

// Instantiate replaces every free type variable of t with a fresh one.
func (env *Environment) Instantiate(t typesystem.Type) typesystem.Type {
	free := t.FreeTypeVariables()
	if len(free) == 0 {
		return t
	}
	s := make(typesystem.Subst, len(free))
	for _, tv := range free {
		s[tv.Name] = env.FreshVar()
	}
	return t.Apply(s)
}

// Resolve applies everything learned so far to t.
func (env *Environment) Resolve(t typesystem.Type) typesystem.Type {
	if t == nil {
		return nil
	}
	return t.Apply(env.subst)
}

// Unify unifies expected with given under the current substitution and
// records the result. The returned error keeps the argument order.
func (env *Environment) Unify(expected, given typesystem.Type) *typesystem.UnifyError {
	s, err := typesystem.Unify(env.Resolve(expected), env.Resolve(given))
	if err != nil {
		if uerr, ok := err.(*typesystem.UnifyError); ok {
			return uerr
		}
		return &typesystem.UnifyError{Kind: typesystem.CouldNotUnify, Expected: expected, Given: given}
	}
	for k, v := range s {
		env.subst[k] = v
	}
	return nil
}
