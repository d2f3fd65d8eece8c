// Package codegen lowers a typed module into a Chez Scheme library.
//
// Every custom type value is encoded as a two element vector holding a
// quoted tag and a vector of positional fields:
//
//	(vector 'Some (vector 5))
//
// Pattern matching compiles each pattern into a boolean test that assigns
// pattern variables with set! as it goes. Variables bound by a case clause
// are declared in a let scoped to that clause, so clauses never share
// storage.
package codegen

import (
	"sort"

	"github.com/funvibe/schemec/internal/ast"
	"github.com/funvibe/schemec/internal/config"
	"github.com/funvibe/schemec/internal/prettyprinter"
	"github.com/funvibe/schemec/internal/sexpr"
)

// Options configures the emitted libraries.
type Options struct {
	// PreludeModule is imported by every library and never recorded as a
	// discovered dependency.
	PreludeModule string
	// BaseImports are host libraries imported ahead of the prelude.
	BaseImports []string
	// LineWidth is the target width of the rendered text; 0 disables
	// line breaking.
	LineWidth int
}

func DefaultOptions() Options {
	return Options{
		PreludeModule: config.PreludeModule,
		BaseImports:   []string{config.BaseImport},
		LineWidth:     config.DefaultLineWidth,
	}
}

// Unit is the generated library for one module.
type Unit struct {
	Name    string   // Module name, e.g. "app/user"
	Exports []string // Sorted exported names
	Imports []string // Sorted discovered module dependencies
	Library sexpr.Node
	Text    string
}

// Path is the relative output path of the unit.
func (u *Unit) Path() string {
	return u.Name + config.OutputFileExt
}

// generator holds the state of one module's generation. It is never
// shared between modules.
type generator struct {
	module  string
	opts    Options
	exports map[string]struct{}
	imports map[string]struct{}
	counter int
}

// Module generates the library for mod. The only errors are invariant
// violations, see ErrInvariant.
func Module(mod *ast.Module, opts Options) (*Unit, error) {
	g := &generator{
		module:  mod.Name,
		opts:    opts,
		exports: make(map[string]struct{}),
		imports: make(map[string]struct{}),
	}

	// Types first so constants can build values, then functions so
	// constants can refer to them.
	var types, functions, constants []sexpr.Node
	for _, def := range mod.Definitions {
		switch d := def.(type) {
		case *ast.CustomType:
			types = append(types, g.customType(d)...)
		case *ast.Function:
			n, err := g.function(d)
			if err != nil {
				return nil, err
			}
			functions = append(functions, n)
		case *ast.ModuleConstant:
			n, err := g.moduleConstant(d)
			if err != nil {
				return nil, err
			}
			constants = append(constants, n)
		case *ast.Import, *ast.TypeAlias:
			// Imports are discovered from references, aliases have no
			// runtime form.
		default:
			return nil, invariantf("unknown definition %T", def)
		}
	}

	exports := sortedKeys(g.exports)
	imports := sortedKeys(g.imports)

	exportClause := []sexpr.Node{sexpr.Atom("export")}
	for _, e := range exports {
		exportClause = append(exportClause, sexpr.Atom(e))
	}
	importClause := []sexpr.Node{sexpr.Atom("import")}
	for _, base := range opts.BaseImports {
		importClause = append(importClause, libraryName(base))
	}
	if opts.PreludeModule != "" {
		importClause = append(importClause, libraryName(opts.PreludeModule))
	}
	for _, imp := range imports {
		importClause = append(importClause, libraryName(imp))
	}

	items := []sexpr.Node{sexpr.Atom("library"), libraryName(mod.Name), sexpr.L(exportClause...), sexpr.L(importClause...)}
	items = append(items, types...)
	items = append(items, functions...)
	items = append(items, constants...)
	lib := sexpr.L(items...)

	return &Unit{
		Name:    mod.Name,
		Exports: exports,
		Imports: imports,
		Library: lib,
		Text:    prettyprinter.Print(lib, opts.LineWidth),
	}, nil
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
