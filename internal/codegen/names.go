package codegen

import (
	"strconv"
	"strings"

	"github.com/funvibe/schemec/internal/config"
	"github.com/funvibe/schemec/internal/sexpr"
)

// qualified renders a module level name, e.g. app/user.new.
func qualified(module, name string) string {
	return module + "." + name
}

// predicateName is the tag test generated for a constructor.
func predicateName(module, ctor string) string {
	return qualified(module, ctor) + "?"
}

func local(name string) sexpr.Atom {
	return sexpr.Atom(config.LocalSigil + name)
}

// libraryName splits a slash separated module path into a library name.
func libraryName(module string) sexpr.List {
	parts := strings.Split(module, "/")
	items := make([]sexpr.Node, len(parts))
	for i, p := range parts {
		items[i] = sexpr.Atom(p)
	}
	return sexpr.L(items...)
}

// temp returns a fresh temporary. Source identifiers never start with the
// temporary sigil so these cannot shadow user variables.
func (g *generator) temp() sexpr.Atom {
	g.counter++
	return sexpr.Atom(config.TemporarySigil + strconv.Itoa(g.counter))
}

// reference renders a qualified name and records module as a dependency.
func (g *generator) reference(module, name string) sexpr.Atom {
	g.registerImport(module)
	return sexpr.Atom(qualified(module, name))
}

func (g *generator) registerImport(module string) {
	if module == "" || module == g.module || module == g.opts.PreludeModule {
		return
	}
	for _, base := range g.opts.BaseImports {
		if module == base {
			return
		}
	}
	g.imports[module] = struct{}{}
}

func (g *generator) export(name string) {
	g.exports[name] = struct{}{}
}
