// Package modules loads typed modules from their YAML serialization.
package modules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/funvibe/schemec/internal/ast"
	"github.com/funvibe/schemec/internal/config"
)

// Loader reads typed module files, caching them by absolute path.
type Loader struct {
	LoadedModules map[string]*ast.Module // Cache of loaded modules by path
	ModulesByName map[string]string      // Module name -> path it was loaded from
}

func NewLoader() *Loader {
	return &Loader{
		LoadedModules: make(map[string]*ast.Module),
		ModulesByName: make(map[string]string),
	}
}

// Load reads one typed module file. Loading the same file twice returns
// the cached module; two files declaring the same module name is an error.
func (l *Loader) Load(path string) (*ast.Module, error) {
	if !strings.HasSuffix(path, config.TypedModuleExt) {
		return nil, fmt.Errorf("%s: not a typed module (expected %s)", path, config.TypedModuleExt)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if mod, ok := l.LoadedModules[absPath]; ok {
		return mod, nil
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("reading module %s: %w", path, err)
	}
	mod, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	if prev, dup := l.ModulesByName[mod.Name]; dup {
		return nil, fmt.Errorf("%s: module %s is already defined in %s", path, mod.Name, prev)
	}

	l.LoadedModules[absPath] = mod
	l.ModulesByName[mod.Name] = path
	return mod, nil
}

// LoadAll loads every path in order.
func (l *Loader) LoadAll(paths []string) ([]*ast.Module, error) {
	mods := make([]*ast.Module, 0, len(paths))
	for _, p := range paths {
		mod, err := l.Load(p)
		if err != nil {
			return nil, err
		}
		mods = append(mods, mod)
	}
	return mods, nil
}
