package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Project represents a schemec.yaml project file.
type Project struct {
	// Modules lists the typed module files to generate, relative to the
	// project file. Each holds one module in the YAML typed-tree format.
	Modules []string `yaml:"modules"`

	// OutputDir is where libraries are written, one .sls file per module
	// laid out by module path. Defaults to "build".
	OutputDir string `yaml:"output_dir,omitempty"`

	// PreludeModule is imported by every library and never recorded as a
	// dependency. Defaults to PreludeModule.
	PreludeModule string `yaml:"prelude_module,omitempty"`

	// BaseImports are host libraries imported by every library.
	// Defaults to [BaseImport].
	BaseImports []string `yaml:"base_imports,omitempty"`

	// LineWidth is the target width of the rendered text. 0 keeps the
	// default, a negative value disables line breaking.
	LineWidth int `yaml:"line_width,omitempty"`

	// Archive, when set, writes every library into a single txtar file
	// at this path instead of the output directory.
	Archive string `yaml:"archive,omitempty"`

	// Manifest, when set, records each build in a sqlite database at
	// this path.
	Manifest string `yaml:"manifest,omitempty"`

	// dir is the directory containing the project file.
	dir string
}

// LoadProject reads and parses a schemec.yaml file.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project %s: %w", path, err)
	}
	return ParseProject(data, path)
}

// ParseProject parses schemec.yaml content from bytes.
// The path argument locates relative paths and is used in error messages.
func ParseProject(data []byte, path string) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	p.dir = filepath.Dir(path)
	if err := p.validate(path); err != nil {
		return nil, err
	}
	p.setDefaults()
	return &p, nil
}

// FindProject searches for schemec.yaml starting from dir and walking up
// to parent directories. It returns "" and a nil error when none exists.
func FindProject(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, ProjectFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		candidate = strings.TrimSuffix(candidate, ".yaml") + ".yml"
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (p *Project) validate(path string) error {
	if len(p.Modules) == 0 {
		return fmt.Errorf("%s: no modules listed", path)
	}

	seen := make(map[string]int)
	for i, m := range p.Modules {
		if m == "" {
			return fmt.Errorf("%s: modules[%d]: empty path", path, i)
		}
		if !strings.HasSuffix(m, TypedModuleExt) {
			return fmt.Errorf("%s: modules[%d]: %q does not end in %s", path, i, m, TypedModuleExt)
		}
		if prev, dup := seen[m]; dup {
			return fmt.Errorf("%s: modules[%d]: %q already listed at modules[%d]", path, i, m, prev)
		}
		seen[m] = i
	}

	for i, imp := range p.BaseImports {
		if imp == "" || strings.ContainsAny(imp, " ()") {
			return fmt.Errorf("%s: base_imports[%d]: invalid library name %q", path, i, imp)
		}
	}

	if p.Archive != "" && p.OutputDir != "" {
		return fmt.Errorf("%s: archive and output_dir are mutually exclusive", path)
	}
	return nil
}

func (p *Project) setDefaults() {
	if p.OutputDir == "" && p.Archive == "" {
		p.OutputDir = "build"
	}
	if p.PreludeModule == "" {
		p.PreludeModule = PreludeModule
	}
	if len(p.BaseImports) == 0 {
		p.BaseImports = []string{BaseImport}
	}
	switch {
	case p.LineWidth == 0:
		p.LineWidth = DefaultLineWidth
	case p.LineWidth < 0:
		p.LineWidth = 0
	}
}

// Resolve returns path relative to the project directory, leaving
// absolute paths unchanged.
func (p *Project) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.dir, path)
}

// ModulePaths returns the module files resolved against the project
// directory.
func (p *Project) ModulePaths() []string {
	out := make([]string, len(p.Modules))
	for i, m := range p.Modules {
		out[i] = p.Resolve(m)
	}
	return out
}
