package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/funvibe/schemec/internal/codegen"
	"github.com/funvibe/schemec/internal/config"
)

const optModule = `
module: app/opt
definitions:
  - kind: type
    name: Option
    public: true
    constructors:
      - {name: Some, arity: 1}
      - {name: None}
`

const mainModule = `
module: app/main
definitions:
  - kind: fn
    name: main
    public: true
    body:
      - kind: call
        expr: {kind: var, ref: record, module: app/opt, name: Some, arity: 1}
        items: [{kind: int, value: "5"}]
`

const brokenModule = `
module: app/broken
definitions:
  - kind: fn
    name: f
    body: [{kind: invalid}]
`

// setupProject writes the given modules and a project file listing them,
// then loads the project.
func setupProject(t *testing.T, extra string, mods map[string]string) *config.Project {
	t.Helper()
	dir := t.TempDir()
	var listed []string
	for name, src := range mods {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
		listed = append(listed, name)
	}
	// Map iteration order is random; keep the project deterministic
	if len(listed) == 2 && listed[0] > listed[1] {
		listed[0], listed[1] = listed[1], listed[0]
	}
	yaml := "modules: [" + strings.Join(listed, ", ") + "]\n" + extra
	path := filepath.Join(dir, config.ProjectFileName)
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := config.LoadProject(path)
	if err != nil {
		t.Fatalf("loading project: %v", err)
	}
	return p
}

func run(t *testing.T, p *config.Project) *PipelineContext {
	t.Helper()
	return Build().Run(NewPipelineContext(context.Background(), p))
}

func TestBuildWritesLibraries(t *testing.T) {
	p := setupProject(t, "manifest: build.db\n", map[string]string{
		"main.typed.yaml": mainModule,
		"opt.typed.yaml":  optModule,
	})
	ctx := run(t, p)
	if ctx.Failed() {
		t.Fatalf("build failed: %v", ctx.Errors)
	}

	data, err := os.ReadFile(filepath.Join(p.Resolve("build"), "app", "main.sls"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"(library (app main)",
		"(import (chezscheme) (gleam) (app opt))",
		"(define app/main.main (lambda () (app/opt.Some 5)))",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if _, err := os.Stat(filepath.Join(p.Resolve("build"), "app", "opt.sls")); err != nil {
		t.Errorf("opt library not written: %v", err)
	}

	if ctx.RunID == "" {
		t.Errorf("manifest run id not recorded")
	}
	if len(ctx.Changed) != 2 {
		t.Errorf("first build should change every library, got %v", ctx.Changed)
	}

	again := run(t, p)
	if again.Failed() {
		t.Fatalf("rebuild failed: %v", again.Errors)
	}
	if len(again.Changed) != 0 {
		t.Errorf("unchanged rebuild reported changes: %v", again.Changed)
	}
	if again.RunID == ctx.RunID {
		t.Errorf("each build should be a new run")
	}
}

func TestBuildArchive(t *testing.T) {
	p := setupProject(t, "archive: out/all.txtar\n", map[string]string{
		"main.typed.yaml": mainModule,
		"opt.typed.yaml":  optModule,
	})
	ctx := run(t, p)
	if ctx.Failed() {
		t.Fatalf("build failed: %v", ctx.Errors)
	}

	data, err := os.ReadFile(p.Resolve("out/all.txtar"))
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	a := txtar.Parse(data)
	if len(a.Files) != 2 {
		t.Fatalf("expected 2 archived files, got %d", len(a.Files))
	}
	if a.Files[0].Name != "app/main.sls" || a.Files[1].Name != "app/opt.sls" {
		t.Errorf("unexpected archive order %s, %s", a.Files[0].Name, a.Files[1].Name)
	}
	if string(a.Files[1].Data) != ctx.Units[1].Text {
		t.Errorf("archived text differs from the generated unit")
	}
	if _, err := os.Stat(p.Resolve("build")); !os.IsNotExist(err) {
		t.Errorf("archive builds must not write the output directory")
	}
}

func TestBuildReportsInvariantViolations(t *testing.T) {
	p := setupProject(t, "", map[string]string{
		"broken.typed.yaml": brokenModule,
		"opt.typed.yaml":    optModule,
	})
	ctx := run(t, p)
	if !ctx.Failed() {
		t.Fatal("expected the build to fail")
	}
	err := ctx.Errors[0]
	if !codegen.IsInvariant(err) {
		t.Errorf("expected an invariant violation, got %v", err)
	}
	if !strings.Contains(err.Error(), "generating app/broken") {
		t.Errorf("error should name the module: %v", err)
	}
	if _, statErr := os.Stat(p.Resolve("build")); !os.IsNotExist(statErr) {
		t.Errorf("nothing should be written after a failed generation")
	}
}

func TestBuildReportsLoadErrors(t *testing.T) {
	p := setupProject(t, "", map[string]string{
		"opt.typed.yaml": "module: app/opt\ndefinitions: [{kind: nope}]\n",
	})
	ctx := run(t, p)
	if !ctx.Failed() || len(ctx.Errors) != 1 {
		t.Fatalf("expected exactly one error, got %v", ctx.Errors)
	}
	if ctx.Units != nil {
		t.Errorf("generation should be skipped after a load error")
	}
}
