package pipeline

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/txtar"

	"github.com/funvibe/schemec/internal/codegen"
	"github.com/funvibe/schemec/internal/manifest"
	"github.com/funvibe/schemec/internal/modules"
)

// LoadProcessor reads the typed modules listed by the project.
type LoadProcessor struct{}

func (LoadProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Failed() {
		return ctx
	}
	mods, err := modules.NewLoader().LoadAll(ctx.Project.ModulePaths())
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	ctx.Modules = mods
	ctx.Logf("loaded %d modules", len(mods))
	return ctx
}

// GenerateProcessor generates one library per module. Modules are
// independent, so they are generated concurrently.
type GenerateProcessor struct {
	// Workers bounds the number of concurrent generators; 0 means one
	// per CPU.
	Workers int
}

func (p GenerateProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Failed() {
		return ctx
	}
	opts := codegen.Options{
		PreludeModule: ctx.Project.PreludeModule,
		BaseImports:   ctx.Project.BaseImports,
		LineWidth:     ctx.Project.LineWidth,
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx.Context)
	g.SetLimit(workers)

	units := make([]*codegen.Unit, len(ctx.Modules))
	for i, mod := range ctx.Modules {
		i, mod := i, mod
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			u, err := codegen.Module(mod, opts)
			if err != nil {
				return errors.Wrapf(err, "generating %s", mod.Name)
			}
			units[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	ctx.Units = units
	ctx.Logf("generated %d libraries", len(units))
	return ctx
}

// WriteProcessor writes the libraries to the output directory, or into a
// single txtar archive when the project names one.
type WriteProcessor struct{}

func (WriteProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Failed() {
		return ctx
	}
	var err error
	if ctx.Project.Archive != "" {
		err = writeArchive(ctx)
	} else {
		err = writeFiles(ctx)
	}
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
	}
	return ctx
}

func writeFiles(ctx *PipelineContext) error {
	outDir := ctx.Project.Resolve(ctx.Project.OutputDir)
	for _, u := range ctx.Units {
		path := filepath.Join(outDir, filepath.FromSlash(u.Path()))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return errors.Wrapf(err, "creating output directory for %s", u.Name)
		}
		if err := os.WriteFile(path, []byte(u.Text), 0o644); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
		ctx.Entries = append(ctx.Entries, manifest.NewEntry(u.Name, u.Path(), u.Text))
		ctx.Logf("wrote %s", path)
	}
	return nil
}

// Archive bundles units into a txtar archive, one file per library.
func Archive(units []*codegen.Unit) []byte {
	a := &txtar.Archive{Comment: []byte("schemec output\n")}
	for _, u := range units {
		a.Files = append(a.Files, txtar.File{Name: u.Path(), Data: []byte(u.Text)})
	}
	return txtar.Format(a)
}

func writeArchive(ctx *PipelineContext) error {
	path := ctx.Project.Resolve(ctx.Project.Archive)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating archive directory")
	}
	if err := os.WriteFile(path, Archive(ctx.Units), 0o644); err != nil {
		return errors.Wrapf(err, "writing archive %s", path)
	}
	for _, u := range ctx.Units {
		ctx.Entries = append(ctx.Entries, manifest.NewEntry(u.Name, u.Path(), u.Text))
	}
	ctx.Logf("wrote %d libraries to %s", len(ctx.Units), path)
	return nil
}

// ManifestProcessor records the written libraries as a new manifest run.
// It does nothing when the project has no manifest.
type ManifestProcessor struct{}

func (ManifestProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Failed() || ctx.Project.Manifest == "" {
		return ctx
	}
	m, err := manifest.Open(ctx.Project.Resolve(ctx.Project.Manifest))
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	defer m.Close()

	changed, err := m.Changed(ctx.Context, ctx.Entries)
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	id, err := m.Record(ctx.Context, ctx.Entries)
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	ctx.RunID = id
	ctx.Changed = changed
	ctx.Logf("manifest run %s: %d of %d libraries changed", id, len(changed), len(ctx.Entries))
	return ctx
}

// Build is the standard build: load, generate, write, record.
func Build() *Pipeline {
	return New(LoadProcessor{}, GenerateProcessor{}, WriteProcessor{}, ManifestProcessor{})
}
