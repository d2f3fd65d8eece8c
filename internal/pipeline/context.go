package pipeline

import (
	"context"

	"github.com/funvibe/schemec/internal/ast"
	"github.com/funvibe/schemec/internal/codegen"
	"github.com/funvibe/schemec/internal/config"
	"github.com/funvibe/schemec/internal/manifest"
)

// Processor is one stage of a build.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext carries a build through its stages.
type PipelineContext struct {
	Context context.Context
	Project *config.Project

	Modules []*ast.Module
	Units   []*codegen.Unit  // One per module, in module order
	Entries []manifest.Entry // What was written, in module order

	RunID   string   // Manifest run, when a manifest is configured
	Changed []string // Modules whose output differs from the previous run

	Errors []error

	// Logf receives progress messages. It is never nil.
	Logf func(format string, args ...interface{})
}

func NewPipelineContext(ctx context.Context, project *config.Project) *PipelineContext {
	return &PipelineContext{
		Context: ctx,
		Project: project,
		Logf:    func(string, ...interface{}) {},
	}
}

// Failed reports whether any stage recorded an error.
func (c *PipelineContext) Failed() bool {
	return len(c.Errors) > 0
}
