// Command schemec generates Chez Scheme libraries from typed modules.
//
// Usage:
//
//	schemec [-v] [-o dir] [-archive file] [-manifest file] [-width n] [schemec.yaml]
//
// Without a project argument the nearest schemec.yaml in the current
// directory or its parents is used.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/schemec/internal/codegen"
	"github.com/funvibe/schemec/internal/config"
	"github.com/funvibe/schemec/internal/pipeline"
)

// Exit codes
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitInternal = 70 // EX_SOFTWARE: the compiler produced a malformed tree
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(exitInternal)
		}
	}()
	os.Exit(run(os.Args[1:], os.Stderr, useColor(os.Stderr)))
}

func useColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func run(args []string, stderr io.Writer, color bool) int {
	fs := flag.NewFlagSet("schemec", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "log build progress")
	outDir := fs.String("o", "", "output directory (overrides output_dir)")
	archive := fs.String("archive", "", "write all libraries into one txtar file")
	manifestPath := fs.String("manifest", "", "record the build in a sqlite manifest")
	width := fs.Int("width", 0, "line width of the output, negative for unlimited")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(stderr, "usage: schemec [flags] [schemec.yaml]")
		return exitUsage
	}

	logger := log.New(io.Discard, "schemec: ", 0)
	if *verbose {
		logger.SetOutput(stderr)
	}

	path := fs.Arg(0)
	if path == "" {
		found, err := config.FindProject(".")
		if err != nil {
			return report(stderr, color, err)
		}
		if found == "" {
			return report(stderr, color, fmt.Errorf("no %s found in this directory or its parents", config.ProjectFileName))
		}
		path = found
	}
	logger.Printf("project %s", path)

	project, err := config.LoadProject(path)
	if err != nil {
		return report(stderr, color, err)
	}
	switch {
	case *archive != "":
		project.Archive, project.OutputDir = *archive, ""
	case *outDir != "":
		project.OutputDir, project.Archive = *outDir, ""
	}
	if *manifestPath != "" {
		project.Manifest = *manifestPath
	}
	switch {
	case *width > 0:
		project.LineWidth = *width
	case *width < 0:
		project.LineWidth = 0
	}

	ctx := pipeline.NewPipelineContext(context.Background(), project)
	ctx.Logf = logger.Printf
	ctx = pipeline.Build().Run(ctx)

	if !ctx.Failed() {
		return exitOK
	}
	code := exitFailure
	for _, err := range ctx.Errors {
		if c := report(stderr, color, err); c > code {
			code = c
		}
	}
	return code
}

// report prints err and returns the exit code it calls for.
func report(w io.Writer, color bool, err error) int {
	label, code := "error", exitFailure
	if codegen.IsInvariant(err) {
		label, code = "internal error", exitInternal
	}
	if color {
		label = "\x1b[1;31m" + label + "\x1b[0m"
	}
	fmt.Fprintf(w, "%s: %v\n", label, err)
	return code
}
