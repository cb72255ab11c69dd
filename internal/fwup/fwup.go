// Package fwup composes invocations of the external fwup firmware packager.
// The tool itself is opaque: this package only knows its command line
// (-c -f <template> -o <output>), its working-directory convention and the
// derived environment it consumes.
package fwup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/mason/internal/logger"
	"github.com/oshokin/mason/internal/runner"
)

// DefaultExecutable is the packager binary name resolved via PATH.
const DefaultExecutable = "fwup"

// PackageParams describes one firmware package build.
type PackageParams struct {
	// Executable is the packager binary; empty means DefaultExecutable.
	Executable string
	// Template is the fwup configuration template path.
	Template string
	// Output is the firmware package output path.
	Output string
	// WorkDir is the working directory for the invocation.
	WorkDir string
	// Env is the derived environment injected into the packager.
	Env map[string]string
}

// CreatePackage validates the template, ensures the output directory exists
// and invokes the packager through the given runner.
func CreatePackage(ctx context.Context, run runner.Runner, params PackageParams) error {
	if _, err := os.Stat(params.Template); err != nil {
		return fmt.Errorf("fwup template %q: %w", params.Template, err)
	}

	if parent := filepath.Dir(params.Output); parent != "." {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return fmt.Errorf("create output directory %q: %w", parent, err)
		}
	}

	executable := params.Executable
	if executable == "" {
		executable = DefaultExecutable
	}

	logger.DebugKV(ctx, "Executing fwup",
		"template", params.Template,
		"output", params.Output,
		"work_dir", params.WorkDir)

	spec := runner.Spec{
		Executable: executable,
		Args:       []string{"-c", "-f", params.Template, "-o", params.Output},
		Dir:        params.WorkDir,
		Env:        params.Env,
	}

	if err := run.Run(ctx, spec); err != nil {
		return fmt.Errorf("fwup package %q: %w", params.Output, err)
	}

	return nil
}
