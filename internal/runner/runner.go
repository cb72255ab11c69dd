// Package runner executes external tools with captured, line-streamed
// output. Callers depend on the Runner interface so orchestration stays
// testable without the tools installed.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/mason/internal/env"
)

// Spec describes one subprocess invocation.
type Spec struct {
	// Executable is the binary to run, resolved via PATH when not absolute.
	Executable string
	// Args are the command-line arguments.
	Args []string
	// Dir is the working directory; empty means the caller's.
	Dir string
	// Env is appended to the ambient process environment.
	Env map[string]string
}

// Runner executes a subprocess to completion.
type Runner interface {
	// Run blocks until the process exits and its output is fully drained.
	Run(ctx context.Context, spec Spec) error
}

// NotFoundError reports an executable that could not be located.
type NotFoundError struct {
	// Executable is the missing binary.
	Executable string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("executable %q not found", e.Executable)
}

// ExitError reports a process that ran but exited non-zero.
type ExitError struct {
	// Executable is the binary that failed.
	Executable string
	// Code is the process exit code.
	Code int
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("%q exited with code %d", e.Executable, e.Code)
}

// ExecRunner runs real subprocesses via os/exec. Standard output and
// standard error are drained concurrently, line by line, into the configured
// sinks while the process runs; both drainers finish before the exit code is
// inspected, so no buffered output is lost. Interleaving is preserved within
// each stream only.
type ExecRunner struct {
	// Stdout receives the process's standard output lines. Defaults to os.Stdout.
	Stdout io.Writer
	// Stderr receives the process's standard error lines. Defaults to os.Stderr.
	Stderr io.Writer
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, spec Spec) error {
	cmd := exec.CommandContext(ctx, spec.Executable, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), env.ToEnviron(spec.Env)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("pipe stdout of %q: %w", spec.Executable, err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("pipe stderr of %q: %w", spec.Executable, err)
	}

	if err = cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return &NotFoundError{Executable: spec.Executable}
		}

		return fmt.Errorf("start %q: %w", spec.Executable, err)
	}

	var group errgroup.Group

	group.Go(func() error { return drainLines(stdout, r.stdoutSink()) })
	group.Go(func() error { return drainLines(stderr, r.stderrSink()) })

	// Both drainers must be joined before the exit code is inspected.
	streamErr := group.Wait()
	waitErr := cmd.Wait()

	if streamErr != nil {
		return fmt.Errorf("stream output of %q: %w", spec.Executable, streamErr)
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return &ExitError{Executable: spec.Executable, Code: exitErr.ExitCode()}
		}

		return fmt.Errorf("wait for %q: %w", spec.Executable, waitErr)
	}

	return nil
}

// stdoutSink returns the configured stdout sink or os.Stdout.
func (r *ExecRunner) stdoutSink() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}

	return os.Stdout
}

// stderrSink returns the configured stderr sink or os.Stderr.
func (r *ExecRunner) stderrSink() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}

	return os.Stderr
}

// drainLines copies a pipe to the sink one line at a time. Lines have no
// length cap. On a sink write error the pipe is still drained to the end so
// the child never blocks on a full pipe buffer.
func drainLines(pipe io.Reader, sink io.Writer) error {
	reader := bufio.NewReaderSize(pipe, 64*1024)

	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			if _, werr := io.WriteString(sink, line); werr != nil {
				_, _ = io.Copy(io.Discard, reader)

				return werr
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			_, _ = io.Copy(io.Discard, reader)

			return err
		}
	}
}
