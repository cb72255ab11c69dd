package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestExecRunnerStreamsOutput runs a real shell command and checks both
// streams are captured line by line into their own sinks.
func TestExecRunnerStreamsOutput(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	r := &ExecRunner{Stdout: &stdout, Stderr: &stderr}

	err := r.Run(context.Background(), Spec{
		Executable: "/bin/sh",
		Args:       []string{"-c", "echo one; echo two; echo oops >&2"},
	})
	require.NoError(t, err)
	require.Equal(t, "one\ntwo\n", stdout.String())
	require.Equal(t, "oops\n", stderr.String())
}

// TestExecRunnerLongLine checks a single output line far beyond any buffer
// size is drained completely and the run still returns once the process
// exits cleanly.
func TestExecRunnerLongLine(t *testing.T) {
	t.Parallel()

	const lineLength = 4 * 1024 * 1024

	var stdout bytes.Buffer

	r := &ExecRunner{Stdout: &stdout, Stderr: new(bytes.Buffer)}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := r.Run(ctx, Spec{
		Executable: "/bin/sh",
		Args:       []string{"-c", fmt.Sprintf("head -c %d /dev/zero | tr '\\0' 'a'; echo", lineLength)},
	})
	require.NoError(t, err)
	require.Equal(t, lineLength+1, stdout.Len())
}

// TestExecRunnerInjectsEnv checks Spec.Env reaches the subprocess on top of
// the ambient environment.
func TestExecRunnerInjectsEnv(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer

	r := &ExecRunner{Stdout: &stdout, Stderr: &stdout}

	err := r.Run(context.Background(), Spec{
		Executable: "/bin/sh",
		Args:       []string{"-c", "echo $MASON_PROBE"},
		Env:        map[string]string{"MASON_PROBE": "injected"},
	})
	require.NoError(t, err)
	require.Equal(t, "injected\n", stdout.String())
}

// TestExecRunnerWorkingDirectory checks Spec.Dir sets the subprocess cwd.
func TestExecRunnerWorkingDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var stdout bytes.Buffer

	r := &ExecRunner{Stdout: &stdout, Stderr: &stdout}

	err := r.Run(context.Background(), Spec{
		Executable: "/bin/sh",
		Args:       []string{"-c", "pwd"},
		Dir:        dir,
	})
	require.NoError(t, err)
	require.Contains(t, stdout.String(), dir)
}

// TestExecRunnerExitError ensures non-zero exits surface the code.
func TestExecRunnerExitError(t *testing.T) {
	t.Parallel()

	r := &ExecRunner{Stdout: new(bytes.Buffer), Stderr: new(bytes.Buffer)}

	err := r.Run(context.Background(), Spec{
		Executable: "/bin/sh",
		Args:       []string{"-c", "exit 3"},
	})
	require.Error(t, err)

	var exitErr *ExitError

	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 3, exitErr.Code)
	require.Equal(t, "/bin/sh", exitErr.Executable)
}

// TestExecRunnerNotFound ensures a missing binary yields the distinct
// not-found error, not a generic failure.
func TestExecRunnerNotFound(t *testing.T) {
	t.Parallel()

	r := &ExecRunner{Stdout: new(bytes.Buffer), Stderr: new(bytes.Buffer)}

	err := r.Run(context.Background(), Spec{Executable: "definitely-not-a-real-binary"})
	require.Error(t, err)

	var notFound *NotFoundError

	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "definitely-not-a-real-binary", notFound.Executable)
}

// TestRecorder checks the test double records invocations in order and
// returns the configured error.
func TestRecorder(t *testing.T) {
	t.Parallel()

	rec := &Recorder{}

	require.NoError(t, rec.Run(context.Background(), Spec{Executable: "a"}))
	require.NoError(t, rec.Run(context.Background(), Spec{Executable: "b"}))
	require.Len(t, rec.Invocations, 2)
	require.Equal(t, "a", rec.Invocations[0].Executable)
	require.Equal(t, "b", rec.Invocations[1].Executable)

	sentinel := errors.New("boom")
	rec = &Recorder{Err: sentinel}
	require.ErrorIs(t, rec.Run(context.Background(), Spec{}), sentinel)
}
