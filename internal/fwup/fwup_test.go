package fwup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/mason/internal/runner"
)

// TestCreatePackage verifies the composed command line, working directory
// and environment reaching the runner.
func TestCreatePackage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	template := filepath.Join(dir, "disk.conf")
	require.NoError(t, os.WriteFile(template, []byte("# fwup config"), 0o644))

	output := filepath.Join(dir, "_build", "disk.img")
	rec := &runner.Recorder{}

	err := CreatePackage(context.Background(), rec, PackageParams{
		Template: template,
		Output:   output,
		WorkDir:  dir,
		Env:      map[string]string{"MASON_DISK_UUID": "abc"},
	})
	require.NoError(t, err)
	require.Len(t, rec.Invocations, 1)

	spec := rec.Invocations[0]
	require.Equal(t, DefaultExecutable, spec.Executable)
	require.Equal(t, []string{"-c", "-f", template, "-o", output}, spec.Args)
	require.Equal(t, dir, spec.Dir)
	require.Equal(t, "abc", spec.Env["MASON_DISK_UUID"])

	// The output parent directory is created before the invocation.
	require.DirExists(t, filepath.Dir(output))
}

// TestCreatePackageExecutableOverride checks a configured fwup path wins
// over the default.
func TestCreatePackageExecutableOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	template := filepath.Join(dir, "disk.conf")
	require.NoError(t, os.WriteFile(template, []byte(""), 0o644))

	rec := &runner.Recorder{}

	err := CreatePackage(context.Background(), rec, PackageParams{
		Executable: "/opt/fwup/bin/fwup",
		Template:   template,
		Output:     filepath.Join(dir, "out.img"),
		WorkDir:    dir,
	})
	require.NoError(t, err)
	require.Equal(t, "/opt/fwup/bin/fwup", rec.Invocations[0].Executable)
}

// TestCreatePackageMissingTemplate fails before invoking anything, naming
// the template path.
func TestCreatePackageMissingTemplate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := &runner.Recorder{}

	err := CreatePackage(context.Background(), rec, PackageParams{
		Template: filepath.Join(dir, "nope.conf"),
		Output:   filepath.Join(dir, "out.img"),
		WorkDir:  dir,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "nope.conf")
	require.Empty(t, rec.Invocations)
}
