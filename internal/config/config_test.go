package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidate checks defaulting and log level validation.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Nil settings are rejected.
	require.Error(t, Validate(nil))

	// Empty settings are filled with defaults.
	cfg := new(Config)
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultBuildDirName, cfg.BuildDirName)
	require.Equal(t, "fwup", cfg.FwupPath)
	require.Equal(t, DefaultLogLevel, cfg.LogLevel)

	// Explicit values survive validation.
	cfg = &Config{BuildDirName: "out", FwupPath: "/usr/local/bin/fwup", LogLevel: "debug"}
	require.NoError(t, Validate(cfg))
	require.Equal(t, "out", cfg.BuildDirName)

	// Unknown log levels are rejected.
	cfg = &Config{LogLevel: "loud"}
	require.Error(t, Validate(cfg))
}

// TestLoadFromFile reads settings from an explicit YAML file.
func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFilename)
	contents := "build_dir: artifacts\nfwup_path: /opt/fwup\nlog_level: warn\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "artifacts", cfg.BuildDirName)
	require.Equal(t, "/opt/fwup", cfg.FwupPath)
	require.Equal(t, "warn", cfg.LogLevel)
}

// TestLoadMissingExplicitFile fails when a configured path does not exist.
func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

// TestLoadMissingDefaultFile falls back to defaults when the conventional
// settings file is absent.
func TestLoadMissingDefaultFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultBuildDirName, cfg.BuildDirName)
	require.Equal(t, DefaultLogLevel, cfg.LogLevel)
}

// chdir switches the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()

	previous, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(previous) })
}
