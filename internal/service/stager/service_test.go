package stager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const stageManifest = `{
  "runtime": {
    "platform": "imx93-evk",
    "architecture": "aarch64",
    "provision": "provision.sh"
  },
  "storage_devices": {
    "emmc": {
      "out": "disk.img",
      "devpath": "/dev/mmcblk0",
      "build_args": {"type": "fwup", "template": "disk.conf"},
      "images": {
        "bootloader": "u-boot.bin",
        "boot": {
          "out": "boot.vfat",
          "size": 16,
          "size_unit": "mebibytes",
          "build_args": {"type": "fat", "variant": "FAT32",
            "files": ["kernel.itb", {"in": "scripts/boot.scr", "out": "boot.scr"}]}
        },
        "firmware": {
          "out": "firmware.fw",
          "size": 8,
          "size_unit": "mebibytes",
          "build_args": {"type": "fwup", "template": "firmware.conf"}
        }
      },
      "partitions": []
    }
  },
  "provision": {
    "profiles": {
      "factory": {"script": "factory.sh", "env": []}
    }
  }
}`

// TestRunStagesEveryInput copies templates, file entries, referenced images
// and scripts, plus the manifest and os-release, preserving relative paths.
func TestRunStagesEveryInput(t *testing.T) {
	t.Parallel()

	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "staged")
	manifestPath := filepath.Join(inputDir, "manifest.json")
	osReleasePath := filepath.Join(inputDir, "os-release")

	require.NoError(t, os.WriteFile(manifestPath, []byte(stageManifest), 0o644))
	require.NoError(t, os.WriteFile(osReleasePath, []byte(`VERSION_ID=1`), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(inputDir, "scripts"), 0o755))

	inputs := []string{
		"disk.conf", "firmware.conf", "u-boot.bin", "kernel.itb",
		"scripts/boot.scr", "provision.sh", "factory.sh",
	}
	for _, name := range inputs {
		require.NoError(t, os.WriteFile(filepath.Join(inputDir, name), []byte(name), 0o644))
	}

	// Scripts carry their executable bit, which staging must preserve.
	require.NoError(t, os.Chmod(filepath.Join(inputDir, "provision.sh"), 0o755))
	require.NoError(t, os.Chmod(filepath.Join(inputDir, "factory.sh"), 0o755))

	err := Run(context.Background(), &Options{
		ManifestPath:  manifestPath,
		OSReleasePath: osReleasePath,
		InputDir:      inputDir,
		OutputDir:     outputDir,
	})
	require.NoError(t, err)

	for _, name := range inputs {
		require.FileExists(t, filepath.Join(outputDir, name), name)
	}

	require.FileExists(t, filepath.Join(outputDir, "manifest.json"))
	require.FileExists(t, filepath.Join(outputDir, "os-release"))

	// A staged tree must stay provisionable: the scripts remain executable.
	for _, script := range []string{"provision.sh", "factory.sh"} {
		info, statErr := os.Stat(filepath.Join(outputDir, script))
		require.NoError(t, statErr)
		require.Equal(t, os.FileMode(0o755), info.Mode().Perm(), script)
	}

	// Generated outputs are not staged: they only exist after a build.
	require.NoFileExists(t, filepath.Join(outputDir, "boot.vfat"))
	require.NoFileExists(t, filepath.Join(outputDir, "firmware.fw"))
	require.NoFileExists(t, filepath.Join(outputDir, "disk.img"))
}

// TestRunAggregatesMissingInputs reports every missing file in one run.
func TestRunAggregatesMissingInputs(t *testing.T) {
	t.Parallel()

	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "staged")
	manifestPath := filepath.Join(inputDir, "manifest.json")
	osReleasePath := filepath.Join(inputDir, "os-release")

	require.NoError(t, os.WriteFile(manifestPath, []byte(stageManifest), 0o644))
	require.NoError(t, os.WriteFile(osReleasePath, []byte(`VERSION_ID=1`), 0o644))

	// Only some inputs exist; the rest should each produce an error.
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "disk.conf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "factory.sh"), []byte("x"), 0o644))

	err := Run(context.Background(), &Options{
		ManifestPath:  manifestPath,
		OSReleasePath: osReleasePath,
		InputDir:      inputDir,
		OutputDir:     outputDir,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "u-boot.bin")
	require.Contains(t, err.Error(), "kernel.itb")
	require.Contains(t, err.Error(), "firmware.conf")
	require.Contains(t, err.Error(), "provision.sh")

	// Inputs that do exist were still staged.
	require.FileExists(t, filepath.Join(outputDir, "disk.conf"))
	require.FileExists(t, filepath.Join(outputDir, "factory.sh"))
}
