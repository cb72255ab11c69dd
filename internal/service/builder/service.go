package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/oshokin/mason/internal/env"
	"github.com/oshokin/mason/internal/fatimg"
	"github.com/oshokin/mason/internal/fwup"
	"github.com/oshokin/mason/internal/geometry"
	"github.com/oshokin/mason/internal/logger"
	"github.com/oshokin/mason/internal/manifest"
	"github.com/oshokin/mason/internal/runner"
	"github.com/oshokin/mason/internal/service/common"
)

// Options contains inputs for the build entry point.
type Options struct {
	// ManifestPath is the manifest file to build from.
	ManifestPath string
	// InputDir is the directory manifest inputs are resolved against.
	InputDir string
	// OutputDir is the directory receiving built artifacts.
	OutputDir string
	// FwupPath overrides the fwup executable; empty means PATH lookup.
	FwupPath string
	// Runner executes external processes; nil means the real exec runner.
	Runner runner.Runner
}

// builder assembles every image artifact a manifest declares.
// It is unexported—callers should use Run, which encapsulates setup.
type builder struct {
	manifest  *manifest.Manifest
	inputDir  string
	outputDir string
	fwupPath  string
	run       runner.Runner
}

// Run executes the build workflow. Every image is attempted even when an
// earlier one fails, and all failures are reported together.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "build")

	m, err := manifest.Load(opts.ManifestPath)
	if err != nil {
		return err
	}

	run := opts.Runner
	if run == nil {
		run = &runner.ExecRunner{}
	}

	b := &builder{
		manifest:  m,
		inputDir:  opts.InputDir,
		outputDir: opts.OutputDir,
		fwupPath:  opts.FwupPath,
		run:       run,
	}

	if err = b.buildAll(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Build completed successfully")

	return nil
}

// buildAll walks the manifest's devices in sorted order and builds each
// image, collecting per-image failures instead of stopping at the first.
func (b *builder) buildAll(ctx context.Context) error {
	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory %q: %w", b.outputDir, err)
	}

	var errs error

	for _, deviceName := range b.manifest.DeviceNames() {
		device := b.manifest.StorageDevices[deviceName]

		logger.InfoKV(ctx, "Processing storage device", "device", deviceName)

		for _, imageName := range device.ImageNames() {
			image := device.Images[imageName]

			if err := b.buildImage(ctx, imageName, image); err != nil {
				errs = multierr.Append(errs,
					fmt.Errorf("device %q image %q: %w", deviceName, imageName, err))
			}
		}
	}

	return errs
}

// buildImage dispatches on the image's build kind. Images without build
// arguments are plain inputs and are copied into the output directory.
func (b *builder) buildImage(ctx context.Context, imageName string, image *manifest.Image) error {
	switch image.BuildKind() {
	case manifest.KindFat:
		logger.InfoKV(ctx, "Building FAT image", "image", imageName, "out", image.Out)

		return b.buildFat(ctx, image)
	case manifest.KindFwup:
		logger.InfoKV(ctx, "Building firmware package", "image", imageName, "out", image.Out)

		return b.buildFwup(ctx, image)
	default:
		logger.InfoKV(ctx, "Copying image", "image", imageName, "out", image.OutputName())

		name := image.OutputName()

		return common.CopyFile(filepath.Join(b.inputDir, name), filepath.Join(b.outputDir, name))
	}
}

// buildFat constructs a FAT filesystem image of exactly the declared size.
func (b *builder) buildFat(ctx context.Context, image *manifest.Image) error {
	sizeBytes, err := geometry.ToBytes(image.Size, image.SizeUnit)
	if err != nil {
		return err
	}

	if sizeBytes == 0 {
		return &geometry.InvalidSizeError{Subject: image.Out, Size: image.Size}
	}

	return fatimg.Build(ctx, fatimg.BuildParams{
		Files:      FatEntries(image.Files()),
		SizeBytes:  sizeBytes,
		Variant:    image.BuildArgs.Variant,
		Label:      fatimg.DefaultLabel,
		BasePath:   b.inputDir,
		OutputPath: filepath.Join(b.outputDir, image.Out),
	})
}

// buildFwup invokes the firmware packager with the image-level environment
// (disk block size and UUID only).
func (b *builder) buildFwup(ctx context.Context, image *manifest.Image) error {
	return fwup.CreatePackage(ctx, b.run, fwup.PackageParams{
		Executable: b.fwupPath,
		Template:   filepath.Join(b.inputDir, image.BuildArgs.Template),
		Output:     filepath.Join(b.outputDir, image.Out),
		WorkDir:    b.outputDir,
		Env:        env.DeriveImageEnv(image),
	})
}

// FatEntries converts manifest file entries into the FAT builder's form,
// duplicating bare names as input=output.
func FatEntries(files []manifest.FileEntry) []fatimg.FileEntry {
	entries := make([]fatimg.FileEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, fatimg.FileEntry{Source: f.Input(), Dest: f.Output()})
	}

	return entries
}
