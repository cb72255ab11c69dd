package stager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/oshokin/mason/internal/logger"
	"github.com/oshokin/mason/internal/manifest"
	"github.com/oshokin/mason/internal/osinfo"
	"github.com/oshokin/mason/internal/service/common"
)

// Options contains inputs for the create entry point.
type Options struct {
	// ManifestPath is the manifest file describing what to stage.
	ManifestPath string
	// OSReleasePath is the OS metadata file staged alongside the manifest.
	OSReleasePath string
	// InputDir is the directory manifest inputs are resolved against.
	InputDir string
	// OutputDir is the directory receiving the staged tree.
	OutputDir string
}

// stager copies every manifest input into a self-contained output tree.
// It is unexported—callers should use Run, which encapsulates setup.
type stager struct {
	manifest  *manifest.Manifest
	inputDir  string
	outputDir string
}

// Run executes the staging workflow. Generated artifacts (object images)
// are skipped since they only exist after a build; everything else the
// manifest references is copied, and all failures are reported together.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "create")

	m, err := manifest.Load(opts.ManifestPath)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory %q: %w", opts.OutputDir, err)
	}

	s := &stager{manifest: m, inputDir: opts.InputDir, outputDir: opts.OutputDir}

	var errs error

	for _, deviceName := range m.DeviceNames() {
		device := m.StorageDevices[deviceName]

		logger.InfoKV(ctx, "Staging storage device inputs", "device", deviceName)

		if device.BuildArgs != nil {
			if err = s.stage(device.BuildArgs.Template); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("device %q fwup template: %w", deviceName, err))
			}
		}

		for _, imageName := range device.ImageNames() {
			if err = s.stageImage(device.Images[imageName]); err != nil {
				errs = multierr.Append(errs,
					fmt.Errorf("device %q image %q: %w", deviceName, imageName, err))
			}
		}
	}

	errs = multierr.Append(errs, s.stageProvision())

	if err = common.CopyFile(opts.ManifestPath, filepath.Join(opts.OutputDir, manifest.Filename)); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("manifest: %w", err))
	}

	if err = common.CopyFile(opts.OSReleasePath, filepath.Join(opts.OutputDir, osinfo.Filename)); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("os-release: %w", err))
	}

	if errs != nil {
		return errs
	}

	logger.Info(ctx, "Staged manifest inputs successfully")

	return nil
}

// stageImage copies one image's inputs: its fwup template, its FAT file
// entries and, for bare references, the referenced file itself. Object
// images are build outputs and are not staged.
func (s *stager) stageImage(image *manifest.Image) error {
	var errs error

	if image.BuildKind() == manifest.KindFwup {
		if err := s.stage(image.BuildArgs.Template); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("fwup template: %w", err))
		}
	}

	for _, entry := range image.Files() {
		if err := s.stage(entry.Input()); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if image.IsRef() {
		if err := s.stage(image.Ref); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

// stageProvision copies the runtime provision script and every profile's
// script into the output tree.
func (s *stager) stageProvision() error {
	var errs error

	m := s.manifest

	if m.Runtime.Provision != "" {
		if err := s.stage(m.Runtime.Provision); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("provision script: %w", err))
		}
	}

	if m.Provision == nil {
		return errs
	}

	for _, profileName := range m.Provision.ProfileNames() {
		profile := m.Provision.Profiles[profileName]

		if err := s.stage(profile.Script); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("profile %q script: %w", profileName, err))
		}
	}

	return errs
}

// stage copies one input file, preserving its path relative to the input
// directory.
func (s *stager) stage(name string) error {
	return common.CopyFile(filepath.Join(s.inputDir, name), filepath.Join(s.outputDir, name))
}
