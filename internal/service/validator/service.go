package validator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/oshokin/mason/internal/env"
	"github.com/oshokin/mason/internal/geometry"
	"github.com/oshokin/mason/internal/logger"
	"github.com/oshokin/mason/internal/manifest"
	"github.com/oshokin/mason/internal/service/common"
)

// Options contains inputs for the validate entry point.
type Options struct {
	// ManifestPath is the manifest file to validate.
	ManifestPath string
	// InputDir is the directory manifest inputs are resolved against.
	InputDir string
}

// validator checks that every input a manifest references is satisfiable.
// It is unexported—callers should use Run, which encapsulates setup.
type validator struct {
	manifest *manifest.Manifest
	inputDir string
}

// Run executes the validation workflow. Every discoverable problem across
// all devices, images and profiles is collected and reported together.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "validate")

	m, err := manifest.Load(opts.ManifestPath)
	if err != nil {
		return err
	}

	v := &validator{manifest: m, inputDir: opts.InputDir}

	if err = v.validate(); err != nil {
		return err
	}

	logger.Info(ctx, "Manifest validated successfully")

	return nil
}

func (v *validator) validate() error {
	var errs error

	for _, deviceName := range v.manifest.DeviceNames() {
		device := v.manifest.StorageDevices[deviceName]

		errs = multierr.Append(errs, v.validateDevice(deviceName, device))

		for _, imageName := range device.ImageNames() {
			if err := v.validateImage(device.Images[imageName]); err != nil {
				errs = multierr.Append(errs,
					fmt.Errorf("device %q image %q: %w", deviceName, imageName, err))
			}
		}
	}

	return multierr.Append(errs, v.validateProvision())
}

// validateDevice checks the device's disk identity, its device-level build
// template and the computability of its partition layout.
func (v *validator) validateDevice(deviceName string, device *manifest.StorageDevice) error {
	var errs error

	if device.UUID != "" {
		if err := uuid.Validate(device.UUID); err != nil {
			errs = multierr.Append(errs,
				fmt.Errorf("device %q: uuid %q: %w", deviceName, device.UUID, err))
		}
	}

	if device.BuildArgs != nil {
		if err := v.requireFile(device.BuildArgs.Template); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("device %q: fwup template: %w", deviceName, err))
		}
	}

	if _, err := geometry.Layout(device.EffectiveBlockSize(), device.Partitions); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("device %q: partition layout: %w", deviceName, err))
	}

	return errs
}

// validateImage checks one image: its referenced input files, its disk
// identity and the declared size of generated artifacts.
func (v *validator) validateImage(image *manifest.Image) error {
	var errs error

	if image.IsRef() {
		if err := v.requireFile(image.Ref); err != nil {
			errs = multierr.Append(errs, err)
		}

		return errs
	}

	if image.UUID != "" {
		if err := uuid.Validate(image.UUID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("uuid %q: %w", image.UUID, err))
		}
	}

	switch image.BuildKind() {
	case manifest.KindFat:
		sizeBytes, err := geometry.ToBytes(image.Size, image.SizeUnit)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if sizeBytes == 0 {
			errs = multierr.Append(errs, &geometry.InvalidSizeError{Subject: image.Out, Size: image.Size})
		}

		for _, entry := range image.Files() {
			if err = v.requireFile(entry.Input()); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
	case manifest.KindFwup:
		if err := v.requireFile(image.BuildArgs.Template); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("fwup template: %w", err))
		}
	default:
		// Objects without build arguments are pre-built inputs.
		if err := v.requireFile(image.Out); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

// validateProvision checks the provisioning entry points: script files,
// shared-block references and the default profile name.
func (v *validator) validateProvision() error {
	var errs error

	m := v.manifest

	if m.Runtime.Provision != "" {
		if err := v.requireFile(m.Runtime.Provision); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("runtime provision script: %w", err))
		}
	}

	if m.Runtime.DefaultProfile != "" {
		if _, ok := m.Profile(m.Runtime.DefaultProfile); !ok {
			errs = multierr.Append(errs,
				fmt.Errorf("default profile %q is not defined", m.Runtime.DefaultProfile))
		}
	}

	if m.Provision == nil {
		return errs
	}

	for _, profileName := range m.Provision.ProfileNames() {
		profile := m.Provision.Profiles[profileName]

		if err := v.requireFile(profile.Script); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("profile %q script: %w", profileName, err))
		}

		if _, err := env.ResolveProfile(profileName, profile, m.Provision); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

// requireFile reports an error naming the missing path when the input does
// not exist under the input directory.
func (v *validator) requireFile(name string) error {
	path := filepath.Join(v.inputDir, name)
	if !common.FileExists(path) {
		return fmt.Errorf("input file %q not found", path)
	}

	return nil
}
