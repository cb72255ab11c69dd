package provisioner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/mason/internal/env"
	"github.com/oshokin/mason/internal/fatimg"
	"github.com/oshokin/mason/internal/fwup"
	"github.com/oshokin/mason/internal/geometry"
	"github.com/oshokin/mason/internal/logger"
	"github.com/oshokin/mason/internal/manifest"
	"github.com/oshokin/mason/internal/osinfo"
	"github.com/oshokin/mason/internal/runner"
	"github.com/oshokin/mason/internal/service/builder"
)

// Options contains inputs for the provision entry point.
type Options struct {
	// InputDir is the directory holding the manifest and its inputs.
	InputDir string
	// BuildDirName is the transient artifact directory name under InputDir.
	BuildDirName string
	// Profile optionally selects a provisioning profile by name,
	// overriding the manifest's default.
	Profile string
	// FwupPath overrides the fwup executable; empty means PATH lookup.
	FwupPath string
	// Runner executes external processes; nil means the real exec runner.
	Runner runner.Runner
}

// provisioner drives the full provisioning sequence: all images of a device,
// then the device's own firmware package, then the provisioning script.
// It is unexported—callers should use Run, which encapsulates setup.
type provisioner struct {
	manifest *manifest.Manifest
	inputDir string
	buildDir string
	fwupPath string
	profile  string
	run      runner.Runner

	// release caches the parsed os-release file across device builds.
	release *osinfo.Release
}

// Run executes the provisioning workflow. Unlike build, provisioning is
// fail-fast: each step consumes artifacts the previous one generated, so the
// first failure aborts the run.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "provision")

	m, err := manifest.Load(filepath.Join(opts.InputDir, manifest.Filename))
	if err != nil {
		return err
	}

	run := opts.Runner
	if run == nil {
		run = &runner.ExecRunner{}
	}

	p := &provisioner{
		manifest: m,
		inputDir: opts.InputDir,
		buildDir: filepath.Join(opts.InputDir, opts.BuildDirName),
		fwupPath: opts.FwupPath,
		profile:  opts.Profile,
		run:      run,
	}

	if err = p.provision(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Provision completed successfully")

	return nil
}

func (p *provisioner) provision(ctx context.Context) error {
	if err := os.MkdirAll(p.buildDir, 0o755); err != nil {
		return fmt.Errorf("create build directory %q: %w", p.buildDir, err)
	}

	for _, deviceName := range p.manifest.DeviceNames() {
		device := p.manifest.StorageDevices[deviceName]

		logger.InfoKV(ctx, "Provisioning storage device", "device", deviceName)

		for _, imageName := range device.ImageNames() {
			if err := p.buildImage(ctx, imageName, device.Images[imageName]); err != nil {
				return fmt.Errorf("device %q image %q: %w", deviceName, imageName, err)
			}
		}

		if device.BuildArgs != nil {
			if err := p.buildDevice(ctx, deviceName, device); err != nil {
				return fmt.Errorf("device %q: %w", deviceName, err)
			}
		}
	}

	return p.runProvisionScript(ctx)
}

// buildImage builds one image into the build directory. Bare references and
// objects without build arguments are inputs and need no build.
func (p *provisioner) buildImage(ctx context.Context, imageName string, image *manifest.Image) error {
	switch image.BuildKind() {
	case manifest.KindFat:
		logger.InfoKV(ctx, "Building FAT image", "image", imageName, "out", image.Out)

		sizeBytes, err := geometry.ToBytes(image.Size, image.SizeUnit)
		if err != nil {
			return err
		}

		if sizeBytes == 0 {
			return &geometry.InvalidSizeError{Subject: image.Out, Size: image.Size}
		}

		return fatimg.Build(ctx, fatimg.BuildParams{
			Files:      builder.FatEntries(image.Files()),
			SizeBytes:  sizeBytes,
			Variant:    image.BuildArgs.Variant,
			Label:      fatimg.DefaultLabel,
			BasePath:   p.inputDir,
			OutputPath: filepath.Join(p.buildDir, image.Out),
		})
	case manifest.KindFwup:
		logger.InfoKV(ctx, "Building firmware package", "image", imageName, "out", image.Out)

		return fwup.CreatePackage(ctx, p.run, fwup.PackageParams{
			Executable: p.fwupPath,
			Template:   filepath.Join(p.inputDir, image.BuildArgs.Template),
			Output:     filepath.Join(p.buildDir, image.Out),
			WorkDir:    p.buildDir,
			Env:        env.DeriveImageEnv(image),
		})
	default:
		logger.DebugKV(ctx, "Image needs no build", "image", imageName)

		return nil
	}
}

// buildDevice runs the device-level firmware package build with the full
// derived environment: OS metadata, disk identity, image paths and the
// partition geometry of every named partition.
func (p *provisioner) buildDevice(ctx context.Context, deviceName string, device *manifest.StorageDevice) error {
	release, err := p.osRelease()
	if err != nil {
		return err
	}

	vars, err := env.DeriveDeviceEnv(env.DeriveParams{
		Device:   device,
		Manifest: p.manifest,
		Release:  release,
		InputDir: p.inputDir,
		BuildDir: p.buildDir,
	})
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Building storage device package",
		"device", deviceName,
		"template", device.BuildArgs.Template,
		"out", device.Out)

	return fwup.CreatePackage(ctx, p.run, fwup.PackageParams{
		Executable: p.fwupPath,
		Template:   filepath.Join(p.inputDir, device.BuildArgs.Template),
		Output:     filepath.Join(p.buildDir, device.Out),
		WorkDir:    p.buildDir,
		Env:        vars,
	})
}

// osRelease loads the os-release file once and caches it: the file is only
// required when at least one device declares a device-level build.
func (p *provisioner) osRelease() (*osinfo.Release, error) {
	if p.release != nil {
		return p.release, nil
	}

	release, err := osinfo.Load(p.inputDir)
	if err != nil {
		return nil, err
	}

	p.release = release

	return release, nil
}

// runProvisionScript selects and executes the provisioning entry point:
// an explicitly requested profile, else the manifest's default profile,
// else the bare runtime provision script. No entry point means no-op.
func (p *provisioner) runProvisionScript(ctx context.Context) error {
	script, vars, err := p.selectScript()
	if err != nil {
		return err
	}

	if script == "" {
		logger.Debug(ctx, "No provisioning script declared, skipping")

		return nil
	}

	scriptPath := filepath.Join(p.inputDir, script)
	if _, err = os.Stat(scriptPath); err != nil {
		return fmt.Errorf("provision script %q: %w", scriptPath, err)
	}

	pointers, err := p.pointerVars()
	if err != nil {
		return err
	}

	scriptEnv := make(map[string]string, len(vars)+len(pointers))
	for key, value := range vars {
		scriptEnv[key] = value
	}

	for key, value := range pointers {
		scriptEnv[key] = value
	}

	logger.InfoKV(ctx, "Executing provision script", "script", scriptPath)

	if err = p.run.Run(ctx, runner.Spec{
		Executable: scriptPath,
		Dir:        p.inputDir,
		Env:        scriptEnv,
	}); err != nil {
		return fmt.Errorf("provision script %q: %w", script, err)
	}

	return nil
}

// selectScript resolves the provisioning entry point and its environment.
// Profile environments are flattened and expanded against the process
// environment before injection.
func (p *provisioner) selectScript() (string, map[string]string, error) {
	profileName := p.profile
	if profileName == "" {
		profileName = p.manifest.Runtime.DefaultProfile
	}

	if profileName != "" {
		profile, ok := p.manifest.Profile(profileName)
		if !ok {
			return "", nil, fmt.Errorf("provisioning profile %q is not defined", profileName)
		}

		vars, err := env.ResolveProfile(profileName, profile, p.manifest.Provision)
		if err != nil {
			return "", nil, err
		}

		return profile.Script, env.Expand(vars, env.ProcessEnv()), nil
	}

	return p.manifest.Runtime.Provision, nil, nil
}

// pointerVars computes the absolute-path variables every provisioning
// script receives regardless of profile.
func (p *provisioner) pointerVars() (map[string]string, error) {
	manifestPath, err := filepath.Abs(filepath.Join(p.inputDir, manifest.Filename))
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}

	buildDir, err := filepath.Abs(p.buildDir)
	if err != nil {
		return nil, fmt.Errorf("resolve build directory: %w", err)
	}

	inputDir, err := filepath.Abs(p.inputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve input directory: %w", err)
	}

	return map[string]string{
		env.ManifestVar: manifestPath,
		env.BuildDirVar: buildDir,
		env.DataDirVar:  inputDir,
	}, nil
}
