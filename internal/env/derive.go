package env

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oshokin/mason/internal/geometry"
	"github.com/oshokin/mason/internal/manifest"
	"github.com/oshokin/mason/internal/osinfo"
)

// Prefix is the common prefix of every derived environment variable.
const Prefix = "MASON_"

// Pointer variables handed to provisioning scripts.
const (
	// ManifestVar holds the absolute manifest path.
	ManifestVar = Prefix + "MANIFEST"
	// BuildDirVar holds the absolute build directory path.
	BuildDirVar = Prefix + "BUILD_DIR"
	// DataDirVar holds the absolute input directory path.
	DataDirVar = Prefix + "DATA_DIR"
)

// DeriveParams carries the inputs of device environment derivation.
type DeriveParams struct {
	// Device is the storage device whose environment is derived.
	Device *manifest.StorageDevice
	// Manifest is the device's containing manifest.
	Manifest *manifest.Manifest
	// Release is the parsed OS metadata.
	Release *osinfo.Release
	// InputDir is the source tree holding manifest inputs.
	InputDir string
	// BuildDir is the transient tree holding generated artifacts.
	BuildDir string
}

// DeriveDeviceEnv computes the full environment consumed by a device-level
// firmware package build: OS metadata, disk identity, one IMAGE_* path per
// image and the PARTITION_* geometry keys for every named partition.
func DeriveDeviceEnv(params DeriveParams) (map[string]string, error) {
	vars := map[string]string{
		Prefix + "OS_VERSION":      params.Release.Version,
		Prefix + "OS_CODENAME":     params.Release.Codename,
		Prefix + "OS_DESCRIPTION":  params.Release.Description,
		Prefix + "OS_AUTHOR":       params.Release.Author,
		Prefix + "OS_PLATFORM":     params.Manifest.Runtime.Platform,
		Prefix + "OS_ARCHITECTURE": params.Manifest.Runtime.Architecture,
	}

	device := params.Device

	if device.BlockSize != 0 {
		vars[Prefix+"DISK_BLOCK_SIZE"] = fmt.Sprintf("%d", device.BlockSize)
	}

	if device.UUID != "" {
		vars[Prefix+"DISK_UUID"] = device.UUID
	}

	for _, imageName := range device.ImageNames() {
		path, err := ImagePath(device.Images[imageName], params.InputDir, params.BuildDir)
		if err != nil {
			return nil, fmt.Errorf("image %q: %w", imageName, err)
		}

		vars[Prefix+"IMAGE_"+EnvName(imageName)] = path
	}

	layout, err := geometry.Layout(device.EffectiveBlockSize(), device.Partitions)
	if err != nil {
		return nil, err
	}

	for _, geom := range layout {
		if geom.Name == "" {
			continue
		}

		key := Prefix + "PARTITION_" + EnvName(geom.Name)
		vars[key+"_OFFSET"] = fmt.Sprintf("%d", geom.OffsetBlocks)
		vars[key+"_BLOCKS"] = fmt.Sprintf("%d", geom.SizeBlocks)

		if geom.RedundantOffsetBlocks != nil {
			vars[key+"_OFFSET_REDUND"] = fmt.Sprintf("%d", *geom.RedundantOffsetBlocks)
		}
	}

	for i := range device.Partitions {
		p := &device.Partitions[i]
		if p.Name != "" && p.Expand != "" {
			vars[Prefix+"PARTITION_"+EnvName(p.Name)+"_EXPAND"] = p.Expand
		}
	}

	return vars, nil
}

// DeriveImageEnv computes the narrow environment of an image-level firmware
// package build: disk block size and UUID only, when declared on the image.
func DeriveImageEnv(image *manifest.Image) map[string]string {
	vars := make(map[string]string, 2)

	if image.BlockSize != 0 {
		vars[Prefix+"DISK_BLOCK_SIZE"] = fmt.Sprintf("%d", image.BlockSize)
	}

	if image.UUID != "" {
		vars[Prefix+"DISK_UUID"] = image.UUID
	}

	return vars
}

// ImagePath resolves an image to the absolute path of its artifact.
// Images with build arguments resolve under the build directory; everything
// else is an input and resolves under the input directory.
func ImagePath(image *manifest.Image, inputDir, buildDir string) (string, error) {
	var path string

	switch {
	case image.IsRef():
		path = filepath.Join(inputDir, image.Ref)
	case image.BuildArgs != nil:
		path = filepath.Join(buildDir, image.Out)
	default:
		path = filepath.Join(inputDir, image.Out)
	}

	absolute, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve image path %q: %w", path, err)
	}

	return absolute, nil
}

// EnvName transforms a declared name into its environment variable form:
// uppercased, with hyphens and spaces replaced by underscores.
func EnvName(name string) string {
	upper := strings.ToUpper(name)
	upper = strings.ReplaceAll(upper, "-", "_")
	upper = strings.ReplaceAll(upper, " ", "_")

	return upper
}

// sortedKeys returns the map's keys in sorted order.
func sortedKeys(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
