package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DefaultBlockSize is the device addressing granularity assumed when a
// storage device does not declare one.
const DefaultBlockSize uint32 = 512

// Filename is the conventional manifest file name inside an input directory.
const Filename = "manifest.json"

// Manifest is the parsed, immutable representation of a manifest document.
type Manifest struct {
	// Runtime holds platform metadata and the optional provisioning entry points.
	Runtime Runtime `json:"runtime"`
	// StorageDevices maps device names to their declarations. Names are unique by construction.
	StorageDevices map[string]*StorageDevice `json:"storage_devices"`
	// Provision optionally declares shared environment blocks and provisioning profiles.
	Provision *Provision `json:"provision,omitempty"`
}

// Runtime describes the target platform and provisioning entry points.
type Runtime struct {
	// Platform is the target platform identifier (e.g. "imx93-evk").
	Platform string `json:"platform"`
	// Architecture is the target CPU architecture (e.g. "aarch64").
	Architecture string `json:"architecture"`
	// Provision is an optional provisioning script path, relative to the input directory.
	Provision string `json:"provision,omitempty"`
	// DefaultProfile optionally names the provisioning profile used when none is selected.
	DefaultProfile string `json:"default_profile,omitempty"`
}

// StorageDevice declares one output disk image: its images, its partition
// table, and an optional device-level firmware package build.
type StorageDevice struct {
	// Out is the output filename of the assembled device artifact.
	Out string `json:"out"`
	// DevPath is the device node the artifact targets (e.g. "/dev/mmcblk0").
	DevPath string `json:"devpath"`
	// BlockSize is the addressing granularity in bytes; zero means DefaultBlockSize.
	BlockSize uint32 `json:"block_size,omitempty"`
	// UUID optionally pins the disk identifier.
	UUID string `json:"uuid,omitempty"`
	// BuildArgs optionally declares a device-level build. Only the fwup kind is valid here.
	BuildArgs *BuildArgs `json:"build_args,omitempty"`
	// Images maps image names to their declarations. Names are unique by construction.
	Images map[string]*Image `json:"images"`
	// Partitions is the ordered partition table.
	Partitions []Partition `json:"partitions"`
}

// EffectiveBlockSize returns the declared block size or DefaultBlockSize.
func (d *StorageDevice) EffectiveBlockSize() uint32 {
	if d.BlockSize != 0 {
		return d.BlockSize
	}

	return DefaultBlockSize
}

// ImageNames returns the device's image names in sorted order so iteration is
// deterministic across runs.
func (d *StorageDevice) ImageNames() []string {
	names := make([]string, 0, len(d.Images))
	for name := range d.Images {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Partition is a named byte range within a storage device.
// Size is always required; the offset, when absent, defaults to immediately
// following the previous partition's end.
type Partition struct {
	// Name identifies the partition in the derived environment. Optional.
	Name string `json:"name,omitempty"`
	// Image optionally references the image populating this partition.
	Image string `json:"image,omitempty"`
	// Offset is the explicit start position, in OffsetUnit units.
	Offset *int64 `json:"offset,omitempty"`
	// OffsetUnit is the unit of Offset; defaults to "blocks" when Offset is set.
	OffsetUnit string `json:"offset_unit,omitempty"`
	// OffsetRedundant is an optional secondary copy position, in OffsetRedundantUnit units.
	OffsetRedundant *int64 `json:"offset_redundant,omitempty"`
	// OffsetRedundantUnit is the unit of OffsetRedundant; defaults to "blocks".
	OffsetRedundantUnit string `json:"offset_redundant_unit,omitempty"`
	// Size is the partition size magnitude. Required.
	Size int64 `json:"size"`
	// SizeUnit is the unit of Size. Required.
	SizeUnit string `json:"size_unit"`
	// Expand is a string-typed boolean marking the partition as growable at first boot.
	Expand string `json:"expand,omitempty"`
}

// Parse decodes and validates a manifest document.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if err := m.validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read manifest %q: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %q: %w", path, err)
	}

	return m, nil
}

// DeviceNames returns the storage device names in sorted order so iteration
// is deterministic across runs.
func (m *Manifest) DeviceNames() []string {
	names := make([]string, 0, len(m.StorageDevices))
	for name := range m.StorageDevices {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Profile looks up a provisioning profile by name.
func (m *Manifest) Profile(name string) (*Profile, bool) {
	if m.Provision == nil {
		return nil, false
	}

	p, ok := m.Provision.Profiles[name]

	return p, ok
}

// validate enforces the structural invariants that cannot be expressed by the
// type shapes alone. Shape mismatches inside tagged unions are caught earlier,
// during decoding.
func (m *Manifest) validate() error {
	if m.Runtime.Platform == "" {
		return schemaErrorf("runtime", "platform", "is required")
	}

	if m.Runtime.Architecture == "" {
		return schemaErrorf("runtime", "architecture", "is required")
	}

	for _, deviceName := range m.DeviceNames() {
		device := m.StorageDevices[deviceName]
		devicePath := "storage_devices." + deviceName

		if device.Out == "" {
			return schemaErrorf(devicePath, "out", "is required")
		}

		if device.DevPath == "" {
			return schemaErrorf(devicePath, "devpath", "is required")
		}

		if device.BuildArgs != nil && device.BuildArgs.Kind != KindFwup {
			return schemaErrorf(devicePath, "build_args",
				"must be of kind %q at device level, got %q", KindFwup, device.BuildArgs.Kind)
		}

		for _, imageName := range device.ImageNames() {
			image := device.Images[imageName]
			imagePath := devicePath + ".images." + imageName

			if image.IsRef() {
				continue
			}

			if image.Out == "" {
				return schemaErrorf(imagePath, "out", "is required")
			}

			if image.SizeUnit == "" {
				return schemaErrorf(imagePath, "size_unit", "is required")
			}
		}

		for i := range device.Partitions {
			if device.Partitions[i].SizeUnit == "" {
				return schemaErrorf(fmt.Sprintf("%s.partitions[%d]", devicePath, i), "size_unit", "is required")
			}
		}
	}

	if m.Provision != nil {
		for name, profile := range m.Provision.Profiles {
			if profile.Script == "" {
				return schemaErrorf("provision.profiles."+name, "script", "is required")
			}
		}
	}

	return nil
}
