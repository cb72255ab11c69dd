package env

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/mason/internal/geometry"
	"github.com/oshokin/mason/internal/manifest"
	"github.com/oshokin/mason/internal/osinfo"
)

func testDevice() *manifest.StorageDevice {
	return &manifest.StorageDevice{
		Out:       "disk.img",
		DevPath:   "/dev/mmcblk0",
		BlockSize: 512,
		UUID:      "f4f04492-52b5-4f43-a442-ae4f7e867df4",
		Images: map[string]*manifest.Image{
			"bootloader": {Ref: "u-boot.bin"},
			"boot": {
				Out:       "boot.vfat",
				Size:      16,
				SizeUnit:  geometry.UnitMebibytes,
				BuildArgs: &manifest.BuildArgs{Kind: manifest.KindFat, Variant: manifest.Fat32},
			},
			"rootfs": {Out: "rootfs.img", Size: 256, SizeUnit: geometry.UnitMebibytes},
		},
		Partitions: []manifest.Partition{
			{Name: "boot-a", Image: "boot", Size: 16, SizeUnit: geometry.UnitMebibytes},
			{Name: "root", Image: "rootfs", Size: 256, SizeUnit: geometry.UnitMebibytes, Expand: "true"},
		},
	}
}

func testManifest(device *manifest.StorageDevice) *manifest.Manifest {
	return &manifest.Manifest{
		Runtime:        manifest.Runtime{Platform: "imx93-evk", Architecture: "aarch64"},
		StorageDevices: map[string]*manifest.StorageDevice{"emmc": device},
	}
}

// TestDeriveDeviceEnv verifies the full derived key set: OS metadata, disk
// identity, image paths and partition geometry.
func TestDeriveDeviceEnv(t *testing.T) {
	t.Parallel()

	device := testDevice()
	params := DeriveParams{
		Device:   device,
		Manifest: testManifest(device),
		Release: &osinfo.Release{
			Version:     "1.2.3",
			Codename:    "apollo",
			Description: "Test OS 1.2.3",
			Author:      "Test Vendor",
		},
		InputDir: "/work/in",
		BuildDir: "/work/in/_build",
	}

	vars, err := DeriveDeviceEnv(params)
	require.NoError(t, err)

	require.Equal(t, "1.2.3", vars["MASON_OS_VERSION"])
	require.Equal(t, "apollo", vars["MASON_OS_CODENAME"])
	require.Equal(t, "Test OS 1.2.3", vars["MASON_OS_DESCRIPTION"])
	require.Equal(t, "Test Vendor", vars["MASON_OS_AUTHOR"])
	require.Equal(t, "imx93-evk", vars["MASON_OS_PLATFORM"])
	require.Equal(t, "aarch64", vars["MASON_OS_ARCHITECTURE"])

	require.Equal(t, "512", vars["MASON_DISK_BLOCK_SIZE"])
	require.Equal(t, "f4f04492-52b5-4f43-a442-ae4f7e867df4", vars["MASON_DISK_UUID"])

	// Built images resolve under the build directory, inputs under the
	// input directory; all paths are absolute.
	require.Equal(t, filepath.Join("/work/in", "u-boot.bin"), vars["MASON_IMAGE_BOOTLOADER"])
	require.Equal(t, filepath.Join("/work/in/_build", "boot.vfat"), vars["MASON_IMAGE_BOOT"])
	require.Equal(t, filepath.Join("/work/in", "rootfs.img"), vars["MASON_IMAGE_ROOTFS"])

	// 16 MiB and 256 MiB at 512-byte blocks.
	require.Equal(t, "0", vars["MASON_PARTITION_BOOT_A_OFFSET"])
	require.Equal(t, "32768", vars["MASON_PARTITION_BOOT_A_BLOCKS"])
	require.Equal(t, "32768", vars["MASON_PARTITION_ROOT_OFFSET"])
	require.Equal(t, "524288", vars["MASON_PARTITION_ROOT_BLOCKS"])
	require.Equal(t, "true", vars["MASON_PARTITION_ROOT_EXPAND"])

	require.NotContains(t, vars, "MASON_PARTITION_BOOT_A_EXPAND")
	require.NotContains(t, vars, "MASON_PARTITION_ROOT_OFFSET_REDUND")
}

// TestDeriveDeviceEnvHyphenatedImage verifies image names go through the
// same normalization as partition names, so the derived key stays a valid
// shell variable name.
func TestDeriveDeviceEnvHyphenatedImage(t *testing.T) {
	t.Parallel()

	device := testDevice()
	device.Images["recovery-a"] = &manifest.Image{Ref: "recovery.img"}

	vars, err := DeriveDeviceEnv(DeriveParams{
		Device:   device,
		Manifest: testManifest(device),
		Release:  &osinfo.Release{Version: "1.2.3"},
		InputDir: "/work/in",
		BuildDir: "/work/in/_build",
	})
	require.NoError(t, err)

	require.Equal(t, filepath.Join("/work/in", "recovery.img"), vars["MASON_IMAGE_RECOVERY_A"])
	require.NotContains(t, vars, "MASON_IMAGE_RECOVERY-A")
}

// TestDeriveDeviceEnvDeterministic ensures two derivations of the same
// manifest are identical.
func TestDeriveDeviceEnvDeterministic(t *testing.T) {
	t.Parallel()

	device := testDevice()
	params := DeriveParams{
		Device:   device,
		Manifest: testManifest(device),
		Release:  &osinfo.Release{Version: "1"},
		InputDir: "/in",
		BuildDir: "/in/_build",
	}

	first, err := DeriveDeviceEnv(params)
	require.NoError(t, err)

	second, err := DeriveDeviceEnv(params)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

// TestDeriveDeviceEnvRedundantOffset checks the secondary offset key.
func TestDeriveDeviceEnvRedundantOffset(t *testing.T) {
	t.Parallel()

	redundant := int64(1024)
	device := testDevice()
	device.Partitions = []manifest.Partition{
		{Name: "uboot", OffsetRedundant: &redundant, Size: 1, SizeUnit: geometry.UnitMebibytes},
	}

	vars, err := DeriveDeviceEnv(DeriveParams{
		Device:   device,
		Manifest: testManifest(device),
		Release:  &osinfo.Release{Version: "1"},
		InputDir: "/in",
		BuildDir: "/in/_build",
	})
	require.NoError(t, err)
	require.Equal(t, "1024", vars["MASON_PARTITION_UBOOT_OFFSET_REDUND"])
}

// TestDeriveDeviceEnvOmitsOptionalDiskKeys checks block size and UUID only
// appear when the device declares them.
func TestDeriveDeviceEnvOmitsOptionalDiskKeys(t *testing.T) {
	t.Parallel()

	device := testDevice()
	device.BlockSize = 0
	device.UUID = ""

	vars, err := DeriveDeviceEnv(DeriveParams{
		Device:   device,
		Manifest: testManifest(device),
		Release:  &osinfo.Release{Version: "1"},
		InputDir: "/in",
		BuildDir: "/in/_build",
	})
	require.NoError(t, err)
	require.NotContains(t, vars, "MASON_DISK_BLOCK_SIZE")
	require.NotContains(t, vars, "MASON_DISK_UUID")
}

// TestDeriveImageEnv covers the narrow image-level environment.
func TestDeriveImageEnv(t *testing.T) {
	t.Parallel()

	image := &manifest.Image{Out: "x.img", BlockSize: 4096, UUID: "abc"}

	vars := DeriveImageEnv(image)
	require.Equal(t, map[string]string{
		"MASON_DISK_BLOCK_SIZE": "4096",
		"MASON_DISK_UUID":       "abc",
	}, vars)

	require.Empty(t, DeriveImageEnv(&manifest.Image{Out: "y.img"}))
}

// TestEnvName covers the uppercase/underscore transform.
func TestEnvName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "BOOT_A", EnvName("boot-a"))
	require.Equal(t, "ROOT_FS", EnvName("root fs"))
	require.Equal(t, "PLAIN", EnvName("plain"))
}
