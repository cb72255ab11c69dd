package describer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dsnet/golib/unitconv"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/oshokin/mason/internal/geometry"
	"github.com/oshokin/mason/internal/logger"
	"github.com/oshokin/mason/internal/manifest"
)

// Options contains inputs for the describe entry point.
type Options struct {
	// ManifestPath is the manifest file to describe.
	ManifestPath string
	// Out receives the rendered description.
	Out io.Writer
}

// Run renders a human-readable summary of a manifest: the target platform,
// every storage device with its images and the partition layout table.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "describe")

	m, err := manifest.Load(opts.ManifestPath)
	if err != nil {
		return err
	}

	describe(opts.Out, m)

	logger.Info(ctx, "Described manifest")

	return nil
}

func describe(w io.Writer, m *manifest.Manifest) {
	fmt.Fprintf(w, "Platform: %s (%s)\n", m.Runtime.Platform, m.Runtime.Architecture)

	if m.Runtime.Provision != "" {
		fmt.Fprintf(w, "Provision script: %s\n", m.Runtime.Provision)
	}

	if m.Runtime.DefaultProfile != "" {
		fmt.Fprintf(w, "Default profile: %s\n", m.Runtime.DefaultProfile)
	}

	for _, deviceName := range m.DeviceNames() {
		device := m.StorageDevices[deviceName]

		fmt.Fprintf(w, "\nStorage device: %s\n", deviceName)
		fmt.Fprintf(w, "  Output file: %s\n", device.Out)
		fmt.Fprintf(w, "  Device path: %s\n", device.DevPath)
		fmt.Fprintf(w, "  Block size:  %d\n", device.EffectiveBlockSize())

		if device.UUID != "" {
			fmt.Fprintf(w, "  Disk UUID:   %s\n", device.UUID)
		}

		if device.BuildArgs != nil {
			fmt.Fprintf(w, "  Build:       %s (template %s)\n",
				device.BuildArgs.Kind, device.BuildArgs.Template)
		}

		describeImages(w, device)
		describePartitions(w, device)
	}

	if m.Provision != nil && len(m.Provision.Profiles) > 0 {
		describeProfiles(w, m.Provision)
	}
}

func describeImages(w io.Writer, device *manifest.StorageDevice) {
	if len(device.Images) == 0 {
		return
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Image", "Output", "Build", "Size", "Files"})

	for _, imageName := range device.ImageNames() {
		image := device.Images[imageName]

		build := image.BuildKind()
		if build == "" {
			build = "none"
		}

		size := "-"
		if !image.IsRef() && image.SizeUnit != "" {
			size = formatSize(image.Size, image.SizeUnit)
		}

		tbl.AppendRow(table.Row{
			imageName,
			image.OutputName(),
			build,
			size,
			formatFiles(image.Files()),
		})
	}

	tbl.Render()
}

func describePartitions(w io.Writer, device *manifest.StorageDevice) {
	if len(device.Partitions) == 0 {
		return
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"#", "Name", "Image", "Offset", "Size", "Flags"})

	for i := range device.Partitions {
		p := &device.Partitions[i]

		name := p.Name
		if name == "" {
			name = "-"
		}

		image := p.Image
		if image == "" {
			image = "-"
		}

		offset := "auto"
		if p.Offset != nil {
			offset = formatSize(*p.Offset, offsetUnit(p.OffsetUnit))
		}

		flags := ""
		if p.Expand == "true" {
			flags = "expandable"
		}

		tbl.AppendRow(table.Row{
			i + 1,
			name,
			image,
			offset,
			formatSize(p.Size, p.SizeUnit),
			flags,
		})
	}

	tbl.Render()
}

func describeProfiles(w io.Writer, provision *manifest.Provision) {
	fmt.Fprintf(w, "\nProvisioning profiles:\n")

	for _, profileName := range provision.ProfileNames() {
		fmt.Fprintf(w, "  %s: %s\n", profileName, provision.Profiles[profileName].Script)
	}
}

// formatSize renders a magnitude with its unit as a short human-readable
// string, converting byte-based units through an IEC prefix. Block counts
// have no byte meaning on their own and are rendered verbatim.
func formatSize(magnitude int64, unit string) string {
	if unit == geometry.UnitBlocks {
		return fmt.Sprintf("%d blocks", magnitude)
	}

	bytes, err := geometry.ToBytes(magnitude, unit)
	if err != nil {
		return fmt.Sprintf("%d %s", magnitude, unit)
	}

	return unitconv.FormatPrefix(float64(bytes), unitconv.IEC, 1) + "B"
}

func formatFiles(files []manifest.FileEntry) string {
	if len(files) == 0 {
		return "-"
	}

	pairs := make([]string, 0, len(files))
	for _, f := range files {
		if f.Output() == f.Input() {
			pairs = append(pairs, f.Input())
		} else {
			pairs = append(pairs, f.Input()+" -> "+f.Output())
		}
	}

	return strings.Join(pairs, "\n")
}

func offsetUnit(unit string) string {
	if unit == "" {
		return geometry.UnitBlocks
	}

	return unit
}
