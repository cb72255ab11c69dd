package manifest

import (
	"bytes"
	"encoding/json"
)

// FatVariant selects a FAT filesystem flavor for fat builds.
type FatVariant string

// Supported FAT variants, distinguished by allocation-table entry width.
const (
	Fat12 FatVariant = "FAT12"
	Fat16 FatVariant = "FAT16"
	Fat32 FatVariant = "FAT32"
)

// Build kinds discriminating BuildArgs variants.
const (
	// KindFat builds a FAT filesystem image from a file list.
	KindFat = "fat"
	// KindFwup builds a firmware package from a fwup template.
	KindFwup = "fwup"
)

// Image is a tagged union over two wire shapes: a bare filename string
// (an input file referenced as-is) or a structured object describing a
// generated artifact. Exactly one shape is populated.
type Image struct {
	// Ref is the bare filename for string-shaped images; empty for object images.
	Ref string
	// Out is the output filename of an object image.
	Out string
	// Size is the declared artifact size magnitude of an object image.
	Size int64
	// SizeUnit is the unit of Size.
	SizeUnit string
	// BlockSize optionally overrides the disk block size for this image's build.
	BlockSize uint32
	// UUID optionally pins the disk identifier for this image's build.
	UUID string
	// BuildArgs optionally declares how the image is constructed.
	BuildArgs *BuildArgs
}

// imageObject is the object wire shape of Image.
type imageObject struct {
	Out       string     `json:"out"`
	Size      int64      `json:"size"`
	SizeUnit  string     `json:"size_unit"`
	BlockSize uint32     `json:"block_size,omitempty"`
	UUID      string     `json:"uuid,omitempty"`
	BuildArgs *BuildArgs `json:"build_args,omitempty"`
}

// UnmarshalJSON decodes either a filename string or an image object.
func (img *Image) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var ref string
		if err := json.Unmarshal(trimmed, &ref); err != nil {
			return err
		}

		*img = Image{Ref: ref}

		return nil
	}

	var obj imageObject
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return err
	}

	*img = Image{
		Out:       obj.Out,
		Size:      obj.Size,
		SizeUnit:  obj.SizeUnit,
		BlockSize: obj.BlockSize,
		UUID:      obj.UUID,
		BuildArgs: obj.BuildArgs,
	}

	return nil
}

// MarshalJSON restores the original wire shape.
func (img Image) MarshalJSON() ([]byte, error) {
	if img.IsRef() {
		return json.Marshal(img.Ref)
	}

	return json.Marshal(imageObject{
		Out:       img.Out,
		Size:      img.Size,
		SizeUnit:  img.SizeUnit,
		BlockSize: img.BlockSize,
		UUID:      img.UUID,
		BuildArgs: img.BuildArgs,
	})
}

// IsRef reports whether the image is a bare file reference that needs no build.
func (img *Image) IsRef() bool {
	return img.Ref != ""
}

// OutputName returns the artifact filename: the reference itself for bare
// references, the declared output otherwise.
func (img *Image) OutputName() string {
	if img.IsRef() {
		return img.Ref
	}

	return img.Out
}

// BuildKind returns the build discriminator ("fat", "fwup") or an empty
// string when the image requires no build.
func (img *Image) BuildKind() string {
	if img.BuildArgs == nil {
		return ""
	}

	return img.BuildArgs.Kind
}

// Files returns the fat file list, or nil for non-fat images.
func (img *Image) Files() []FileEntry {
	if img.BuildArgs == nil {
		return nil
	}

	return img.BuildArgs.Files
}

// BuildArgs is a tagged union discriminated by Kind: a fat filesystem build
// (variant + file list) or a fwup firmware package build (template path).
type BuildArgs struct {
	// Kind discriminates the construction strategy: KindFat or KindFwup.
	Kind string
	// Variant selects the FAT flavor. Fat builds only.
	Variant FatVariant
	// Files is the ordered list of files populating the filesystem. Fat builds only.
	Files []FileEntry
	// Template is the fwup configuration template path, relative to the input
	// directory. Fwup builds only.
	Template string
}

// buildArgsWire is the wire shape of BuildArgs.
type buildArgsWire struct {
	Type     string      `json:"type"`
	Variant  FatVariant  `json:"variant,omitempty"`
	Files    []FileEntry `json:"files,omitempty"`
	Template string      `json:"template,omitempty"`
}

// UnmarshalJSON decodes the tagged build argument object, rejecting unknown
// kinds and invalid FAT variants at parse time.
func (b *BuildArgs) UnmarshalJSON(data []byte) error {
	var wire buildArgsWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	switch wire.Type {
	case KindFat:
		switch wire.Variant {
		case Fat12, Fat16, Fat32:
		default:
			return schemaErrorf("build_args", "variant", "must be one of FAT12, FAT16, FAT32, got %q", wire.Variant)
		}

		*b = BuildArgs{Kind: KindFat, Variant: wire.Variant, Files: wire.Files}
	case KindFwup:
		if wire.Template == "" {
			return schemaErrorf("build_args", "template", "is required for fwup builds")
		}

		*b = BuildArgs{Kind: KindFwup, Template: wire.Template}
	default:
		return schemaErrorf("build_args", "type", "must be %q or %q, got %q", KindFat, KindFwup, wire.Type)
	}

	return nil
}

// MarshalJSON restores the tagged wire shape.
func (b BuildArgs) MarshalJSON() ([]byte, error) {
	return json.Marshal(buildArgsWire{
		Type:     b.Kind,
		Variant:  b.Variant,
		Files:    b.Files,
		Template: b.Template,
	})
}

// FileEntry is a tagged union over a bare filename (used for both source and
// destination) and an explicit {in, out} pair.
type FileEntry struct {
	// In is the source path relative to the input directory.
	In string
	// Out is the destination path inside the built filesystem. Empty means same as In.
	Out string
}

// fileEntryWire is the object wire shape of FileEntry.
type fileEntryWire struct {
	In  string `json:"in"`
	Out string `json:"out"`
}

// UnmarshalJSON decodes either a filename string or an {in, out} object.
func (f *FileEntry) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return err
		}

		*f = FileEntry{In: name}

		return nil
	}

	var wire fileEntryWire
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return err
	}

	if wire.In == "" {
		return schemaErrorf("files", "in", "is required")
	}

	*f = FileEntry{In: wire.In, Out: wire.Out}

	return nil
}

// MarshalJSON restores the original wire shape.
func (f FileEntry) MarshalJSON() ([]byte, error) {
	if f.Out == "" || f.Out == f.In {
		return json.Marshal(f.In)
	}

	return json.Marshal(fileEntryWire{In: f.In, Out: f.Out})
}

// Input returns the source filename.
func (f FileEntry) Input() string {
	return f.In
}

// Output returns the destination filename, falling back to the source name.
func (f FileEntry) Output() string {
	if f.Out != "" {
		return f.Out
	}

	return f.In
}
