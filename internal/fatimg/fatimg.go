// Package fatimg builds FAT filesystem images from a file manifest.
// It allocates a fixed-size container, formats it through the go-fs
// filesystem collaborator, and materializes the declared directory tree and
// files. The FAT byte layout itself belongs to the collaborator; this
// package owns the manifest-to-filesystem-operation translation.
package fatimg

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	gofs "github.com/mitchellh/go-fs"
	"github.com/mitchellh/go-fs/fat"

	"github.com/oshokin/mason/internal/logger"
	"github.com/oshokin/mason/internal/manifest"
)

// labelLength is the fixed FAT volume label width in bytes.
const labelLength = 11

// DefaultLabel is the volume label applied when none is provided.
const DefaultLabel = "MASON"

// FileEntry maps one source file into the built filesystem.
type FileEntry struct {
	// Source is the path of the input file, relative to BasePath.
	Source string
	// Dest is the destination path inside the filesystem.
	Dest string
}

// BuildParams carries everything needed to construct one FAT image.
type BuildParams struct {
	// Files is the ordered list of files to place into the filesystem.
	Files []FileEntry
	// Directories are created before any files, in order.
	Directories []string
	// SizeBytes is the exact container size.
	SizeBytes uint64
	// Variant selects the FAT flavor.
	Variant manifest.FatVariant
	// Label is the volume label; padded or truncated to 11 bytes.
	Label string
	// BasePath is the directory source paths are resolved against.
	BasePath string
	// OutputPath is where the image file is written.
	OutputPath string
}

// MissingInputFileError reports a source file that could not be read.
type MissingInputFileError struct {
	// Path is the full source path.
	Path string
	// Err is the underlying read failure.
	Err error
}

// Error implements the error interface.
func (e *MissingInputFileError) Error() string {
	return fmt.Sprintf("read input file %q: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying failure.
func (e *MissingInputFileError) Unwrap() error {
	return e.Err
}

// VolumeFormatError reports a failure to format the container as FAT.
type VolumeFormatError struct {
	// Err is the underlying format failure.
	Err error
}

// Error implements the error interface.
func (e *VolumeFormatError) Error() string {
	return fmt.Sprintf("format FAT volume: %v", e.Err)
}

// Unwrap exposes the underlying failure.
func (e *VolumeFormatError) Unwrap() error {
	return e.Err
}

// Build allocates a zero-filled container of exactly params.SizeBytes,
// formats it with the requested FAT variant, creates the declared
// directories and then writes every file entry, loading each source file
// fully into memory.
func Build(ctx context.Context, params BuildParams) error {
	container, err := os.OpenFile(filepath.Clean(params.OutputPath), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create image container %q: %w", params.OutputPath, err)
	}
	defer container.Close() //nolint:errcheck // Best-effort close after an explicit Sync below.

	if err = container.Truncate(int64(params.SizeBytes)); err != nil {
		return fmt.Errorf("allocate %d bytes for %q: %w", params.SizeBytes, params.OutputPath, err)
	}

	device, err := gofs.NewFileDisk(container)
	if err != nil {
		return fmt.Errorf("open image container %q as block device: %w", params.OutputPath, err)
	}

	formatConfig := &fat.SuperFloppyConfig{
		FATType: fatType(params.Variant),
		Label:   padLabel(params.Label),
		OEMName: "mason",
	}

	if err = fat.FormatSuperFloppy(device, formatConfig); err != nil {
		return &VolumeFormatError{Err: err}
	}

	filesystem, err := fat.New(device)
	if err != nil {
		return &VolumeFormatError{Err: err}
	}

	rootDir, err := filesystem.RootDir()
	if err != nil {
		return fmt.Errorf("open root directory of %q: %w", params.OutputPath, err)
	}

	for _, dir := range params.Directories {
		logger.Debugf(ctx, "Creating directory %q", dir)

		if _, err = ensureDirectory(rootDir, dir); err != nil {
			return err
		}
	}

	for _, entry := range params.Files {
		logger.Debugf(ctx, "Adding file %q -> %q", entry.Source, entry.Dest)

		if err = addFile(rootDir, params.BasePath, entry); err != nil {
			return err
		}
	}

	if err = container.Sync(); err != nil {
		return fmt.Errorf("flush image %q: %w", params.OutputPath, err)
	}

	return nil
}

// ensureDirectory walks the slash-separated path from dir, creating or
// reusing each component. Existing components are never an error.
func ensureDirectory(dir gofs.Directory, dirPath string) (gofs.Directory, error) {
	for _, component := range strings.Split(path.Clean(dirPath), "/") {
		if component == "" || component == "." {
			continue
		}

		if existing := dir.Entry(component); existing != nil {
			sub, err := existing.Dir()
			if err != nil {
				return nil, fmt.Errorf("open directory %q: %w", component, err)
			}

			dir = sub

			continue
		}

		created, err := dir.AddDirectory(component)
		if err != nil {
			return nil, fmt.Errorf("create directory %q: %w", component, err)
		}

		sub, err := created.Dir()
		if err != nil {
			return nil, fmt.Errorf("open directory %q: %w", component, err)
		}

		dir = sub
	}

	return dir, nil
}

// addFile reads the source file fully into memory, creates intermediate
// destination directories and writes the content.
func addFile(rootDir gofs.Directory, basePath string, entry FileEntry) error {
	sourcePath := filepath.Join(basePath, entry.Source)

	content, err := os.ReadFile(filepath.Clean(sourcePath))
	if err != nil {
		return &MissingInputFileError{Path: sourcePath, Err: err}
	}

	dest := path.Clean(entry.Dest)

	dir := rootDir
	if parent := path.Dir(dest); parent != "." && parent != "/" {
		if dir, err = ensureDirectory(rootDir, parent); err != nil {
			return err
		}
	}

	name := path.Base(dest)

	created, err := dir.AddFile(name)
	if err != nil {
		return fmt.Errorf("create file %q: %w", dest, err)
	}

	file, err := created.File()
	if err != nil {
		return fmt.Errorf("open file %q: %w", dest, err)
	}

	if _, err = file.Write(content); err != nil {
		return fmt.Errorf("write file %q: %w", dest, err)
	}

	return nil
}

// fatType maps the manifest variant to the collaborator's enum.
func fatType(variant manifest.FatVariant) fat.FATType {
	switch variant {
	case manifest.Fat12:
		return fat.FAT12
	case manifest.Fat16:
		return fat.FAT16
	case manifest.Fat32:
		return fat.FAT32
	default:
		return fat.FAT32
	}
}

// padLabel space-pads (or truncates) the label to the fixed 11-byte width.
func padLabel(label string) string {
	if label == "" {
		label = DefaultLabel
	}

	if len(label) > labelLength {
		return label[:labelLength]
	}

	return label + strings.Repeat(" ", labelLength-len(label))
}
