//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyFile copies a regular file from src to dst, creating dst's parent
// directories as needed. The destination is truncated if it already exists
// and keeps the source's permission bits, so staged scripts stay executable.
func CopyFile(src, dst string) error {
	source, err := os.Open(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("open %q: %w", src, err)
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return fmt.Errorf("stat %q: %w", src, err)
	}

	if parent := filepath.Dir(dst); parent != "." {
		if err = os.MkdirAll(parent, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", parent, err)
		}
	}

	destination, err := os.OpenFile(filepath.Clean(dst), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create %q: %w", dst, err)
	}

	if _, err = io.Copy(destination, source); err != nil {
		destination.Close()

		return fmt.Errorf("copy %q to %q: %w", src, dst, err)
	}

	if err = destination.Close(); err != nil {
		return fmt.Errorf("close %q: %w", dst, err)
	}

	// OpenFile only applies the mode on creation; align pre-existing files too.
	if err = os.Chmod(dst, info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod %q: %w", dst, err)
	}

	return nil
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}
