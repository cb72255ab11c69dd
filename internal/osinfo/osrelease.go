// Package osinfo reads OS metadata from an os-release style file:
// newline-delimited KEY=VALUE pairs with optional single or double quoting.
// Only the version is mandatory; other fields default to empty strings.
package osinfo

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Filename is the conventional OS metadata file name inside an input directory.
const Filename = "os-release"

// Release holds the OS metadata consumed by the derived build environment.
type Release struct {
	// Version is the VERSION_ID value. Mandatory.
	Version string
	// Codename is the VERSION_CODENAME value.
	Codename string
	// Description is the PRETTY_NAME value.
	Description string
	// Author is the VENDOR_NAME value.
	Author string
}

// Load reads the os-release file from the given input directory.
func Load(inputDir string) (*Release, error) {
	path := filepath.Join(inputDir, Filename)

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read os-release %q: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // Read-only file.

	release := new(Release)
	hasVersion := false

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		value = unquote(value)

		switch key {
		case "VERSION_ID":
			release.Version = value
			hasVersion = true
		case "VERSION_CODENAME":
			release.Codename = value
		case "PRETTY_NAME":
			release.Description = value
		case "VENDOR_NAME":
			release.Author = value
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read os-release %q: %w", path, err)
	}

	if !hasVersion {
		return nil, fmt.Errorf("os-release %q: VERSION_ID field not found", path)
	}

	return release, nil
}

// unquote strips one layer of matching single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}

	return s
}
