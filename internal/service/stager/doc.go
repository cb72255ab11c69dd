// Package stager implements the create command: it assembles a
// self-contained input tree by copying every file a manifest references
// (templates, FAT file entries, referenced images, provisioning scripts)
// together with the manifest and the os-release file.
package stager
