// Package describer implements the describe command: a human-readable
// rendering of a manifest's platform, storage devices, images and partition
// layout tables.
package describer
