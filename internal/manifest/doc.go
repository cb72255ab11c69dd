// Package manifest holds the typed representation of the declarative build
// manifest: storage devices, their images and partitions, and the optional
// provisioning block. Polymorphic wire shapes (Image, BuildArgs, FileEntry,
// EnvRef) are decoded into tagged unions at parse time so that shape errors
// surface as SchemaError values instead of runtime field lookups.
//
// A Manifest is parsed once per run and never mutated afterwards.
package manifest
