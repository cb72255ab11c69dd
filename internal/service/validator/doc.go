// Package validator implements the validate command: it checks that every
// input a manifest references exists, that declared UUIDs and sizes are
// well-formed and that the partition layout is computable, reporting all
// problems of a run together instead of stopping at the first.
package validator
