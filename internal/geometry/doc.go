// Package geometry converts declared partition sizes and offsets, expressed
// in a closed set of decimal and binary units, into block-aligned disk
// placement. Byte counts divide by the device block size with truncation;
// the cumulative layout rule places unpositioned partitions immediately
// after their predecessor.
package geometry
