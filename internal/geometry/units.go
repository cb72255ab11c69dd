package geometry

import "fmt"

// Unit names accepted for sizes and offsets. The set is closed: any other
// string is a validation error, never a silent default.
const (
	UnitBytes     = "bytes"
	UnitKilobytes = "kilobytes"
	UnitKibibytes = "kibibytes"
	UnitMegabytes = "megabytes"
	UnitMebibytes = "mebibytes"
	UnitGigabytes = "gigabytes"
	UnitGibibytes = "gibibytes"
	UnitTerabytes = "terabytes"
	UnitTebibytes = "tebibytes"
	// UnitBlocks is already expressed in device blocks and bypasses byte conversion.
	UnitBlocks = "blocks"
)

// unitFactors maps byte-denominated units to their byte multipliers.
// Decimal units scale by powers of 1000, binary units by powers of 1024.
//
//nolint:gochecknoglobals // Conversion table fixed by the manifest contract.
var unitFactors = map[string]uint64{
	UnitBytes:     1,
	UnitKilobytes: 1000,
	UnitKibibytes: 1024,
	UnitMegabytes: 1000 * 1000,
	UnitMebibytes: 1024 * 1024,
	UnitGigabytes: 1000 * 1000 * 1000,
	UnitGibibytes: 1024 * 1024 * 1024,
	UnitTerabytes: 1000 * 1000 * 1000 * 1000,
	UnitTebibytes: 1024 * 1024 * 1024 * 1024,
}

// UnsupportedUnitError reports a unit string outside the closed unit set.
type UnsupportedUnitError struct {
	// Unit is the offending unit string.
	Unit string
}

// Error implements the error interface.
func (e *UnsupportedUnitError) Error() string {
	return fmt.Sprintf("unsupported size unit %q", e.Unit)
}

// InvalidSizeError reports a non-positive magnitude where a positive one is required.
type InvalidSizeError struct {
	// Subject names what carried the invalid size (an image or partition).
	Subject string
	// Size is the offending magnitude.
	Size int64
}

// Error implements the error interface.
func (e *InvalidSizeError) Error() string {
	return fmt.Sprintf("%s: size must be positive, got %d", e.Subject, e.Size)
}

// ToBytes converts a magnitude in the given byte-denominated unit to bytes.
// The blocks unit is rejected here because block counts are not a byte
// quantity without a block size; use ToBlocks for those.
func ToBytes(magnitude int64, unit string) (uint64, error) {
	factor, ok := unitFactors[unit]
	if !ok {
		return 0, &UnsupportedUnitError{Unit: unit}
	}

	if magnitude < 0 {
		return 0, &InvalidSizeError{Subject: "magnitude", Size: magnitude}
	}

	return uint64(magnitude) * factor, nil
}

// ToBlocks converts a magnitude in any supported unit to whole device blocks,
// truncating a trailing partial block. The blocks unit passes through as-is.
func ToBlocks(magnitude int64, unit string, blockSize uint32) (uint64, error) {
	if unit == UnitBlocks {
		if magnitude < 0 {
			return 0, &InvalidSizeError{Subject: "magnitude", Size: magnitude}
		}

		return uint64(magnitude), nil
	}

	byteCount, err := ToBytes(magnitude, unit)
	if err != nil {
		return 0, err
	}

	return byteCount / uint64(blockSize), nil
}

// ValidUnit reports whether the unit string belongs to the closed unit set.
func ValidUnit(unit string) bool {
	if unit == UnitBlocks {
		return true
	}

	_, ok := unitFactors[unit]

	return ok
}
