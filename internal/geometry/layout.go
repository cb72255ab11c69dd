package geometry

import (
	"fmt"

	"github.com/oshokin/mason/internal/manifest"
)

// PartitionGeometry is one partition's computed block-aligned placement.
type PartitionGeometry struct {
	// Name is the declared partition name, possibly empty.
	Name string
	// OffsetBlocks is the start position in device blocks.
	OffsetBlocks uint64
	// SizeBlocks is the size in device blocks.
	SizeBlocks uint64
	// RedundantOffsetBlocks is the secondary copy position, when declared.
	RedundantOffsetBlocks *uint64
}

// Layout converts a device's ordered partition list into block-aligned
// geometry. Partitions without an explicit offset are placed immediately
// after the previous partition's end; an explicit offset is used verbatim
// and resets the running position to offset+size for the partitions after it.
func Layout(blockSize uint32, partitions []manifest.Partition) ([]PartitionGeometry, error) {
	result := make([]PartitionGeometry, 0, len(partitions))

	var cursor uint64

	for i := range partitions {
		p := &partitions[i]

		subject := fmt.Sprintf("partition[%d]", i)
		if p.Name != "" {
			subject = fmt.Sprintf("partition %q", p.Name)
		}

		if p.Size <= 0 {
			return nil, &InvalidSizeError{Subject: subject, Size: p.Size}
		}

		sizeBlocks, err := ToBlocks(p.Size, p.SizeUnit, blockSize)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", subject, err)
		}

		offsetBlocks := cursor
		if p.Offset != nil {
			offsetBlocks, err = ToBlocks(*p.Offset, offsetUnit(p.OffsetUnit), blockSize)
			if err != nil {
				return nil, fmt.Errorf("%s: offset: %w", subject, err)
			}
		}

		geom := PartitionGeometry{
			Name:         p.Name,
			OffsetBlocks: offsetBlocks,
			SizeBlocks:   sizeBlocks,
		}

		if p.OffsetRedundant != nil {
			redundant, err := ToBlocks(*p.OffsetRedundant, offsetUnit(p.OffsetRedundantUnit), blockSize)
			if err != nil {
				return nil, fmt.Errorf("%s: redundant offset: %w", subject, err)
			}

			geom.RedundantOffsetBlocks = &redundant
		}

		result = append(result, geom)

		cursor = offsetBlocks + sizeBlocks
	}

	return result, nil
}

// offsetUnit applies the blocks default for offsets declared without a unit.
func offsetUnit(unit string) string {
	if unit == "" {
		return UnitBlocks
	}

	return unit
}
