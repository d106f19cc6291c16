package batch

import (
	"fmt"

	"glance/internal/media"
)

// DefaultSize is the number of items submitted concurrently per batch.
const DefaultSize = 5

// Partition splits refs into contiguous batches of at most size items,
// preserving input order. Batch membership never changes afterwards.
func Partition(refs []media.Reference, size int) ([][]media.Reference, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch: size must be positive, got %d", size)
	}
	if len(refs) == 0 {
		return nil, nil
	}
	batches := make([][]media.Reference, 0, (len(refs)+size-1)/size)
	for start := 0; start < len(refs); start += size {
		end := min(start+size, len(refs))
		batches = append(batches, refs[start:end])
	}
	return batches, nil
}
