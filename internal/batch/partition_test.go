package batch

import (
	"fmt"
	"testing"

	"glance/internal/media"
)

func urlRefs(n int) []media.Reference {
	refs := make([]media.Reference, n)
	for i := range refs {
		refs[i] = media.URLRef{URL: fmt.Sprintf("https://example.com/%d.jpg", i)}
	}
	return refs
}

func TestPartitionSizes(t *testing.T) {
	tests := []struct {
		name  string
		items int
		size  int
		want  []int
	}{
		{"empty", 0, 5, nil},
		{"single partial", 3, 5, []int{3}},
		{"exact batch", 5, 5, []int{5}},
		{"trailing partial", 7, 5, []int{5, 2}},
		{"several full", 10, 5, []int{5, 5}},
		{"size one", 3, 1, []int{1, 1, 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			batches, err := Partition(urlRefs(tc.items), tc.size)
			if err != nil {
				t.Fatalf("Partition returned error: %v", err)
			}
			if len(batches) != len(tc.want) {
				t.Fatalf("expected %d batches, got %d", len(tc.want), len(batches))
			}
			for i, size := range tc.want {
				if len(batches[i]) != size {
					t.Fatalf("batch %d: expected %d items, got %d", i, size, len(batches[i]))
				}
			}
		})
	}
}

func TestPartitionPreservesOrder(t *testing.T) {
	refs := urlRefs(12)
	batches, err := Partition(refs, 5)
	if err != nil {
		t.Fatalf("Partition returned error: %v", err)
	}
	index := 0
	for _, batch := range batches {
		for _, ref := range batch {
			if ref.Label() != refs[index].Label() {
				t.Fatalf("position %d: expected %q, got %q", index, refs[index].Label(), ref.Label())
			}
			index++
		}
	}
	if index != len(refs) {
		t.Fatalf("expected %d items across batches, got %d", len(refs), index)
	}
}

func TestPartitionRejectsBadSize(t *testing.T) {
	if _, err := Partition(urlRefs(3), 0); err == nil {
		t.Fatal("expected error for zero size")
	}
	if _, err := Partition(urlRefs(3), -1); err == nil {
		t.Fatal("expected error for negative size")
	}
}
