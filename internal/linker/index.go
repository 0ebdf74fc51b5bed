package linker

import (
	"sort"

	"github.com/openrx/rxlink/internal/model"
)

// IndexEntry is one posting in the reference index: a directory entry
// reachable through a specific normalized variant.
type IndexEntry struct {
	Ref     *model.ReferenceEntry
	Variant Variant
}

// Index is the length-bucketed lookup structure over every normalized
// variant of the directory. It is built exactly once per run and is
// read-only afterward, so concurrent lookups need no locking.
type Index struct {
	buckets map[int]map[string][]IndexEntry
	lengths []int // bucket lengths, ascending
	size    int   // total postings
}

// BuildIndex consumes the full directory once and builds the index. Each
// distinct (variant, hypothesis) pair is inserted at most once per entry.
// The entries slice must outlive the index; postings point into it.
func BuildIndex(entries []model.ReferenceEntry, floor int) *Index {
	ix := &Index{buckets: make(map[int]map[string][]IndexEntry)}

	type variantKey struct {
		text string
		hyp  Hypothesis
	}

	for i := range entries {
		ref := &entries[i]
		seen := make(map[variantKey]struct{})

		for _, v := range ReferenceVariants(ref.ProductCode, floor) {
			if v.Text == "" {
				continue
			}
			k := variantKey{text: v.Text, hyp: v.Hypothesis}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}

			bucket, ok := ix.buckets[len(v.Text)]
			if !ok {
				bucket = make(map[string][]IndexEntry)
				ix.buckets[len(v.Text)] = bucket
			}
			bucket[v.Text] = append(bucket[v.Text], IndexEntry{Ref: ref, Variant: v})
			ix.size++
		}
	}

	ix.lengths = make([]int, 0, len(ix.buckets))
	for l := range ix.buckets {
		ix.lengths = append(ix.lengths, l)
	}
	sort.Ints(ix.lengths)

	return ix
}

// Lookup returns the postings for an exact variant string of the given
// length, or nil.
func (ix *Index) Lookup(length int, s string) []IndexEntry {
	bucket, ok := ix.buckets[length]
	if !ok {
		return nil
	}
	return bucket[s]
}

// Lengths returns the indexed variant lengths in ascending order.
func (ix *Index) Lengths() []int { return ix.lengths }

// Size returns the total number of postings in the index.
func (ix *Index) Size() int { return ix.size }

// sortedVariants returns the variant strings of a length bucket in
// lexicographic order. Reverse-phase scans iterate whole buckets; sorting
// here keeps candidate order, and therefore output, reproducible across
// runs.
func (ix *Index) sortedVariants(length int) []string {
	bucket, ok := ix.buckets[length]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(bucket))
	for k := range bucket {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
