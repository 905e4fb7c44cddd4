// Package pad implements the padding/reorder layer (§4.1): it lifts a raw
// modulus list to a power-of-two length and arranges it smallest..largest |
// largest..smallest so that the product engine's small×large pairing (§4.3)
// keeps every ascent step's operands within a constant factor of each
// other. It also records the permutation needed to map results back to
// caller order.
//
// Grounded on the teacher's padToPowerOfTwo (pkg/merkle/merkle.go), which
// solves the adjacent but simpler problem of padding a leaf list to a
// power of two for hashing; this package generalizes that to carry an
// explicit origin index per slot, since (unlike hash-tree padding) a
// dropped index here would silently misattribute a GCD result.
package pad

import (
	"math/big"
	"sort"

	"github.com/indutny/bulk-gcd/internal/bgbig"
	"github.com/indutny/bulk-gcd/pkg/level"
)

// Padded is the result of Pad: the padded, reordered values, and the
// permutation that maps a padded-array position back to its source.
type Padded struct {
	Values level.Level

	// Indices[k] is the original index that Values[k] came from, or -1 if
	// Values[k] is a padding sentinel with no corresponding input.
	Indices []int
}

type entry struct {
	value *big.Int
	index int
}

// Pad lifts xs to the next power-of-two length (at least 2), appending
// padding-sentinel 1s, then sorts ascending by bit-length and reverses the
// upper half — "smallest .. largest | largest .. smallest" — so that
// pairing position i with i+N'/2 during the first ascend couples the
// smallest operand with the largest at every step.
func Pad(xs []*big.Int) Padded {
	n := len(xs)
	size := paddedLen(n)

	entries := make([]entry, 0, size)
	for i, x := range xs {
		entries = append(entries, entry{value: x, index: i})
	}
	for len(entries) < size {
		entries = append(entries, entry{value: big.NewInt(1), index: -1})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return bgbig.BitLen(entries[i].value) < bgbig.BitLen(entries[j].value)
	})

	half := size / 2
	for i, j := half, size-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	values := make(level.Level, size)
	indices := make([]int, size)
	for k, e := range entries {
		values[k] = e.value
		indices[k] = e.index
	}
	return Padded{Values: values, Indices: indices}
}

// Unpad reverses Pad's reordering: it builds a slice of length n where
// position indices[k] (when it is a real, in-range origin, not a padding
// sentinel's -1) receives values[k]. Used both to restore caller order for
// the final GCD vector and, in tests, to verify the round-trip invariant
// directly on Pad's own output.
func Unpad(values []*big.Int, indices []int, n int) []*big.Int {
	out := make([]*big.Int, n)
	for k, idx := range indices {
		if idx >= 0 && idx < n {
			out[idx] = values[k]
		}
	}
	return out
}

// paddedLen returns the smallest power of two >= n, with a floor of 2 (a
// single modulus still needs a pairing partner; §3 requires N' >= 2).
func paddedLen(n int) int {
	if n <= 1 {
		return 2
	}
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}
