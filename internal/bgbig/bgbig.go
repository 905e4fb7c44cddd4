// Package bgbig holds the handful of big.Int helpers shared across the
// padding and tree packages, so the bit-length comparison used by the
// padding sort (§4.1) and the remainder engine's short-circuit guard
// (§4.5) has one definition instead of two.
package bgbig

import "math/big"

// BitLen returns x's bit length, treating a nil x as zero bits. Callers in
// this pipeline never actually pass nil (every level slot is a live
// *big.Int, even padding sentinels), but the nil check keeps this a safe
// drop-in for big.Int.BitLen everywhere it's used.
func BitLen(x *big.Int) int {
	if x == nil {
		return 0
	}
	return x.BitLen()
}
