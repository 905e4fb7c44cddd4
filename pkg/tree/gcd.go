package tree

import "math/big"

// Finalize turns the remainder tree's bottom level into the batch-GCD
// result (§4.6's last step).
//
// remainders[i] is congruent to the full tree product modulo x_i^2 (usually
// fully reduced, but descend's bit-length guard can leave it above x_i^2) —
// it still carries a factor of x_i itself, since the descent started from
// the product of every leaf, not just the others. Both the product and
// x_i^2 are multiples of x_i, so dividing by x_i is always exact, and the
// quotient is congruent to (product of every other leaf) modulo x_i; the
// GCD of that quotient with x_i is then the GCD of x_i with the product of
// every other leaf.
//
// A result of 1 means x_i shares no factor with any other modulus in the
// batch; a result strictly between 1 and x_i is a shared factor — a
// vulnerable modulus.
func Finalize(remainders, leaves []*big.Int) []*big.Int {
	out := make([]*big.Int, len(leaves))
	for i, x := range leaves {
		q := new(big.Int).Div(remainders[i], x)
		out[i] = new(big.Int).GCD(nil, nil, q, x)
	}
	return out
}
