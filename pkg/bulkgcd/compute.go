// Package bulkgcd wires the padding, product-tree, remainder-tree, and
// checkpoint-cache packages into the single operation the rest of the
// module exists to provide: given a batch of RSA moduli, report which
// ones share a prime factor with another modulus in the batch.
//
// Grounded on the teacher's pkg/setup.ExportKeys (pkg/setup/setup.go),
// which is the teacher's own top-level "wire the pieces together, return
// one result or one wrapped error" entry point; this package follows the
// same shape — validate input, run the pipeline stages in order, wrap
// every stage's error with what stage produced it.
package bulkgcd

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/indutny/bulk-gcd/internal/bgconfig"
	"github.com/indutny/bulk-gcd/pkg/cache"
	"github.com/indutny/bulk-gcd/pkg/pad"
	"github.com/indutny/bulk-gcd/pkg/tree"
)

// ErrNotEnoughModuli is returned when fewer than two moduli are supplied:
// a batch GCD needs at least one "other" modulus to compare against.
var ErrNotEnoughModuli = errors.New("bulkgcd: need at least two moduli")

// Options configures a Compute call. The zero value runs uncached with
// default tuning (internal/bgconfig.Config's own zero-value defaults).
type Options struct {
	Config bgconfig.Config

	// CacheDir, if non-empty, enables checkpointing of product-tree levels
	// to this directory, so a later request for a cached level length (in
	// this run or a rerun) reads it back instead of re-ascending from the
	// leaves. The root is always recomputed from the leaves, and
	// remainder-tree levels are not cached.
	CacheDir string
}

// Result is one modulus's batch-GCD outcome.
type Result struct {
	// Index is the modulus's position in the slice passed to Compute.
	Index int

	// GCD is gcd(modulus, product of every other modulus in the batch).
	// A value of 1 means the modulus shares no factor with the rest of
	// the batch.
	GCD *big.Int
}

// Vulnerable reports whether this result indicates a shared factor: a GCD
// strictly greater than 1.
func (r Result) Vulnerable() bool {
	return r.GCD.Cmp(big.NewInt(1)) > 0
}

// Compute runs the batch GCD pipeline with default options.
func Compute(ctx context.Context, moduli []*big.Int) ([]Result, error) {
	return ComputeWithOptions(ctx, moduli, Options{})
}

// ComputeWithOptions runs the batch GCD pipeline (§4): pad moduli to a
// power-of-two, balanced-bit-length leaf level; build and descend the
// product/remainder tree; reduce the bottom level to one GCD per original
// modulus; and restore the caller's original ordering.
func ComputeWithOptions(ctx context.Context, moduli []*big.Int, opts Options) ([]Result, error) {
	if len(moduli) < 2 {
		return nil, ErrNotEnoughModuli
	}

	var c *cache.Cache
	if opts.CacheDir != "" {
		var err error
		c, err = cache.Open(opts.CacheDir, opts.Config)
		if err != nil {
			return nil, fmt.Errorf("bulkgcd: opening cache: %w", err)
		}
	}

	padded := pad.Pad(moduli)

	remainders, err := tree.Remainders(ctx, opts.Config, c, padded.Values)
	if err != nil {
		return nil, fmt.Errorf("bulkgcd: computing remainder tree: %w", err)
	}

	gcds := tree.Finalize(remainders, padded.Values)
	ordered := pad.Unpad(gcds, padded.Indices, len(moduli))

	results := make([]Result, len(moduli))
	for i, g := range ordered {
		results[i] = Result{Index: i, GCD: g}
	}
	return results, nil
}
