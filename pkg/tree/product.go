// Package tree implements the product tree and remainder tree (§4.3–4.5):
// the ascend step that halves a level by pairwise multiplication, the
// descent that carries each node's product modulo the square of each
// child, and the final GCD extraction.
//
// Grounded on the teacher's SparseMerkleTree leaf-hashing pool
// (pkg/merkle/merkle.go), which fans a level's pairwise work out over a
// worker pool and collects results by index; this package keeps that
// fan-out shape but replaces the teacher's hand-rolled chan-int/WaitGroup
// pool with golang.org/x/sync/errgroup, and replaces Poseidon2 hashing with
// big.Int multiplication — optionally FFT-accelerated via
// github.com/remyoudompheng/bigfft once operands cross
// bgconfig.BigFFTThresholdBits.
package tree

import (
	"context"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/indutny/bulk-gcd/internal/bgbig"
	"github.com/indutny/bulk-gcd/internal/bgconfig"
	"github.com/indutny/bulk-gcd/pkg/cache"
	"github.com/indutny/bulk-gcd/pkg/level"
	"github.com/remyoudompheng/bigfft"
)

// Ascend halves lvl in place by pairwise multiplication: out[i] =
// lvl[i] * lvl[i+half]. len(lvl) must be even and non-zero. The multiply
// runs over a worker pool sized by cfg, since a single level's entries are
// mutually independent.
//
// lvl is consumed destructively — out aliases lvl's lower half, so callers
// that still need lvl afterwards (the leaf level, reused on every
// ComputeProducts call) must pass a clone. The moved-from upper half is
// also nilled out as each pair is consumed: out's backing array is lvl's
// own, so without this the full, unhalved capacity would stay reachable
// through out for every subsequent Ascend in the chain, pinning a
// log2(N')-deep multiple of the true working set in memory.
func Ascend(ctx context.Context, cfg bgconfig.Config, lvl level.Level) (level.Level, error) {
	half := len(lvl) / 2
	out := lvl[:half]

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.WorkersOrDefault())

	for i := 0; i < half; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = mul(cfg, lvl[i], lvl[i+half])
			lvl[i+half] = nil
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// mul multiplies a and b, routing through bigfft above the configured
// bit-length threshold. bigfft.Mul requires non-negative operands, which
// every value flowing through this pipeline already is (moduli and their
// products are always positive).
func mul(cfg bgconfig.Config, a, b *big.Int) *big.Int {
	threshold := cfg.BigFFTThresholdBitsOrDefault()
	if bgbig.BitLen(a) >= threshold && bgbig.BitLen(b) >= threshold {
		return bigfft.Mul(a, b)
	}
	return new(big.Int).Mul(a, b)
}

// ComputeProducts ascends leaves until the level reaches targetLen,
// returning that level (§4.3, "Called repeatedly ... until |level| ==
// target_len").
//
// When c is non-nil it implements §4.4's checkpoint protocol exactly:
// before ascending at all, the cache is consulted at key targetLen, and a
// hit is returned directly with no computation. Otherwise the engine
// ascends from the leaves, and every intermediate level strictly longer
// than targetLen is written to the cache as it is produced — the level at
// exactly targetLen is handed back to the caller uncached, since (per
// §4.4) "there is no benefit; it is the caller's result."
//
// leaves is never mutated: ComputeProducts clones it before the first
// ascend, since it is reused across the many ComputeProducts calls the
// remainder engine makes (one per tree depth) and Ascend mutates its input
// level's lower half in place.
//
// When cfg.Progress is set, it is called once per level produced (the
// original CLI's running count of completed levels) — the engine
// itself never logs, only reports the raw level length back to the caller.
func ComputeProducts(ctx context.Context, cfg bgconfig.Config, c *cache.Cache, leaves level.Level, targetLen int) (level.Level, error) {
	if c != nil {
		if hit := c.Get(targetLen); hit != nil {
			return hit, nil
		}
	}

	cur := leaves.Clone()
	for len(cur) > targetLen {
		next, err := Ascend(ctx, cfg, cur)
		if err != nil {
			return nil, err
		}
		cur = next
		if cfg.Progress != nil {
			cfg.Progress(len(cur))
		}

		if len(cur) > targetLen && c != nil {
			if err := c.Put(cur); err != nil {
				return nil, err
			}
		}
	}
	return cur, nil
}

// Root ascends leaves all the way to the single product at the top of the
// tree (§4.3's termination with a target length of 1).
func Root(ctx context.Context, cfg bgconfig.Config, c *cache.Cache, leaves level.Level) (*big.Int, error) {
	top, err := ComputeProducts(ctx, cfg, c, leaves, 1)
	if err != nil {
		return nil, err
	}
	return top[0], nil
}
