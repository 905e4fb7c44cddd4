package tree

import (
	"context"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/indutny/bulk-gcd/internal/bgbig"
	"github.com/indutny/bulk-gcd/internal/bgconfig"
	"github.com/indutny/bulk-gcd/pkg/cache"
	"github.com/indutny/bulk-gcd/pkg/level"
)

// Remainders runs the remainder tree descent (§4.5) over the padded leaf
// level, producing the bottom level: for every leaf x_i, the full tree
// product reduced modulo x_i^2 (Finalize then divides this back down to
// the product of the other leaves).
//
// The descent starts at the root (length 1, the total product) and halves
// its way back down to the leaves using a two-frontier strategy: at any
// moment it holds `remainders`, the remainder level being propagated
// downward, and `current`, the product level immediately below it,
// recomputed from the leaves by ComputeProducts (which transparently
// consults the checkpoint cache) rather than kept resident — per §5, the
// design holds at most two adjacent levels at once to bound peak memory.
//
// At each step, a parent level of length rn and a current level of length
// 2*rn are combined: current[i] is replaced by remainders[i % rn] reduced
// modulo current[i]^2 — the node inherits its ancestor's accumulated
// product with everything below the node's own subtree squared out of it.
// When twice the child's bit-length exceeds the parent's bit-length, the
// square is skipped and the parent is carried forward unreduced. Its square
// is then at least as wide as the parent, so the modulo would remove little
// or nothing, though the carried value is not always below current[i]^2;
// it stays congruent to the parent modulo current[i]^2, which is all
// Finalize relies on.
//
// At or below cfg.SerialThreshold, the descent runs on a single goroutine:
// those are the shortest levels in the run, nearest the root, whose entries
// are the largest operands, so parallelising them would multiply peak
// memory by the worker count for the smallest available win.
func Remainders(ctx context.Context, cfg bgconfig.Config, c *cache.Cache, leaves level.Level) (level.Level, error) {
	n := len(leaves)
	if n == 0 {
		return nil, nil
	}
	if n == 1 {
		// No other leaf to reduce against: the "full product" is the leaf
		// itself, so Finalize's division by x_0 yields 1 and hence gcd 1.
		return level.Level{new(big.Int).Set(leaves[0])}, nil
	}

	remainders, err := ComputeProducts(ctx, cfg, c, leaves, 1)
	if err != nil {
		return nil, err
	}

	for len(remainders) < n {
		targetLen := len(remainders) * 2

		current, err := ComputeProducts(ctx, cfg, c, leaves, targetLen)
		if err != nil {
			return nil, err
		}

		if err := descend(ctx, cfg, remainders, current); err != nil {
			return nil, err
		}
		remainders = current
	}
	return remainders, nil
}

// descend performs one level of the reduction described in Remainders'
// doc comment, overwriting current in place.
func descend(ctx context.Context, cfg bgconfig.Config, remainders, current level.Level) error {
	rn := len(remainders)

	step := func(i int) {
		parent := remainders[i%rn]
		cur := current[i]

		if 2*bgbig.BitLen(cur) > bgbig.BitLen(parent) {
			current[i] = new(big.Int).Set(parent)
			return
		}

		sq := new(big.Int).Mul(cur, cur)
		current[i] = new(big.Int).Mod(parent, sq)
	}

	if len(current) <= cfg.SerialThresholdOrDefault() {
		for i := range current {
			step(i)
		}
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.WorkersOrDefault())
	for i := range current {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			step(i)
			return nil
		})
	}
	return g.Wait()
}
