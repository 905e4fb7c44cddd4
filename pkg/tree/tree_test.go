package tree

import (
	"context"
	"math/big"
	"testing"

	"github.com/indutny/bulk-gcd/internal/bgbig"
	"github.com/indutny/bulk-gcd/internal/bgconfig"
	"github.com/indutny/bulk-gcd/pkg/cache"
	"github.com/indutny/bulk-gcd/pkg/level"
	"github.com/indutny/bulk-gcd/pkg/pad"
)

func ints(vals ...int64) []*big.Int {
	out := make([]*big.Int, len(vals))
	for i, v := range vals {
		out[i] = big.NewInt(v)
	}
	return out
}

// runBatchGCD exercises Pad -> Remainders -> Finalize -> Unpad exactly the
// way pkg/bulkgcd's driver does, without the caching layer, so the tree
// math can be checked against hand-worked scenarios in isolation.
func runBatchGCD(t *testing.T, moduli []*big.Int) []*big.Int {
	t.Helper()
	p := pad.Pad(moduli)

	remainders, err := Remainders(context.Background(), bgconfig.Config{}, nil, p.Values)
	if err != nil {
		t.Fatalf("Remainders: %v", err)
	}

	results := Finalize(remainders, p.Values)
	return pad.Unpad(results, p.Indices, len(moduli))
}

func TestScenarioTwoModuliSharedFactor(t *testing.T) {
	// 6 = 2*3, 15 = 3*5: shared factor 3.
	got := runBatchGCD(t, ints(6, 15))
	want := ints(3, 3)
	for i := range want {
		if got[i].Cmp(want[i]) != 0 {
			t.Fatalf("index %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestScenarioThreeModuliOneCoprime(t *testing.T) {
	// 15=3*5, 35=5*7 share 5; 23 is prime and coprime to both.
	got := runBatchGCD(t, ints(15, 35, 23))
	want := ints(5, 5, 1)
	for i := range want {
		if got[i].Cmp(want[i]) != 0 {
			t.Fatalf("index %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestScenarioAllCoprimePrimes(t *testing.T) {
	got := runBatchGCD(t, ints(7, 11, 13, 17))
	for i, g := range got {
		if g.Cmp(big.NewInt(1)) != 0 {
			t.Fatalf("index %d: got %s, want 1 (pairwise coprime primes)", i, g)
		}
	}
}

func TestScenarioDuplicateModulusSharesItself(t *testing.T) {
	got := runBatchGCD(t, ints(21, 21))
	for i, g := range got {
		if g.Cmp(big.NewInt(21)) != 0 {
			t.Fatalf("index %d: got %s, want 21 (two equal moduli)", i, g)
		}
	}
}

func TestComputeProductsMatchesDirectMultiplication(t *testing.T) {
	leaves := level.Level{big.NewInt(2), big.NewInt(3), big.NewInt(5), big.NewInt(7)}
	top, err := ComputeProducts(context.Background(), bgconfig.Config{}, nil, leaves, 1)
	if err != nil {
		t.Fatalf("ComputeProducts: %v", err)
	}
	want := big.NewInt(2 * 3 * 5 * 7)
	if top[0].Cmp(want) != 0 {
		t.Fatalf("got %s want %s", top[0], want)
	}
}

func TestComputeProductsDoesNotMutateLeaves(t *testing.T) {
	leaves := level.Level{big.NewInt(2), big.NewInt(3), big.NewInt(5), big.NewInt(7)}
	snapshot := leaves.Clone()

	if _, err := ComputeProducts(context.Background(), bgconfig.Config{}, nil, leaves, 1); err != nil {
		t.Fatalf("ComputeProducts: %v", err)
	}
	for i := range leaves {
		if leaves[i].Cmp(snapshot[i]) != 0 {
			t.Fatalf("leaves[%d] mutated: now %s, was %s", i, leaves[i], snapshot[i])
		}
	}
}

func TestComputeProductsReusableAcrossCalls(t *testing.T) {
	leaves := level.Level{big.NewInt(2), big.NewInt(3), big.NewInt(5), big.NewInt(7)}
	ctx := context.Background()
	cfg := bgconfig.Config{}

	if _, err := ComputeProducts(ctx, cfg, nil, leaves, 1); err != nil {
		t.Fatalf("first ComputeProducts: %v", err)
	}
	got, err := ComputeProducts(ctx, cfg, nil, leaves, 2)
	if err != nil {
		t.Fatalf("second ComputeProducts: %v", err)
	}
	want := level.Level{big.NewInt(2 * 5), big.NewInt(3 * 7)}
	for i := range want {
		if got[i].Cmp(want[i]) != 0 {
			t.Fatalf("index %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestComputeProductsCachesIntermediateLevels(t *testing.T) {
	dir := t.TempDir()
	c, err := cache.Open(dir, bgconfig.Config{})
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	ctx := context.Background()
	cfg := bgconfig.Config{}
	leaves := level.Level{big.NewInt(2), big.NewInt(3), big.NewInt(5), big.NewInt(7)}

	if _, err := ComputeProducts(ctx, cfg, c, leaves, 1); err != nil {
		t.Fatalf("ComputeProducts: %v", err)
	}

	// Length 2 (2*5=10, 3*7=21) is strictly greater than the target (1),
	// so it should have been written to the cache; the root itself
	// (length 1) should not have been, per §4.4.
	hit := c.Get(2)
	if hit == nil {
		t.Fatal("expected the intermediate length-2 level to be cached")
	}
	want := level.Level{big.NewInt(10), big.NewInt(21)}
	for i := range want {
		if hit[i].Cmp(want[i]) != 0 {
			t.Fatalf("cached entry %d: got %s want %s", i, hit[i], want[i])
		}
	}
	if got := c.Get(1); got != nil {
		t.Fatal("the caller's own target level should not be cached")
	}
}

func TestComputeProductsReadsCacheInsteadOfRecomputing(t *testing.T) {
	dir := t.TempDir()
	c, err := cache.Open(dir, bgconfig.Config{})
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	// Seed the cache with a deliberately wrong value at length 2: if
	// ComputeProducts actually re-derives from the leaves instead of
	// trusting the cache, this test would fail to observe the seeded
	// value coming back out.
	seeded := level.Level{big.NewInt(999), big.NewInt(999)}
	if err := c.Put(seeded); err != nil {
		t.Fatalf("Put: %v", err)
	}

	leaves := level.Level{big.NewInt(2), big.NewInt(3), big.NewInt(5), big.NewInt(7)}
	got, err := ComputeProducts(context.Background(), bgconfig.Config{}, c, leaves, 2)
	if err != nil {
		t.Fatalf("ComputeProducts: %v", err)
	}
	for i := range seeded {
		if got[i].Cmp(seeded[i]) != 0 {
			t.Fatalf("index %d: got %s, want the seeded cache value %s", i, got[i], seeded[i])
		}
	}
}

func TestRoot(t *testing.T) {
	leaves := level.Level{big.NewInt(2), big.NewInt(3), big.NewInt(5), big.NewInt(7)}
	got, err := Root(context.Background(), bgconfig.Config{}, nil, leaves)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	want := big.NewInt(2 * 3 * 5 * 7)
	if got.Cmp(want) != 0 {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestRemaindersEmptyInput(t *testing.T) {
	got, err := Remainders(context.Background(), bgconfig.Config{}, nil, nil)
	if err != nil {
		t.Fatalf("Remainders: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}

func TestRemaindersSingleLeaf(t *testing.T) {
	leaves := level.Level{big.NewInt(97)}
	remainders, err := Remainders(context.Background(), bgconfig.Config{}, nil, leaves)
	if err != nil {
		t.Fatalf("Remainders: %v", err)
	}
	results := Finalize(remainders, leaves)
	if results[0].Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("single-leaf result: got %s want 1", results[0])
	}
}

// TestMulRoutesThroughBigFFTAboveThreshold lowers BigFFTThresholdBits far
// below both operands' bit lengths, forcing mul's bigfft.Mul branch, and
// checks the result still matches plain schoolbook multiplication.
func TestMulRoutesThroughBigFFTAboveThreshold(t *testing.T) {
	a := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 4096), big.NewInt(1))
	b := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 5120), big.NewInt(7))

	cfg := bgconfig.Config{BigFFTThresholdBits: 64}
	if bgbig.BitLen(a) < cfg.BigFFTThresholdBits || bgbig.BitLen(b) < cfg.BigFFTThresholdBits {
		t.Fatal("test operands must exceed the lowered threshold")
	}

	got := mul(cfg, a, b)
	want := new(big.Int).Mul(a, b)
	if got.Cmp(want) != 0 {
		t.Fatalf("bigfft.Mul result mismatch:\n got  %s\n want %s", got, want)
	}
}

func TestScenarioFourModuliOneNull(t *testing.T) {
	// 15=3*5, 35=5*7 share 5; 23 is prime and coprime to the rest; 49=7*7
	// shares 7 with 35.
	got := runBatchGCD(t, ints(15, 35, 23, 49))
	want := ints(5, 35, 1, 7)
	for i := range want {
		if got[i].Cmp(want[i]) != 0 {
			t.Fatalf("index %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestScenarioSixModuliMultipleSharedFactors(t *testing.T) {
	// 31*41, 41, 61, 71*31, 101*131, 131*151: 41 links moduli 0 and 1; 31
	// links moduli 0 and 3; 131 links moduli 4 and 5; 61 (modulus 2) is
	// coprime to everything else in the batch. This exercises descend's
	// bit-length short-circuit across more than one tree level deep, not
	// just the smaller three- and four-modulus scenarios above.
	got := runBatchGCD(t, ints(31*41, 41, 61, 71*31, 101*131, 131*151))
	want := ints(31*41, 41, 1, 31, 131, 131)
	for i := range want {
		if got[i].Cmp(want[i]) != 0 {
			t.Fatalf("index %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestAscendPairsLowerHalfWithUpperHalf(t *testing.T) {
	lvl := level.Level{big.NewInt(2), big.NewInt(3), big.NewInt(4), big.NewInt(5)}
	out, err := Ascend(context.Background(), bgconfig.Config{}, lvl)
	if err != nil {
		t.Fatalf("Ascend: %v", err)
	}
	want := level.Level{big.NewInt(2 * 4), big.NewInt(3 * 5)}
	for i := range want {
		if out[i].Cmp(want[i]) != 0 {
			t.Fatalf("index %d: got %s want %s", i, out[i], want[i])
		}
	}
}
