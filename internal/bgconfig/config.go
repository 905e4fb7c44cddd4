// Package bgconfig holds the tunables the batch-GCD pipeline needs but that
// have no single correct value: worker-pool size, the serial/parallel cutover
// in the remainder engine, the operand size above which FFT multiplication
// pays off, and the checkpoint directory's file mode. None of it is read from
// the environment here — the embedder sets it explicitly and passes it down,
// matching the "no process-wide mutable state" discipline the rest of the
// pipeline follows.
package bgconfig

import (
	"os"
	"runtime"
)

// Config carries per-call tunables for the product/remainder engines and the
// checkpoint cache. The zero value is valid: every field falls back to a
// sane default the first time it's read.
type Config struct {
	// Workers bounds the number of goroutines used for data-parallel work
	// over a single level. Zero means runtime.GOMAXPROCS(0).
	Workers int

	// SerialThreshold is the level length at or below which the remainder
	// engine's descent runs on a single goroutine instead of fanning out
	// (the operands at these levels are the largest in the run, and
	// parallelising them would multiply peak memory by the worker count).
	// Zero means DefaultSerialThreshold.
	SerialThreshold int

	// BigFFTThresholdBits is the operand bit-length at or above which the
	// product engine multiplies via FFT instead of schoolbook/Karatsuba.
	// Zero means DefaultBigFFTThresholdBits.
	BigFFTThresholdBits int

	// CacheDirPerm is the permission bits used when the checkpoint cache
	// creates its directory. Zero means DefaultCacheDirPerm.
	CacheDirPerm os.FileMode

	// Progress, if set, is called once per tree level produced by
	// ComputeProducts, with that level's length. It mirrors the original
	// CLI's running count of completed levels; nil disables reporting.
	// Config carries it rather than Options so embedders driving pkg/tree
	// directly get the same hook pkg/bulkgcd and cmd/bulkgcd use.
	Progress func(levelLen int)
}

const (
	// DefaultSerialThreshold matches §4.5's |current| <= 32 cutoff: the
	// levels of length 2 through 32, nearest the root, run serially.
	DefaultSerialThreshold = 32

	// DefaultBigFFTThresholdBits is comfortably past the size where
	// bigfft's own internal Karatsuba/FFT crossover starts winning;
	// below it the allocation overhead of preparing FFT-friendly operands
	// outweighs the savings.
	DefaultBigFFTThresholdBits = 1 << 13

	// DefaultCacheDirPerm mirrors the teacher's os.MkdirAll(dir, 0o755)
	// convention (pkg/setup/setup.go's ExportKeys).
	DefaultCacheDirPerm os.FileMode = 0o755
)

// WorkersOrDefault returns c.Workers, or runtime.GOMAXPROCS(0) if unset.
func (c Config) WorkersOrDefault() int {
	if c.Workers > 0 {
		return c.Workers
	}
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 1
}

// SerialThresholdOrDefault returns c.SerialThreshold, or DefaultSerialThreshold if unset.
func (c Config) SerialThresholdOrDefault() int {
	if c.SerialThreshold > 0 {
		return c.SerialThreshold
	}
	return DefaultSerialThreshold
}

// BigFFTThresholdBitsOrDefault returns c.BigFFTThresholdBits, or DefaultBigFFTThresholdBits if unset.
func (c Config) BigFFTThresholdBitsOrDefault() int {
	if c.BigFFTThresholdBits > 0 {
		return c.BigFFTThresholdBits
	}
	return DefaultBigFFTThresholdBits
}

// CacheDirPermOrDefault returns c.CacheDirPerm, or DefaultCacheDirPerm if unset.
func (c Config) CacheDirPermOrDefault() os.FileMode {
	if c.CacheDirPerm != 0 {
		return c.CacheDirPerm
	}
	return DefaultCacheDirPerm
}
