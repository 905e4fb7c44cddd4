// Package cache implements the on-disk checkpoint store (§4.4): product
// tree levels computed along the way to some target length are persisted,
// keyed by length, so a later call that needs one of those lengths again
// reads it back instead of re-ascending from the leaves. The remainder
// engine deliberately never keeps more than two levels resident at once
// (§5's memory discipline), which means it recomputes the same product
// levels from the leaves on every iteration; the cache is what keeps that
// recomputation cheap across iterations and across interrupted runs.
//
// Grounded on the teacher's CheckpointedSMT (pkg/merkle/checkpoint.go),
// which persists one file per tree level keyed by depth and rebuilds
// missing levels on demand; this package keeps that per-level-file shape
// but drops the teacher's CheckpointScheme validation and segment-rebuild
// machinery, which exist to serve Merkle proof reconstruction and have no
// counterpart in a linear product-tree pipeline.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/indutny/bulk-gcd/internal/bgconfig"
	"github.com/indutny/bulk-gcd/pkg/level"
)

// Cache persists product-tree levels under a directory, one file per
// distinct level length (§6: "Files are named <L>.bin where L is the
// decimal level length"). A level's length uniquely identifies its depth
// for a given input size, and only powers of two in [1, N'] ever occur as
// keys.
type Cache struct {
	dir string
}

// Open returns a Cache rooted at dir, creating dir (and any missing
// parents) if it does not already exist.
func Open(dir string, cfg bgconfig.Config) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache: empty directory")
	}
	if err := os.MkdirAll(dir, cfg.CacheDirPermOrDefault()); err != nil {
		return nil, fmt.Errorf("cache: creating %s: %w", dir, err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) path(levelLen int) string {
	return filepath.Join(c.dir, fmt.Sprintf("%d.bin", levelLen))
}

// Get returns the cached level of the given length, or nil if no such
// checkpoint exists or it is unreadable. A corrupt, truncated, or missing
// checkpoint is never an error for the caller: per §6, unrecognised or
// truncated files are "ignored (treated as cache miss)", so Get folds
// "absent" and "unreadable" into the same silent-miss outcome rather than
// surfacing a read error that would abort an otherwise-recoverable run.
func (c *Cache) Get(levelLen int) level.Level {
	f, err := os.Open(c.path(levelLen))
	if err != nil {
		return nil
	}
	defer f.Close()

	lvl, err := level.Decode(f)
	if err != nil || len(lvl) != levelLen {
		return nil
	}
	return lvl
}

// Put persists lvl under its own length, failing the whole run if the
// write itself fails (a checkpoint write failure usually means the disk
// is unwritable or full, which will only get worse on the next level).
// Put writes to a temporary file and renames it into place so a crash
// mid-write leaves either the old file or nothing — never a corrupt one
// that Get would later trust (§4.4: "Partial files on crash are tolerated
// by re-deriving on the next run when decoding fails").
func (c *Cache) Put(lvl level.Level) error {
	dst := c.path(len(lvl))
	tmp := dst + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("cache: creating %s: %w", tmp, err)
	}
	if err := lvl.Encode(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("cache: writing %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cache: closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cache: renaming %s: %w", tmp, err)
	}
	return nil
}
