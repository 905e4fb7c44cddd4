// Package level implements the tree's one data structure — an ordered
// sequence of big integers at a fixed tree depth — and its on-disk codec.
//
// The codec is grounded on the teacher's checkpointed-tree persistence
// (pkg/merkle/checkpoint.go's SaveCheckpointed/LoadCheckpointedSMT: a flat
// header-then-records binary layout, buffered writer, io.ReadFull per
// record), adapted to the wire format this pipeline's checkpoint cache
// actually needs: no header at all, since a level's length is implied by the
// cache file name and by the count of records recovered on read.
package level

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
)

// Level is an ordered sequence of big integers at a fixed tree depth. Its
// length is always a power of two (enforced by callers, not by this type).
type Level []*big.Int

// Clone returns a deep copy: new *big.Int values holding the same magnitude.
// Callers that are about to destructively mutate a level in place (the
// product engine's ascend, the remainder engine's descent) clone first so
// that a level reachable from elsewhere — most importantly the padded leaf
// level, consulted on every remainder-engine iteration — is never corrupted.
// Go has no move semantics for a []*big.Int the way the original Rust moved
// an owned Vec<Integer> into each recursive call; Clone is the stand-in.
func (lvl Level) Clone() Level {
	out := make(Level, len(lvl))
	for i, v := range lvl {
		out[i] = new(big.Int).Set(v)
	}
	return out
}

// Encode writes lvl as a flat concatenation of records:
//
//	u32 little-endian byte-count M
//	M bytes, the big-endian unsigned magnitude of the integer
//
// The writer buffers so writes reach w in 64 KiB chunks instead of two
// writes per record.
func (lvl Level) Encode(w io.Writer) error {
	bw := bufio.NewWriterSize(w, 1<<16)

	var lenBuf [4]byte
	for i, v := range lvl {
		b := v.Bytes()
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(b)))
		if _, err := bw.Write(lenBuf[:]); err != nil {
			return fmt.Errorf("level: write record %d length: %w", i, err)
		}
		if _, err := bw.Write(b); err != nil {
			return fmt.Errorf("level: write record %d bytes: %w", i, err)
		}
	}
	return bw.Flush()
}

// Decode reads a level written by Encode. A clean EOF at a record boundary
// ends the level successfully; an EOF in the middle of a record is reported
// as corruption — io.ReadFull already draws exactly that distinction
// (io.EOF with zero bytes read vs io.ErrUnexpectedEOF for a partial read),
// so Decode just forwards it.
func Decode(r io.Reader) (Level, error) {
	br := bufio.NewReaderSize(r, 1<<16)

	var lvl Level
	var lenBuf [4]byte
	for {
		if _, err := io.ReadFull(br, lenBuf[:]); err != nil {
			if err == io.EOF {
				return lvl, nil
			}
			return nil, fmt.Errorf("level: truncated record header after %d records: %w", len(lvl), err)
		}

		m := binary.LittleEndian.Uint32(lenBuf[:])
		buf := make([]byte, m)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("level: truncated record body after %d records: %w", len(lvl), err)
		}
		lvl = append(lvl, new(big.Int).SetBytes(buf))
	}
}
