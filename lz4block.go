package lz4block

import (
	"errors"

	"github.com/noralz4/lz4block/internal/block"
	"github.com/noralz4/lz4block/internal/format"
	"github.com/noralz4/lz4block/internal/matcher"
)

// CompressionLevel selects which match-finding strategy the compressor
// uses. It does not change the wire format, only how hard the compressor
// searches for back-references.
type CompressionLevel int

const (
	// LevelFast uses the single-pass greedy matcher. This is the default
	// and is sufficient per the format's own non-goals: a single-pass
	// greedy matcher need not be optimal.
	LevelFast CompressionLevel = 1
	// LevelDefault is a mid-range HC level, a reasonable default when a
	// caller wants better ratio than LevelFast without paying for LevelMax.
	LevelDefault CompressionLevel = 6
	// LevelMax is the highest-effort HC search.
	LevelMax CompressionLevel = CompressionLevel(matcher.LevelMax)
)

// ErrCompress is the sentinel a CompressError wraps; test with errors.Is.
var ErrCompress = errors.New("lz4block: output capacity exceeded")

// ErrDecompress is the sentinel a DecompressError wraps; test with errors.Is.
var ErrDecompress = errors.New("lz4block: malformed or out-of-bounds block")

// CompressError reports that a compressed block could not be produced
// within the destination buffer's capacity.
type CompressError struct{ err error }

func (e *CompressError) Error() string { return e.err.Error() }
func (e *CompressError) Unwrap() error { return ErrCompress }

// DecompressError reports that the input was not a well-formed LZ4
// block, or that decoding it would exceed the caller's declared bounds.
// Every decode failure is reported identically: the input is untrusted,
// so distinguishing reasons at this surface would aid debugging but not
// recovery. Internal diagnostics are still available via Error().
type DecompressError struct{ err error }

func (e *DecompressError) Error() string { return e.err.Error() }
func (e *DecompressError) Unwrap() error { return ErrDecompress }

// CompressBlockBound returns the size of the largest possible compressed
// output for an input of length n: every byte becomes a literal. A
// non-nil dst with at least this much capacity never makes
// CompressBlock/CompressBlockLevel fail.
func CompressBlockBound(n int) int {
	return format.CompressBound(n)
}

// CompressBlock compresses src using the default (greedy) strategy. If
// dst is nil, a new buffer sized to CompressBlockBound(len(src)) is
// allocated; otherwise the output is written into dst and a
// CompressError is returned if it does not fit in cap(dst).
func CompressBlock(src, dst []byte) ([]byte, error) {
	return CompressBlockLevel(src, dst, LevelFast)
}

// CompressBlockLevel compresses src at the given level. LevelFast uses
// the greedy matcher; any higher level uses the chained HC matcher. If
// dst is nil, a new buffer sized to CompressBlockBound(len(src)) is
// allocated; otherwise the output is written into dst and a
// CompressError is returned if it does not fit in cap(dst).
func CompressBlockLevel(src, dst []byte, level CompressionLevel) ([]byte, error) {
	if dst == nil {
		dst = make([]byte, 0, CompressBlockBound(len(src)))
	}

	var (
		out []byte
		err error
	)
	if level <= LevelFast {
		out, err = block.CompressGreedy(src, dst)
	} else {
		out, err = block.CompressHC(src, dst, matcher.Level(level))
	}
	if err != nil {
		return nil, &CompressError{err: err}
	}
	return out, nil
}

// DecompressBlock decompresses src, the reconstructed length bounded by
// maxSize. If dst is nil or too small, a larger buffer is allocated (up
// to maxSize). Returns DecompressError on any malformed, truncated, or
// out-of-bounds input; it never reads or writes outside src, dst, or the
// maxSize bound.
func DecompressBlock(src, dst []byte, maxSize int) ([]byte, error) {
	if maxSize < 0 {
		maxSize = 0
	}
	if cap(dst) > maxSize {
		dst = dst[:0:maxSize]
	} else if cap(dst) < maxSize {
		initial := maxSize
		if initial > 64*1024 {
			initial = 64 * 1024
		}
		dst = make([]byte, 0, initial)
	} else {
		dst = dst[:0]
	}

	out, err := block.Decompress(src, dst, maxSize)
	if err != nil {
		return nil, &DecompressError{err: err}
	}
	return out, nil
}
