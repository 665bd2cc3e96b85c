// Package block implements the LZ4 block codec: the greedy and
// high-compression token emitters, and the bounds-checked token-stream
// decoder. Every exported function here is a pure transform over its
// arguments and holds no state across calls. Decompress allocates nothing
// given a sufficiently large destination; the compressors allocate their
// matcher's tables on every call.
package block

import (
	"encoding/binary"

	"github.com/noralz4/lz4block/internal/cpufeature"
	"github.com/noralz4/lz4block/internal/format"
	"github.com/noralz4/lz4block/internal/matcher"
)

// wordWidth is how many bytes fastCopy moves per native step on this
// CPU, per the feature probe; 1 means no wide-move instruction set was
// detected and fastCopy falls back to a byte-at-a-time loop.
var wordWidth = cpufeature.Detect().WordWidth()

// fastCopy copies len(dst) bytes from src to dst, moving wordWidth
// bytes at a time when available. It is only ever called by the
// decompressor's fast path on fixed-width (16 or 18-byte) windows where
// dst and src may alias the same backing array (a match copy with
// offset < the copy width): that is safe here specifically because the
// fast path only invokes it when the sequence's real length is <=
// offset, so every source byte of the real prefix lies before the start
// of dst and no chunk's write can reach back and corrupt it. Bytes
// beyond the real length are overscanned and discarded by the caller
// regardless of what ends up in them.
func fastCopy(dst, src []byte) {
	n := len(dst)
	i := 0
	if wordWidth >= 8 {
		for ; i+8 <= n; i += 8 {
			binary.LittleEndian.PutUint64(dst[i:], binary.LittleEndian.Uint64(src[i:]))
		}
	}
	for ; i < n; i++ {
		dst[i] = src[i]
	}
}

// sink is a bounds-checked append cursor over a caller-owned buffer. It
// never grows the buffer: once cap(buf) is exhausted, every further write
// reports a capacity error so the caller call site can fail fast with
// CompressError instead of silently truncating the block.
type sink struct {
	buf []byte
	pos int
}

func (s *sink) ensure(n int) bool {
	return s.pos+n <= cap(s.buf)
}

func (s *sink) writeByte(b byte) bool {
	if !s.ensure(1) {
		return false
	}
	s.buf = s.buf[:s.pos+1]
	s.buf[s.pos] = b
	s.pos++
	return true
}

func (s *sink) writeBytes(b []byte) bool {
	if !s.ensure(len(b)) {
		return false
	}
	s.buf = s.buf[:s.pos+len(b)]
	copy(s.buf[s.pos:], b)
	s.pos += len(b)
	return true
}

// writeExtension emits the 255-terminated variable-length extension for a
// length already known to be >= format.NibbleMax, per §3: repeatedly
// write 255 while remaining >= 255, then write the final remainder.
func (s *sink) writeExtension(remaining int) bool {
	for remaining >= format.ExtSentinel {
		if !s.writeByte(format.ExtSentinel) {
			return false
		}
		remaining -= format.ExtSentinel
	}
	return s.writeByte(byte(remaining))
}

// writeSequence emits one token, its optional literal-length extension,
// the literal payload, and — when match is non-zero — the little-endian
// offset plus optional match-length extension.
func writeSequence(s *sink, input []byte, litStart, litLen, offset, matchLen int) bool {
	litCode, matchCode := litLen, 0
	if matchLen > 0 {
		matchCode = matchLen - format.MinMatch
	}

	if !s.writeByte(format.Token(litCode, matchCode)) {
		return false
	}
	if litLen >= format.NibbleMax {
		if !s.writeExtension(litLen - format.NibbleMax) {
			return false
		}
	}
	if !s.writeBytes(input[litStart : litStart+litLen]) {
		return false
	}
	if matchLen == 0 {
		return true
	}

	var offBuf [2]byte
	binary.LittleEndian.PutUint16(offBuf[:], uint16(offset))
	if !s.writeBytes(offBuf[:]) {
		return false
	}
	if matchCode >= format.NibbleMax {
		if !s.writeExtension(matchLen-format.MinMatch-format.NibbleMax) {
			return false
		}
	}
	return true
}

// CompressGreedy compresses src with the single-pass greedy matcher,
// writing into dst (using its capacity as the output bound) and
// returning the written slice. It fails with CompressError if the output
// would not fit in cap(dst).
func CompressGreedy(src, dst []byte) ([]byte, error) {
	m := matcher.NewGreedy()
	return compress(src, dst, func(pos int) (offset, length int) {
		return m.FindMatch(pos)
	}, func() { m.Reset(src) }, nil)
}

// CompressHC compresses src with the chained, lazily-evaluated matcher at
// the given level. Same contract as CompressGreedy.
func CompressHC(src, dst []byte, level matcher.Level) ([]byte, error) {
	m := matcher.NewHC(level)
	m.Reset(src)

	return compress(src, dst, nil, nil, m)
}

// matchFunc proposes a candidate match starting at pos, or (0, 0) if
// none was found at least format.MinMatch long.
type matchFunc func(pos int) (offset, length int)

// compress drives the shared token-emission loop. Exactly one of find or
// hc is non-nil: the greedy strategy supplies find; the HC strategy
// supplies hc, whose own cursor and lazy lookahead decide how far to
// advance per iteration.
func compress(src, dst []byte, find matchFunc, resetGreedy func(), hc *matcher.HC) ([]byte, error) {
	s := &sink{buf: dst[:0]}

	n := len(src)
	anchor := 0

	if hc == nil {
		resetGreedy()
		pos := 0
		for pos+format.MinMatch <= n {
			offset, length := find(pos)
			if length < format.MinMatch {
				pos++
				continue
			}
			if !writeSequence(s, src, anchor, pos-anchor, offset, length) {
				return nil, newCompressError(s.pos)
			}
			pos += length
			anchor = pos
		}
	} else {
		for !hc.End() {
			offset, length := hc.FindBestMatch()
			if length < format.MinMatch {
				hc.Advance(1)
				continue
			}

			offset, length, advance := hc.LazyMatch(offset, length)
			if advance == 2 {
				// Defer to the next position: emit nothing yet, just
				// step over the byte we decided not to match on.
				hc.Advance(1)
				continue
			}

			pos := hc.Pos()
			if !writeSequence(s, src, anchor, pos-anchor, offset, length) {
				return nil, newCompressError(s.pos)
			}
			hc.Advance(length)
			anchor = hc.Pos()
		}
	}

	// Final sequence: whatever literals remain, no match. Computed from
	// the true input length rather than the scan cursor, which stops
	// short of the end of the input once fewer than MinMatch bytes are
	// left to match.
	litLen := n - anchor
	if !writeSequence(s, src, anchor, litLen, 0, 0) {
		return nil, newCompressError(s.pos)
	}

	return s.buf, nil
}

// Decompress parses an LZ4 token stream from src and reconstructs the
// original bytes into dst (bounded by maxSize), returning the
// reconstructed slice. It rejects any input that is truncated,
// structurally invalid, or would overflow the output bound, without ever
// reading or writing outside the given slices.
func Decompress(src, dst []byte, maxSize int) ([]byte, error) {
	out := dst[:0]
	srcPos := 0
	n := len(src)

	for {
		if srcPos >= n {
			return nil, newDecompressError(srcPos, reasonTruncatedToken)
		}
		token := src[srcPos]
		srcPos++

		litLen, matchLen := format.SplitToken(token)

		// Fast path: short literal, short match, ample headroom on both
		// cursors. A fixed-width block copy may overshoot the logical
		// length by up to format.InputHeadroom/OutputHeadroom bytes; that
		// is safe precisely because the headroom was just checked.
		if litLen <= format.ShortLiteralMax && matchLen <= format.ShortMatchMax &&
			n-srcPos >= format.InputHeadroom && cap(out)-len(out) >= format.OutputHeadroom {

			out = out[:len(out)+format.LiteralCopyWidth()]
			fastCopy(out[len(out)-format.LiteralCopyWidth():], src[srcPos:srcPos+format.LiteralCopyWidth()])
			out = out[:len(out)-format.LiteralCopyWidth()+litLen]
			srcPos += litLen

			if srcPos >= n {
				if len(out) > maxSize {
					return nil, newDecompressError(srcPos, reasonOutputOverflow)
				}
				return out, nil
			}

			if n-srcPos < 2 {
				return nil, newDecompressError(srcPos, reasonTruncatedOffset)
			}
			offset := int(binary.LittleEndian.Uint16(src[srcPos:]))
			srcPos += 2
			if offset == 0 {
				return nil, newDecompressError(srcPos, reasonZeroOffset)
			}
			if offset > len(out) {
				return nil, newDecompressError(srcPos, reasonOffsetUnderrun)
			}

			if matchLen <= offset {
				base := len(out) - offset
				out = out[:len(out)+format.MatchCopyWidth()]
				fastCopy(out[len(out)-format.MatchCopyWidth():], out[base:base+format.MatchCopyWidth()])
				out = out[:len(out)-format.MatchCopyWidth()+matchLen]
			} else {
				out = overlapCopy(out, offset, matchLen)
			}
			if len(out) > maxSize {
				return nil, newDecompressError(srcPos, reasonOutputOverflow)
			}
			continue
		}

		// Slow path literals.
		if litLen == format.NibbleMax {
			ext, ok := readExtension(src, &srcPos)
			if !ok {
				return nil, newDecompressError(srcPos, reasonRunawayExtension)
			}
			litLen += ext
		}
		if srcPos+litLen > n {
			return nil, newDecompressError(srcPos, reasonTruncatedLiteral)
		}
		if len(out)+litLen > maxSize || len(out)+litLen > cap(out) {
			grown, ok := grow(out, len(out)+litLen, maxSize)
			if !ok {
				return nil, newDecompressError(srcPos, reasonOutputOverflow)
			}
			out = grown
		}
		out = out[:len(out)+litLen]
		copy(out[len(out)-litLen:], src[srcPos:srcPos+litLen])
		srcPos += litLen

		if srcPos >= n {
			return out, nil
		}

		if n-srcPos < 2 {
			return nil, newDecompressError(srcPos, reasonTruncatedOffset)
		}
		offset := int(binary.LittleEndian.Uint16(src[srcPos:]))
		srcPos += 2

		if matchLen == format.MinMatch+format.NibbleMax {
			ext, ok := readExtension(src, &srcPos)
			if !ok {
				return nil, newDecompressError(srcPos, reasonRunawayExtension)
			}
			matchLen += ext
		}

		if offset == 0 {
			return nil, newDecompressError(srcPos, reasonZeroOffset)
		}
		if offset > len(out) {
			return nil, newDecompressError(srcPos, reasonOffsetUnderrun)
		}
		if len(out)+matchLen > maxSize {
			return nil, newDecompressError(srcPos, reasonOutputOverflow)
		}
		if len(out)+matchLen > cap(out) {
			grown, ok := grow(out, len(out)+matchLen, maxSize)
			if !ok {
				return nil, newDecompressError(srcPos, reasonOutputOverflow)
			}
			out = grown
		}

		if offset < matchLen {
			out = overlapCopy(out, offset, matchLen)
		} else {
			base := len(out) - offset
			out = out[:len(out)+matchLen]
			copy(out[len(out)-matchLen:], out[base:base+matchLen])
		}
	}
}

// readExtension sums a 255-terminated extension run starting at *pos,
// advancing *pos past it. It fails if the run reaches the end of src
// without a terminating byte, which bounds its cost by len(src).
func readExtension(src []byte, pos *int) (sum int, ok bool) {
	for *pos < len(src) {
		b := src[*pos]
		*pos++
		sum += int(b)
		if b != format.ExtSentinel {
			return sum, true
		}
	}
	return 0, false
}

// overlapCopy performs the RLE-style forward byte-by-byte copy required
// when offset < length: a block copy would read bytes that have not been
// written yet.
func overlapCopy(out []byte, offset, length int) []byte {
	base := len(out) - offset
	out = out[:len(out)+length]
	for i := 0; i < length; i++ {
		out[base+offset+i] = out[base+i]
	}
	return out
}

// grow doubles out's capacity (at least up to need, capped at maxSize)
// and copies the existing contents across. It reports failure if need
// exceeds maxSize.
func grow(out []byte, need, maxSize int) ([]byte, bool) {
	if need > maxSize {
		return nil, false
	}
	newCap := cap(out) * 2
	if newCap < need {
		newCap = need
	}
	if newCap > maxSize {
		newCap = maxSize
	}
	grown := make([]byte, len(out), newCap)
	copy(grown, out)
	return grown, true
}
