package matcher

import (
	"github.com/noralz4/lz4block/internal/format"
)

// HC is a chained match finder used by the higher compression levels: in
// addition to the flat hash table, each table slot links back to every
// earlier position with the same hash via chainTable, so a bounded number
// of candidates can be compared per position instead of only the most
// recent one. It trades compression time for ratio; the token stream it
// emits is identical in shape to Greedy's.
type HC struct {
	buf []byte

	hashTable  []int32
	chainTable []int32

	hashLog     uint
	hashMask    uint32
	maxAttempts int
	windowSize  int

	pos int
	end int
}

// Level selects how hard the HC matcher searches. Higher levels widen the
// hash table, the search window, and the number of chain links followed
// per position.
type Level int

const (
	LevelHC    Level = 2
	LevelHigh  Level = 9
	LevelMax   Level = 12
	minHCLevel       = LevelHC
)

// NewHC creates an HC matcher configured for the given level. Levels
// below LevelHC are clamped up to it; callers wanting the plain
// single-pass strategy should use Greedy instead.
func NewHC(level Level) *HC {
	if level < minHCLevel {
		level = minHCLevel
	}

	hashLog := uint(16)
	maxAttempts := 8
	windowSize := format.MaxOffset

	switch {
	case level <= 3:
		maxAttempts = 4
		windowSize = 16 * 1024
	case level <= 6:
		maxAttempts = 8
		windowSize = 32 * 1024
	case level <= 9:
		maxAttempts = 16
		windowSize = 64 * 1024
	default:
		maxAttempts = 32
		windowSize = format.MaxOffset
		hashLog = 17
	}

	hashSize := uint32(1) << hashLog
	return &HC{
		hashTable:   make([]int32, hashSize),
		hashLog:     hashLog,
		hashMask:    hashSize - 1,
		maxAttempts: maxAttempts,
		windowSize:  windowSize,
	}
}

// Reset rebinds the matcher to a new input.
func (h *HC) Reset(input []byte) {
	h.buf = input
	h.end = len(input)
	h.pos = 0

	if cap(h.chainTable) < len(input) {
		h.chainTable = make([]int32, len(input))
	} else {
		h.chainTable = h.chainTable[:len(input)]
	}
	for i := range h.hashTable {
		h.hashTable[i] = -1
	}
}

func (h *HC) hashAt(pos int) (uint32, bool) {
	if pos+4 > h.end {
		return 0, false
	}
	v := uint32(h.buf[pos]) | uint32(h.buf[pos+1])<<8 | uint32(h.buf[pos+2])<<16 | uint32(h.buf[pos+3])<<24
	return hash4(v) & h.hashMask, true
}

// InsertHash records pos in both the hash table and the chain, linking it
// to whatever previously occupied that hash slot.
func (h *HC) InsertHash(pos int) {
	hv, ok := h.hashAt(pos)
	if !ok {
		return
	}
	h.chainTable[pos] = h.hashTable[hv]
	h.hashTable[hv] = int32(pos)
}

// FindBestMatch searches up to maxAttempts candidates in the hash chain
// at the current position and returns the longest one found, or length 0
// if nothing reached format.MinMatch. The current position is always
// inserted into the tables.
func (h *HC) FindBestMatch() (offset, length int) {
	return h.findBestMatchAt(h.pos, true)
}

// findBestMatchAt is FindBestMatch's implementation, parameterized over
// the position searched and whether that position gets inserted into
// the hash/chain tables. insert must be false for a lookahead peek at a
// position the caller has not yet consumed: inserting it early would
// make that position its own chain head, so the position's real search
// (once the cursor actually reaches it) would find itself as a
// candidate with offset 0 — a self-match that violates the format's
// minimum-offset invariant.
func (h *HC) findBestMatchAt(pos int, insert bool) (offset, length int) {
	if pos+format.MinMatch > h.end {
		return 0, 0
	}

	hv, _ := h.hashAt(pos)
	current := int(h.hashTable[hv])
	limit := pos - h.windowSize

	bestLength, bestOffset := 0, 0
	attempts := h.maxAttempts

	for current >= 0 && current > limit && attempts > 0 {
		attempts--

		dist := pos - current
		if dist <= 0 {
			current = int(h.chainTable[current])
			continue
		}

		maxLen := h.end - pos
		length := 0
		if h.buf[current] == h.buf[pos] &&
			current+1 < h.end && pos+1 < h.end && h.buf[current+1] == h.buf[pos+1] &&
			h.buf[current+2] == h.buf[pos+2] && h.buf[current+3] == h.buf[pos+3] {
			length = 4
			for length < maxLen && h.buf[pos+length] == h.buf[current+length] {
				length++
			}
		}

		if length > bestLength {
			bestLength = length
			bestOffset = dist
			if length >= maxLen || length >= 128 {
				break
			}
		}

		current = int(h.chainTable[current])
	}

	if insert {
		h.InsertHash(pos)
	}

	if bestLength >= format.MinMatch {
		return bestOffset, bestLength
	}
	return 0, 0
}

// LazyMatch looks one position ahead and, if it yields a strictly longer
// match, reports that the caller should emit a one-byte literal and use
// the next position's match instead. advance is 2 when the next
// position's match is strictly longer (the caller then steps over one
// byte and searches again) and 1 otherwise (the caller emits the current
// match). The lookahead does not insert its
// position into the hash/chain tables, since the caller may not
// actually consume it (see findBestMatchAt).
func (h *HC) LazyMatch(offset, length int) (newOffset, newLength, advance int) {
	if length <= 1 || h.pos+1 >= h.end-format.MinMatch {
		return offset, length, 1
	}

	nextOffset, nextLength := h.findBestMatchAt(h.pos+1, false)

	if nextLength > length {
		return nextOffset, nextLength, 2
	}
	return offset, length, 1
}

// Advance moves the cursor forward by steps positions.
func (h *HC) Advance(steps int) { h.pos += steps }

// Pos returns the current cursor position.
func (h *HC) Pos() int { return h.pos }

// End reports whether the cursor has reached the point past which no
// match of format.MinMatch bytes could start.
func (h *HC) End() bool { return h.pos >= h.end-format.MinMatch }
