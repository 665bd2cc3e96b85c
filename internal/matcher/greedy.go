// Package matcher implements the LZ4 match-finding strategies shared by
// every compression level: a single-pass greedy matcher keyed on a flat
// hash table, and a chained, lazily-evaluated matcher for the higher
// compression levels. Both strategies compare every hash candidate
// byte-by-byte against the current position before reporting it, and
// extend it the same way, so a hash collision can only cost ratio, never
// correctness.
package matcher

import (
	"encoding/binary"

	"github.com/noralz4/lz4block/internal/format"
)

const hashLog = 16

// hash4 mixes a 4-byte little-endian window with Knuth's multiplicative
// constant and folds it down to hashLog bits.
func hash4(v uint32) uint32 {
	const prime = 2654435761
	return (v * prime) >> (32 - hashLog)
}

// Greedy is a single-pass match finder backed by one fixed-size hash
// table mapping a 4-byte window's hash to the most recent input position
// where that window was seen. It keeps no memory beyond the table
// itself, so its footprint is bounded regardless of input size.
type Greedy struct {
	buf       []byte
	hashTable [1 << hashLog]int32
}

// NewGreedy returns a ready-to-use greedy matcher.
func NewGreedy() *Greedy {
	return &Greedy{}
}

// Reset rebinds the matcher to a new input and clears the hash table.
func (g *Greedy) Reset(input []byte) {
	g.buf = input
	for i := range g.hashTable {
		g.hashTable[i] = -1
	}
}

// hashAt returns the hash of the 4-byte window starting at pos, and
// whether one exists (i.e. pos+4 <= len(buf)).
func (g *Greedy) hashAt(pos int) (uint32, bool) {
	if pos+4 > len(g.buf) {
		return 0, false
	}
	return hash4(binary.LittleEndian.Uint32(g.buf[pos:])), true
}

// Insert records pos as the most recent occurrence of the 4-byte window
// starting there. Every visited position gets indexed, not only
// positions reached after a failed match attempt, so later scans see the
// densest possible dictionary.
func (g *Greedy) Insert(pos int) {
	h, ok := g.hashAt(pos)
	if !ok {
		return
	}
	g.hashTable[h] = int32(pos)
}

// FindMatch looks up the current position's 4-byte window and, if a
// candidate is in range, extends it forward byte-by-byte. It returns the
// match offset and length, or length 0 if no match of at least
// format.MinMatch was found. The current position is always inserted
// into the table before returning, keeping the dictionary dense even on
// a miss.
func (g *Greedy) FindMatch(pos int) (offset, length int) {
	h, ok := g.hashAt(pos)
	if !ok {
		return 0, 0
	}

	candidate := int(g.hashTable[h])
	g.hashTable[h] = int32(pos)

	if candidate < 0 {
		return 0, 0
	}
	dist := pos - candidate
	if dist <= 0 || dist > format.MaxOffset {
		return 0, 0
	}
	if binary.LittleEndian.Uint32(g.buf[candidate:]) != binary.LittleEndian.Uint32(g.buf[pos:]) {
		return 0, 0
	}

	length = extendMatch(g.buf, pos, candidate)
	if length < format.MinMatch {
		return 0, 0
	}
	return dist, length
}

// extendMatch grows a confirmed 4-byte match as far forward as the two
// windows keep agreeing, without reading past the end of buf.
func extendMatch(buf []byte, pos, candidate int) int {
	n := len(buf)
	m := 0
	for pos+m < n && buf[pos+m] == buf[candidate+m] {
		m++
	}
	return m
}
