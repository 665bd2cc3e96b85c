// Package cpufeature probes which wide-copy instruction sets the current
// CPU supports. The LZ4 decoder's fast path (see internal/block) always
// touches the same bytes and obeys the same bounds regardless of what
// this package reports; the probe only ever picks how many bytes move
// per native instruction, never whether a copy is safe to perform.
package cpufeature

import "sync"

// Features reports which wide-copy instruction sets are available.
type Features struct {
	SSE2   bool
	SSE41  bool
	AVX2   bool
	AVX512 bool
	NEON   bool
}

// WordWidth returns the widest word size (in bytes) this implementation
// will move in one native instruction, given the detected features. It
// never exceeds the format package's fast-path copy widths.
func (f Features) WordWidth() int {
	switch {
	case f.AVX512:
		return 8
	case f.AVX2:
		return 8
	case f.SSE41, f.SSE2:
		return 8
	case f.NEON:
		return 8
	default:
		return 1
	}
}

var (
	once     sync.Once
	detected Features
)

// Detect probes the current CPU once per process and returns the cached
// result on every subsequent call.
func Detect() Features {
	once.Do(func() {
		detected = detectFeatures()
	})
	return detected
}
