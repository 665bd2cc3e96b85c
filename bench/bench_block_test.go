package bench

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/noralz4/lz4block"
)

const (
	smallSize  = 1 << 10 // 1KB
	mediumSize = 1 << 16 // 64KB
	largeSize  = 1 << 20 // 1MB
)

var (
	// Global sinks, assigned in the benchmark loop to prevent the
	// compiler from optimizing the call away.
	result      []byte
	compressErr error
	benchSizes  = []int{smallSize, mediumSize, largeSize}
	benchLevels = []lz4block.CompressionLevel{lz4block.LevelFast, lz4block.LevelDefault, lz4block.LevelMax}
)

// generateData produces size bytes with a controllable compressibility:
// 0 is uniform random, 1 is all zeros, values in between interpolate by
// shrinking the repeated pattern.
func generateData(size int, compressibility float64) []byte {
	data := make([]byte, size)

	if compressibility <= 0 {
		rand.Read(data)
		return data
	}
	if compressibility >= 1 {
		return data
	}

	patternSize := int(float64(size) * (1 - compressibility))
	if patternSize < 4 {
		patternSize = 4
	}

	pattern := make([]byte, patternSize)
	rand.Read(pattern)

	for i := 0; i < size; i += patternSize {
		n := copy(data[i:], pattern)
		if n < patternSize {
			break
		}
	}

	return data
}

func sizeName(size int) string {
	switch size {
	case smallSize:
		return "Small"
	case mediumSize:
		return "Medium"
	case largeSize:
		return "Large"
	default:
		return "Custom"
	}
}

func compressibilityName(comp float64) string {
	switch comp {
	case 0.0:
		return "Random"
	case 0.5:
		return "Mixed"
	case 0.9:
		return "Compressible"
	default:
		return "Other"
	}
}

func BenchmarkBlockCompress(b *testing.B) {
	for _, size := range benchSizes {
		if size == largeSize {
			continue // kept small enough to run quickly by default
		}
		for _, comp := range []float64{0.0, 0.5, 0.9} {
			data := generateData(size, comp)

			for _, level := range benchLevels {
				b.Run(sizeName(size)+"_"+compressibilityName(comp)+"_Level"+levelName(level), func(b *testing.B) {
					b.ResetTimer()
					for i := 0; i < b.N; i++ {
						result, compressErr = lz4block.CompressBlockLevel(data, nil, level)
						if compressErr != nil {
							b.Fatal(compressErr)
						}
					}
					b.ReportMetric(float64(len(result))/float64(len(data)), "ratio")
					b.SetBytes(int64(len(data)))
				})
			}
		}
	}
}

func BenchmarkBlockDecompress(b *testing.B) {
	for _, size := range benchSizes {
		if size == largeSize {
			continue
		}
		for _, comp := range []float64{0.0, 0.5, 0.9} {
			data := generateData(size, comp)

			compressed, err := lz4block.CompressBlock(data, nil)
			if err != nil {
				b.Fatal(err)
			}

			b.Run(sizeName(size)+"_"+compressibilityName(comp), func(b *testing.B) {
				decompressed := make([]byte, 0, size)
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					var err error
					result, err = lz4block.DecompressBlock(compressed, decompressed, size)
					if err != nil {
						b.Fatal(err)
					}
					if i == 0 && !bytes.Equal(result, data) {
						b.Fatal("decompression failed")
					}
				}
				b.SetBytes(int64(size))
			})
		}
	}
}

func levelName(level lz4block.CompressionLevel) string {
	switch level {
	case lz4block.LevelFast:
		return "Fast"
	case lz4block.LevelDefault:
		return "Default"
	case lz4block.LevelMax:
		return "Max"
	default:
		return "Custom"
	}
}
