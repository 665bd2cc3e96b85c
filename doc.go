// Package lz4block implements the LZ4 block format: a byte-oriented
// lossless compressor and decompressor for independent data blocks, with
// no frame header, checksums, or dictionaries. It produces and accepts
// the same wire format as other LZ4 block implementations.
//
// # Compress
//
//	out, err := lz4block.CompressBlock(data, nil)
//	out, err := lz4block.CompressBlockLevel(data, nil, lz4block.LevelMax)
//
// # Decompress
//
//	out, err := lz4block.DecompressBlock(compressed, nil, len(data))
//
// Both directions operate on a single, self-contained block: there is no
// streaming state and no frame-level checksum or dictionary support.
// Callers chunking a larger stream into independent blocks, or wanting an
// LZ4 frame, must do so above this package; see the parallel package for
// a batch-oriented helper that runs many independent blocks concurrently.
package lz4block
