package parallel

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/noralz4/lz4block"
)

func TestCompressBlocksMatchesSequentialCompression(t *testing.T) {
	var blocks [][]byte
	for i := 0; i < 20; i++ {
		blocks = append(blocks, bytes.Repeat([]byte(fmt.Sprintf("block-%02d", i)), 50))
	}

	d := NewDispatcher(4, nil)
	defer d.Stop()

	results, err := d.CompressBlocks(context.Background(), blocks, lz4block.LevelFast)
	if err != nil {
		t.Fatalf("CompressBlocks: %v", err)
	}
	if len(results) != len(blocks) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(blocks))
	}

	for i, r := range results {
		if r.Index != i {
			t.Fatalf("result %d has Index %d, results must be returned in input order", i, r.Index)
		}
		if r.Err != nil {
			t.Fatalf("result %d: %v", i, r.Err)
		}
		want, err := lz4block.CompressBlock(blocks[i], nil)
		if err != nil {
			t.Fatalf("reference compress: %v", err)
		}
		if !bytes.Equal(r.Data, want) {
			t.Errorf("result %d: parallel output differs from sequential output", i)
		}
	}
}

func TestDecompressBlocksRoundTripsBatch(t *testing.T) {
	var originals [][]byte
	var compressed [][]byte
	for i := 0; i < 10; i++ {
		src := bytes.Repeat([]byte{byte(i), byte(i + 1)}, 100)
		out, err := lz4block.CompressBlock(src, nil)
		if err != nil {
			t.Fatalf("compress %d: %v", i, err)
		}
		originals = append(originals, src)
		compressed = append(compressed, out)
	}

	d := NewDispatcher(3, nil)
	defer d.Stop()

	results, err := d.DecompressBlocks(context.Background(), compressed, 1024)
	if err != nil {
		t.Fatalf("DecompressBlocks: %v", err)
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("result %d: %v", i, r.Err)
		}
		if !bytes.Equal(r.Data, originals[i]) {
			t.Errorf("result %d: round trip mismatch", i)
		}
	}
}

func TestDispatcherReportsPerBlockErrorsWithoutAbortingBatch(t *testing.T) {
	blocks := [][]byte{
		{0x20, 'H', 'i'},
		{0xF0}, // malformed: runaway literal extension
		{0x20, 'O', 'k'},
	}

	d := NewDispatcher(2, nil)
	defer d.Stop()

	results, err := d.DecompressBlocks(context.Background(), blocks, 64)
	if err != nil {
		t.Fatalf("DecompressBlocks: %v", err)
	}
	if results[1].Err == nil {
		t.Fatal("expected an error for the malformed block")
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Fatalf("well-formed blocks should not fail: %v, %v", results[0].Err, results[2].Err)
	}
}

func TestDispatcherCanBeReusedAcrossBatches(t *testing.T) {
	d := NewDispatcher(2, nil)
	defer d.Stop()

	for batch := 0; batch < 3; batch++ {
		blocks := [][]byte{[]byte("abc"), []byte("defdefdefdef")}
		if _, err := d.CompressBlocks(context.Background(), blocks, lz4block.LevelFast); err != nil {
			t.Fatalf("batch %d: %v", batch, err)
		}
	}
}

func TestDispatcherStartReportsAlreadyRunning(t *testing.T) {
	d := NewDispatcher(2, nil)
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	if err := d.Start(); err == nil {
		t.Fatal("expected ErrAlreadyRunning on second Start")
	}
}

func TestDispatcherContextCancellationUnblocksCaller(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDispatcher(1, nil)
	defer d.Stop()

	blocks := make([][]byte, 64)
	for i := range blocks {
		blocks[i] = []byte("x")
	}
	if _, err := d.CompressBlocks(ctx, blocks, lz4block.LevelFast); err == nil {
		t.Fatal("expected context cancellation error")
	}
}
