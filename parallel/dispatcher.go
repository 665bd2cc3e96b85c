// Package parallel runs many independent LZ4 blocks through a bounded
// worker pool. It has no opinion on how the caller chunked their data:
// each input in the batch is compressed or decompressed as its own,
// self-contained block, and results are returned in the same order the
// inputs were given, regardless of which worker finished first.
package parallel

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"github.com/noralz4/lz4block"
)

// DefaultNumWorkers, passed to NewDispatcher like any other value <= 0,
// selects one worker per available processor (runtime.GOMAXPROCS(0)).
const DefaultNumWorkers = 0

// ErrAlreadyRunning is returned by Start when the dispatcher's worker
// pool is already live.
var ErrAlreadyRunning = errors.New("parallel: dispatcher already running")

// BlockResult is one block's outcome, tagged with its position in the
// original batch so callers can reassemble results in order even though
// workers may finish them out of order.
type BlockResult struct {
	Index int
	Data  []byte
	Err   error
}

type job struct {
	index int
	input []byte
	// compress-only
	level lz4block.CompressionLevel
	// decompress-only
	maxSize int
}

type mode int

const (
	modeCompress mode = iota
	modeDecompress
)

type dispatchedJob struct {
	job
	mode     mode
	resultCh chan<- BlockResult
}

// Dispatcher owns a pool of worker goroutines that compress or
// decompress independent blocks concurrently. Its lifecycle is
// Start/Stop-scoped: a Dispatcher is reusable across batches but its
// goroutines and channel live only between calls to Start and Stop.
type Dispatcher struct {
	numWorkers int
	log        *slog.Logger

	jobChan chan dispatchedJob
	wg      sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// NewDispatcher creates a dispatcher with the given worker count. A
// count <= 0 uses runtime.GOMAXPROCS(0). If log is nil, slog.Default()
// is used.
func NewDispatcher(numWorkers int, log *slog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		numWorkers: numWorkers,
		log:        log,
	}
}

// Start launches the worker pool. Callers need not call it explicitly:
// CompressBlocks and DecompressBlocks start the pool on demand.
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.startLocked()
}

func (d *Dispatcher) startLocked() error {
	if d.running {
		return ErrAlreadyRunning
	}
	d.jobChan = make(chan dispatchedJob, d.numWorkers*2)
	d.wg.Add(d.numWorkers)
	for i := 0; i < d.numWorkers; i++ {
		go d.worker(i)
	}
	d.running = true
	d.log.Debug("dispatcher started", "workers", d.numWorkers)
	return nil
}

// Stop drains and closes the worker pool, waiting for every in-flight
// job to finish. It is a no-op if the pool is not running.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	close(d.jobChan)
	d.wg.Wait()
	d.running = false
	d.log.Debug("dispatcher stopped")
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for dj := range d.jobChan {
		var result BlockResult
		switch dj.mode {
		case modeCompress:
			out, err := lz4block.CompressBlockLevel(dj.input, nil, dj.level)
			result = BlockResult{Index: dj.index, Data: out, Err: err}
		case modeDecompress:
			out, err := lz4block.DecompressBlock(dj.input, nil, dj.maxSize)
			result = BlockResult{Index: dj.index, Data: out, Err: err}
		}
		if result.Err != nil {
			d.log.Warn("worker job failed", "worker", id, "index", dj.index, "err", result.Err)
		}
		dj.resultCh <- result
	}
}

// CompressBlocks compresses each element of blocks independently at the
// given level and returns one BlockResult per input, in the same order
// as blocks. Per-block failures are reported in that block's BlockResult
// rather than aborting the batch.
func (d *Dispatcher) CompressBlocks(ctx context.Context, blocks [][]byte, level lz4block.CompressionLevel) ([]BlockResult, error) {
	return d.run(ctx, blocks, func(i int, resultCh chan<- BlockResult) dispatchedJob {
		return dispatchedJob{
			job:      job{index: i, input: blocks[i], level: level},
			mode:     modeCompress,
			resultCh: resultCh,
		}
	})
}

// DecompressBlocks decompresses each element of blocks independently,
// each bounded by maxSize, and returns one BlockResult per input in
// order.
func (d *Dispatcher) DecompressBlocks(ctx context.Context, blocks [][]byte, maxSize int) ([]BlockResult, error) {
	return d.run(ctx, blocks, func(i int, resultCh chan<- BlockResult) dispatchedJob {
		return dispatchedJob{
			job:      job{index: i, input: blocks[i], maxSize: maxSize},
			mode:     modeDecompress,
			resultCh: resultCh,
		}
	})
}

func (d *Dispatcher) run(ctx context.Context, blocks [][]byte, makeJob func(i int, resultCh chan<- BlockResult) dispatchedJob) ([]BlockResult, error) {
	d.mu.Lock()
	if !d.running {
		if err := d.startLocked(); err != nil {
			d.mu.Unlock()
			return nil, err
		}
	}
	jobChan := d.jobChan
	d.mu.Unlock()

	n := len(blocks)
	if n == 0 {
		return nil, nil
	}

	resultCh := make(chan BlockResult, n)
	for i := 0; i < n; i++ {
		select {
		case jobChan <- makeJob(i, resultCh):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	results := make([]BlockResult, n)
	for i := 0; i < n; i++ {
		select {
		case r := <-resultCh:
			results[r.Index] = r
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return results, nil
}

// NumWorkers returns the configured worker count.
func (d *Dispatcher) NumWorkers() int { return d.numWorkers }
