// Package engine orchestrates the four-component ingestion pipeline
// described in spec.md §5: it builds the buffer pools and channels, starts
// the prefetch reader (C1), record stream parser (C2), and result recorder
// (C3) as goroutines, joins them, then runs the instance materializer (C4)
// over the recorder's retained dumps. Ingest (and its tunable form,
// IngestWithOptions) is the module's one exported entry point.
package engine

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/hprofkit/hprofctl/internal/hprof/heap"
	"github.com/hprofkit/hprofctl/internal/hprof/ioutil"
	"github.com/hprofkit/hprofctl/internal/hprof/materialize"
	"github.com/hprofkit/hprofctl/internal/hprof/model"
	"github.com/hprofkit/hprofctl/internal/hprof/recorder"
	"github.com/hprofkit/hprofctl/internal/hprof/stream"
)

// Options configures chunk size, buffer-pool depth, and materializer
// parallelism. Defaults match spec.md §5's seed counts.
type Options struct {
	ChunkSize          int // default 64 MiB
	ChunkBuffers       int // default 2
	MaterializeWorkers int // default runtime.GOMAXPROCS(0)
	Logger             *log.Logger
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 64 << 20
	}
	if o.ChunkBuffers <= 0 {
		o.ChunkBuffers = 2
	}
	if o.MaterializeWorkers <= 0 {
		o.MaterializeWorkers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = log.New(os.Stderr)
	}
	return o
}

// Progress reports cumulative bytes consumed by the record stream parser.
type Progress struct {
	BytesConsumed int64
}

// Result is the terminal outcome of an ingestion run, sent once on the
// result channel after the progress channel has closed.
type Result struct {
	Heap *heap.Heap
	Err  error
}

// Ingest starts ingesting the HPROF file at path in the background and
// returns immediately. The progress channel receives cumulative byte
// counts as C2 advances and is closed when ingestion finishes; the result
// channel then receives exactly one Result carrying the materialized Heap
// or the failure that stopped the pipeline.
func Ingest(ctx context.Context, path string) (<-chan Progress, <-chan Result) {
	return IngestWithOptions(ctx, path, Options{})
}

// IngestWithOptions is Ingest with explicit pipeline tuning.
func IngestWithOptions(ctx context.Context, path string, opts Options) (<-chan Progress, <-chan Result) {
	opts = opts.withDefaults()
	progress := make(chan Progress, 1)
	result := make(chan Result, 1)

	go func() {
		defer close(result)

		f, err := os.Open(path)
		if err != nil {
			close(progress)
			result <- Result{Err: fmt.Errorf("%w: %v", model.ErrIO, err)}
			return
		}
		defer f.Close()

		fi, err := f.Stat()
		var fileSize int64
		if err == nil {
			fileSize = fi.Size()
		}

		header, err := stream.ParseHeader(f)
		if err != nil {
			close(progress)
			result <- Result{Err: err}
			return
		}
		opts.Logger.Info("hprof header parsed", "format", header.Format, "id_size", header.IDSize)

		h, err := run(ctx, f, header, fileSize, opts, progress)
		result <- Result{Heap: h, Err: err}
	}()

	return progress, result
}

// recordBatch is one unit handed from C2 to C3 on the record-batch channel
// (spec.md §5, channel 3).
type recordBatch struct {
	records []model.Record
	err     error
}

// run wires C1 -> C2 -> C3 as three goroutines connected by the channels
// named in spec.md §5, joins them, then runs C4 over what C3 accumulated.
// The chunk pool and record-vector pool give backpressure without bounded
// channels (spec.md §9 "Backpressure without bounded channels").
func run(ctx context.Context, f *os.File, header *model.FileHeader, fileSize int64, opts Options, progress chan<- Progress) (h *heap.Heap, err error) {
	defer close(progress)

	chunkPool := ioutil.SeedPool(opts.ChunkBuffers, opts.ChunkSize)
	chunks := make(chan ioutil.Chunk)
	batches := make(chan recordBatch)
	batchPool := make(chan []model.Record, 1)
	batchPool <- nil

	pr := ioutil.NewPrefetchReader(f)
	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		opts.Logger.Info("starting prefetch reader")
		pr.Run(workerCtx, chunkPool, chunks)
	}()

	go func() {
		defer close(batches)
		opts.Logger.Info("starting record stream parser")
		parser := stream.NewParser(header, fileSize)

		for chunk := range chunks {
			if chunk.Err != nil {
				sendBatch(workerCtx, batches, recordBatch{err: chunk.Err})
				return
			}

			buf := <-batchPool
			buf, ferr := parser.Feed(chunk.Data, buf[:0])
			ioutil.Recycle(chunkPool, chunk.Data)

			if ferr != nil {
				sendBatch(workerCtx, batches, recordBatch{err: ferr})
				return
			}

			select {
			case progress <- Progress{BytesConsumed: parser.BytesConsumed()}:
			default:
				// Sidecar channel; a slow reader never stalls ingestion.
			}

			if !sendBatch(workerCtx, batches, recordBatch{records: buf}) {
				return
			}
		}

		if ferr := parser.Finish(); ferr != nil {
			sendBatch(workerCtx, batches, recordBatch{err: ferr})
		}
	}()

	rec := recorder.New()
	for b := range batches {
		if b.err != nil {
			cancel()
			for range batches {
				// Drain so the parser goroutine's send doesn't block
				// forever after we've already decided to fail.
			}
			return nil, b.err
		}
		rec.Fold(b.records)

		select {
		case batchPool <- b.records[:0]:
		default:
			// Pool already holds a buffer; drop this one (mirrors
			// ioutil.Recycle's "receiver already gone" tolerance).
		}
	}

	opts.Logger.Info("record stream folded", "heap_dump_segments", rec.Counters.HeapDumpSegmentCount,
		"instance_dumps", len(rec.DumpInstances), "classes", len(rec.ClassDumps))

	opts.Logger.Info("starting instance materializer", "workers", opts.MaterializeWorkers,
		"instance_dumps", len(rec.DumpInstances))
	instances, err := materialize.Run(ctx, rec, materialize.Options{Workers: opts.MaterializeWorkers}, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrWorkerPanic, err)
	}

	return heap.New(rec, header, instances), nil
}

func sendBatch(ctx context.Context, out chan<- recordBatch, b recordBatch) bool {
	select {
	case out <- b:
		return true
	case <-ctx.Done():
		return false
	}
}
