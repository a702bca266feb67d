// Package ioutil implements the prefetching chunk reader (C1): it reads an
// open file in fixing-size chunks drawn from a recycled buffer pool and
// publishes them on a channel, bounding memory without a bounded channel.
package ioutil

import (
	"context"
	"fmt"
	"io"

	"github.com/hprofkit/hprofctl/internal/hprof/model"
)

// Chunk is one buffer's worth of file bytes, or a terminal error.
type Chunk struct {
	Data []byte
	Err  error
}

// PrefetchReader sequentially fills pooled buffers from an io.Reader.
type PrefetchReader struct {
	r io.Reader
}

func NewPrefetchReader(r io.Reader) *PrefetchReader {
	return &PrefetchReader{r: r}
}

// Run drains buffers from pool, fills each by sequential read, and sends
// it on out. It blocks on pool-recv when no free buffer is available and
// on out-send when the consumer is slow — the two suspension points named
// in spec.md §4.1. It returns (closing out) on clean EOF, on a closed pool
// channel, or when ctx is cancelled (the downstream closed early).
//
// A short read at EOF is normal: the final chunk is trimmed to the bytes
// actually read. A read that fails with anything other than io.EOF /
// io.ErrUnexpectedEOF is reported as a fatal Io error on out.
func (pr *PrefetchReader) Run(ctx context.Context, pool <-chan []byte, out chan<- Chunk) {
	defer close(out)

	for {
		var buf []byte
		select {
		case <-ctx.Done():
			return
		case b, ok := <-pool:
			if !ok {
				return
			}
			buf = b
		}

		n, err := io.ReadFull(pr.r, buf)
		switch {
		case err == nil:
			if !sendChunk(ctx, out, Chunk{Data: buf[:n]}) {
				return
			}
		case err == io.EOF:
			// Nothing read; clean end of stream.
			return
		case err == io.ErrUnexpectedEOF:
			// Final, short chunk — still a normal end of stream.
			sendChunk(ctx, out, Chunk{Data: buf[:n]})
			return
		default:
			sendChunk(ctx, out, Chunk{Err: fmt.Errorf("%w: %v", model.ErrIO, err)})
			return
		}
	}
}

func sendChunk(ctx context.Context, out chan<- Chunk, c Chunk) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

// SeedPool creates n buffers of size chunkSize and returns a pool channel
// pre-loaded with them, matching the "two chunk buffers" seed count from
// spec.md §5.
func SeedPool(n, chunkSize int) chan []byte {
	pool := make(chan []byte, n)
	for i := 0; i < n; i++ {
		pool <- make([]byte, chunkSize)
	}
	return pool
}

// Recycle resets a consumed buffer to full capacity and returns it to the
// pool. Ignoring a failed send is correct: the receiver (C1) may already
// have exited after reaching EOF.
func Recycle(pool chan<- []byte, buf []byte) {
	buf = buf[:cap(buf)]
	select {
	case pool <- buf:
	default:
		// Pool channel is buffered to exactly the seed count; a full
		// channel here means C1 already exited and nobody will ever
		// drain it again, so dropping the buffer is harmless.
	}
}
