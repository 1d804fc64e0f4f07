// Package batch implements the Batch Coordinator (spec.md §4.7): a
// mutex-guarded record buffer plus a coalescing flush signal, the Go
// rendering of the original's `tokio::sync::watch` single-slot channel.
package batch

import (
	"sync"

	"github.com/Gi-z/csi-ingestd/internal/record"
)

// Coordinator buffers DerivedRecords appended by the receive workers and
// signals the Sink Flusher once the buffer crosses the configured
// threshold.
type Coordinator struct {
	threshold int

	mu     sync.Mutex
	buffer []record.Derived

	flush chan struct{}
}

// New returns a Coordinator that signals a flush once the buffer holds
// more than threshold records (config's influx.write_batch_size).
func New(threshold int) *Coordinator {
	return &Coordinator{
		threshold: threshold,
		flush:     make(chan struct{}, 1),
	}
}

// Append adds recs to the buffer and, if the buffer now exceeds the
// configured threshold, signals the flusher (spec.md §4.7 steps 1-2). The
// send is non-blocking: a pending signal already queued is sufficient,
// so repeated Append calls while a flush is in flight collapse into at
// most one subsequent flush.
func (c *Coordinator) Append(recs []record.Derived) {
	if len(recs) == 0 {
		return
	}

	c.mu.Lock()
	c.buffer = append(c.buffer, recs...)
	n := len(c.buffer)
	c.mu.Unlock()

	if n > c.threshold {
		select {
		case c.flush <- struct{}{}:
		default:
		}
	}
}

// Signal returns the channel the Sink Flusher waits on. A receive blocks
// until Append pushes the buffer over threshold.
func (c *Coordinator) Signal() <-chan struct{} {
	return c.flush
}

// Drain moves the buffer's contents out under lock and returns them,
// leaving the buffer empty (spec.md §4.8 step 3).
func (c *Coordinator) Drain() []record.Derived {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.buffer) == 0 {
		return nil
	}
	out := c.buffer
	c.buffer = nil
	return out
}

// Len reports the current buffer length. Intended for tests and metrics.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}
