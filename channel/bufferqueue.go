// Copyright (C) 2026 Blobnet Labs, Inc.
// See LICENSE for copying information.

package channel

import (
	"context"
	"sync"

	"github.com/blobnet/datapath/buf"
)

// chunk is one queued write: the buffer the channel now owns, its size
// at enqueue time, and the completion to settle when it resolves.
type chunk struct {
	data       *buf.Buffer
	size       int64
	completion *Completion
}

// BufferQueue is a Writable that keeps written chunks in a FIFO for a
// single puller. A write's completion does not fire at enqueue time;
// it fires when the consumer later resolves that chunk, or when the
// channel closes. Chunks resolve strictly in write order.
type BufferQueue struct {
	pool *buf.Pool
	wake chan struct{}

	mu sync.Mutex
	// queued holds chunks not yet handed to the consumer; delivered
	// holds chunks handed out by NextChunk but not yet resolved.
	queued    []*chunk
	delivered []*chunk
	closed    bool
}

var _ Writable = (*BufferQueue)(nil)

// NewBufferQueue constructs an open BufferQueue. WriteBytes allocates
// from pool; a nil pool means the default pool.
func NewBufferQueue(pool *buf.Pool) *BufferQueue {
	return &BufferQueue{
		pool: pool,
		wake: make(chan struct{}, 1),
	}
}

// Write enqueues b and returns immediately. On acceptance, ownership
// of b transfers to the channel; the completion settles when the chunk
// is later resolved. If the channel is closed the write is rejected
// with ErrClosed, b's reference count is untouched and the caller
// keeps ownership.
func (c *BufferQueue) Write(b *buf.Buffer, cb Callback) *Completion {
	completion, _ := c.writeChunk(b, cb)
	return completion
}

// WriteBytes copies p into a channel-allocated buffer and enqueues it.
// The caller's slice is not referenced after return.
func (c *BufferQueue) WriteBytes(p []byte, cb Callback) *Completion {
	b := c.pool.Alloc(len(p))
	copy(b.Bytes(), p)

	completion, accepted := c.writeChunk(b, cb)
	if !accepted {
		// the channel never took ownership of the internal buffer
		b.Release()
	}
	return completion
}

func (c *BufferQueue) writeChunk(b *buf.Buffer, cb Callback) (*Completion, bool) {
	completion := NewCompletion(cb)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		completion.Resolve(0, ErrClosed.New("write to closed channel"))
		return completion, false
	}
	c.queued = append(c.queued, &chunk{
		data:       b,
		size:       int64(b.Len()),
		completion: completion,
	})
	c.mu.Unlock()

	c.notify()
	return completion, true
}

// NextChunk blocks until a chunk is available, the channel closes, or
// ctx is done. The returned buffer remains owned by the channel: the
// consumer reads it and then calls ResolveOldest, which fires the
// chunk's callback and releases the buffer. The consumer must not
// release the returned handle itself.
func (c *BufferQueue) NextChunk(ctx context.Context) (_ *buf.Buffer, err error) {
	defer mon.Task()(&ctx)(&err)

	for {
		c.mu.Lock()
		if len(c.queued) > 0 {
			ch := c.queued[0]
			c.queued = c.queued[1:]
			c.delivered = append(c.delivered, ch)
			c.mu.Unlock()
			return ch.data, nil
		}
		closed := c.closed
		c.mu.Unlock()

		if closed {
			return nil, ErrClosed.New("channel closed")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.wake:
		}
	}
}

// ResolveOldest settles the oldest delivered chunk: its callback fires
// with the chunk's size on a nil resolveErr or with resolveErr
// otherwise, and its buffer is released on both paths. It fails with
// ErrIllegalState when no delivered chunk is outstanding.
func (c *BufferQueue) ResolveOldest(resolveErr error) error {
	c.mu.Lock()
	if len(c.delivered) == 0 {
		c.mu.Unlock()
		return ErrIllegalState.New("no chunk awaiting resolution")
	}
	ch := c.delivered[0]
	c.delivered = c.delivered[1:]
	c.mu.Unlock()

	ch.data.Release()
	if resolveErr != nil {
		ch.completion.Resolve(0, resolveErr)
	} else {
		ch.completion.Resolve(ch.size, nil)
	}
	return nil
}

// Close drains the channel: every remaining chunk's buffer is
// released, queued and delivered alike, and every remaining completion
// settles with ErrClosed. Close is idempotent and safe to call
// concurrently with either side.
func (c *BufferQueue) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	drained := make([]*chunk, 0, len(c.delivered)+len(c.queued))
	drained = append(drained, c.delivered...)
	drained = append(drained, c.queued...)
	c.delivered, c.queued = nil, nil
	c.mu.Unlock()

	c.notify()
	for _, ch := range drained {
		ch.data.Release()
		ch.completion.Resolve(0, ErrClosed.New("channel closed"))
	}
	return nil
}

// IsOpen reports whether the channel still accepts writes.
func (c *BufferQueue) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *BufferQueue) notify() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}
