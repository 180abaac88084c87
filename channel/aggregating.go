// Copyright (C) 2026 Blobnet Labs, Inc.
// See LICENSE for copying information.

package channel

import (
	"io"
	"sync"

	"storj.io/common/memory"

	"github.com/blobnet/datapath/buf"
)

// Aggregating is a Writable that copies every write into a growing
// composite and settles each write's completion within the Write call
// itself, without waiting on a consumer. The caller always keeps
// ownership of the buffers it writes; the channel owns only its
// internal copies.
//
// Consumption is single-shot: ConsumeAsBytes or ConsumeAsStream hands
// the accumulated content to the caller exactly once. A second
// consumption, or a write after consumption, fails with
// ErrIllegalState.
type Aggregating struct {
	pool  *buf.Pool
	limit int64

	mu         sync.Mutex
	parts      []*buf.Buffer
	written    int64
	overflowed bool
	consumed   bool
	closed     bool
}

var _ Writable = (*Aggregating)(nil)

// NewAggregating constructs an Aggregating channel that fails writes
// with ErrTooLarge once more than limit bytes have been accepted. A
// non-positive limit means no cap.
func NewAggregating(pool *buf.Pool, limit memory.Size) *Aggregating {
	return &Aggregating{pool: pool, limit: limit.Int64()}
}

// Write copies b's readable bytes into the composite and settles the
// completion before returning. The input's reference count is never
// changed; the caller keeps ownership of b regardless of outcome.
//
// The write that first exceeds the cap is still appended (accepted
// bytes are not rolled back) but fails with ErrTooLarge, and every
// write after that fails the same way without being appended.
func (c *Aggregating) Write(b *buf.Buffer, cb Callback) *Completion {
	return c.append(b.Bytes(), cb)
}

// WriteBytes copies p into the composite, same contract as Write.
func (c *Aggregating) WriteBytes(p []byte, cb Callback) *Completion {
	return c.append(p, cb)
}

func (c *Aggregating) append(p []byte, cb Callback) *Completion {
	completion := NewCompletion(cb)

	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		completion.Resolve(0, ErrClosed.New("write to closed channel"))
		return completion
	case c.consumed:
		c.mu.Unlock()
		completion.Resolve(0, ErrIllegalState.New("write after consume"))
		return completion
	case c.overflowed:
		c.mu.Unlock()
		completion.Resolve(0, ErrTooLarge.New("channel capacity %d exceeded", c.limit))
		return completion
	}

	part := c.pool.Alloc(len(p))
	copy(part.Bytes(), p)
	c.parts = append(c.parts, part)
	c.written += int64(len(p))

	if c.limit > 0 && c.written > c.limit {
		c.overflowed = true
		limit := c.limit
		c.mu.Unlock()
		completion.Resolve(0, ErrTooLarge.New("channel capacity %d exceeded", limit))
		return completion
	}
	n := int64(len(p))
	c.mu.Unlock()

	completion.Resolve(n, nil)
	return completion
}

// ConsumeAsBytes hands the accumulated content to the caller as a
// single buffer the caller now owns, and drops the channel's internal
// reference to it. It succeeds exactly once.
func (c *Aggregating) ConsumeAsBytes() (*buf.Buffer, error) {
	parts, size, err := c.take()
	if err != nil {
		return nil, err
	}
	return coalesce(c.pool, parts, size), nil
}

// ConsumeAsStream is ConsumeAsBytes exposed as a stream. Closing the
// returned reader releases the underlying buffer.
func (c *Aggregating) ConsumeAsStream() (io.ReadCloser, error) {
	parts, size, err := c.take()
	if err != nil {
		return nil, err
	}
	return buf.NewReader(coalesce(c.pool, parts, size)), nil
}

func (c *Aggregating) take() ([]*buf.Buffer, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, 0, ErrClosed.New("channel closed")
	}
	if c.consumed {
		return nil, 0, ErrIllegalState.New("content already consumed")
	}
	c.consumed = true
	parts := c.parts
	c.parts = nil
	return parts, c.written, nil
}

// coalesce copies parts into one buffer, releasing each part.
func coalesce(pool *buf.Pool, parts []*buf.Buffer, size int64) *buf.Buffer {
	out := pool.Alloc(int(size))
	data, off := out.Bytes(), 0
	for _, part := range parts {
		off += copy(data[off:], part.Bytes())
		part.Release()
	}
	return out
}

// BytesWritten reports the number of bytes accepted so far, including
// the write that triggered an overflow. It stays queryable after
// overflow, consumption and close.
func (c *Aggregating) BytesWritten() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written
}

// Close before consumption releases the composite; after consumption
// it is a no-op, since nothing is left to release. Idempotent.
func (c *Aggregating) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	parts := c.parts
	c.parts = nil
	c.mu.Unlock()

	for _, part := range parts {
		part.Release()
	}
	return nil
}

// IsOpen reports whether the channel still accepts writes.
func (c *Aggregating) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}
