// Copyright (C) 2026 Blobnet Labs, Inc.
// See LICENSE for copying information.

package buf

import "sync"

// Tier capacities for the pooled allocator. The top tier (8MB) covers
// the largest chunk size the data path moves in one piece; anything
// beyond that is allocated directly and left to the garbage collector.
const (
	Size32   = 1 << 5
	Size512  = 1 << 9
	Size4K   = 1 << 12
	Size16K  = 1 << 14
	Size64K  = 1 << 16
	Size256K = 1 << 18
	Size1M   = 1 << 20
	Size4M   = 1 << 22
	Size8M   = 1 << 23
)

// Storage tiers are shared process-wide; Pool instances differ only in
// their observer.
var (
	pool32   = sync.Pool{New: func() interface{} { return make([]byte, Size32) }}
	pool512  = sync.Pool{New: func() interface{} { return make([]byte, Size512) }}
	pool4K   = sync.Pool{New: func() interface{} { return make([]byte, Size4K) }}
	pool16K  = sync.Pool{New: func() interface{} { return make([]byte, Size16K) }}
	pool64K  = sync.Pool{New: func() interface{} { return make([]byte, Size64K) }}
	pool256K = sync.Pool{New: func() interface{} { return make([]byte, Size256K) }}
	pool1M   = sync.Pool{New: func() interface{} { return make([]byte, Size1M) }}
	pool4M   = sync.Pool{New: func() interface{} { return make([]byte, Size4M) }}
	pool8M   = sync.Pool{New: func() interface{} { return make([]byte, Size8M) }}
)

// Observer is notified of buffer lifecycle events. It exists for leak
// auditing and accounting; correctness never depends on it.
type Observer interface {
	BufferAllocated(size int)
	BufferFreed(size int)
}

// Pool allocates reference-counted buffers from the shared storage
// tiers. A nil *Pool is valid and behaves like the default pool.
type Pool struct {
	observer Observer
}

var defaultPool = &Pool{}

// NewPool returns a pool that reports every allocation and free to
// observer. A nil observer is allowed.
func NewPool(observer Observer) *Pool {
	return &Pool{observer: observer}
}

// Alloc returns a buffer of exactly size readable bytes from the
// default pool.
func Alloc(size int) *Buffer {
	return defaultPool.Alloc(size)
}

// Alloc returns a buffer of exactly size readable bytes. The single
// reference it carries belongs to the caller.
func (p *Pool) Alloc(size int) *Buffer {
	if p == nil {
		p = defaultPool
	}
	s := &shared{data: alloc(size), pool: p}
	s.refs.Store(1)
	mon.Counter("buffer_alloc").Inc(1)
	if p.observer != nil {
		p.observer.BufferAllocated(size)
	}
	return &Buffer{shared: s}
}

func (p *Pool) free(data []byte) {
	mon.Counter("buffer_free").Inc(1)
	if p.observer != nil {
		p.observer.BufferFreed(len(data))
	}
	free(data)
}

// alloc picks the smallest tier that fits size. Oversized requests are
// allocated directly.
func alloc(size int) []byte {
	switch {
	case size <= Size32:
		return pool32.Get().([]byte)[:size]
	case size <= Size512:
		return pool512.Get().([]byte)[:size]
	case size <= Size4K:
		return pool4K.Get().([]byte)[:size]
	case size <= Size16K:
		return pool16K.Get().([]byte)[:size]
	case size <= Size64K:
		return pool64K.Get().([]byte)[:size]
	case size <= Size256K:
		return pool256K.Get().([]byte)[:size]
	case size <= Size1M:
		return pool1M.Get().([]byte)[:size]
	case size <= Size4M:
		return pool4M.Get().([]byte)[:size]
	case size <= Size8M:
		return pool8M.Get().([]byte)[:size]
	default:
		return make([]byte, size)
	}
}

// free returns storage to its tier, matched by capacity. Storage that
// did not come from a tier is left to the garbage collector.
func free(data []byte) {
	if data == nil {
		return
	}
	switch cap(data) {
	case Size32:
		pool32.Put(data[:cap(data)])
	case Size512:
		pool512.Put(data[:cap(data)])
	case Size4K:
		pool4K.Put(data[:cap(data)])
	case Size16K:
		pool16K.Put(data[:cap(data)])
	case Size64K:
		pool64K.Put(data[:cap(data)])
	case Size256K:
		pool256K.Put(data[:cap(data)])
	case Size1M:
		pool1M.Put(data[:cap(data)])
	case Size4M:
		pool4M.Put(data[:cap(data)])
	case Size8M:
		pool8M.Put(data[:cap(data)])
	}
}
