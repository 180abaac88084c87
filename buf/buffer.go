// Copyright (C) 2026 Blobnet Labs, Inc.
// See LICENSE for copying information.

package buf

import (
	"io"
	"sync/atomic"
)

// shared is the storage jointly owned by every handle that aliases it.
// The count governs lifetime only, not read/write exclusion.
type shared struct {
	data []byte
	refs atomic.Int32
	pool *Pool // nil when GC managed
}

// Buffer is a handle to a reference-counted region of bytes. Handles
// created by Retain and Duplicate alias the same storage; each handle
// obligates its holder to exactly one Release. The read offset belongs
// to the handle, not the storage, so duplicated handles read
// independently.
type Buffer struct {
	shared *shared
	off    int
}

// Wrap returns a buffer handle around data. The storage is managed by
// the garbage collector; the reference count is still tracked so that
// ownership defects surface the same way they do for pooled buffers.
func Wrap(data []byte) *Buffer {
	s := &shared{data: data}
	s.refs.Store(1)
	return &Buffer{shared: s}
}

// Retain increments the reference count and returns the receiver. The
// caller takes on one additional Release obligation.
func (b *Buffer) Retain() *Buffer {
	if n := b.shared.refs.Add(1); n <= 1 {
		panic("buf: retain of a freed buffer")
	}
	return b
}

// Duplicate returns a new handle sharing the receiver's storage, with
// its own read offset starting at the receiver's current position. The
// count is incremented; the new handle must be released independently.
func (b *Buffer) Duplicate() *Buffer {
	if n := b.shared.refs.Add(1); n <= 1 {
		panic("buf: duplicate of a freed buffer")
	}
	return &Buffer{shared: b.shared, off: b.off}
}

// Release decrements the reference count and returns the storage to
// its pool when the count reaches zero. Releasing more handles than
// were created panics: an ownership defect here is memory corruption
// in waiting and must not be absorbed silently.
func (b *Buffer) Release() {
	n := b.shared.refs.Add(-1)
	switch {
	case n == 0:
		data := b.shared.data
		b.shared.data = nil
		if pool := b.shared.pool; pool != nil {
			pool.free(data)
		}
	case n < 0:
		panic("buf: release of a freed buffer")
	}
}

// Len returns the number of readable bytes remaining in this handle.
func (b *Buffer) Len() int {
	if b.off >= len(b.shared.data) {
		return 0
	}
	return len(b.shared.data) - b.off
}

// Bytes returns the readable bytes of this handle without copying.
// The slice is valid only while the handle holds a reference.
func (b *Buffer) Bytes() []byte {
	if b.off >= len(b.shared.data) {
		return nil
	}
	return b.shared.data[b.off:]
}

// Read copies readable bytes into dst and advances this handle's
// offset. It returns io.EOF once the handle is exhausted.
func (b *Buffer) Read(dst []byte) (n int, err error) {
	if b.off >= len(b.shared.data) {
		return 0, io.EOF
	}
	n = copy(dst, b.shared.data[b.off:])
	b.off += n
	return n, nil
}

// RefCount reports the current live-handle count. Intended for
// diagnostics and leak assertions, not for control flow.
func (b *Buffer) RefCount() int32 {
	return b.shared.refs.Load()
}
