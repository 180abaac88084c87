// Copyright (C) 2026 Blobnet Labs, Inc.
// See LICENSE for copying information.

package buf

import (
	"io"
	"sync"
)

// NewReader returns a reader over the handle b. Ownership of b
// transfers to the reader: closing the reader releases the handle
// exactly once, and Close is safe to call more than once.
func NewReader(b *Buffer) io.ReadCloser {
	return &reader{b: b}
}

type reader struct {
	mu     sync.Mutex
	b      *Buffer
	closed bool
}

func (r *reader) Read(p []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, Error.New("read after close")
	}
	return r.b.Read(p)
}

func (r *reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.b.Release()
	r.b = nil
	return nil
}
