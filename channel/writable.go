// Copyright (C) 2026 Blobnet Labs, Inc.
// See LICENSE for copying information.

package channel

import (
	"github.com/blobnet/datapath/buf"
)

// Writable is an asynchronous sink for reference-counted buffers.
//
// Write never blocks; its outcome is delivered through the returned
// Completion and the optional Callback. Whether a given write
// transfers ownership depends on the implementation's contract: for
// BufferQueue an accepted write transfers the buffer to the channel,
// while Aggregating copies and the caller always keeps its input.
// On ErrClosed the caller always retains ownership and the input's
// reference count is untouched.
//
// WriteBytes copies p into a channel-allocated buffer. That internal
// buffer is subject to the same obligations as an externally supplied
// one: the channel must release it on consumption or on close.
//
// Close is idempotent, releases every buffer the channel currently
// owns, and resolves every pending completion with ErrClosed. It is
// safe to call from any goroutine, concurrently with either side.
type Writable interface {
	Write(b *buf.Buffer, cb Callback) *Completion
	WriteBytes(p []byte, cb Callback) *Completion
	Close() error
	IsOpen() bool
}
