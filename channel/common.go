// Copyright (C) 2026 Blobnet Labs, Inc.
// See LICENSE for copying information.

// Package channel implements asynchronous writable channels: sinks
// that accept reference-counted buffers together with a completion
// callback and expose the content to a consumer on its own schedule.
//
// Two implementations are provided. BufferQueue keeps written chunks
// in a FIFO for a puller that resolves them one at a time; Aggregating
// copies every write into a growing composite that is consumed once.
// Both uphold the same ownership contract: an accepted write transfers
// the buffer to the channel, which must release it on consumption or
// on close; a rejected write never changes the caller's reference
// count.
package channel

import (
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
)

var (
	// Error is the default channel errs class.
	Error = errs.Class("channel")

	// ErrClosed is returned for operations attempted after Close. The
	// caller retains ownership of any buffer it passed in that call.
	ErrClosed = errs.Class("channel closed")

	// ErrTooLarge is returned when a write pushes an Aggregating
	// channel past its configured cap. It is sticky: once triggered,
	// every later write fails the same way.
	ErrTooLarge = errs.Class("payload too large")

	// ErrIllegalState is returned for lifecycle violations such as
	// consuming twice or writing after consumption.
	ErrIllegalState = errs.Class("illegal state")

	mon = monkit.Package()
)
