// Copyright (C) 2026 Blobnet Labs, Inc.
// See LICENSE for copying information.

package channel

import (
	"context"
	"sync/atomic"
)

// Callback is notified once when a write settles, with the number of
// bytes accepted or the error that failed it. Exactly one of the two
// outcomes is delivered, exactly once, possibly on an arbitrary
// goroutine; implementations must synchronize any shared state they
// touch.
type Callback func(written int64, err error)

// Completion is the asynchronous handle returned by a write. It
// settles exactly once, with the same outcome the Callback receives.
type Completion struct {
	fired   atomic.Bool
	done    chan struct{}
	written int64
	err     error
	cb      Callback
}

// NewCompletion constructs an unsettled completion that will notify
// cb when resolved. Intended for channel implementations; code that
// only writes to a channel never constructs one.
func NewCompletion(cb Callback) *Completion {
	return &Completion{done: make(chan struct{}), cb: cb}
}

// Resolve settles the completion and fires the callback. Only the
// component that accepted the write may resolve it. Settling twice is
// a defect in the resolver, never in the caller, so it panics.
func (c *Completion) Resolve(written int64, err error) {
	if !c.fired.CompareAndSwap(false, true) {
		panic("channel: completion resolved twice")
	}
	c.written, c.err = written, err
	close(c.done)
	if c.cb != nil {
		c.cb(written, err)
	}
}

// Done returns a channel closed when the write has settled.
func (c *Completion) Done() <-chan struct{} { return c.done }

// Wait blocks until the write settles or ctx is done, and returns the
// outcome.
func (c *Completion) Wait(ctx context.Context) (int64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-c.done:
		return c.written, c.err
	}
}
