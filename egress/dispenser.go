// Copyright (C) 2026 Blobnet Labs, Inc.
// See LICENSE for copying information.

// Package egress streams buffered content onto a transport in chunks
// with exactly-once release. A chunk moves through three states:
// queued (written, not yet handed to the transport), dispensed (handed
// out, awaiting the transport's acknowledgment) and resolved (callback
// fired, buffer released).
package egress

import (
	"sync"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/blobnet/datapath/buf"
	"github.com/blobnet/datapath/channel"
)

var (
	// Error is the default egress errs class.
	Error = errs.Class("egress")

	mon = monkit.Package()
)

type chunk struct {
	data       *buf.Buffer
	size       int64
	isLast     bool
	completion *channel.Completion
}

// Dispensed is one chunk handed to the transport. Data is a duplicate
// handle: the transport owns it and releases it itself once the bytes
// are on the wire, independently of the chunk's original handle, which
// the dispenser releases at resolution.
type Dispensed struct {
	Data   *buf.Buffer
	IsLast bool

	chunk *chunk
}

// Dispenser pairs with a producer on one side and a transport on the
// other. The producer writes chunks; the transport pulls them with
// Dispense and reports completion with Resolve. Cleanup tears down
// both queues when the connection dies, resolving every chunk it finds
// so that no buffer outlives the response.
type Dispenser struct {
	log *zap.Logger

	mu       sync.Mutex
	pending  []*chunk
	awaiting []*chunk
	closed   bool
}

// NewDispenser constructs an open Dispenser.
func NewDispenser(log *zap.Logger) *Dispenser {
	return &Dispenser{log: log}
}

// Write appends a chunk without taking an extra reference: the chunk's
// buffer is the caller-supplied handle, ownership transferred. After
// Cleanup the write is rejected with channel.ErrClosed and the caller
// keeps ownership of b.
func (d *Dispenser) Write(b *buf.Buffer, isLast bool, cb channel.Callback) *channel.Completion {
	completion := channel.NewCompletion(cb)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		completion.Resolve(0, channel.ErrClosed.New("dispenser closed"))
		return completion
	}
	d.pending = append(d.pending, &chunk{
		data:       b,
		size:       int64(b.Len()),
		isLast:     isLast,
		completion: completion,
	})
	d.mu.Unlock()

	return completion
}

// Dispense moves the oldest pending chunk to the awaiting queue and
// returns it with a duplicated buffer handle for the transport. It
// returns nil when nothing is pending or the dispenser is closed.
func (d *Dispenser) Dispense() *Dispensed {
	d.mu.Lock()
	if d.closed || len(d.pending) == 0 {
		d.mu.Unlock()
		return nil
	}
	ch := d.pending[0]
	d.pending = d.pending[1:]
	d.awaiting = append(d.awaiting, ch)
	d.mu.Unlock()

	return &Dispensed{
		Data:   ch.data.Duplicate(),
		IsLast: ch.isLast,
		chunk:  ch,
	}
}

// Resolve settles a dispensed chunk after the transport has finished
// with it: the chunk's callback fires with its size on a nil err or
// with err otherwise, and the chunk's original buffer handle is
// released. The chunk is removed from the awaiting queue first, so a
// second Resolve of the same chunk finds nothing and is a no-op.
//
// Resolve does not release dc.Data; that duplicate belongs to the
// transport.
func (d *Dispenser) Resolve(dc *Dispensed, err error) {
	if dc == nil {
		d.log.Debug("resolve of a nil chunk", zap.Error(err))
		return
	}
	d.mu.Lock()
	found := false
	for i, ch := range d.awaiting {
		if ch == dc.chunk {
			d.awaiting = append(d.awaiting[:i], d.awaiting[i+1:]...)
			found = true
			break
		}
	}
	d.mu.Unlock()

	if !found {
		d.log.Debug("resolve of an already resolved chunk", zap.Error(err))
		return
	}
	d.settle(dc.chunk, err)
}

// Cleanup tears the dispenser down on connection close or response
// abort. Both queues are drained through the same resolution path:
// every chunk's callback fires with err and every chunk's buffer is
// released exactly once. Idempotent; writes after Cleanup are
// rejected.
func (d *Dispenser) Cleanup(err error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	drained := make([]*chunk, 0, len(d.awaiting)+len(d.pending))
	drained = append(drained, d.awaiting...)
	drained = append(drained, d.pending...)
	d.awaiting, d.pending = nil, nil
	d.mu.Unlock()

	if len(drained) > 0 {
		d.log.Debug("cleaning up dispenser",
			zap.Int("chunks", len(drained)),
			zap.Error(err))
	}
	for _, ch := range drained {
		d.settle(ch, err)
	}
	mon.Counter("dispenser_cleanup").Inc(1)
}

// settle fires the chunk's callback and releases its original handle.
// Every resolution path funnels through here.
func (d *Dispenser) settle(ch *chunk, err error) {
	ch.data.Release()
	if err != nil {
		ch.completion.Resolve(0, err)
	} else {
		ch.completion.Resolve(ch.size, nil)
	}
}
