// Copyright (C) 2026 Blobnet Labs, Inc.
// See LICENSE for copying information.

package transform

import (
	"context"
	"sync/atomic"

	"github.com/blobnet/datapath/buf"
)

// Callback receives a job's result: on success a new output buffer the
// recipient now owns, on failure the error, never both. It fires
// exactly once, on an arbitrary goroutine, after the job's input
// buffer has already been released.
type Callback func(out *buf.Buffer, err error)

// Job is a unit of transform work for a worker pool. Exactly one of
// Run and Cancel settles the job; whichever loses the race is a no-op.
// Both paths release the job's input buffer exactly once.
type Job interface {
	Run(ctx context.Context)

	// Cancel settles a job discarded before execution, behaving like a
	// failure: the input is released and the callback fires with
	// (nil, reason). A nil reason is reported as ErrCancelled.
	Cancel(reason error)
}

type job struct {
	name    string
	pool    *buf.Pool
	in      *buf.Buffer
	apply   func(pool *buf.Pool, in *buf.Buffer) (*buf.Buffer, error)
	cb      Callback
	settled atomic.Bool
}

// NewEncryptJob returns a job that seals in with ci. On a nil error
// return, ownership of in has transferred to the job; on an error
// return the job took nothing and the caller still owns in.
func NewEncryptJob(ci Cipher, pool *buf.Pool, in *buf.Buffer, cb Callback) (Job, error) {
	if ci == nil {
		return nil, Error.New("encrypt: nil cipher")
	}
	return newJob("encrypt", pool, in, cb, func(pool *buf.Pool, in *buf.Buffer) (*buf.Buffer, error) {
		return EncryptBuffer(pool, ci, in)
	})
}

// NewDecryptJob returns a job that opens in with ci. Ownership follows
// the NewEncryptJob contract.
func NewDecryptJob(ci Cipher, pool *buf.Pool, in *buf.Buffer, cb Callback) (Job, error) {
	if ci == nil {
		return nil, Error.New("decrypt: nil cipher")
	}
	return newJob("decrypt", pool, in, cb, func(pool *buf.Pool, in *buf.Buffer) (*buf.Buffer, error) {
		return DecryptBuffer(pool, ci, in)
	})
}

// NewCompressJob returns a job that compresses in with co. Ownership
// follows the NewEncryptJob contract.
func NewCompressJob(co Compressor, pool *buf.Pool, in *buf.Buffer, cb Callback) (Job, error) {
	if co == nil {
		return nil, Error.New("compress: nil compressor")
	}
	return newJob("compress", pool, in, cb, func(pool *buf.Pool, in *buf.Buffer) (*buf.Buffer, error) {
		return CompressBuffer(pool, co, in)
	})
}

// NewDecompressJob returns a job that decompresses in with co.
// Ownership follows the NewEncryptJob contract.
func NewDecompressJob(co Compressor, pool *buf.Pool, in *buf.Buffer, cb Callback) (Job, error) {
	if co == nil {
		return nil, Error.New("decompress: nil compressor")
	}
	return newJob("decompress", pool, in, cb, func(pool *buf.Pool, in *buf.Buffer) (*buf.Buffer, error) {
		return DecompressBuffer(pool, co, in)
	})
}

// newJob validates everything that can fail before taking ownership of
// in, so that an error return never strands a handle inside a
// half-built job.
func newJob(name string, pool *buf.Pool, in *buf.Buffer, cb Callback, apply func(*buf.Pool, *buf.Buffer) (*buf.Buffer, error)) (Job, error) {
	if in == nil {
		return nil, Error.New("%s: nil input buffer", name)
	}
	if cb == nil {
		return nil, Error.New("%s: nil callback", name)
	}
	return &job{name: name, pool: pool, in: in, apply: apply, cb: cb}, nil
}

func (j *job) Run(ctx context.Context) {
	var err error
	defer mon.TaskNamed(j.name)(&ctx)(&err)

	if !j.settled.CompareAndSwap(false, true) {
		return
	}
	in := j.in
	j.in = nil

	if err = ctx.Err(); err != nil {
		err = ErrCancelled.Wrap(err)
		in.Release()
		j.cb(nil, err)
		return
	}

	out, applyErr := j.apply(j.pool, in)
	// the callback must observe the input as already released
	in.Release()
	if applyErr != nil {
		err = applyErr
		j.cb(nil, applyErr)
		return
	}
	j.cb(out, nil)
}

func (j *job) Cancel(reason error) {
	if !j.settled.CompareAndSwap(false, true) {
		return
	}
	in := j.in
	j.in = nil
	in.Release()

	if reason == nil {
		reason = ErrCancelled.New("%s job discarded", j.name)
	}
	j.cb(nil, reason)
}
