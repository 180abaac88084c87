// Copyright (C) 2026 Blobnet Labs, Inc.
// See LICENSE for copying information.

// Package transform runs compression and encryption over
// reference-counted buffers, as direct calls and as jobs for a worker
// pool.
//
// The two levels carry different ownership contracts. The buffer-level
// functions (EncryptBuffer, CompressBuffer, ...) never take ownership:
// the caller retains and releases its input, and owns the new output
// buffer on success; on internal failure only internally allocated
// storage is released, never the caller's input. A Job, by contrast,
// takes ownership of its input at construction and releases it exactly
// once, whether it runs, fails or is cancelled.
package transform

import (
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
)

var (
	// Error wraps failures of the underlying crypto or compression
	// primitives. By the time a job callback carries it, the job's
	// input buffer has already been released.
	Error = errs.Class("transform")

	// ErrCancelled is delivered by a job discarded before execution.
	ErrCancelled = errs.Class("job cancelled")

	mon = monkit.Package()
)
