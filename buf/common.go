// Copyright (C) 2026 Blobnet Labs, Inc.
// See LICENSE for copying information.

// Package buf implements reference-counted byte buffers backed by a
// tiered pool allocator. A buffer's storage is returned to the pool
// exactly when its live-handle count reaches zero; every holder of a
// handle must call Release exactly once per handle it holds.
package buf

import (
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
)

// Error is the default buf errs class.
var Error = errs.Class("buf")

var mon = monkit.Package()
