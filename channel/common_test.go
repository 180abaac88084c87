// Copyright (C) 2026 Blobnet Labs, Inc.
// See LICENSE for copying information.

package channel_test

import "sync"

// countingObserver tracks outstanding pooled bytes for leak
// assertions.
type countingObserver struct {
	mu        sync.Mutex
	allocated int
	freed     int
}

func (o *countingObserver) BufferAllocated(size int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.allocated += size
}

func (o *countingObserver) BufferFreed(size int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.freed += size
}

func (o *countingObserver) outstanding() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.allocated - o.freed
}
