// Copyright (C) 2026 Blobnet Labs, Inc.
// See LICENSE for copying information.

package transform_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"storj.io/common/testrand"

	"github.com/blobnet/datapath/buf"
	"github.com/blobnet/datapath/transform"
)

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

func TestEncryptDecryptRoundTrip(t *testing.T) {
	cipher, err := transform.NewSecretboxCipher(testrand.Bytes(32))
	require.NoError(t, err)

	plain := testrand.Bytes(1024)
	in := buf.Wrap(plain)

	sealed, err := transform.EncryptBuffer(nil, cipher, in)
	require.NoError(t, err)
	require.Equal(t, 1024+cipher.Overhead(), sealed.Len())
	// the caller keeps its input
	require.EqualValues(t, 1, in.RefCount())

	opened, err := transform.DecryptBuffer(nil, cipher, sealed)
	require.NoError(t, err)
	require.Equal(t, plain, opened.Bytes())
	require.EqualValues(t, 1, sealed.RefCount())

	opened.Release()
	sealed.Release()
	in.Release()
}

func TestDecryptFailureLeavesInput(t *testing.T) {
	cipher, err := transform.NewSecretboxCipher(testrand.Bytes(32))
	require.NoError(t, err)

	observer := &countingObserver{}
	pool := buf.NewPool(observer)

	// garbage of a plausible length fails authentication
	in := buf.Wrap(testrand.Bytes(256))
	_, err = transform.DecryptBuffer(pool, cipher, in)
	require.Error(t, err)
	require.True(t, transform.Error.Has(err))

	// the caller's input is untouched; only the internally allocated
	// output was released
	require.EqualValues(t, 1, in.RefCount())
	require.Equal(t, 0, observer.outstanding())
	in.Release()

	// too-short ciphertext fails before any allocation
	short := buf.Wrap(testrand.Bytes(4))
	_, err = transform.DecryptBuffer(pool, cipher, short)
	require.Error(t, err)
	require.EqualValues(t, 1, short.RefCount())
	require.Equal(t, 0, observer.outstanding())
	short.Release()
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	compressor, err := transform.NewZstd()
	require.NoError(t, err)

	// repetitive content so compression actually shrinks it
	plain := make([]byte, 4096)
	for i := range plain {
		plain[i] = byte(i % 7)
	}
	in := buf.Wrap(plain)

	compressed, err := transform.CompressBuffer(nil, compressor, in)
	require.NoError(t, err)
	require.Less(t, compressed.Len(), in.Len())
	require.EqualValues(t, 1, in.RefCount())

	restored, err := transform.DecompressBuffer(nil, compressor, compressed)
	require.NoError(t, err)
	require.Equal(t, plain, restored.Bytes())

	restored.Release()
	compressed.Release()
	in.Release()
}

func TestDecompressFailureLeavesInput(t *testing.T) {
	compressor, err := transform.NewZstd()
	require.NoError(t, err)

	in := buf.Wrap(testrand.Bytes(64))
	_, err = transform.DecompressBuffer(nil, compressor, in)
	require.Error(t, err)
	require.True(t, transform.Error.Has(err))
	require.EqualValues(t, 1, in.RefCount())
	in.Release()
}

func TestSecretboxKeyValidation(t *testing.T) {
	_, err := transform.NewSecretboxCipher(testrand.Bytes(16))
	require.Error(t, err)
}
