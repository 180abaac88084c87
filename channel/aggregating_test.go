// Copyright (C) 2026 Blobnet Labs, Inc.
// See LICENSE for copying information.

package channel_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"storj.io/common/memory"
	"storj.io/common/testrand"

	"github.com/blobnet/datapath/buf"
	"github.com/blobnet/datapath/channel"
)

func TestAggregatingWriteResolvesSynchronously(t *testing.T) {
	agg := channel.NewAggregating(nil, 0)
	defer func() { _ = agg.Close() }()

	fired := false
	data := testrand.Bytes(128)
	b := buf.Wrap(data)
	agg.Write(b, func(written int64, err error) {
		fired = true
		require.NoError(t, err)
		require.EqualValues(t, 128, written)
	})
	// same-call resolution, no consumer involved
	require.True(t, fired)

	// write-by-copy: the caller keeps its input
	require.EqualValues(t, 1, b.RefCount())
	b.Release()

	got, err := agg.ConsumeAsBytes()
	require.NoError(t, err)
	require.Equal(t, data, got.Bytes())
	got.Release()
}

func TestAggregatingSizeCapSticky(t *testing.T) {
	agg := channel.NewAggregating(nil, memory.Size(1023))
	defer func() { _ = agg.Close() }()

	// fill the channel exactly to its cap across several writes
	total := 0
	for _, size := range []int{500, 400, 123} {
		completion := agg.WriteBytes(testrand.Bytes(memory.Size(size)), nil)
		select {
		case <-completion.Done():
		default:
			t.Fatal("write did not resolve synchronously")
		}
		total += size
	}
	require.EqualValues(t, total, agg.BytesWritten())

	// the overflowing write is still appended, but fails
	var overflowErr error
	agg.WriteBytes(testrand.Bytes(10), func(written int64, err error) {
		overflowErr = err
	})
	require.True(t, channel.ErrTooLarge.Has(overflowErr))
	require.EqualValues(t, 1033, agg.BytesWritten())

	// sticky: any further write fails immediately and appends nothing
	var stickyErr error
	agg.WriteBytes(testrand.Bytes(1), func(written int64, err error) {
		stickyErr = err
	})
	require.True(t, channel.ErrTooLarge.Has(stickyErr))
	require.EqualValues(t, 1033, agg.BytesWritten())
}

func TestAggregatingSingleConsumption(t *testing.T) {
	agg := channel.NewAggregating(nil, 0)

	data := testrand.Bytes(256)
	agg.WriteBytes(data, nil)

	got, err := agg.ConsumeAsBytes()
	require.NoError(t, err)

	_, err = agg.ConsumeAsBytes()
	require.True(t, channel.ErrIllegalState.Has(err))
	_, err = agg.ConsumeAsStream()
	require.True(t, channel.ErrIllegalState.Has(err))

	// the second call did not touch the first result
	require.Equal(t, data, got.Bytes())
	require.EqualValues(t, 1, got.RefCount())
	got.Release()

	// write after consume is a lifecycle violation
	var writeErr error
	agg.WriteBytes([]byte{1}, func(written int64, err error) { writeErr = err })
	require.True(t, channel.ErrIllegalState.Has(writeErr))

	// close after consume has nothing to release
	require.NoError(t, agg.Close())
}

func TestAggregatingConsumeAsStream(t *testing.T) {
	observer := &countingObserver{}
	agg := channel.NewAggregating(buf.NewPool(observer), 0)

	first := testrand.Bytes(100)
	second := testrand.Bytes(50)
	agg.WriteBytes(first, nil)
	agg.WriteBytes(second, nil)

	stream, err := agg.ConsumeAsStream()
	require.NoError(t, err)
	got, err := io.ReadAll(stream)
	require.NoError(t, err)
	require.Equal(t, append(append([]byte{}, first...), second...), got)

	// closing the stream releases the underlying buffer
	require.NoError(t, stream.Close())
	require.Equal(t, 0, observer.outstanding())

	_, err = agg.ConsumeAsStream()
	require.True(t, channel.ErrIllegalState.Has(err))
}

func TestAggregatingCloseBeforeConsume(t *testing.T) {
	observer := &countingObserver{}
	agg := channel.NewAggregating(buf.NewPool(observer), 0)

	agg.WriteBytes(testrand.Bytes(300), nil)
	agg.WriteBytes(testrand.Bytes(200), nil)
	require.Positive(t, observer.outstanding())

	require.NoError(t, agg.Close())
	require.Equal(t, 0, observer.outstanding())
	require.False(t, agg.IsOpen())

	_, err := agg.ConsumeAsBytes()
	require.True(t, channel.ErrClosed.Has(err))

	var writeErr error
	agg.WriteBytes([]byte{1}, func(written int64, err error) { writeErr = err })
	require.True(t, channel.ErrClosed.Has(writeErr))

	require.NoError(t, agg.Close())
}

func TestAggregatingWriteBuffer(t *testing.T) {
	agg := channel.NewAggregating(nil, 0)
	defer func() { _ = agg.Close() }()

	data := testrand.Bytes(64)
	b := buf.Wrap(data)

	// partially read input: only the readable remainder is appended
	var head [16]byte
	_, err := b.Read(head[:])
	require.NoError(t, err)
	agg.Write(b, nil)
	require.EqualValues(t, 48, agg.BytesWritten())
	require.EqualValues(t, 1, b.RefCount())
	b.Release()

	got, err := agg.ConsumeAsBytes()
	require.NoError(t, err)
	require.Equal(t, data[16:], got.Bytes())
	got.Release()
}
