// Copyright (C) 2026 Blobnet Labs, Inc.
// See LICENSE for copying information.

package channel_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"storj.io/common/testcontext"

	"github.com/blobnet/datapath/channel"
)

func TestCompletionSingleFire(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	var gotWritten int64
	var gotErr error
	completion := channel.NewCompletion(func(written int64, err error) {
		gotWritten, gotErr = written, err
	})

	select {
	case <-completion.Done():
		t.Fatal("completion settled before resolve")
	default:
	}

	completion.Resolve(42, nil)
	require.EqualValues(t, 42, gotWritten)
	require.NoError(t, gotErr)

	written, err := completion.Wait(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 42, written)

	// settling twice is a programming error, not a reportable failure
	require.Panics(t, func() { completion.Resolve(0, errors.New("again")) })
}

func TestCompletionNilCallback(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	boom := errors.New("boom")
	completion := channel.NewCompletion(nil)
	completion.Resolve(0, boom)

	_, err := completion.Wait(ctx)
	require.ErrorIs(t, err, boom)
}
