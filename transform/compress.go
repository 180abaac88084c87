// Copyright (C) 2026 Blobnet Labs, Inc.
// See LICENSE for copying information.

package transform

import (
	"github.com/klauspost/compress/zstd"
)

// Compressor compresses and decompresses byte slices. Both methods
// append to dst and return the resulting slice.
type Compressor interface {
	Compress(dst, src []byte) []byte
	Decompress(dst, src []byte) ([]byte, error)
}

type zstdCompressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstd returns a Compressor backed by zstd at the default level.
// The returned value is safe for concurrent use.
func NewZstd() (Compressor, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return &zstdCompressor{enc: enc, dec: dec}, nil
}

func (z *zstdCompressor) Compress(dst, src []byte) []byte {
	return z.enc.EncodeAll(src, dst)
}

func (z *zstdCompressor) Decompress(dst, src []byte) ([]byte, error) {
	out, err := z.dec.DecodeAll(src, dst)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return out, nil
}
