// Copyright (C) 2026 Blobnet Labs, Inc.
// See LICENSE for copying information.

package transform

import (
	"github.com/blobnet/datapath/buf"
)

// The functions below share one ownership contract: the caller retains
// its input handle and must release it itself; on success the caller
// also owns the returned buffer. On failure only storage allocated
// inside the call is released. Releasing the caller's input here would
// corrupt the caller's ownership accounting, so no failure path ever
// touches it.

// EncryptBuffer seals in's readable bytes into a new pooled buffer.
func EncryptBuffer(pool *buf.Pool, ci Cipher, in *buf.Buffer) (_ *buf.Buffer, err error) {
	out := pool.Alloc(in.Len() + ci.Overhead())
	sealed, err := ci.Seal(out.Bytes()[:0], in.Bytes())
	if err != nil {
		out.Release()
		return nil, Error.Wrap(err)
	}
	if len(sealed) != out.Len() {
		out.Release()
		return nil, Error.New("cipher produced %d bytes, expected %d", len(sealed), out.Len())
	}
	return out, nil
}

// DecryptBuffer opens in's readable bytes into a new pooled buffer.
func DecryptBuffer(pool *buf.Pool, ci Cipher, in *buf.Buffer) (_ *buf.Buffer, err error) {
	if in.Len() < ci.Overhead() {
		return nil, Error.New("ciphertext too short: %d bytes", in.Len())
	}
	out := pool.Alloc(in.Len() - ci.Overhead())
	opened, err := ci.Open(out.Bytes()[:0], in.Bytes())
	if err != nil {
		out.Release()
		return nil, Error.Wrap(err)
	}
	if len(opened) != out.Len() {
		out.Release()
		return nil, Error.New("cipher produced %d bytes, expected %d", len(opened), out.Len())
	}
	return out, nil
}

// CompressBuffer compresses in's readable bytes into a new pooled
// buffer.
func CompressBuffer(pool *buf.Pool, co Compressor, in *buf.Buffer) (*buf.Buffer, error) {
	compressed := co.Compress(nil, in.Bytes())
	out := pool.Alloc(len(compressed))
	copy(out.Bytes(), compressed)
	return out, nil
}

// DecompressBuffer decompresses in's readable bytes into a new pooled
// buffer.
func DecompressBuffer(pool *buf.Pool, co Compressor, in *buf.Buffer) (*buf.Buffer, error) {
	plain, err := co.Decompress(nil, in.Bytes())
	if err != nil {
		return nil, err
	}
	out := pool.Alloc(len(plain))
	copy(out.Bytes(), plain)
	return out, nil
}
