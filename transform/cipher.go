// Copyright (C) 2026 Blobnet Labs, Inc.
// See LICENSE for copying information.

package transform

import (
	"crypto/rand"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

// Cipher is the contract the key-management collaborator fulfills.
// Seal and Open append to dst and return the resulting slice; when dst
// has sufficient capacity no further allocation happens.
type Cipher interface {
	// Overhead is the size difference between a ciphertext and its
	// plaintext.
	Overhead() int
	Seal(dst, src []byte) ([]byte, error)
	Open(dst, src []byte) ([]byte, error)
}

type secretboxCipher struct {
	key [keySize]byte
}

// NewSecretboxCipher returns a Cipher sealing with NaCl secretbox
// under key. Each Seal draws a fresh random nonce and prepends it to
// the ciphertext.
func NewSecretboxCipher(key []byte) (Cipher, error) {
	if len(key) != keySize {
		return nil, Error.New("invalid key length %d, expected %d", len(key), keySize)
	}
	c := &secretboxCipher{}
	copy(c.key[:], key)
	return c, nil
}

func (c *secretboxCipher) Overhead() int {
	return nonceSize + secretbox.Overhead
}

func (c *secretboxCipher) Seal(dst, src []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, Error.Wrap(err)
	}
	dst = append(dst, nonce[:]...)
	return secretbox.Seal(dst, src, &nonce, &c.key), nil
}

func (c *secretboxCipher) Open(dst, src []byte) ([]byte, error) {
	if len(src) < c.Overhead() {
		return nil, Error.New("ciphertext too short: %d bytes", len(src))
	}
	var nonce [nonceSize]byte
	copy(nonce[:], src[:nonceSize])
	out, ok := secretbox.Open(dst, src[nonceSize:], &nonce, &c.key)
	if !ok {
		return nil, Error.New("decryption failed")
	}
	return out, nil
}
