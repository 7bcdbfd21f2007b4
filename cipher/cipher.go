/*
NAME
  cipher.go

DESCRIPTION
  cipher.go implements AES-256-GCM authenticated encryption of command
  bytes into the wire blob layout IV(12) || CT(n) || TAG(16).

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package cipher provides authenticated encryption and an optional
// obfuscation wrapper for command payloads carried over the ultrasonic
// modem.
package cipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/ultrasonic/config"
)

// Wire layout sizes.
const (
	IVSize  = 12
	TagSize = 16
)

// AuthError indicates that a ciphertext blob failed to authenticate: a tag
// mismatch, a malformed length, or a truncated tag. It is returned instead
// of any partial or zeroed plaintext.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("cipher: authentication failed: %s", e.Reason)
}

// Cipher performs AES-256-GCM authenticated encryption. A Cipher is
// constructed once from a 32-byte key and is thereafter a pure, stateless
// transform: it owns no state across calls besides the key material
// itself.
type Cipher struct {
	key  [config.KeySize]byte
	aead cipher.AEAD
	log  logging.Logger
}

// Option configures a Cipher at construction time.
type Option func(*Cipher)

// WithLogger attaches a structured logger to the Cipher. Without this
// option, the Cipher logs nothing.
func WithLogger(l logging.Logger) Option {
	return func(c *Cipher) { c.log = l }
}

// New constructs a Cipher from a 32-byte key. The key is copied; the
// caller's slice may be reused or zeroed after this call returns.
func New(key []byte, opts ...Option) (*Cipher, error) {
	if len(key) != config.KeySize {
		return nil, &config.ConfigError{Reason: fmt.Sprintf("cipher key must be %d bytes, got %d", config.KeySize, len(key))}
	}

	c := &Cipher{log: logging.New(logging.Fatal, io.Discard, true)}
	copy(c.key[:], key)

	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil, errors.Wrap(err, "cipher: new aes cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "cipher: new gcm")
	}
	c.aead = aead

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encrypt generates a fresh random 12-byte IV, seals plaintext under it,
// and returns IV || CIPHERTEXT || TAG. It fails only if the system's
// cryptographic random source is unavailable.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, errors.Wrap(err, "cipher: generate iv")
	}

	// Seal appends ciphertext||tag to the dst we give it, so prepending iv
	// first gives us the full wire layout in one buffer.
	blob := c.aead.Seal(iv, iv, plaintext, nil)
	c.log.Debug("encrypted blob", "plaintext len", len(plaintext), "blob len", len(blob))
	return blob, nil
}

// Decrypt splits blob into IV, ciphertext and tag, verifies the tag, and
// returns the plaintext. On any authentication failure it returns an
// *AuthError and no plaintext bytes, whether the cause is a bad tag, a
// blob shorter than IVSize+TagSize, or a truncated tag.
func (c *Cipher) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < IVSize+TagSize {
		return nil, &AuthError{Reason: "blob shorter than iv+tag"}
	}
	iv := blob[:IVSize]
	ct := blob[IVSize:]

	plaintext, err := c.aead.Open(nil, iv, ct, nil)
	if err != nil {
		c.log.Debug("decryption failed", "blob len", len(blob))
		return nil, &AuthError{Reason: "tag mismatch"}
	}
	return plaintext, nil
}

// Clone returns a new Cipher holding an independent copy of the key
// material. Per the design's resource model, cloning a Cipher clones the
// key; the caller is responsible for calling Zero on every clone it no
// longer needs.
func (c *Cipher) Clone() (*Cipher, error) {
	return New(c.key[:], WithLogger(c.log))
}

// Zero overwrites the Cipher's key material with zeros and rekeys its AEAD
// with the zeroed key, so blobs sealed under the old key no longer decrypt.
// Call it when the Cipher is no longer needed; after Zero, the Cipher must
// not be used.
func (c *Cipher) Zero() {
	for i := range c.key {
		c.key[i] = 0
	}
	// The AEAD holds a key schedule expanded from the old key; replace it.
	if block, err := aes.NewCipher(c.key[:]); err == nil {
		if aead, err := cipher.NewGCM(block); err == nil {
			c.aead = aead
		}
	}
}
