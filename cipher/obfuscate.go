/*
NAME
  obfuscate.go

DESCRIPTION
  obfuscate.go wraps and unwraps a ciphertext blob with a fixed-structure,
  randomly-padded header and trailer, so the transmitted byte layout does
  not begin and end exactly at the AEAD blob boundary.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package cipher

import (
	"crypto/rand"
	"io"

	"github.com/pkg/errors"
)

// Magic is the fixed 4-byte ASCII tag that opens an obfuscated blob's
// header, and closes its trailer.
const Magic = "OBF1"

// MaxPadLen bounds the random padding length so PADLEN (1 byte) can always
// represent it.
const MaxPadLen = 255

// headerLen is len(Magic) + 1 pad-length byte.
const headerLen = len(Magic) + 1

// Obfuscate wraps blob with a MAGIC||PADLEN||PAD header and a mirrored
// PAD||PADLEN||MAGIC trailer, each with fresh random pad bytes of random
// length. Obfuscation is structural signaling, not security: it never
// fails for any well-formed blob.
func Obfuscate(blob []byte) ([]byte, error) {
	headPad, err := randomPad()
	if err != nil {
		return nil, errors.Wrap(err, "cipher: obfuscate header")
	}
	tailPad, err := randomPad()
	if err != nil {
		return nil, errors.Wrap(err, "cipher: obfuscate trailer")
	}

	out := make([]byte, 0, 2*headerLen+len(headPad)+len(tailPad)+len(blob))
	out = append(out, []byte(Magic)...)
	out = append(out, byte(len(headPad)))
	out = append(out, headPad...)
	out = append(out, blob...)
	out = append(out, tailPad...)
	out = append(out, byte(len(tailPad)))
	out = append(out, []byte(Magic)...)
	return out, nil
}

// Deobfuscate returns the inner blob if both the leading header and
// trailing trailer verify against Magic; otherwise it returns blob
// unchanged, since obfuscation is optional signaling and its absence is
// not an error condition.
func Deobfuscate(blob []byte) []byte {
	if len(blob) < 2*headerLen {
		return blob
	}
	if string(blob[:len(Magic)]) != Magic {
		return blob
	}
	if string(blob[len(blob)-len(Magic):]) != Magic {
		return blob
	}

	headPadLen := int(blob[len(Magic)])
	headEnd := headerLen + headPadLen

	tailPadLen := int(blob[len(blob)-len(Magic)-1])
	tailStart := len(blob) - headerLen - tailPadLen

	if headEnd > tailStart || tailStart > len(blob) {
		return blob
	}
	return blob[headEnd:tailStart]
}

// randomPad generates a random-length (0..MaxPadLen), random-content pad.
func randomPad() ([]byte, error) {
	var lenByte [1]byte
	if _, err := io.ReadFull(rand.Reader, lenByte[:]); err != nil {
		return nil, err
	}
	pad := make([]byte, int(lenByte[0]))
	if _, err := io.ReadFull(rand.Reader, pad); err != nil {
		return nil, err
	}
	return pad, nil
}
