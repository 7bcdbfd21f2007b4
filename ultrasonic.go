/*
NAME
  ultrasonic.go

DESCRIPTION
  ultrasonic.go provides Modem, the facade that wires the cipher, frame,
  modem and pcm packages into the two end-to-end operations described in
  spec.md §2: Embed (command -> encrypt -> frame -> modulate -> mix) and
  Decode (extract -> demodulate -> deframe -> decrypt -> command).

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ultrasonic assembles the cipher, frame, modem and pcm packages
// into an ultrasonic covert-command modem: short command strings in,
// ultrasonic-bearing PCM out, and back again.
package ultrasonic

import (
	"context"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/ultrasonic/cipher"
	"github.com/ausocean/ultrasonic/config"
	"github.com/ausocean/ultrasonic/frame"
	"github.com/ausocean/ultrasonic/modem"
	"github.com/ausocean/ultrasonic/pcm"
)

// Modem is constructed once from a Config and a 32-byte key and is
// thereafter a stateless pipeline: no call changes its state, so Embed and
// Decode may be called concurrently from multiple goroutines provided
// each call uses its own buffers.
type Modem struct {
	cfg   config.Config
	ciph  *cipher.Cipher
	mod   *modem.Modulator
	demod *modem.Demodulator
	log   logging.Logger

	obfuscate        bool
	minFrameDuration time.Duration
	embedOffset      int
	embedChannels    []int
	extendPolicy     pcm.ExtendPolicy
	verifyOnEmbed    bool
}

// Option configures a Modem at construction time.
type Option func(*Modem)

// WithLogger attaches a structured logger, propagated to the underlying
// cipher, modulator and demodulator.
func WithLogger(l logging.Logger) Option {
	return func(m *Modem) { m.log = l }
}

// WithObfuscation enables the optional MAGIC||PADLEN||PAD wrapper around
// every ciphertext blob.
func WithObfuscation(enabled bool) Option {
	return func(m *Modem) { m.obfuscate = enabled }
}

// WithMinFrameDuration pads every transmitted frame with random tail bits
// so the modulated signal lasts at least d.
func WithMinFrameDuration(d time.Duration) Option {
	return func(m *Modem) { m.minFrameDuration = d }
}

// WithEmbedOffset sets the frame offset (in host samples) at which the
// modem signal is aligned. The default is 0 (t=0).
func WithEmbedOffset(offset int) Option {
	return func(m *Modem) { m.embedOffset = offset }
}

// WithEmbedChannels restricts embedding to the given host channel
// indices. The default (nil) embeds into every channel.
func WithEmbedChannels(channels []int) Option {
	return func(m *Modem) { m.embedChannels = channels }
}

// WithShortHostPolicy selects what Embed does when the host is shorter
// than the modem signal. The default is pcm.ExtendSilence.
func WithShortHostPolicy(p pcm.ExtendPolicy) Option {
	return func(m *Modem) { m.extendPolicy = p }
}

// WithEmbedVerification enables or disables the post-embed
// self-verification pass (decode the just-produced buffer and confirm
// the command round-trips). Enabled by default.
func WithEmbedVerification(enabled bool) Option {
	return func(m *Modem) { m.verifyOnEmbed = enabled }
}

// New builds a Modem from cfg and a 32-byte key.
func New(cfg config.Config, key []byte, opts ...Option) (*Modem, error) {
	m := &Modem{
		cfg:           cfg,
		log:           logging.New(logging.Fatal, discard{}, true),
		extendPolicy:  pcm.ExtendSilence,
		verifyOnEmbed: true,
	}
	for _, opt := range opts {
		opt(m)
	}

	ciph, err := cipher.New(key, cipher.WithLogger(m.log))
	if err != nil {
		return nil, err
	}
	m.ciph = ciph
	m.mod = modem.NewModulator(cfg, modem.WithLogger(m.log))

	demod, err := modem.NewDemodulator(cfg, modem.WithLogger(m.log))
	if err != nil {
		return nil, err
	}
	m.demod = demod

	return m, nil
}

// Embed encrypts command, frames and modulates it, and mixes the result
// into host. Once mixing succeeds it returns the buffer even when
// self-verification fails; the boolean reports whether the post-embed
// self-verification pass (if enabled) confirmed the command round-trips,
// per spec.md §4.5 step 6 and §7. A framing or mixing failure (such as
// pcm.ErrHostTooShort under pcm.ErrorOnShortHost) returns an empty buffer
// and the error.
func (m *Modem) Embed(ctx context.Context, host pcm.Buffer, command string) (pcm.Buffer, bool, error) {
	bits, err := m.frameCommand(command)
	if err != nil {
		return pcm.Buffer{}, false, err
	}

	signal := m.mod.Modulate(bits)

	out, err := pcm.Mix(host, signal, m.embedOffset, m.embedChannels, m.extendPolicy)
	if err != nil {
		return pcm.Buffer{}, false, err
	}

	if !m.verifyOnEmbed {
		return out, false, nil
	}

	got, decodeErr := m.Decode(ctx, out)
	verified := decodeErr == nil && got == command
	if !verified {
		m.log.Debug("embed self-verification failed", "err", decodeErr)
	}
	return out, verified, nil
}

// frameCommand runs the Cipher and frame stages: encrypt, optionally
// obfuscate, then frame to a bit sequence.
func (m *Modem) frameCommand(command string) ([]byte, error) {
	blob, err := m.ciph.Encrypt([]byte(command))
	if err != nil {
		return nil, fmt.Errorf("ultrasonic: embed: %w", err)
	}
	if m.obfuscate {
		blob, err = cipher.Obfuscate(blob)
		if err != nil {
			return nil, fmt.Errorf("ultrasonic: embed: %w", err)
		}
	}

	minBits := 0
	if m.minFrameDuration > 0 {
		minBits = int(math.Ceil(m.minFrameDuration.Seconds() / m.cfg.BitDuration))
	}

	bits, err := frame.Frame(blob, minBits)
	if err != nil {
		return nil, fmt.Errorf("ultrasonic: embed: %w", err)
	}
	return bits, nil
}

// Extract returns host filtered through the demodulator's bandpass stage,
// for callers that want to inspect the isolated ultrasonic band without
// running the full decode pipeline.
func (m *Modem) Extract(host pcm.Buffer) (pcm.Buffer, error) {
	if err := host.Validate(); err != nil {
		return pcm.Buffer{}, err
	}
	mono := host.Mono()
	filtered := m.demod.Bandpass(mono)
	return pcm.Buffer{SampleRate: host.SampleRate, Channels: 1, Samples: filtered}, nil
}

// Decode runs the full inverse pipeline: extract the ultrasonic band,
// demodulate, deframe, and decrypt. On any stage's failure it returns a
// *DecodeError identifying which stage failed; ctx is forwarded to the
// demodulator so a caller can cancel a long decode.
func (m *Modem) Decode(ctx context.Context, host pcm.Buffer) (string, error) {
	if err := host.Validate(); err != nil {
		return "", err
	}
	mono := host.Mono()

	result, err := m.demod.Demodulate(ctx, mono)
	if err != nil {
		return "", classifyDecodeErr(err)
	}

	payload, err := frame.Deframe(result.Bits)
	if err != nil {
		return "", classifyDecodeErr(err)
	}

	if m.obfuscate {
		payload = cipher.Deobfuscate(payload)
	}

	plaintext, err := m.ciph.Decrypt(payload)
	if err != nil {
		return "", classifyDecodeErr(err)
	}

	if !utf8.Valid(plaintext) {
		return "", &DecodeError{Kind: BadUTF8}
	}
	return string(plaintext), nil
}

// discard is a minimal io.Writer used as the default logging sink when no
// logger is supplied.
type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
