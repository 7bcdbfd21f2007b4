/*
NAME
  ultrasonic_test.go

DESCRIPTION
  ultrasonic_test.go exercises the end-to-end Embed/Decode pipeline
  against the seed scenarios of spec.md §8 (S1-S6).

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ultrasonic

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ausocean/ultrasonic/config"
	"github.com/ausocean/ultrasonic/pcm"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, config.KeySize)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return key
}

func sineHost(sampleRate, frames int, freq float64) pcm.Buffer {
	samples := make([]float32, frames)
	for i := range samples {
		samples[i] = float32(0.3 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return pcm.Buffer{SampleRate: sampleRate, Channels: 1, Samples: samples}
}

// S1: a short command over a second of silence at the default config.
func TestS1DefaultSilenceRoundTrip(t *testing.T) {
	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	m, err := New(cfg, testKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	host := pcm.Silence(cfg.SampleRate, 1, cfg.SampleRate)
	const command = "execute:status_check"

	out, verified, err := m.Embed(context.Background(), host, command)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if !verified {
		t.Error("Embed self-verification failed")
	}

	got, err := m.Decode(context.Background(), out)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != command {
		t.Errorf("Decode = %q, want %q", got, command)
	}
}

// S2: non-default tone frequencies over a 1kHz sine carrier at 44.1kHz.
func TestS2CustomFrequenciesOverToneCarrier(t *testing.T) {
	cfg, err := config.New(
		config.WithSampleRate(44100),
		config.WithFrequencies(17000, 18000),
	)
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	m, err := New(cfg, testKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	host := sineHost(44100, 5*44100, 1000)
	const command = "hello world"

	out, _, err := m.Embed(context.Background(), host, command)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	got, err := m.Decode(context.Background(), out)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != command {
		t.Errorf("Decode = %q, want %q", got, command)
	}
}

// S3: a 4096-byte command, the largest command length in the seed scenarios.
func TestS3MaxLengthCommand(t *testing.T) {
	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	m, err := New(cfg, testKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	command := strings.Repeat("a", 4096)
	host := pcm.Silence(cfg.SampleRate, 1, cfg.SampleRate) // Embed extends this with silence as needed.

	out, _, err := m.Embed(context.Background(), host, command)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	got, err := m.Decode(context.Background(), out)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != command {
		t.Errorf("Decode mismatch: len(got)=%d, want len %d", len(got), len(command))
	}
}

// S4: UTF-8 command bytes round-trip exactly.
func TestS4UTF8Command(t *testing.T) {
	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	m, err := New(cfg, testKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	const command = "命令:测试"
	host := pcm.Silence(cfg.SampleRate, 1, cfg.SampleRate)

	out, _, err := m.Embed(context.Background(), host, command)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	got, err := m.Decode(context.Background(), out)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != command {
		t.Errorf("Decode = %q, want %q", got, command)
	}
}

// S5: tampering with the ultrasonic region must never surface a different
// command: either the decode still succeeds (repetition coding absorbed
// the flip) or it fails with a *DecodeError.
func TestS5TamperedOutputNeverDecodesWrong(t *testing.T) {
	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	m, err := New(cfg, testKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	const command = "execute:status_check"
	host := pcm.Silence(cfg.SampleRate, 1, cfg.SampleRate)

	out, _, err := m.Embed(context.Background(), host, command)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	// Flip a handful of samples partway through the ultrasonic region.
	tampered := pcm.Buffer{SampleRate: out.SampleRate, Channels: out.Channels, Samples: append([]float32(nil), out.Samples...)}
	mid := len(tampered.Samples) / 2
	for i := mid; i < mid+8 && i < len(tampered.Samples); i++ {
		tampered.Samples[i] = -tampered.Samples[i]
	}

	got, err := m.Decode(context.Background(), tampered)
	if err == nil && got != command {
		t.Fatalf("Decode returned a different command %q instead of an error", got)
	}
	if err != nil {
		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("Decode error is not a *DecodeError: %v", err)
		}
	}
}

// S6: decoding with the wrong key must fail authentication, never return
// an empty or silently-wrong command.
func TestS6WrongKeyFailsAuth(t *testing.T) {
	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	encoder, err := New(cfg, testKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	decoder, err := New(cfg, testKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	const command = "execute:status_check"
	host := pcm.Silence(cfg.SampleRate, 1, cfg.SampleRate)

	out, _, err := encoder.Embed(context.Background(), host, command)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	got, err := decoder.Decode(context.Background(), out)
	if err == nil {
		t.Fatalf("Decode with wrong key succeeded, returned %q", got)
	}
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) || decodeErr.Kind != AuthFailed {
		t.Fatalf("Decode error = %v, want DecodeError{Kind: AuthFailed}", err)
	}
}

func TestDecodeOnSilenceReturnsNoSignal(t *testing.T) {
	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	m, err := New(cfg, testKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	host := pcm.Silence(cfg.SampleRate, 1, cfg.SampleRate)
	_, err = m.Decode(context.Background(), host)
	if err == nil {
		t.Fatal("Decode(silence) succeeded, want NoSignal")
	}
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) || decodeErr.Kind != NoSignal {
		t.Fatalf("Decode error = %v, want DecodeError{Kind: NoSignal}", err)
	}
}

func TestEmbedExtendsShortHost(t *testing.T) {
	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	m, err := New(cfg, testKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	host := pcm.Buffer{SampleRate: cfg.SampleRate, Channels: 1, Samples: []float32{0, 0}}
	out, _, err := m.Embed(context.Background(), host, "hi")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if out.Frames() <= 2 {
		t.Errorf("Embed did not extend short host: out.Frames() = %d", out.Frames())
	}
}
