/*
NAME
  buffer.go

DESCRIPTION
  buffer.go defines Buffer, the float32 PCM sample container shared by the
  embedder and extractor, along with the downmix and silence-extension
  helpers used when mixing the ultrasonic signal into host audio.

AUTHOR
  David Sutton <davidsutton@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pcm provides the float32 PCM buffer type and the mixing,
// downmixing and clipping operations used to embed the ultrasonic signal
// into, and extract it from, host audio.
package pcm

import "fmt"

// Buffer holds interleaved float32 PCM samples in [-1, 1] at a declared
// sample rate and channel count. It carries no knowledge of any
// container format; callers own muxing and codec decisions.
type Buffer struct {
	SampleRate int
	Channels   int
	Samples    []float32 // interleaved, Frames()*Channels long.
}

// Frames returns the number of sample frames (samples per channel) in b.
func (b Buffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Validate reports whether b's Samples length is consistent with its
// declared Channels.
func (b Buffer) Validate() error {
	if b.Channels <= 0 {
		return fmt.Errorf("pcm: channels must be positive, got %d", b.Channels)
	}
	if len(b.Samples)%b.Channels != 0 {
		return fmt.Errorf("pcm: %d samples is not a whole number of %d-channel frames", len(b.Samples), b.Channels)
	}
	return nil
}

// Mono returns a reference downmix of b to a single channel, averaging
// across channels per frame. This generalizes the left-channel-only
// downmix in ausocean-av/exp/pcm/stereo-to-mono: the design calls for a
// reference copy for the caller to inspect, not a specific channel
// selection, so an average better represents "the host audio" as a
// whole. b itself is never modified.
func (b Buffer) Mono() []float32 {
	if b.Channels == 1 {
		out := make([]float32, len(b.Samples))
		copy(out, b.Samples)
		return out
	}

	frames := b.Frames()
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		base := i * b.Channels
		for ch := 0; ch < b.Channels; ch++ {
			sum += b.Samples[base+ch]
		}
		out[i] = sum / float32(b.Channels)
	}
	return out
}

// ExtendWithSilence returns a copy of b with enough trailing zero frames
// appended that it has at least minFrames frames. If b already has
// minFrames or more, it is returned unchanged (copied).
func ExtendWithSilence(b Buffer, minFrames int) Buffer {
	if b.Frames() >= minFrames {
		out := make([]float32, len(b.Samples))
		copy(out, b.Samples)
		return Buffer{SampleRate: b.SampleRate, Channels: b.Channels, Samples: out}
	}

	out := make([]float32, minFrames*b.Channels)
	copy(out, b.Samples)
	return Buffer{SampleRate: b.SampleRate, Channels: b.Channels, Samples: out}
}

// clip saturates x to [-1, 1]. This is only a backstop: at the design's
// default amplitude, clipping should never trigger in normal operation.
func clip(x float32) float32 {
	switch {
	case x > 1:
		return 1
	case x < -1:
		return -1
	default:
		return x
	}
}
