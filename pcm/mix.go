/*
NAME
  mix.go

DESCRIPTION
  mix.go sums a mono ultrasonic signal into a host PCM buffer's channels,
  handling channel-subset selection, short-host extension policy, and
  saturation clipping.

AUTHOR
  David Sutton <davidsutton@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pcm

import "errors"

// ExtendPolicy selects what Mix does when the modem signal runs longer
// than the host buffer.
type ExtendPolicy int

const (
	// ExtendSilence pads the host with trailing silence, the design's
	// default policy.
	ExtendSilence ExtendPolicy = iota
	// ErrorOnShortHost rejects a host shorter than the signal instead of
	// extending it.
	ErrorOnShortHost
)

// ErrHostTooShort is returned by Mix under ErrorOnShortHost when the host
// buffer is shorter than the signal being embedded.
var ErrHostTooShort = errors.New("pcm: host buffer shorter than modem signal")

// Mix adds signal (mono, at host.SampleRate) into host starting at frame
// offset, on the given channels (nil means every channel), and returns
// the combined buffer. Under ExtendSilence, a host shorter than
// offset+len(signal) frames is extended with trailing silence first, so
// the returned buffer is always at least that long; under
// ErrorOnShortHost it instead returns ErrHostTooShort.
//
// Amplitude is the caller's concern via the signal itself (the modulator
// already applies Config.Amplitude); Mix only sums and clips as a
// saturation backstop, in the manner of ausocean-av/codec/pcm's
// Amplifier.Apply.
func Mix(host Buffer, signal []float32, offset int, channels []int, policy ExtendPolicy) (Buffer, error) {
	if err := host.Validate(); err != nil {
		return Buffer{}, err
	}
	if offset < 0 {
		return Buffer{}, errors.New("pcm: offset must be non-negative")
	}

	neededFrames := offset + len(signal)
	if host.Frames() < neededFrames {
		if policy == ErrorOnShortHost {
			return Buffer{}, ErrHostTooShort
		}
		host = ExtendWithSilence(host, neededFrames)
	} else {
		out := make([]float32, len(host.Samples))
		copy(out, host.Samples)
		host = Buffer{SampleRate: host.SampleRate, Channels: host.Channels, Samples: out}
	}

	targets := channels
	if targets == nil {
		targets = make([]int, host.Channels)
		for i := range targets {
			targets[i] = i
		}
	}

	for i, s := range signal {
		frame := offset + i
		base := frame * host.Channels
		for _, ch := range targets {
			if ch < 0 || ch >= host.Channels {
				continue
			}
			idx := base + ch
			host.Samples[idx] = clip(host.Samples[idx] + s)
		}
	}

	return host, nil
}

// Silence returns a Buffer of the given channel count and sample rate
// holding frames frames of digital silence.
func Silence(sampleRate, channels, frames int) Buffer {
	return Buffer{
		SampleRate: sampleRate,
		Channels:   channels,
		Samples:    make([]float32, frames*channels),
	}
}
