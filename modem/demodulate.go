/*
NAME
  demodulate.go

DESCRIPTION
  demodulate.go recovers a bit stream from a possibly noisy, possibly
  offset PCM buffer: bandpass filter, energy gate, preamble
  cross-correlation sync, and per-symbol Goertzel tone discrimination.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package modem

import (
	"context"
	"io"
	"math"

	"github.com/ausocean/utils/logging"
	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/ultrasonic/config"
	"github.com/ausocean/ultrasonic/frame"
)

// correlationPeakFraction is the fraction of the correlation's own peak
// used to pick the earliest qualifying preamble start, per spec.md §4.4
// step 3.
const correlationPeakFraction = 0.5

// cancelCheckSamples is how often, in samples, the demodulator checks a
// caller-supplied context for cancellation: roughly once per second of
// 48kHz audio, per the design's coarse cancellation granularity (§5).
const cancelCheckSamples = 48000

// Demodulator recovers bits from PCM using a bandpass filter sized to the
// configured tone pair, a reference Modulator used to regenerate the
// preamble waveform for correlation, and the Goertzel algorithm for
// per-symbol tone discrimination.
type Demodulator struct {
	cfg      config.Config
	bandpass *bandpassFilter
	preamble []float32
	log      logging.Logger
}

// Bandpass filters samples through d's bandpass filter, the same
// isolation step Demodulate runs before synchronization, exposed for
// callers (spec.md §4.5's Extract) that want the isolated ultrasonic
// band without running the full demodulation pipeline.
func (d *Demodulator) Bandpass(samples []float32) []float32 {
	return d.bandpass.apply(samples)
}

// Option configures a Demodulator at construction time.
type Option func(*Demodulator)

// WithLogger attaches a structured logger to the Demodulator.
func WithLogger(l logging.Logger) Option {
	return func(d *Demodulator) { d.log = l }
}

// NewDemodulator builds a Demodulator from cfg, precomputing the bandpass
// filter and the reference preamble waveform.
func NewDemodulator(cfg config.Config, opts ...Option) (*Demodulator, error) {
	d := &Demodulator{cfg: cfg, log: logging.New(logging.Fatal, io.Discard, true)}
	for _, opt := range opts {
		opt(d)
	}

	bp, err := newBandpass(cfg, defaultTaps)
	if err != nil {
		return nil, err
	}
	d.bandpass = bp

	preambleBits := make([]byte, frame.PreambleBits)
	for i := 0; i < frame.PreambleBits; i++ {
		preambleBits[i] = byte((frame.Preamble >> uint(frame.PreambleBits-1-i)) & 1)
	}
	d.preamble = NewModulator(cfg).Modulate(preambleBits)

	return d, nil
}

// Result is the outcome of a Demodulate call: the recovered bit stream
// (frame.Deframe's input), the mean per-symbol discrimination confidence,
// and the final pipeline State.
type Result struct {
	Bits       []byte
	Confidence float64
	State      State
}

// Demodulate runs the full Idle->Filtering->Searching->Locked->Decoded
// pipeline over samples. On BelowThreshold or NoPreamble it returns a
// *Error describing the failing state; ctx is checked roughly once per
// second of processed audio so a caller can cancel a long decode.
func (d *Demodulator) Demodulate(ctx context.Context, samples []float32) (Result, error) {
	filtered := d.bandpass.apply(samples)

	spb := d.cfg.SamplesPerBit
	peakRMS := 0.0
	for start := 0; start+spb <= len(filtered); start += spb {
		if start%cancelCheckSamples < spb {
			if err := ctx.Err(); err != nil {
				return Result{State: Failed}, err
			}
		}
		rms := windowRMS(filtered[start : start+spb])
		if rms > peakRMS {
			peakRMS = rms
		}
	}
	if peakRMS < d.cfg.DetectionThreshold {
		d.log.Debug("below detection threshold", "peak rms", peakRMS, "threshold", d.cfg.DetectionThreshold)
		return Result{State: Failed}, &Error{State: Searching, Kind: BelowThreshold}
	}

	start, ok := d.findPreambleStart(ctx, filtered)
	if !ok {
		if err := ctx.Err(); err != nil {
			return Result{State: Failed}, err
		}
		return Result{State: Failed}, &Error{State: Searching, Kind: NoPreamble}
	}
	d.log.Debug("preamble located", "sample index", start)

	bits, confidences := d.sliceSymbols(filtered[start:])
	mean := stat.Mean(confidences, nil)

	return Result{Bits: bits, Confidence: mean, State: Decoded}, nil
}

// findPreambleStart cross-correlates filtered against the locally
// regenerated preamble waveform and returns the sample index of the
// earliest position whose correlation magnitude is within
// correlationPeakFraction of the correlation's own peak.
func (d *Demodulator) findPreambleStart(ctx context.Context, filtered []float32) (int, bool) {
	n := len(d.preamble)
	if len(filtered) < n {
		return 0, false
	}

	last := len(filtered) - n
	corr := make([]float64, last+1)
	peak := 0.0
	for start := 0; start <= last; start++ {
		if start%cancelCheckSamples == 0 {
			if err := ctx.Err(); err != nil {
				return 0, false
			}
		}
		var sum float64
		for i := 0; i < n; i++ {
			sum += float64(filtered[start+i]) * float64(d.preamble[i])
		}
		c := math.Abs(sum)
		corr[start] = c
		if c > peak {
			peak = c
		}
	}

	if peak == 0 {
		return 0, false
	}
	threshold := correlationPeakFraction * peak
	for start, c := range corr {
		if c >= threshold {
			return start, true
		}
	}
	return 0, false
}

// sliceSymbols cuts samples into samples-per-bit symbols starting at index
// 0 and discriminates each via Goertzel tone energy, returning the bit
// stream and each symbol's normalized confidence margin.
func (d *Demodulator) sliceSymbols(samples []float32) ([]byte, []float64) {
	spb := d.cfg.SamplesPerBit
	numSymbols := len(samples) / spb

	bits := make([]byte, numSymbols)
	confidences := make([]float64, numSymbols)

	for i := 0; i < numSymbols; i++ {
		symbol := samples[i*spb : (i+1)*spb]
		mag0 := goertzelMagnitude(symbol, d.cfg.Freq0, float64(d.cfg.SampleRate))
		mag1 := goertzelMagnitude(symbol, d.cfg.Freq1, float64(d.cfg.SampleRate))

		if mag1 > mag0 {
			bits[i] = 1
		}
		const eps = 1e-12
		confidences[i] = math.Abs(mag1-mag0) / (mag1 + mag0 + eps)
	}

	return bits, confidences
}

// windowRMS returns the root-mean-square of a symbol-length window.
func windowRMS(samples []float32) float64 {
	var sumSq float64
	for _, s := range samples {
		sumSq += float64(s) * float64(s)
	}
	return math.Sqrt(sumSq / float64(len(samples)))
}
