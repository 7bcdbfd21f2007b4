/*
NAME
  bandpass.go

DESCRIPTION
  bandpass.go builds and applies an FIR bandpass filter centered on the
  modem's two tone frequencies, used by the demodulator to isolate the
  ultrasonic band before synchronization and symbol discrimination.

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
	"errors"
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/ausocean/ultrasonic/config"
)

// defaultTaps is the FIR filter length used for the bandpass filter. At
// 480 samples/bit (48kHz, 10ms bit duration) this is long enough to give
// a sharp transition band without spilling much beyond one symbol.
const defaultTaps = 127

// bandpassFilter is an FIR bandpass built by convolving a highpass and a
// lowpass windowed-sinc filter, the same construction used by
// ausocean-av's codec/pcm.SelectiveFrequencyFilter, generalized here to
// operate on float32 signals already in [-1, 1] rather than S16 PCM
// bytes.
type bandpassFilter struct {
	coeffs []float64
}

// newBandpass builds a bandpass filter covering [freq0, freq1] plus a
// margin of half the tone separation plus 200 Hz on each side, per the
// design's guidance in spec.md §4.4.
func newBandpass(cfg config.Config, taps int) (*bandpassFilter, error) {
	lo, hi := cfg.Freq0, cfg.Freq1
	if lo > hi {
		lo, hi = hi, lo
	}
	margin := math.Abs(cfg.Freq1-cfg.Freq0)/2 + 200
	lo -= margin
	hi += margin
	nyquist := float64(cfg.SampleRate) / 2
	if lo <= 0 {
		lo = 1
	}
	if hi >= nyquist {
		hi = nyquist - 1
	}
	if lo >= hi {
		return nil, errors.New("modem: bandpass margins collapse the passband")
	}

	hp, err := newSincFilter(lo, float64(cfg.SampleRate), taps, true)
	if err != nil {
		return nil, err
	}
	lp, err := newSincFilter(hi, float64(cfg.SampleRate), taps, false)
	if err != nil {
		return nil, err
	}

	coeffs, err := fastConvolve(hp, lp)
	if err != nil {
		return nil, err
	}
	return &bandpassFilter{coeffs: coeffs}, nil
}

// newSincFilter generates a windowed-sinc lowpass (highpass=false) or
// highpass (highpass=true) filter at cutoff fc Hz, directly adapted from
// ausocean-av/codec/pcm/filters.go's newLoHiFilter.
func newSincFilter(fc, sampleRate float64, taps int, highpass bool) ([]float64, error) {
	if fc <= 0 || fc >= sampleRate/2 {
		return nil, errors.New("modem: cutoff frequency out of bounds")
	}
	if taps <= 0 {
		return nil, errors.New("modem: cannot create filter with length <= 0")
	}

	fd := fc / sampleRate
	factor1, factor2 := 1.0, 2*fd
	if highpass {
		factor1, factor2 = -1.0, 1-2*fd
	}

	size := taps + 1
	coeffs := make([]float64, size)
	b := 2 * math.Pi * fd
	winData := window.FlatTop(size)
	for n := 0; n < taps/2; n++ {
		c := float64(n) - float64(taps)/2
		y := math.Sin(c*b) / (math.Pi * c)
		coeffs[n] = factor1 * y * winData[n]
		coeffs[size-1-n] = coeffs[n]
	}
	coeffs[taps/2] = factor2 * winData[taps/2]

	return coeffs, nil
}

// apply convolves samples with the filter's coefficients via FFT-based
// fast convolution and returns a same-length-as-input result (the
// convolution's head, which is what a real-time-style caller wants: the
// filtered signal lined up with the input).
func (f *bandpassFilter) apply(samples []float32) []float32 {
	in := make([]float64, len(samples))
	for i, s := range samples {
		in[i] = float64(s)
	}

	full, err := fastConvolve(in, f.coeffs)
	if err != nil {
		// Only possible cause is a zero-length input, in which case there
		// is nothing to filter.
		return samples
	}

	out := make([]float32, len(samples))
	for i := range out {
		out[i] = float32(full[i])
	}
	return out
}

// fastConvolve computes the linear convolution of x and h via zero-padded
// FFT multiplication, adapted from ausocean-av/codec/pcm/filters.go's
// fastConvolve.
func fastConvolve(x, h []float64) ([]float64, error) {
	if len(x) == 0 || len(h) == 0 {
		return nil, errors.New("modem: convolution requires non-empty slices")
	}

	convLen := len(x) + len(h) - 1
	padLen := nextPow2(convLen)

	xPad := make([]float64, padLen)
	copy(xPad, x)
	hPad := make([]float64, padLen)
	copy(hPad, h)

	xFFT := fft.FFTReal(xPad)
	hFFT := fft.FFTReal(hPad)

	yFFT := make([]complex128, padLen)
	for i := range xFFT {
		yFFT[i] = xFFT[i] * hFFT[i]
	}

	iy := fft.IFFT(yFFT)
	y := make([]float64, convLen)
	for i := range y {
		y[i] = real(iy[i])
	}
	return y, nil
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
