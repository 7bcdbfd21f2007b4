/*
NAME
  goertzel.go

DESCRIPTION
  goertzel.go implements the Goertzel algorithm, used by the demodulator to
  evaluate the energy at the two FSK tone frequencies within a single
  symbol without computing a full DFT or FFT.

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

import "math"

// goertzelMagnitude returns the magnitude of the DFT bin nearest to freq
// Hz, evaluated over samples at the given sampleRate, using the Goertzel
// algorithm: O(N) per frequency, with no need to compute bins we don't
// care about. None of the pack's examples provide a reusable Goertzel
// routine (see DESIGN.md), so this is a direct implementation of the
// standard single-bin recurrence.
func goertzelMagnitude(samples []float32, freq, sampleRate float64) float64 {
	n := len(samples)
	if n == 0 {
		return 0
	}

	k := int(0.5 + float64(n)*freq/sampleRate)
	omega := 2 * math.Pi * float64(k) / float64(n)
	coeff := 2 * math.Cos(omega)

	var s0, s1, s2 float64
	for _, x := range samples {
		s0 = float64(x) + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}

	real := s1 - s2*math.Cos(omega)
	imag := s2 * math.Sin(omega)
	return math.Sqrt(real*real + imag*imag)
}
