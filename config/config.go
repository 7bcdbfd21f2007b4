/*
NAME
  config.go

DESCRIPTION
  config.go defines the immutable configuration for an ultrasonic modem
  instance: sample rate, tone frequencies, symbol duration, amplitude and
  detection threshold.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config provides the validated, immutable configuration shared by
// the cipher, frame, modem and pcm packages that together make up the
// ultrasonic modem.
package config

import "fmt"

// Defaults, per the design's nominal ultrasonic band.
const (
	DefaultSampleRate         = 48000  // Hz.
	DefaultFreq0              = 18500  // Hz, bit 0 tone.
	DefaultFreq1              = 19500  // Hz, bit 1 tone.
	DefaultBitDuration        = 0.010  // seconds.
	DefaultAmplitude          = 0.10   // linear, 0 < a <= 1.
	DefaultDetectionThreshold = 0.01   // RMS, > 0.
	DefaultMinFreqSeparation  = 500    // Hz, |freq1 - freq0| floor.
	DefaultMinToneCycles      = 4      // bit_duration * min(freq0, freq1) >= this.
	KeySize                   = 32     // bytes, AES-256 key.
)

// ConfigError indicates an invalid Config was requested at construction
// time. It is never returned once a Config has been built; steady-state
// operations never fail with ConfigError.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Reason)
}

// Config is the immutable, validated set of parameters shared by every
// component of the modem. Build one with New; the zero value is not valid.
type Config struct {
	SampleRate          int
	Freq0               float64
	Freq1               float64
	BitDuration         float64
	Amplitude           float64
	DetectionThreshold  float64

	// SamplesPerBit is derived once at construction: round(SampleRate * BitDuration).
	SamplesPerBit int
}

// Option configures a Config under construction. Options are applied in
// the order given, then the result is validated once.
type Option func(*Config)

// WithSampleRate overrides the PCM sample rate in Hz.
func WithSampleRate(rate int) Option {
	return func(c *Config) { c.SampleRate = rate }
}

// WithFrequencies overrides the bit-0 and bit-1 tone frequencies in Hz.
func WithFrequencies(freq0, freq1 float64) Option {
	return func(c *Config) { c.Freq0 = freq0; c.Freq1 = freq1 }
}

// WithBitDuration overrides the per-symbol duration in seconds.
func WithBitDuration(d float64) Option {
	return func(c *Config) { c.BitDuration = d }
}

// WithAmplitude overrides the linear modulation amplitude, 0 < a <= 1.
func WithAmplitude(a float64) Option {
	return func(c *Config) { c.Amplitude = a }
}

// WithDetectionThreshold overrides the demodulator's minimum peak RMS
// required to attempt synchronization.
func WithDetectionThreshold(t float64) Option {
	return func(c *Config) { c.DetectionThreshold = t }
}

// New builds a validated Config, applying opts over the documented
// defaults. It returns a *ConfigError if the resulting configuration
// violates any of the invariants in the design (frequency-vs-Nyquist,
// bit-duration-vs-frequency, amplitude range, threshold positivity).
func New(opts ...Option) (Config, error) {
	c := Config{
		SampleRate:         DefaultSampleRate,
		Freq0:              DefaultFreq0,
		Freq1:              DefaultFreq1,
		BitDuration:        DefaultBitDuration,
		Amplitude:          DefaultAmplitude,
		DetectionThreshold: DefaultDetectionThreshold,
	}
	for _, opt := range opts {
		opt(&c)
	}

	if err := c.validate(); err != nil {
		return Config{}, err
	}

	c.SamplesPerBit = int(float64(c.SampleRate)*c.BitDuration + 0.5)
	return c, nil
}

func (c Config) validate() error {
	nyquist := float64(c.SampleRate) / 2
	switch {
	case c.SampleRate <= 0:
		return &ConfigError{"sample rate must be positive"}
	case c.Freq0 <= 0 || c.Freq0 >= nyquist:
		return &ConfigError{"freq_0 must be in (0, nyquist)"}
	case c.Freq1 <= 0 || c.Freq1 >= nyquist:
		return &ConfigError{"freq_1 must be in (0, nyquist)"}
	case abs(c.Freq1-c.Freq0) < DefaultMinFreqSeparation:
		return &ConfigError{"freq_0 and freq_1 must be separated by at least 500 Hz"}
	case c.BitDuration <= 0:
		return &ConfigError{"bit duration must be positive"}
	case c.BitDuration*min(c.Freq0, c.Freq1) < DefaultMinToneCycles:
		return &ConfigError{"bit duration too short for the chosen tone frequencies"}
	case c.Amplitude <= 0 || c.Amplitude > 1:
		return &ConfigError{"amplitude must be in (0, 1]"}
	case c.DetectionThreshold <= 0:
		return &ConfigError{"detection threshold must be positive"}
	}
	return nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
