/*
NAME
  modem_test.go

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
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/ultrasonic/config"
	"github.com/ausocean/ultrasonic/frame"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	return cfg
}

func TestModulateIsDeterministic(t *testing.T) {
	cfg := testConfig(t)
	bits := []byte{1, 0, 1, 1, 0, 0, 1, 0}

	a := NewModulator(cfg).Modulate(bits)
	b := NewModulator(cfg).Modulate(bits)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("two Modulate calls with identical input diverged (-a +b):\n%s", diff)
	}
}

func TestModulateOutputLength(t *testing.T) {
	cfg := testConfig(t)
	bits := make([]byte, 37)
	out := NewModulator(cfg).Modulate(bits)
	want := len(bits) * cfg.SamplesPerBit
	if len(out) != want {
		t.Errorf("len(out) = %d, want %d", len(out), want)
	}
}

func TestModulateDemodulateRoundTrip(t *testing.T) {
	cfg := testConfig(t)

	payload, err := frame.Frame([]byte("hello world"), 0)
	if err != nil {
		t.Fatalf("frame.Frame: %v", err)
	}

	signal := NewModulator(cfg).Modulate(payload)

	demod, err := NewDemodulator(cfg)
	if err != nil {
		t.Fatalf("NewDemodulator: %v", err)
	}

	result, err := demod.Demodulate(context.Background(), signal)
	if err != nil {
		t.Fatalf("Demodulate: %v", err)
	}
	if result.State != Decoded {
		t.Fatalf("result.State = %v, want Decoded", result.State)
	}

	got, err := frame.Deframe(result.Bits)
	if err != nil {
		t.Fatalf("frame.Deframe: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("Deframe = %q, want %q", got, "hello world")
	}
}

func TestDemodulateBelowThresholdOnSilence(t *testing.T) {
	cfg := testConfig(t)
	demod, err := NewDemodulator(cfg)
	if err != nil {
		t.Fatal(err)
	}

	silence := make([]float32, cfg.SampleRate) // 1s of silence.
	_, err = demod.Demodulate(context.Background(), silence)
	modErr, ok := err.(*Error)
	if !ok || modErr.Kind != BelowThreshold {
		t.Fatalf("Demodulate(silence) = %v, want BelowThreshold", err)
	}
}

func TestConfigFrequencyGuard(t *testing.T) {
	_, err := config.New(config.WithSampleRate(39000), config.WithFrequencies(18500, 19500))
	if err == nil {
		t.Fatal("config.New with freq_1 >= Nyquist succeeded, want ConfigError")
	}
}

func TestGoertzelPicksCorrectTone(t *testing.T) {
	cfg := testConfig(t)
	mod := NewModulator(cfg)

	zero := mod.Modulate([]byte{0})
	one := mod.Modulate([]byte{1})

	mag0z := goertzelMagnitude(zero, cfg.Freq0, float64(cfg.SampleRate))
	mag1z := goertzelMagnitude(zero, cfg.Freq1, float64(cfg.SampleRate))
	if mag0z <= mag1z {
		t.Errorf("bit-0 symbol: mag(freq0)=%v should exceed mag(freq1)=%v", mag0z, mag1z)
	}

	mag0o := goertzelMagnitude(one, cfg.Freq0, float64(cfg.SampleRate))
	mag1o := goertzelMagnitude(one, cfg.Freq1, float64(cfg.SampleRate))
	if mag1o <= mag0o {
		t.Errorf("bit-1 symbol: mag(freq1)=%v should exceed mag(freq0)=%v", mag1o, mag0o)
	}
}
