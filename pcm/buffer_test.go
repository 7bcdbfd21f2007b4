/*
NAME
  buffer_test.go

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

import (
	"testing"
)

func TestMonoOnStereoAverages(t *testing.T) {
	b := Buffer{SampleRate: 48000, Channels: 2, Samples: []float32{1, 0, 0.5, 0.5, -1, 1}}
	got := b.Mono()
	want := []float32{0.5, 0.5, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Mono()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExtendWithSilenceGrowsBuffer(t *testing.T) {
	b := Buffer{SampleRate: 48000, Channels: 1, Samples: []float32{1, 2, 3}}
	out := ExtendWithSilence(b, 10)
	if out.Frames() != 10 {
		t.Fatalf("Frames() = %d, want 10", out.Frames())
	}
	for i := 3; i < 10; i++ {
		if out.Samples[i] != 0 {
			t.Errorf("Samples[%d] = %v, want 0", i, out.Samples[i])
		}
	}
}

func TestExtendWithSilenceNoOpWhenLongEnough(t *testing.T) {
	b := Buffer{SampleRate: 48000, Channels: 1, Samples: []float32{1, 2, 3, 4, 5}}
	out := ExtendWithSilence(b, 3)
	if out.Frames() != 5 {
		t.Fatalf("Frames() = %d, want 5 (unchanged)", out.Frames())
	}
}

func TestMixSumsAndClips(t *testing.T) {
	host := Buffer{SampleRate: 48000, Channels: 1, Samples: []float32{0.9, 0.9, 0.9}}
	signal := []float32{0.05, 0.2, -0.05}

	out, err := Mix(host, signal, 0, nil, ExtendSilence)
	if err != nil {
		t.Fatalf("Mix: %v", err)
	}
	if out.Samples[0] != 0.95 {
		t.Errorf("Samples[0] = %v, want 0.95", out.Samples[0])
	}
	if out.Samples[1] != 1 { // 0.9+0.2=1.1, clipped to 1.
		t.Errorf("Samples[1] = %v, want clipped to 1", out.Samples[1])
	}
}

func TestMixExtendsShortHost(t *testing.T) {
	host := Buffer{SampleRate: 48000, Channels: 1, Samples: []float32{0.1}}
	signal := make([]float32, 10)
	for i := range signal {
		signal[i] = 0.01
	}

	out, err := Mix(host, signal, 0, nil, ExtendSilence)
	if err != nil {
		t.Fatalf("Mix: %v", err)
	}
	if out.Frames() < len(signal) {
		t.Errorf("Frames() = %d, want >= %d", out.Frames(), len(signal))
	}
}

func TestMixErrorsOnShortHostWhenPolicyRequiresIt(t *testing.T) {
	host := Buffer{SampleRate: 48000, Channels: 1, Samples: []float32{0.1}}
	signal := make([]float32, 10)

	_, err := Mix(host, signal, 0, nil, ErrorOnShortHost)
	if err != ErrHostTooShort {
		t.Fatalf("Mix error = %v, want ErrHostTooShort", err)
	}
}

func TestMixOnSubsetOfChannels(t *testing.T) {
	host := Buffer{SampleRate: 48000, Channels: 2, Samples: []float32{0, 0, 0, 0}}
	signal := []float32{0.1, 0.1}

	out, err := Mix(host, signal, 0, []int{0}, ExtendSilence)
	if err != nil {
		t.Fatalf("Mix: %v", err)
	}
	if out.Samples[0] == 0 {
		t.Error("channel 0 was not mixed into")
	}
	if out.Samples[1] != 0 {
		t.Error("channel 1 should be untouched")
	}
}
