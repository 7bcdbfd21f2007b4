/*
NAME
  wav.go

DESCRIPTION
  wav.go converts between WAV-encoded bytes and pcm.Buffer, so tests can
  build realistic carrier audio (and round-trip the embedder's output
  through a real container) without the core package ever importing a
  container format itself.

AUTHOR
  David Sutton <davidsutton@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package fixture bridges WAV and FLAC container bytes to the pcm.Buffer
// type the core modem operates on. It exists only to build realistic test
// carriers; per spec.md §1 container I/O is the caller's concern, so
// nothing under cmd/ or the package root imports this package.
package fixture

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ausocean/ultrasonic/pcm"
)

const wavFormat = 1 // PCM, per the WAV spec's audio format field.

// EncodeWAV renders buf as WAV-container bytes at the given bit depth,
// using github.com/go-audio/wav the way ausocean-av/exp/flac/decode.go
// uses it to produce WAV output from decoded FLAC frames.
func EncodeWAV(buf pcm.Buffer, bitDepth int) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	ws := &writeSeeker{}
	enc := wav.NewEncoder(ws, buf.SampleRate, bitDepth, buf.Channels, wavFormat)

	max := float64(int(1)<<uint(bitDepth-1)) - 1
	data := make([]int, len(buf.Samples))
	for i, s := range buf.Samples {
		data[i] = int(math.Round(float64(s) * max))
	}

	intBuf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: buf.Channels, SampleRate: buf.SampleRate},
		SourceBitDepth: bitDepth,
		Data:           data,
	}
	if err := enc.Write(intBuf); err != nil {
		return nil, fmt.Errorf("fixture: encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("fixture: close wav encoder: %w", err)
	}
	return ws.Bytes(), nil
}

// DecodeWAV parses WAV-container bytes into a pcm.Buffer, normalizing
// samples to float32 in [-1, 1] by the file's own bit depth.
func DecodeWAV(data []byte) (pcm.Buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return pcm.Buffer{}, fmt.Errorf("fixture: not a valid wav file")
	}

	intBuf, err := dec.FullPCMBuffer()
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("fixture: decode wav: %w", err)
	}

	bitDepth := intBuf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}
	max := float64(int(1)<<uint(bitDepth-1)) - 1
	if max <= 0 {
		return pcm.Buffer{}, fmt.Errorf("fixture: invalid bit depth %d", bitDepth)
	}

	samples := make([]float32, len(intBuf.Data))
	for i, v := range intBuf.Data {
		samples[i] = float32(float64(v) / max)
	}

	return pcm.Buffer{
		SampleRate: intBuf.Format.SampleRate,
		Channels:   intBuf.Format.NumChannels,
		Samples:    samples,
	}, nil
}

// writeSeeker is a memory-backed io.WriteSeeker, adapted from
// ausocean-av/exp/flac/decode.go's writeSeeker: go-audio/wav's Encoder
// requires Seek (it rewrites the RIFF/data chunk sizes on Close) and the
// stdlib offers no in-memory WriteSeeker.
type writeSeeker struct {
	buf []byte
	pos int
}

// Bytes returns the bytes written to ws so far.
func (ws *writeSeeker) Bytes() []byte { return ws.buf }

func (ws *writeSeeker) Write(p []byte) (int, error) {
	end := ws.pos + len(p)
	if end > cap(ws.buf) {
		grown := make([]byte, len(ws.buf), end+len(p))
		copy(grown, ws.buf)
		ws.buf = grown
	}
	if end > len(ws.buf) {
		ws.buf = ws.buf[:end]
	}
	copy(ws.buf[ws.pos:], p)
	ws.pos = end
	return len(p), nil
}

func (ws *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var newPos int
	switch whence {
	case io.SeekStart:
		newPos = int(offset)
	case io.SeekCurrent:
		newPos = ws.pos + int(offset)
	case io.SeekEnd:
		newPos = len(ws.buf) + int(offset)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("fixture: negative seek position")
	}
	ws.pos = newPos
	return int64(newPos), nil
}
