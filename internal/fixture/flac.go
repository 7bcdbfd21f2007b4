/*
NAME
  flac.go

DESCRIPTION
  flac.go decodes FLAC-compressed audio to a pcm.Buffer, so tests can
  exercise the "lossless containers preserve the ultrasonic band" claim
  of spec.md §1 against a real FLAC stream rather than only raw PCM.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fixture

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"

	"github.com/ausocean/ultrasonic/pcm"
)

// DecodeFLAC parses a FLAC stream and returns it as a pcm.Buffer,
// directly adapted from ausocean-av/exp/flac/decode.go: it parses FLAC
// frames with github.com/mewkiz/flac and re-encodes them through
// github.com/go-audio/wav's encoder, then hands the WAV bytes to DecodeWAV
// rather than returning them, since callers here want samples, not a
// container.
func DecodeFLAC(data []byte) (pcm.Buffer, error) {
	wavBytes, err := decodeFLACToWAV(data)
	if err != nil {
		return pcm.Buffer{}, err
	}
	return DecodeWAV(wavBytes)
}

func decodeFLACToWAV(data []byte) ([]byte, error) {
	stream, err := flac.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("fixture: parse flac: %w", err)
	}

	sampleRate := int(stream.Info.SampleRate)
	bitDepth := int(stream.Info.BitsPerSample)
	channels := int(stream.Info.NChannels)

	ws := &writeSeeker{}
	enc := wav.NewEncoder(ws, sampleRate, bitDepth, channels, wavFormat)

	intBuf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: bitDepth,
	}

	var data2 []int
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			if err := enc.Close(); err != nil {
				return nil, fmt.Errorf("fixture: close wav encoder: %w", err)
			}
			return ws.Bytes(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("fixture: parse flac frame: %w", err)
		}

		data2 = data2[:0]
		for i := 0; i < frame.Subframes[0].NSamples; i++ {
			for _, subframe := range frame.Subframes {
				data2 = append(data2, int(subframe.Samples[i]))
			}
		}
		intBuf.Data = data2
		if err := enc.Write(intBuf); err != nil {
			return nil, fmt.Errorf("fixture: write wav from flac frame: %w", err)
		}
	}
}
