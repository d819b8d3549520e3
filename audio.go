/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/wav"
)

const (
	audioSampleRate = beep.SampleRate(22050)

	tickLength    = 60 * time.Millisecond
	firstBeat     = 400 * time.Millisecond
	shortestBeat  = 120 * time.Millisecond
	beatShrink    = 0.85
	firstTickFreq = 660.0
	tickFreqRise  = 1.04
	highestTick   = 2400.0
	tickVolume    = 0.5
)

// countdownStreamer builds a run of ticks that speed up and rise in pitch
// until total has elapsed.
func countdownStreamer(total time.Duration, rate beep.SampleRate) (beep.Streamer, error) {
	var (
		parts []beep.Streamer
		beat  = firstBeat
		freq  = firstTickFreq
	)

	for elapsed := time.Duration(0); elapsed < total; {
		tone, err := generators.SineTone(rate, freq)
		if err != nil {
			return nil, fmt.Errorf("tick at %.0fHz: %w", freq, err)
		}

		parts = append(parts,
			&effects.Volume{
				Streamer: beep.Take(rate.N(tickLength), tone),
				Base:     2,
				Volume:   math.Log2(tickVolume),
			},
			beep.Silence(rate.N(beat-tickLength)),
		)

		elapsed += beat
		beat = max(time.Duration(float64(beat)*beatShrink), shortestBeat)
		freq = min(freq*tickFreqRise, highestTick)
	}

	return beep.Seq(parts...), nil
}

// renderCountdownTrack encodes the countdown ticks as a mono 16-bit WAV.
func renderCountdownTrack(total time.Duration) ([]byte, error) {
	s, err := countdownStreamer(total, audioSampleRate)
	if err != nil {
		return nil, err
	}

	out := &memFile{}
	format := beep.Format{
		SampleRate:  audioSampleRate,
		NumChannels: 1,
		Precision:   2,
	}
	if err := wav.Encode(out, s, format); err != nil {
		return nil, fmt.Errorf("encode countdown track: %w", err)
	}

	return out.Bytes(), nil
}
