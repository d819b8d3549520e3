/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/gopxl/beep"
)

func drain(s beep.Streamer) int {
	var (
		buf   [512][2]float64
		total int
	)
	for {
		n, ok := s.Stream(buf[:])
		total += n
		if !ok {
			return total
		}
	}
}

func TestCountdownStreamerCoversTotal(t *testing.T) {
	total := 3 * time.Second

	s, err := countdownStreamer(total, audioSampleRate)
	if err != nil {
		t.Fatalf("Expected streamer, got %v", err)
	}

	samples := drain(s)
	if samples < audioSampleRate.N(total) {
		t.Errorf("Expected at least %d samples, got %d", audioSampleRate.N(total), samples)
	}
	if samples > audioSampleRate.N(total+firstBeat) {
		t.Errorf("Expected at most %d samples, got %d", audioSampleRate.N(total+firstBeat), samples)
	}
}

func TestCountdownStreamerStartsWithTick(t *testing.T) {
	s, err := countdownStreamer(time.Second, audioSampleRate)
	if err != nil {
		t.Fatalf("Expected streamer, got %v", err)
	}

	var buf [64][2]float64
	n, _ := s.Stream(buf[:])

	loud := false
	for _, sample := range buf[:n] {
		if sample[0] != 0 {
			loud = true
			break
		}
	}
	if !loud {
		t.Error("Expected the track to open with an audible tick")
	}
}

func TestCountdownStreamerLongCountdown(t *testing.T) {
	for _, total := range []time.Duration{10 * time.Second, 30 * time.Second, 2 * time.Minute} {
		s, err := countdownStreamer(total, audioSampleRate)
		if err != nil {
			t.Fatalf("Expected streamer for %s, got %v", total, err)
		}
		if samples := drain(s); samples < audioSampleRate.N(total) {
			t.Errorf("Expected at least %d samples for %s, got %d", audioSampleRate.N(total), total, samples)
		}
	}

	if _, err := renderCountdownTrack(10 * time.Second); err != nil {
		t.Errorf("Expected 10s track to render, got %v", err)
	}
}

func TestRenderCountdownTrack(t *testing.T) {
	track, err := renderCountdownTrack(time.Second)
	if err != nil {
		t.Fatalf("Expected track, got %v", err)
	}

	if len(track) < 44 {
		t.Fatalf("Expected at least a WAV header, got %d bytes", len(track))
	}
	if !bytes.Equal(track[0:4], []byte("RIFF")) {
		t.Errorf("Expected RIFF magic, got %q", track[0:4])
	}
	if !bytes.Equal(track[8:12], []byte("WAVE")) {
		t.Errorf("Expected WAVE format, got %q", track[8:12])
	}

	channels := binary.LittleEndian.Uint16(track[22:24])
	if channels != 1 {
		t.Errorf("Expected mono track, got %d channels", channels)
	}
	rate := binary.LittleEndian.Uint32(track[24:28])
	if rate != uint32(audioSampleRate) {
		t.Errorf("Expected sample rate %d, got %d", audioSampleRate, rate)
	}
}

func TestMemFileSeekAndOverwrite(t *testing.T) {
	m := &memFile{}

	if _, err := m.Write([]byte("hello world")); err != nil {
		t.Fatalf("Expected write to succeed, got %v", err)
	}

	pos, err := m.Seek(0, io.SeekStart)
	if err != nil || pos != 0 {
		t.Fatalf("Expected seek to 0, got %d (%v)", pos, err)
	}

	if _, err := m.Write([]byte("J")); err != nil {
		t.Fatalf("Expected write to succeed, got %v", err)
	}

	if got := string(m.Bytes()); got != "Jello world" {
		t.Errorf("Expected %q, got %q", "Jello world", got)
	}

	if pos, _ := m.Seek(-5, io.SeekEnd); pos != 6 {
		t.Errorf("Expected position 6, got %d", pos)
	}

	if _, err := m.Seek(-1, io.SeekStart); err == nil {
		t.Error("Expected error seeking before start, got nil")
	}
}

func TestMemFileWritePastEnd(t *testing.T) {
	m := &memFile{}

	if _, err := m.Seek(4, io.SeekStart); err != nil {
		t.Fatalf("Expected seek to succeed, got %v", err)
	}
	if _, err := m.Write([]byte("ab")); err != nil {
		t.Fatalf("Expected write to succeed, got %v", err)
	}

	want := []byte{0, 0, 0, 0, 'a', 'b'}
	if !bytes.Equal(m.Bytes(), want) {
		t.Errorf("Expected %v, got %v", want, m.Bytes())
	}
}

func TestHumanReadableSize(t *testing.T) {
	tests := map[int64]string{
		999:     "999 B",
		1000:    "1.0 kB",
		1500000: "1.5 MB",
	}

	for in, want := range tests {
		if got := humanReadableSize(in); got != want {
			t.Errorf("Expected %s for %d, got %s", want, in, got)
		}
	}
}
