package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeWAV writes a 16-bit PCM WAV file with the given samples in [-1, 1].
func writeWAV(t *testing.T, path string, rate, channels int, samples []float64) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		SourceBitDepth: 16,
	}
	for _, s := range samples {
		buf.Data = append(buf.Data, int(s*32767))
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

func sine(rate int, freq float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return out
}

func TestDecodeMatchingRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWAV(t, path, 8000, 1, sine(8000, 440, 8000))

	dec, err := NewDecoder(8000)
	if err != nil {
		t.Fatal(err)
	}
	clip, err := dec.Decode(path)
	if err != nil {
		t.Fatal(err)
	}

	if clip.SampleRate != 8000 {
		t.Errorf("sample rate %d, want 8000", clip.SampleRate)
	}
	if len(clip.Samples) != 8000 {
		t.Errorf("got %d samples, want 8000", len(clip.Samples))
	}
	for _, s := range clip.Samples {
		if s < -1 || s > 1 {
			t.Fatalf("sample %g outside [-1, 1]", s)
		}
	}
}

func TestDecodeResamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWAV(t, path, 16000, 1, sine(16000, 440, 16000))

	dec, err := NewDecoder(8000)
	if err != nil {
		t.Fatal(err)
	}
	clip, err := dec.Decode(path)
	if err != nil {
		t.Fatal(err)
	}

	if clip.SampleRate != 8000 {
		t.Errorf("sample rate %d, want 8000", clip.SampleRate)
	}
	// One second of audio should stay roughly one second long.
	if got := len(clip.Samples); got < 7000 || got > 9000 {
		t.Errorf("got %d samples after resampling, want about 8000", got)
	}
}

func TestDecodeDownmixesStereo(t *testing.T) {
	// Opposite-phase channels cancel to silence when averaged.
	n := 4000
	interleaved := make([]float64, 0, 2*n)
	tone := sine(8000, 440, n)
	for _, s := range tone {
		interleaved = append(interleaved, s, -s)
	}

	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeWAV(t, path, 8000, 2, interleaved)

	dec, err := NewDecoder(8000)
	if err != nil {
		t.Fatal(err)
	}
	clip, err := dec.Decode(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(clip.Samples) != n {
		t.Fatalf("got %d frames, want %d", len(clip.Samples), n)
	}
	for i, s := range clip.Samples {
		if math.Abs(s) > 1e-3 {
			t.Fatalf("frame %d is %g, want near-silence from the downmix", i, s)
		}
	}
}

func TestDecodeMissingFile(t *testing.T) {
	dec, err := NewDecoder(8000)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dec.Decode(filepath.Join(t.TempDir(), "absent.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestClampDuration(t *testing.T) {
	clip := &Clip{Samples: make([]float64, 100), SampleRate: 10}

	clip.ClampDuration(5)
	if len(clip.Samples) != 50 {
		t.Fatalf("truncated to %d samples, want 50", len(clip.Samples))
	}

	clip.ClampDuration(8)
	if len(clip.Samples) != 80 {
		t.Fatalf("padded to %d samples, want 80", len(clip.Samples))
	}
	for _, s := range clip.Samples[50:] {
		if s != 0 {
			t.Fatal("padding samples must be zero")
		}
	}
}
