package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/echolab/songbird/logging"
)

// Clip holds decoded, mono, target-rate audio for one source file.
type Clip struct {
	Samples    []float64
	SampleRate int
	Path       string
}

// Decoder decodes WAV files into mono float64 PCM at a fixed target sample
// rate. Files at a different rate are resampled in-process.
type Decoder struct {
	targetRate int
	logger     logging.Logger
}

// NewDecoder creates a decoder that emits audio at targetRate Hz.
func NewDecoder(targetRate int) (*Decoder, error) {
	if targetRate <= 0 {
		return nil, fmt.Errorf("target sample rate must be positive, got %d", targetRate)
	}
	return &Decoder{
		targetRate: targetRate,
		logger: logging.WithFields(logging.Fields{
			"component":   "audio_decoder",
			"target_rate": targetRate,
		}),
	}, nil
}

// Decode reads a WAV file, downmixes it to mono and resamples it to the
// decoder's target rate.
func (d *Decoder) Decode(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("no audio data in %s", path)
	}

	samples := monoFloats(buf)

	if buf.Format.SampleRate != d.targetRate {
		samples, err = d.resample(samples, buf.Format.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("failed to resample %s: %w", path, err)
		}
	}

	d.logger.Debug("decoded audio file", logging.Fields{
		"path":        path,
		"source_rate": buf.Format.SampleRate,
		"samples":     len(samples),
	})

	return &Clip{
		Samples:    samples,
		SampleRate: d.targetRate,
		Path:       path,
	}, nil
}

// resample converts samples from sourceRate to the target rate using the
// pure-Go resampler; one-shot processing, no streaming state kept.
func (d *Decoder) resample(samples []float64, sourceRate int) ([]float64, error) {
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(sourceRate),
		OutputRate: float64(d.targetRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	out, err := rs.Process(samples)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}
	return out, nil
}

// monoFloats converts an integer PCM buffer to mono float64 in [-1, 1),
// averaging channels for multi-channel input.
func monoFloats(buf *goaudio.IntBuffer) []float64 {
	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for c := range channels {
			sum += float64(buf.Data[i*channels+c])
		}
		samples[i] = sum / float64(channels) / scale
	}
	return samples
}

// ClampDuration pads the clip with trailing zeros or truncates it so it holds
// exactly seconds worth of samples.
func (c *Clip) ClampDuration(seconds int) {
	if seconds <= 0 {
		return
	}
	want := c.SampleRate * seconds
	if len(c.Samples) < want {
		padded := make([]float64, want)
		copy(padded, c.Samples)
		c.Samples = padded
		return
	}
	c.Samples = c.Samples[:want]
}
