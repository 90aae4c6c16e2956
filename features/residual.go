package features

import (
	"fmt"

	"github.com/echolab/songbird/audio"
	"github.com/echolab/songbird/config"
	"github.com/echolab/songbird/logging"
	"github.com/echolab/songbird/spectral"
)

// residualExtractor emits decibel-scaled mel spectrogram volumes for the
// residual convolutional family, shaped (melFilters+1, windowSizeFactor, 1)
// with one zero-padded extra row on the mel axis.
type residualExtractor struct {
	cfg     config.Settings
	decoder *audio.Decoder
	mel     *spectral.MelSpectrogram
	logger  logging.Logger
}

func newResidualExtractor(cfg config.Settings) (*residualExtractor, error) {
	decoder, err := audio.NewDecoder(cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	mel, err := spectral.NewMelSpectrogram(spectral.MelParams{
		SampleRate: cfg.SampleRate,
		SizeFFT:    cfg.SizeFFT,
		HopLength:  cfg.HopLength,
		NumFilters: cfg.NumberMelFilters,
	})
	if err != nil {
		return nil, err
	}

	return &residualExtractor{
		cfg:     cfg,
		decoder: decoder,
		mel:     mel,
		logger: logging.WithFields(logging.Fields{
			"component": "residual_extractor",
		}),
	}, nil
}

func (e *residualExtractor) Name() string { return "residual_spectrogram" }

func (e *residualExtractor) Shape() []int {
	return []int{e.cfg.NumberMelFilters + 1, e.cfg.WindowSizeFactor, 1}
}

func (e *residualExtractor) Extract(path string) ([]Feature, error) {
	clip, err := e.decoder.Decode(path)
	if err != nil {
		return nil, err
	}

	label, err := ParseLabel(path, e.cfg.LabelSource)
	if err != nil {
		return nil, err
	}

	windowSize := e.cfg.WindowSize()
	windows, err := audio.FullWindows(len(clip.Samples), windowSize, e.cfg.Overlap)
	if err != nil {
		return nil, err
	}

	shape := e.Shape()
	cols := e.cfg.WindowSizeFactor

	var out []Feature
	for start, end := range windows {
		spec, err := e.mel.Compute(clip.Samples[start:end])
		if err != nil {
			return nil, fmt.Errorf("mel spectrogram failed at offset %d: %w", start, err)
		}
		spec = spectral.PowerToDB(spec, e.cfg.DecibelScaleFactor)
		spec = spectral.RescaleDB(spec, e.cfg.DecibelScaleFactor)

		// Volume is (mels+1, factor, 1); the last mel row stays zero.
		data := make([]float64, Len(shape))
		for f, row := range spec {
			for t := 0; t < cols && t < len(row); t++ {
				data[f*cols+t] = row[t]
			}
		}

		out = append(out, Feature{
			Data:  data,
			Shape: shape,
			Label: label,
		})
	}

	return out, nil
}
