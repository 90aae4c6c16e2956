package features

import (
	"fmt"

	"github.com/echolab/songbird/audio"
	"github.com/echolab/songbird/config"
	"github.com/echolab/songbird/logging"
	"github.com/echolab/songbird/spectral"
)

// patchExtractor cuts decibel-scaled mel spectrograms into fixed-size tiles
// for the transformer family. One feature per full window: a stack of
// non-overlapping, zero-padded patches in row-major patch order.
type patchExtractor struct {
	cfg     config.Settings
	decoder *audio.Decoder
	mel     *spectral.MelSpectrogram
	logger  logging.Logger
}

func newPatchExtractor(cfg config.Settings) (*patchExtractor, error) {
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

	return &patchExtractor{
		cfg:     cfg,
		decoder: decoder,
		mel:     mel,
		logger: logging.WithFields(logging.Fields{
			"component": "patch_extractor",
		}),
	}, nil
}

func (e *patchExtractor) Name() string { return "spectrogram_patch" }

func (e *patchExtractor) Shape() []int {
	specRows := e.cfg.NumberMelFilters
	specCols := e.cfg.WindowSizeFactor
	rows := ceilDiv(specRows, e.cfg.PatchHeight)
	cols := ceilDiv(specCols, e.cfg.PatchWidth)
	return []int{rows * cols, e.cfg.PatchHeight, e.cfg.PatchWidth}
}

func (e *patchExtractor) Extract(path string) ([]Feature, error) {
	clip, err := e.decoder.Decode(path)
	if err != nil {
		return nil, err
	}
	if e.cfg.AudioDuration > 0 {
		clip.ClampDuration(e.cfg.AudioDuration)
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

	var out []Feature
	for start, end := range windows {
		spec, err := e.mel.Compute(clip.Samples[start:end])
		if err != nil {
			return nil, fmt.Errorf("mel spectrogram failed at offset %d: %w", start, err)
		}
		spec = spectral.PowerToDB(spec, e.cfg.DecibelScaleFactor)
		spec = spectral.RescaleDB(spec, e.cfg.DecibelScaleFactor)

		patches := SplitPatches(spec, e.cfg.PatchHeight, e.cfg.PatchWidth)

		data := make([]float64, 0, len(patches)*e.cfg.PatchHeight*e.cfg.PatchWidth)
		for _, p := range patches {
			for _, row := range p {
				data = append(data, row...)
			}
		}

		out = append(out, Feature{
			Data:  data,
			Shape: []int{len(patches), e.cfg.PatchHeight, e.cfg.PatchWidth},
			Label: label,
		})
	}

	return out, nil
}

// SplitPatches tiles a spectrogram into non-overlapping patchHeight x
// patchWidth patches in row-major patch order. The spectrogram is zero-padded
// on the bottom and right so both dimensions divide evenly.
func SplitPatches(spec [][]float64, patchHeight, patchWidth int) [][][]float64 {
	if len(spec) == 0 || patchHeight <= 0 || patchWidth <= 0 {
		return nil
	}

	rows := len(spec)
	cols := len(spec[0])
	padRows := ceilDiv(rows, patchHeight) * patchHeight
	padCols := ceilDiv(cols, patchWidth) * patchWidth

	padded := make([][]float64, padRows)
	for i := range padded {
		padded[i] = make([]float64, padCols)
		if i < rows {
			copy(padded[i], spec[i])
		}
	}

	var patches [][][]float64
	for i := 0; i < padRows; i += patchHeight {
		for j := 0; j < padCols; j += patchWidth {
			patch := make([][]float64, patchHeight)
			for r := range patch {
				patch[r] = make([]float64, patchWidth)
				copy(patch[r], padded[i+r][j:j+patchWidth])
			}
			patches = append(patches, patch)
		}
	}

	return patches
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
