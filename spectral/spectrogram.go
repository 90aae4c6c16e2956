package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/echolab/songbird/logging"
)

// MelParams configures mel spectrogram computation.
type MelParams struct {
	SampleRate int     `json:"sample_rate"`
	SizeFFT    int     `json:"size_fft"`    // FFT window size
	HopLength  int     `json:"hop_length"`  // hop between frames
	NumFilters int     `json:"num_filters"` // mel filter bank size
	LowFreq    float64 `json:"low_freq"`    // default: 0
	HighFreq   float64 `json:"high_freq"`   // default: sampleRate/2
}

// MelSpectrogram computes mel-scale power spectrograms from raw signals.
// The output is indexed [filter][frame], matching the orientation the
// feature extractors slice along.
type MelSpectrogram struct {
	params     MelParams
	fft        *FFT
	filterBank [][]float64
	window     []float64
	logger     logging.Logger
}

// NewMelSpectrogram creates a mel spectrogram computer. Zero-valued optional
// params are filled with defaults.
func NewMelSpectrogram(params MelParams) (*MelSpectrogram, error) {
	if params.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", params.SampleRate)
	}
	if params.SizeFFT <= 0 {
		return nil, fmt.Errorf("FFT size must be positive, got %d", params.SizeFFT)
	}
	if params.HopLength <= 0 {
		return nil, fmt.Errorf("hop length must be positive, got %d", params.HopLength)
	}
	if params.NumFilters <= 0 {
		return nil, fmt.Errorf("number of mel filters must be positive, got %d", params.NumFilters)
	}
	if params.HighFreq <= 0 {
		params.HighFreq = float64(params.SampleRate) / 2.0
	}

	bank := melFilterBank(params.NumFilters, params.SizeFFT, params.SampleRate, params.LowFreq, params.HighFreq)
	if len(bank) == 0 {
		return nil, fmt.Errorf("failed to create mel filter bank")
	}

	return &MelSpectrogram{
		params:     params,
		fft:        NewFFT(),
		filterBank: bank,
		window:     HannWindow(params.SizeFFT),
		logger: logging.WithFields(logging.Fields{
			"component": "mel_spectrogram",
		}),
	}, nil
}

// Compute returns the mel power spectrogram of signal, shaped
// [NumFilters][1 + len(signal)/HopLength]. The signal is zero-padded by half
// an FFT window on both ends so frames are centered, giving the frame count
// the downstream shape contracts assume.
func (m *MelSpectrogram) Compute(signal []float64) ([][]float64, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	half := m.params.SizeFFT / 2
	padded := make([]float64, len(signal)+2*half)
	copy(padded[half:], signal)

	numFrames := 1 + len(signal)/m.params.HopLength

	spec := make([][]float64, m.params.NumFilters)
	for i := range spec {
		spec[i] = make([]float64, numFrames)
	}

	frame := make([]float64, m.params.SizeFFT)
	for t := range numFrames {
		offset := t * m.params.HopLength
		copy(frame, padded[offset:offset+m.params.SizeFFT])
		floats.Mul(frame, m.window)

		power := m.fft.PowerSpectrum(frame)
		mel := applyFilterBank(m.filterBank, power)
		for f := range mel {
			spec[f][t] = mel[f]
		}
	}

	return spec, nil
}

// PowerToDB converts a power spectrogram to decibels referenced to its own
// maximum, clamping to a dynamic range of topDB below the peak. With a
// max reference every value ends up in [-topDB, 0].
func PowerToDB(spec [][]float64, topDB float64) [][]float64 {
	const amin = 1e-10

	ref := amin
	for _, row := range spec {
		for _, v := range row {
			if v > ref {
				ref = v
			}
		}
	}

	out := make([][]float64, len(spec))
	for i, row := range spec {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			p := math.Max(v, amin)
			out[i][j] = 10*math.Log10(p) - 10*math.Log10(ref)
		}
	}

	if topDB > 0 {
		maxDB := math.Inf(-1)
		for _, row := range out {
			maxDB = math.Max(maxDB, floats.Max(row))
		}
		floor := maxDB - topDB
		for _, row := range out {
			for j, v := range row {
				if v < floor {
					row[j] = floor
				}
			}
		}
	}

	return out
}

// RescaleDB applies the affine rescale (db/scale)+1 in place and returns the
// spectrogram. With a max-referenced dB input and scale equal to the dynamic
// range this maps values into [0, 1]. The transform is affine, not
// idempotent: applying it twice keeps shifting values up.
func RescaleDB(spec [][]float64, scale float64) [][]float64 {
	for _, row := range spec {
		for j := range row {
			row[j] = row[j]/scale + 1
		}
	}
	return spec
}
