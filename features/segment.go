package features

import (
	"math"

	"github.com/echolab/songbird/audio"
	"github.com/echolab/songbird/config"
	"github.com/echolab/songbird/logging"
)

// segmentExtractor emits raw-amplitude sub-segments for the MLP and LSTM
// families. Each full window is cut into windowSizeFactor contiguous chunks,
// absolute-valued and min-max normalized per window.
type segmentExtractor struct {
	cfg     config.Settings
	decoder *audio.Decoder
	logger  logging.Logger
}

func newSegmentExtractor(cfg config.Settings) (*segmentExtractor, error) {
	decoder, err := audio.NewDecoder(cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	return &segmentExtractor{
		cfg:     cfg,
		decoder: decoder,
		logger: logging.WithFields(logging.Fields{
			"component": "segment_extractor",
		}),
	}, nil
}

func (e *segmentExtractor) Name() string { return "raw_segment" }

func (e *segmentExtractor) Shape() []int {
	windowSize := e.cfg.WindowSize()
	return []int{e.cfg.WindowSizeFactor, windowSize / e.cfg.WindowSizeFactor}
}

func (e *segmentExtractor) Extract(path string) ([]Feature, error) {
	clip, err := e.decoder.Decode(path)
	if err != nil {
		return nil, err
	}

	label, err := ParseLabel(path, e.cfg.LabelSource)
	if err != nil {
		return nil, err
	}

	windowSize := e.cfg.WindowSize()
	chunkLen := windowSize / e.cfg.WindowSizeFactor

	windows, err := audio.FullWindows(len(clip.Samples), windowSize, e.cfg.Overlap)
	if err != nil {
		return nil, err
	}

	var out []Feature
	for start, end := range windows {
		segment := NormalizeSegments(clip.Samples[start:end], chunkLen)
		out = append(out, Feature{
			Data:  segment,
			Shape: []int{e.cfg.WindowSizeFactor, chunkLen},
			Label: label,
		})
	}

	return out, nil
}

// NormalizeSegments takes the absolute value of a window and min-max
// normalizes it into [0, 1]. A constant window (max == min) yields all
// zeros instead of a division fault. The result is the window laid out as
// len(window)/chunkLen chunks of chunkLen samples.
func NormalizeSegments(window []float64, chunkLen int) []float64 {
	out := make([]float64, len(window))

	lo := math.Inf(1)
	hi := math.Inf(-1)
	for i, v := range window {
		av := math.Abs(v)
		out[i] = av
		if av < lo {
			lo = av
		}
		if av > hi {
			hi = av
		}
	}

	if hi == lo {
		for i := range out {
			out[i] = 0
		}
		return out
	}

	span := hi - lo
	for i := range out {
		out[i] = (out[i] - lo) / span
	}
	return out
}
