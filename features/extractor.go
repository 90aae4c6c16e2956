package features

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/echolab/songbird/config"
	"github.com/echolab/songbird/logging"
)

// Feature is one fixed-shape tensor extracted from an audio window, paired
// with its integer class label. Data is stored flat in row-major order.
type Feature struct {
	Data  []float64
	Shape []int
	Label int
}

// Len returns the number of elements a shape holds.
func Len(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Extractor turns one audio file into zero or more equally shaped features.
// Implementations never abort a dataset load: a failing file surfaces as an
// error the loader logs and skips.
type Extractor interface {
	// Extract decodes the file and emits one feature per full analysis window.
	Extract(path string) ([]Feature, error)
	// Shape is the per-sample tensor shape every emitted feature has.
	Shape() []int
	// Name identifies the variant in logs and reports.
	Name() string
}

// New creates the feature extractor matching the configured family.
// MLP and LSTM share the raw-segment variant.
func New(cfg config.Settings) (Extractor, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	logger := logging.WithFields(logging.Fields{
		"component": "feature_extractor",
		"family":    cfg.Family,
	})

	switch cfg.Family {
	case config.FamilyTransformer:
		logger.Debug("creating spectrogram patch extractor")
		return newPatchExtractor(cfg)
	case config.FamilyLSTM, config.FamilyMLP:
		logger.Debug("creating raw segment extractor")
		return newSegmentExtractor(cfg)
	case config.FamilyResidual:
		logger.Debug("creating residual spectrogram extractor")
		return newResidualExtractor(cfg)
	default:
		return nil, fmt.Errorf("no feature extractor for family %q", cfg.Family)
	}
}

// ParseLabel derives the integer class label of an audio file from its path.
// The label always comes from the file's parent directory name: either the
// whole name or the token before the first underscore.
func ParseLabel(path string, source config.LabelSource) (int, error) {
	dir := filepath.Base(filepath.Dir(path))

	token := dir
	if source == config.LabelFromFilenameToken {
		token, _, _ = strings.Cut(dir, "_")
	}

	label, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("cannot derive class label from directory %q: %w", dir, err)
	}
	return label, nil
}
