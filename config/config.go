package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Family identifies one of the interchangeable classifier families.
type Family string

const (
	FamilyTransformer Family = "transformer"
	FamilyLSTM        Family = "lstm"
	FamilyMLP         Family = "mlp"
	FamilyResidual    Family = "residual"
)

// Families lists every supported classifier family.
func Families() []Family {
	return []Family{FamilyTransformer, FamilyLSTM, FamilyMLP, FamilyResidual}
}

// LabelSource selects where the integer class label of an audio file comes from.
type LabelSource string

const (
	// LabelFromDirectoryName parses the class directory name as an integer.
	LabelFromDirectoryName LabelSource = "directory_name"
	// LabelFromFilenameToken parses the token before the first '_' of the
	// file's parent directory name as an integer.
	LabelFromFilenameToken LabelSource = "filename_token"
)

// Settings holds every hyperparameter of the pipeline. A Settings value is
// treated as immutable once handed to a component; components copy what they
// keep. Zero-valued fields are filled from the family defaults by Normalize.
type Settings struct {
	Family Family `json:"family" yaml:"family"`

	// Dataset
	SampleRate    int         `json:"sample_rate" yaml:"sample_rate"`
	FilePattern   string      `json:"file_pattern" yaml:"file_pattern"`
	LabelSource   LabelSource `json:"label_source" yaml:"label_source"`
	NumberClasses int         `json:"number_classes" yaml:"number_classes"`

	// Windowing
	HopLength        int `json:"hop_length" yaml:"hop_length"`
	WindowSizeFactor int `json:"window_size_factor" yaml:"window_size_factor"`
	Overlap          int `json:"overlap" yaml:"overlap"`

	// Spectrogram
	SizeFFT            int     `json:"size_fft" yaml:"size_fft"`
	NumberMelFilters   int     `json:"number_mel_filters" yaml:"number_mel_filters"`
	DecibelScaleFactor float64 `json:"decibel_scale_factor" yaml:"decibel_scale_factor"`
	AudioDuration      int     `json:"audio_duration" yaml:"audio_duration"`
	PatchHeight        int     `json:"patch_height" yaml:"patch_height"`
	PatchWidth         int     `json:"patch_width" yaml:"patch_width"`

	// Training
	NumberEpochs      int     `json:"number_epochs" yaml:"number_epochs"`
	NumberSplits      int     `json:"number_splits" yaml:"number_splits"`
	BatchSize         int     `json:"batch_size" yaml:"batch_size"`
	DropoutRate       float64 `json:"dropout_rate" yaml:"dropout_rate"`
	LossFunction      string  `json:"loss_function" yaml:"loss_function"`
	OptimizerFunction string  `json:"optimizer_function" yaml:"optimizer_function"`

	// Layer stack
	IntermediaryActivation string  `json:"intermediary_activation" yaml:"intermediary_activation"`
	RecurrentActivation    string  `json:"recurrent_activation" yaml:"recurrent_activation"`
	LastLayerActivation    string  `json:"last_layer_activation" yaml:"last_layer_activation"`
	ProjectionDimension    int     `json:"projection_dimension" yaml:"projection_dimension"`
	HeadSize               int     `json:"head_size" yaml:"head_size"`
	NumberHeads            int     `json:"number_heads" yaml:"number_heads"`
	NumberBlocks           int     `json:"number_blocks" yaml:"number_blocks"`
	NormalizationEpsilon   float64 `json:"normalization_epsilon" yaml:"normalization_epsilon"`
	HiddenUnits            []int   `json:"hidden_units" yaml:"hidden_units"`
	FiltersPerBlock        []int   `json:"filters_per_block" yaml:"filters_per_block"`
	KernelSize             int     `json:"kernel_size" yaml:"kernel_size"`
	PoolingSize            int     `json:"pooling_size" yaml:"pooling_size"`
	ConvolutionalPadding   string  `json:"convolutional_padding" yaml:"convolutional_padding"`
}

// ForFamily returns the default settings of a classifier family. The values
// mirror the hyperparameters the families were tuned with.
func ForFamily(family Family) Settings {
	s := Settings{
		Family:                 family,
		SampleRate:             8000,
		FilePattern:            "*.wav",
		LabelSource:            LabelFromFilenameToken,
		NumberClasses:          4,
		Overlap:                2,
		WindowSizeFactor:       40,
		DecibelScaleFactor:     80,
		NumberEpochs:           10,
		NumberSplits:           5,
		BatchSize:              32,
		LossFunction:           "sparse_categorical_crossentropy",
		OptimizerFunction:      "adam",
		LastLayerActivation:    "softmax",
		IntermediaryActivation: "relu",
	}

	switch family {
	case FamilyTransformer:
		s.HopLength = 512
		s.SizeFFT = 1024
		s.NumberMelFilters = 512
		s.PatchHeight = 16
		s.PatchWidth = 16
		s.ProjectionDimension = 64
		s.HeadSize = 256
		s.NumberHeads = 2
		s.NumberBlocks = 2
		s.DropoutRate = 0.2
		s.NormalizationEpsilon = 1e-6
		s.AudioDuration = 10
	case FamilyLSTM:
		s.HopLength = 256
		s.DropoutRate = 0.1
		s.HiddenUnits = []int{128, 129}
		s.IntermediaryActivation = "tanh"
		s.RecurrentActivation = "sigmoid"
	case FamilyMLP:
		s.HopLength = 256
		s.DropoutRate = 0.1
		s.HiddenUnits = []int{128, 129}
	case FamilyResidual:
		s.HopLength = 256
		s.SizeFFT = 1024
		s.NumberMelFilters = 512
		s.FiltersPerBlock = []int{16, 32, 64, 96}
		s.KernelSize = 3
		s.PoolingSize = 2
		s.ConvolutionalPadding = "same"
		s.DropoutRate = 0.1
	}

	return s
}

// WindowSize derives the analysis window length in samples. The spectrogram
// families frame one hop short of the full factor so the mel spectrogram
// lands on exactly WindowSizeFactor time frames.
func (s Settings) WindowSize() int {
	switch s.Family {
	case FamilyTransformer, FamilyResidual:
		return s.HopLength * (s.WindowSizeFactor - 1)
	default:
		return s.HopLength * s.WindowSizeFactor
	}
}

// Normalize fills zero-valued fields from the family defaults and returns the
// completed settings. The receiver is not modified.
func (s Settings) Normalize() Settings {
	if s.Family == "" {
		s.Family = FamilyTransformer
	}
	def := ForFamily(s.Family)

	if s.SampleRate == 0 {
		s.SampleRate = def.SampleRate
	}
	if s.FilePattern == "" {
		s.FilePattern = def.FilePattern
	}
	if s.LabelSource == "" {
		s.LabelSource = def.LabelSource
	}
	if s.NumberClasses == 0 {
		s.NumberClasses = def.NumberClasses
	}
	if s.HopLength == 0 {
		s.HopLength = def.HopLength
	}
	if s.WindowSizeFactor == 0 {
		s.WindowSizeFactor = def.WindowSizeFactor
	}
	if s.Overlap == 0 {
		s.Overlap = def.Overlap
	}
	if s.SizeFFT == 0 {
		s.SizeFFT = def.SizeFFT
	}
	if s.NumberMelFilters == 0 {
		s.NumberMelFilters = def.NumberMelFilters
	}
	if s.DecibelScaleFactor == 0 {
		s.DecibelScaleFactor = def.DecibelScaleFactor
	}
	if s.AudioDuration == 0 {
		s.AudioDuration = def.AudioDuration
	}
	if s.PatchHeight == 0 {
		s.PatchHeight = def.PatchHeight
	}
	if s.PatchWidth == 0 {
		s.PatchWidth = def.PatchWidth
	}
	if s.NumberEpochs == 0 {
		s.NumberEpochs = def.NumberEpochs
	}
	if s.NumberSplits == 0 {
		s.NumberSplits = def.NumberSplits
	}
	if s.BatchSize == 0 {
		s.BatchSize = def.BatchSize
	}
	if s.DropoutRate == 0 {
		s.DropoutRate = def.DropoutRate
	}
	if s.LossFunction == "" {
		s.LossFunction = def.LossFunction
	}
	if s.OptimizerFunction == "" {
		s.OptimizerFunction = def.OptimizerFunction
	}
	if s.IntermediaryActivation == "" {
		s.IntermediaryActivation = def.IntermediaryActivation
	}
	if s.RecurrentActivation == "" {
		s.RecurrentActivation = def.RecurrentActivation
	}
	if s.LastLayerActivation == "" {
		s.LastLayerActivation = def.LastLayerActivation
	}
	if s.ProjectionDimension == 0 {
		s.ProjectionDimension = def.ProjectionDimension
	}
	if s.HeadSize == 0 {
		s.HeadSize = def.HeadSize
	}
	if s.NumberHeads == 0 {
		s.NumberHeads = def.NumberHeads
	}
	if s.NumberBlocks == 0 {
		s.NumberBlocks = def.NumberBlocks
	}
	if s.NormalizationEpsilon == 0 {
		s.NormalizationEpsilon = def.NormalizationEpsilon
	}
	if len(s.HiddenUnits) == 0 {
		s.HiddenUnits = def.HiddenUnits
	}
	if len(s.FiltersPerBlock) == 0 {
		s.FiltersPerBlock = def.FiltersPerBlock
	}
	if s.KernelSize == 0 {
		s.KernelSize = def.KernelSize
	}
	if s.PoolingSize == 0 {
		s.PoolingSize = def.PoolingSize
	}
	if s.ConvolutionalPadding == "" {
		s.ConvolutionalPadding = def.ConvolutionalPadding
	}

	return s
}

// Validate reports the first caller-contract violation in the settings.
func (s Settings) Validate() error {
	switch s.Family {
	case FamilyTransformer, FamilyLSTM, FamilyMLP, FamilyResidual:
	default:
		return fmt.Errorf("unknown family: %q", s.Family)
	}
	if s.Overlap < 1 {
		return fmt.Errorf("overlap must be >= 1, got %d", s.Overlap)
	}
	if s.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", s.SampleRate)
	}
	if s.HopLength <= 0 {
		return fmt.Errorf("hop length must be positive, got %d", s.HopLength)
	}
	if s.WindowSizeFactor <= 1 {
		return fmt.Errorf("window size factor must be > 1, got %d", s.WindowSizeFactor)
	}
	if s.NumberSplits < 2 {
		return fmt.Errorf("number of splits must be >= 2, got %d", s.NumberSplits)
	}
	if s.NumberClasses < 2 {
		return fmt.Errorf("number of classes must be >= 2, got %d", s.NumberClasses)
	}
	switch s.LabelSource {
	case LabelFromDirectoryName, LabelFromFilenameToken:
	default:
		return fmt.Errorf("unknown label source: %q", s.LabelSource)
	}
	return nil
}

// Load reads a YAML settings file. Fields absent from the file stay
// zero-valued so callers can layer further overrides on top before Normalize
// fills in the family defaults.
func Load(path string) (Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings file: %w", err)
	}
	return s, nil
}
