package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/echolab/songbird/config"
	"github.com/echolab/songbird/report"
	"github.com/echolab/songbird/train"
)

var (
	trainConfigFile string
	trainFamily     string
	trainEpochs     int
	trainBatchSize  int
	trainSplits     int
	trainHoldout    float64
	trainHoldoutEva bool
	trainKeepGoing  bool

	trainSampleRate    int
	trainClasses       int
	trainHopLength     int
	trainWindowFactor  int
	trainOverlap       int
	trainFFTSize       int
	trainMelFilters    int
	trainDuration      int
	trainPatchHeight   int
	trainPatchWidth    int
	trainDropout       float64
	trainProjectionDim int
	trainHeadSize      int
	trainHeads         int
	trainBlocks        int
	trainHiddenUnits   []int
	trainConvFilters   []int
	trainKernelSize    int
	trainPoolingSize   int
)

var trainCmd = &cobra.Command{
	Use:   "train <data-dir>",
	Short: "Run stratified cross-validation training on a dataset",
	Long: `Train one classifier family with stratified k-fold cross-validation.

The data directory must contain one subdirectory per class; the part of
the subdirectory name before the first '_' is the integer class label.
Every matching audio file is windowed into features, the classes are
balanced by oversampling, 20% is held out, and a fresh model is trained
per fold. The per-fold metrics are averaged into the final report.

Settings resolve in three layers: family defaults, then the --config
file, then explicit flags.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrain,
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := resolveSettings()
	if err != nil {
		return err
	}

	trainer, err := train.New(cfg)
	if err != nil {
		return err
	}
	if err := trainer.LoadData(args[0]); err != nil {
		return err
	}

	opts := train.TrainOptions{
		Epochs:          trainEpochs,
		BatchSize:       trainBatchSize,
		Splits:          trainSplits,
		HoldoutFraction: trainHoldout,
		CollectPartial:  trainKeepGoing,
	}
	result, err := trainer.Run(opts)
	if err != nil {
		return err
	}

	renderer := report.NewRenderer(report.DefaultTheme)
	fmt.Fprintln(cmd.OutOrStdout(), renderer.Render(result))

	if trainHoldoutEva {
		holdout, err := trainer.EvaluateHoldout(opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderer.RenderHoldout(holdout))
	}
	return nil
}

// resolveSettings builds the effective settings: the raw config file first,
// then flag overrides, then one Normalize pass filling whatever is still
// zero with the resolved family's defaults.
func resolveSettings() (config.Settings, error) {
	var cfg config.Settings
	if trainConfigFile != "" {
		loaded, err := config.Load(trainConfigFile)
		if err != nil {
			return config.Settings{}, err
		}
		cfg = loaded
	}
	if trainFamily != "" {
		cfg.Family = config.Family(trainFamily)
	}
	applyFlagOverrides(&cfg)

	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return config.Settings{}, err
	}
	return cfg, nil
}

// applyFlagOverrides copies set hyperparameter flags into cfg. A zero flag
// means "not given", the same convention Normalize uses for file fields.
func applyFlagOverrides(cfg *config.Settings) {
	if trainSampleRate != 0 {
		cfg.SampleRate = trainSampleRate
	}
	if trainClasses != 0 {
		cfg.NumberClasses = trainClasses
	}
	if trainHopLength != 0 {
		cfg.HopLength = trainHopLength
	}
	if trainWindowFactor != 0 {
		cfg.WindowSizeFactor = trainWindowFactor
	}
	if trainOverlap != 0 {
		cfg.Overlap = trainOverlap
	}
	if trainFFTSize != 0 {
		cfg.SizeFFT = trainFFTSize
	}
	if trainMelFilters != 0 {
		cfg.NumberMelFilters = trainMelFilters
	}
	if trainDuration != 0 {
		cfg.AudioDuration = trainDuration
	}
	if trainPatchHeight != 0 {
		cfg.PatchHeight = trainPatchHeight
	}
	if trainPatchWidth != 0 {
		cfg.PatchWidth = trainPatchWidth
	}
	if trainDropout != 0 {
		cfg.DropoutRate = trainDropout
	}
	if trainProjectionDim != 0 {
		cfg.ProjectionDimension = trainProjectionDim
	}
	if trainHeadSize != 0 {
		cfg.HeadSize = trainHeadSize
	}
	if trainHeads != 0 {
		cfg.NumberHeads = trainHeads
	}
	if trainBlocks != 0 {
		cfg.NumberBlocks = trainBlocks
	}
	if len(trainHiddenUnits) != 0 {
		cfg.HiddenUnits = trainHiddenUnits
	}
	if len(trainConvFilters) != 0 {
		cfg.FiltersPerBlock = trainConvFilters
	}
	if trainKernelSize != 0 {
		cfg.KernelSize = trainKernelSize
	}
	if trainPoolingSize != 0 {
		cfg.PoolingSize = trainPoolingSize
	}
}

func init() {
	trainCmd.Flags().StringVarP(&trainConfigFile, "config", "f", "", "YAML settings file")
	trainCmd.Flags().StringVar(&trainFamily, "family", "", "classifier family (transformer, lstm, mlp, residual)")
	trainCmd.Flags().IntVar(&trainEpochs, "epochs", 0, "training epochs per fold (default from settings)")
	trainCmd.Flags().IntVar(&trainBatchSize, "batch-size", 0, "training batch size (default from settings)")
	trainCmd.Flags().IntVar(&trainSplits, "splits", 0, "number of cross-validation folds (default from settings)")
	trainCmd.Flags().Float64Var(&trainHoldout, "holdout", 0, "holdout fraction (default 0.2)")
	trainCmd.Flags().BoolVar(&trainHoldoutEva, "holdout-eval", false, "train a final model and score it on the holdout part")
	trainCmd.Flags().BoolVar(&trainKeepGoing, "continue-on-error", false, "keep training remaining folds when one fails")

	trainCmd.Flags().IntVar(&trainSampleRate, "sample-rate", 0, "target sample rate in Hz (default from settings)")
	trainCmd.Flags().IntVar(&trainClasses, "classes", 0, "number of classes (default from settings)")
	trainCmd.Flags().IntVar(&trainHopLength, "hop-length", 0, "spectrogram hop length in samples (default from settings)")
	trainCmd.Flags().IntVar(&trainWindowFactor, "window-factor", 0, "analysis window length in hops (default from settings)")
	trainCmd.Flags().IntVar(&trainOverlap, "overlap", 0, "window overlap divisor (default from settings)")
	trainCmd.Flags().IntVar(&trainFFTSize, "fft-size", 0, "FFT window size (default from settings)")
	trainCmd.Flags().IntVar(&trainMelFilters, "mel-filters", 0, "mel filter bank size (default from settings)")
	trainCmd.Flags().IntVar(&trainDuration, "duration", 0, "clip length in seconds before windowing (default from settings)")
	trainCmd.Flags().IntVar(&trainPatchHeight, "patch-height", 0, "spectrogram patch height (default from settings)")
	trainCmd.Flags().IntVar(&trainPatchWidth, "patch-width", 0, "spectrogram patch width (default from settings)")
	trainCmd.Flags().Float64Var(&trainDropout, "dropout", 0, "dropout rate (default from settings)")
	trainCmd.Flags().IntVar(&trainProjectionDim, "projection-dim", 0, "transformer patch projection dimension (default from settings)")
	trainCmd.Flags().IntVar(&trainHeadSize, "head-size", 0, "transformer attention head size (default from settings)")
	trainCmd.Flags().IntVar(&trainHeads, "heads", 0, "transformer attention heads (default from settings)")
	trainCmd.Flags().IntVar(&trainBlocks, "blocks", 0, "transformer encoder blocks (default from settings)")
	trainCmd.Flags().IntSliceVar(&trainHiddenUnits, "hidden-units", nil, "dense or LSTM layer widths (default from settings)")
	trainCmd.Flags().IntSliceVar(&trainConvFilters, "conv-filters", nil, "residual block filter counts (default from settings)")
	trainCmd.Flags().IntVar(&trainKernelSize, "kernel-size", 0, "residual convolution kernel size (default from settings)")
	trainCmd.Flags().IntVar(&trainPoolingSize, "pooling-size", 0, "residual pooling size (default from settings)")

	rootCmd.AddCommand(trainCmd)
}
