package commands

import (
	"github.com/spf13/cobra"

	"github.com/echolab/songbird/logging"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "songbird",
	Short: "Audio classification trainer",
	Long: `songbird - train audio classifiers with cross-validation.

Four interchangeable model families are supported:
  transformer  Patch transformer over mel spectrograms
  lstm         Stacked recurrent layers over raw segments
  mlp          Dense layers over raw segments
  residual     Convolutional blocks with shortcuts over mel spectrograms

The dataset is a directory of class subdirectories of audio files. Each
class subdirectory's name carries the integer label of its files.

Examples:
  # Train the default transformer on ./data with the family defaults
  songbird train ./data

  # Train an LSTM with overrides from a settings file
  songbird train ./data --family lstm --config settings.yaml

  # Quick run with a final holdout evaluation
  songbird train ./data --family mlp --epochs 2 --splits 2 --holdout-eval`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(func() {
		if verbose {
			logging.GetGlobalLogger().SetLevel(logging.DebugLevel)
		}
	})

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
