package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/echolab/songbird/config"
)

var familiesCmd = &cobra.Command{
	Use:   "families",
	Short: "List the supported classifier families and their defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, family := range config.Families() {
			s := config.ForFamily(family)
			fmt.Fprintf(out, "%s\n", family)
			fmt.Fprintf(out, "  sample rate   %d Hz\n", s.SampleRate)
			fmt.Fprintf(out, "  hop length    %d\n", s.HopLength)
			fmt.Fprintf(out, "  window size   %d samples\n", s.WindowSize())
			fmt.Fprintf(out, "  epochs        %d\n", s.NumberEpochs)
			fmt.Fprintf(out, "  splits        %d\n", s.NumberSplits)
			switch family {
			case config.FamilyTransformer:
				fmt.Fprintf(out, "  mel filters   %d, patches %dx%d, %d blocks, %d heads\n",
					s.NumberMelFilters, s.PatchHeight, s.PatchWidth, s.NumberBlocks, s.NumberHeads)
			case config.FamilyLSTM, config.FamilyMLP:
				fmt.Fprintf(out, "  hidden units  %v\n", s.HiddenUnits)
			case config.FamilyResidual:
				fmt.Fprintf(out, "  mel filters   %d, conv filters %v, kernel %d\n",
					s.NumberMelFilters, s.FiltersPerBlock, s.KernelSize)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(familiesCmd)
}
