package commands

import (
	"github.com/spf13/cobra"

	"hoep-forecast/internal/pipeline"
)

// describeCmd represents the describe command
var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Summarize the price report without forecasting",
	Long: `Loads the report, drops outliers and prints descriptive statistics,
moments and the unit-root test for the HOEP series.

Example:
  cli describe --data data/PUB_PriceHOEPPredispOR_2019.csv

When data.path names the data.year report and the file is missing, it is
downloaded first.`,
	RunE: runDescribe,
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	ctx, cancel := signalContext()
	defer cancel()
	if err := ensureData(ctx, cfg, log); err != nil {
		return err
	}

	p := pipeline.New(cfg, log, pipeline.WithOutput(cmd.OutOrStdout()))
	obs, load, err := p.Load()
	if err != nil {
		return err
	}
	_, err = p.Describe(obs, load, cfg.Data.Path)
	return err
}
