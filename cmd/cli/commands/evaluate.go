package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"hoep-forecast/internal/backtest"
	"hoep-forecast/internal/pipeline"
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score a saved forecasts.csv",
	Long: `Re-runs the accuracy evaluation on a results table written by an
earlier run, without refitting any model.

Example:
  cli evaluate --results results/forecasts.csv --out results/rescored`,
	RunE: runEvaluate,
}

var evaluateResults string

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evaluateResults, "results", "", "results CSV written by run")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if evaluateResults == "" {
		return errors.New("--results is required")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	records, err := backtest.ReadResultsCSV(evaluateResults)
	if err != nil {
		return err
	}
	p := pipeline.New(cfg, newLogger(cfg), pipeline.WithOutput(cmd.OutOrStdout()))
	_, err = p.EvaluateRecords(records, evaluateResults)
	return err
}
