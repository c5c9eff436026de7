package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"hoep-forecast/internal/config"
	"hoep-forecast/internal/metrics"
	"hoep-forecast/internal/pipeline"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load, clean, forecast and evaluate",
	Long: `Runs the whole analysis: load the price report, drop outliers, check
stationarity, fit an order-selected ARMA model on an expanding window for each
hour of the evaluation window, and compare it with the predispatch forecasts.

Example:
  cli run --config configs/hoep.yaml --window 168 --workers 8`,
	RunE: runRun,
}

var (
	// Forecast overrides; only flags given on the command line are applied.
	runForecast config.ForecastConfig
	runNoPlots  bool
)

// runFlagKeys maps run flags to the forecast config keys they override.
var runFlagKeys = map[string]string{
	"window":       "window_hours",
	"horizon":      "horizon",
	"max-p":        "max_p",
	"max-q":        "max_q",
	"criterion":    "criterion",
	"stepwise":     "stepwise",
	"estimator":    "estimator",
	"workers":      "workers",
	"on-fit-error": "on_fit_error",
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runForecast.WindowHours, "window", 0, "evaluation window in hours")
	runCmd.Flags().IntVar(&runForecast.Horizon, "horizon", 0, "forecast horizon in hours")
	runCmd.Flags().IntVar(&runForecast.MaxP, "max-p", 0, "largest AR order searched")
	runCmd.Flags().IntVar(&runForecast.MaxQ, "max-q", 0, "largest MA order searched")
	runCmd.Flags().StringVar(&runForecast.Criterion, "criterion", "", "aic, aicc or bic")
	runCmd.Flags().BoolVar(&runForecast.Stepwise, "stepwise", false, "stepwise order search instead of the full grid")
	runCmd.Flags().StringVar(&runForecast.Estimator, "estimator", "", "css or hannan-rissanen")
	runCmd.Flags().IntVar(&runForecast.Workers, "workers", 0, "parallel fits (0 = all CPUs)")
	runCmd.Flags().StringVar(&runForecast.OnFitError, "on-fit-error", "", "abort or skip")
	runCmd.Flags().BoolVar(&runNoPlots, "no-plots", false, "skip PNG plots")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	set := make(map[string]bool, len(runFlagKeys))
	for flag, key := range runFlagKeys {
		set[key] = cmd.Flags().Changed(flag)
	}
	cfg.Forecast = config.MergeForecast(cfg.Forecast, runForecast, set)
	if runNoPlots {
		cfg.Output.Plots = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx, cancel := signalContext()
	defer cancel()
	if err := ensureData(ctx, cfg, log); err != nil {
		return err
	}

	p := pipeline.New(cfg, log,
		pipeline.WithOutput(cmd.OutOrStdout()),
		pipeline.WithMetrics(metrics.New()),
	)
	rep, err := p.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		return err
	}
	if cfg.Output.Dir != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\nWrote %d forecasts to %s\n", len(rep.Records), cfg.Output.Dir)
	}
	return nil
}
