package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"hoep-forecast/internal/config"
	"hoep-forecast/internal/logger"
)

var (
	// Global flags
	configFile string
	dataPath   string
	outDir     string
	logLevel   string
	logFormat  string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cli",
	Short: "HOEP rolling ARMA forecast and IESO predispatch comparison",
	Long: `Rolling-origin ARMA forecasting of the Hourly Ontario Energy Price,
scored against the IESO 1, 2 and 3 hour predispatch forecasts.

Examples:
  cli fetch --year 2019 --dir data
  cli describe --data data/PUB_PriceHOEPPredispOR_2019.csv
  cli run --config configs/hoep.yaml
  cli evaluate --results results/forecasts.csv`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "price report CSV (overrides data.path)")
	rootCmd.PersistentFlags().StringVar(&outDir, "out", "", "output directory (overrides output.dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "console or json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig reads --config (or the defaults) and applies the global overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		if cfg, err = config.LoadUnchecked(configFile); err != nil {
			return nil, err
		}
	}
	if dataPath != "" {
		cfg.Data.Path = dataPath
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(cfg.Log)
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
