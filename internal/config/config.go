package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
// Every field has a reference default (see Default); a file only needs the keys it changes.
type Config struct {
	Data        DataConfig        `yaml:"data"`
	Cleaning    CleaningConfig    `yaml:"cleaning"`
	Forecast    ForecastConfig    `yaml:"forecast"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Output      OutputConfig      `yaml:"output"`
	Log         LogConfig         `yaml:"log"`
}

type DataConfig struct {
	// Path to the IESO PUB_PriceHOEPPredispOR CSV.
	Path string `yaml:"path"`
	// SkipRows is the number of metadata lines before the header row.
	SkipRows int `yaml:"skip_rows"`
	// Year is used by `fetch` and to resolve a default Path.
	Year int `yaml:"year"`
	// ReportsURL is the base of the public IESO reports site.
	ReportsURL string `yaml:"reports_url"`
}

type CleaningConfig struct {
	OutlierSigma float64 `yaml:"outlier_sigma"`
}

type ForecastConfig struct {
	WindowHours int    `yaml:"window_hours"`
	Horizon     int    `yaml:"horizon"`
	MaxP        int    `yaml:"max_p"`
	MaxQ        int    `yaml:"max_q"`
	Criterion   string `yaml:"criterion"` // aic, aicc, bic
	Stepwise    bool   `yaml:"stepwise"`
	Estimator   string `yaml:"estimator"` // css, hannan-rissanen
	Workers     int    `yaml:"workers"`   // 0 = GOMAXPROCS
	OnFitError  string `yaml:"on_fit_error"`
}

type DiagnosticsConfig struct {
	PortmanteauLag int `yaml:"portmanteau_lag"`
	ACFLags        int `yaml:"acf_lags"`
	// ADFMaxLag <= 0 selects the Schwert rule.
	ADFMaxLag int `yaml:"adf_max_lag"`
}

type OutputConfig struct {
	Dir         string `yaml:"dir"`
	Plots       bool   `yaml:"plots"`
	MetricsFile string `yaml:"metrics_file"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console, json
}

const (
	PolicyAbort = "abort"
	PolicySkip  = "skip"
)

// Default returns the reference run: one week (168h) evaluation window, 3σ outlier
// threshold, portmanteau lag 25 and a 3-step forecast horizon.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Path:       "data/PUB_PriceHOEPPredispOR_2019.csv",
			SkipRows:   3,
			Year:       2019,
			ReportsURL: "http://reports.ieso.ca",
		},
		Cleaning: CleaningConfig{OutlierSigma: 3},
		Forecast: ForecastConfig{
			WindowHours: 24 * 7,
			Horizon:     3,
			MaxP:        5,
			MaxQ:        5,
			Criterion:   "aicc",
			Stepwise:    false,
			Estimator:   "css",
			Workers:     0,
			OnFitError:  PolicyAbort,
		},
		Diagnostics: DiagnosticsConfig{
			PortmanteauLag: 25,
			ACFLags:        48,
			ADFMaxLag:      0,
		},
		Output: OutputConfig{
			Dir:   "results",
			Plots: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked reads the YAML file over the defaults, but does not validate it.
// Relative data paths are resolved against the config file directory when that file exists.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if c.Data.Path != "" && !filepath.IsAbs(c.Data.Path) {
		cand := filepath.Join(filepath.Dir(path), c.Data.Path)
		if _, err := os.Stat(cand); err == nil {
			c.Data.Path = cand
		}
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Data.SkipRows < 0 {
		return errors.New("data.skip_rows must be >= 0")
	}
	if c.Cleaning.OutlierSigma <= 0 {
		return errors.New("cleaning.outlier_sigma must be > 0")
	}
	if err := c.Forecast.Validate(); err != nil {
		return fmt.Errorf("forecast config invalid: %w", err)
	}
	if c.Diagnostics.PortmanteauLag < 1 {
		return errors.New("diagnostics.portmanteau_lag must be >= 1")
	}
	if c.Diagnostics.ACFLags < 1 {
		return errors.New("diagnostics.acf_lags must be >= 1")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "pretty", "json":
	default:
		return fmt.Errorf("log.format %q must be console or json", c.Log.Format)
	}
	return nil
}

func (f ForecastConfig) Validate() error {
	if f.WindowHours < 1 {
		return errors.New("window_hours must be >= 1")
	}
	if f.Horizon < 1 {
		return errors.New("horizon must be >= 1")
	}
	if f.MaxP < 0 || f.MaxQ < 0 {
		return errors.New("max_p and max_q must be >= 0")
	}
	switch f.Criterion {
	case "aic", "aicc", "bic":
	default:
		return fmt.Errorf("criterion %q must be one of aic, aicc, bic", f.Criterion)
	}
	switch f.Estimator {
	case "css", "hannan-rissanen":
	default:
		return fmt.Errorf("estimator %q must be css or hannan-rissanen", f.Estimator)
	}
	if f.Workers < 0 {
		return errors.New("workers must be >= 0")
	}
	switch f.OnFitError {
	case PolicyAbort, PolicySkip:
	default:
		return fmt.Errorf("on_fit_error %q must be %s or %s", f.OnFitError, PolicyAbort, PolicySkip)
	}
	return nil
}

// MergeForecast overlays the fields of override whose YAML keys are in set onto
// base. A listed field is copied even when it is zero or false.
// This is used to apply command-line overrides on top of a loaded file.
func MergeForecast(base, override ForecastConfig, set map[string]bool) ForecastConfig {
	out := base
	if set["window_hours"] {
		out.WindowHours = override.WindowHours
	}
	if set["horizon"] {
		out.Horizon = override.Horizon
	}
	if set["max_p"] {
		out.MaxP = override.MaxP
	}
	if set["max_q"] {
		out.MaxQ = override.MaxQ
	}
	if set["criterion"] {
		out.Criterion = override.Criterion
	}
	if set["stepwise"] {
		out.Stepwise = override.Stepwise
	}
	if set["estimator"] {
		out.Estimator = override.Estimator
	}
	if set["workers"] {
		out.Workers = override.Workers
	}
	if set["on_fit_error"] {
		out.OnFitError = override.OnFitError
	}
	return out
}
