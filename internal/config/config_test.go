package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsReferenceRun(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 168, c.Forecast.WindowHours)
	assert.Equal(t, 3, c.Forecast.Horizon)
	assert.Equal(t, 3.0, c.Cleaning.OutlierSigma)
	assert.Equal(t, 25, c.Diagnostics.PortmanteauLag)
	assert.Equal(t, 3, c.Data.SkipRows)
	assert.False(t, c.Forecast.Stepwise)
	assert.Equal(t, PolicyAbort, c.Forecast.OnFitError)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prices.csv"), []byte("x"), 0o644))
	path := filepath.Join(dir, "config.yaml")
	yml := `
data:
  path: prices.csv
forecast:
  window_hours: 24
  criterion: bic
  on_fit_error: skip
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 24, c.Forecast.WindowHours)
	assert.Equal(t, "bic", c.Forecast.Criterion)
	assert.Equal(t, PolicySkip, c.Forecast.OnFitError)
	assert.Equal(t, 3, c.Forecast.Horizon, "unset keys keep their defaults")
	assert.Equal(t, filepath.Join(dir, "prices.csv"), c.Data.Path)
	assert.Equal(t, "json", c.Log.Format)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero window", func(c *Config) { c.Forecast.WindowHours = 0 }},
		{"zero horizon", func(c *Config) { c.Forecast.Horizon = 0 }},
		{"bad criterion", func(c *Config) { c.Forecast.Criterion = "hqic" }},
		{"bad estimator", func(c *Config) { c.Forecast.Estimator = "mle" }},
		{"bad policy", func(c *Config) { c.Forecast.OnFitError = "retry" }},
		{"negative sigma", func(c *Config) { c.Cleaning.OutlierSigma = -1 }},
		{"zero lag", func(c *Config) { c.Diagnostics.PortmanteauLag = 0 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestMergeForecast(t *testing.T) {
	base := Default().Forecast
	out := MergeForecast(base, ForecastConfig{WindowHours: 48, Workers: 4, Stepwise: true},
		map[string]bool{"window_hours": true, "workers": true, "stepwise": true})
	assert.Equal(t, 48, out.WindowHours)
	assert.Equal(t, 4, out.Workers)
	assert.True(t, out.Stepwise)
	assert.Equal(t, base.Criterion, out.Criterion)
	assert.Equal(t, base.MaxP, out.MaxP)
}

func TestMergeForecastAppliesExplicitZeros(t *testing.T) {
	base := Default().Forecast
	base.Stepwise = true

	out := MergeForecast(base, ForecastConfig{}, map[string]bool{"max_p": true, "stepwise": true})
	assert.Zero(t, out.MaxP, "an explicit 0 restricts the search to pure MA models")
	assert.False(t, out.Stepwise, "stepwise can be switched off again")
	assert.Equal(t, base.MaxQ, out.MaxQ, "unlisted keys keep the base value")
	assert.Equal(t, base.WindowHours, out.WindowHours)

	assert.Equal(t, base, MergeForecast(base, ForecastConfig{}, nil))
}
