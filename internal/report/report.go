// Package report renders an analysis run: text tables on a writer, and files
// in an output directory (results CSV, JSON summary, PNG plots).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"hoep-forecast/internal/accuracy"
	"hoep-forecast/internal/analysis"
	"hoep-forecast/internal/backtest"
	"hoep-forecast/internal/data"
	"hoep-forecast/internal/model"
)

// Report is everything one run produced.
type Report struct {
	Generated time.Time `json:"generated"`
	Source    string    `json:"source"`

	Load     *data.LoadReport         `json:"-"`
	Series   []analysis.SeriesSummary `json:"series"`
	Outliers analysis.OutlierReport   `json:"outliers"`

	PriceADF    *analysis.ADFResult  `json:"price_adf,omitempty"`
	Correlogram analysis.Correlogram `json:"correlogram"`

	Records  []backtest.ForecastRecord `json:"-"`
	Failures []string                  `json:"fit_failures,omitempty"`
	Accuracy *accuracy.Summary         `json:"accuracy"`

	// Cleaned is the series the model ran on; used for plots only.
	Cleaned []model.PriceObservation `json:"-"`
}

const (
	ResultsFile = "forecasts.csv"
	SummaryFile = "summary.json"
)

type Renderer struct {
	Dir   string
	Plots bool
	Out   io.Writer
	Log   zerolog.Logger
}

func NewRenderer(dir string, plots bool, out io.Writer, log zerolog.Logger) *Renderer {
	return &Renderer{Dir: dir, Plots: plots, Out: out, Log: log.With().Str("component", "report").Logger()}
}

// Render prints the tables and writes the output files. It returns the paths written.
func (r *Renderer) Render(rep *Report) ([]string, error) {
	if r.Out != nil {
		r.PrintTables(rep)
	}
	if r.Dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return nil, err
	}

	var written []string
	if len(rep.Records) > 0 {
		path := filepath.Join(r.Dir, ResultsFile)
		if err := backtest.WriteResultsCSV(path, rep.Records); err != nil {
			return written, fmt.Errorf("write results: %w", err)
		}
		written = append(written, path)
	}

	path := filepath.Join(r.Dir, SummaryFile)
	if err := WriteSummaryJSON(path, rep); err != nil {
		return written, fmt.Errorf("write summary: %w", err)
	}
	written = append(written, path)

	if r.Plots {
		plots, err := r.renderPlots(rep)
		written = append(written, plots...)
		if err != nil {
			return written, fmt.Errorf("plot: %w", err)
		}
	}
	r.Log.Info().Int("files", len(written)).Str("dir", r.Dir).Msg("report written")
	return written, nil
}

// PrintTables writes the text tables to r.Out.
func (r *Renderer) PrintTables(rep *Report) {
	w := r.Out
	if len(rep.Series) > 0 {
		fmt.Fprintln(w, "== Price series ==")
		WriteSeriesTable(w, rep.Series)
		fmt.Fprintf(w, "outliers removed: %d of %d (%d on the first pass, %d passes)\n\n",
			rep.Outliers.Removed, rep.Outliers.Input, rep.Outliers.FirstPass, rep.Outliers.Passes)
	}
	if rep.Accuracy == nil {
		if rep.PriceADF != nil {
			WriteDiagnostics(w, rep.PriceADF, accuracy.ResidualDiagnostics{})
		}
		return
	}
	fmt.Fprintln(w, "== Moments and distance to realized ==")
	WriteMomentsTable(w, rep.Accuracy)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "== Accuracy ==")
	WriteAccuracyTable(w, rep.Accuracy)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "== Diagnostics ==")
	WriteDiagnostics(w, rep.PriceADF, rep.Accuracy.Diagnostics)
	if len(rep.Failures) > 0 {
		fmt.Fprintf(w, "skipped steps: %d\n", len(rep.Failures))
	}
}

func (r *Renderer) renderPlots(rep *Report) ([]string, error) {
	var written []string
	add := func(name string, draw func(path string) error) error {
		path := filepath.Join(r.Dir, name)
		if err := draw(path); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		written = append(written, path)
		return nil
	}

	if len(rep.Cleaned) > 1 {
		if err := add("prices.png", func(p string) error {
			return PlotPrices(p, rep.Cleaned, model.ColumnHOEP)
		}); err != nil {
			return written, err
		}
		if err := add("prices_hist.png", func(p string) error {
			return PlotHistogram(p, "HOEP distribution", model.Prices(rep.Cleaned), 50)
		}); err != nil {
			return written, err
		}
	}
	if len(rep.Correlogram.ACF) > 1 {
		if err := add("prices_acf.png", func(p string) error {
			return PlotCorrelogram(p, "HOEP autocorrelation", rep.Correlogram)
		}); err != nil {
			return written, err
		}
	}
	if len(rep.Records) > 1 {
		if err := add("forecast.png", func(p string) error { return PlotForecasts(p, rep.Records) }); err != nil {
			return written, err
		}
		if err := add("residuals.png", func(p string) error { return PlotResiduals(p, rep.Records) }); err != nil {
			return written, err
		}
		if err := add("residuals_hist.png", func(p string) error {
			return PlotHistogram(p, "Residual distribution", backtest.Residuals(rep.Records), 20)
		}); err != nil {
			return written, err
		}
	}
	return written, nil
}

func WriteSummaryJSON(path string, rep *Report) error {
	raw, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(raw, '\n'), 0o644)
}
