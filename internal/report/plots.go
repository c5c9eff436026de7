package report

import (
	"fmt"
	"image/color"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"hoep-forecast/internal/analysis"
	"hoep-forecast/internal/backtest"
	"hoep-forecast/internal/model"
)

var (
	plotWidth  = 10 * vg.Inch
	plotHeight = 4 * vg.Inch
	bandColor  = color.RGBA{R: 200, G: 30, B: 30, A: 255}
)

func timeXYs(ts []time.Time, ys []float64) plotter.XYs {
	xys := make(plotter.XYs, len(ys))
	for i := range ys {
		xys[i].X = float64(ts[i].Unix())
		xys[i].Y = ys[i]
	}
	return xys
}

func newTimePlot(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = ylabel
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02\n15:04"}
	p.Add(plotter.NewGrid())
	return p
}

// PlotPrices draws a price column over time.
func PlotPrices(path string, obs []model.PriceObservation, c model.Column) error {
	p := newTimePlot(c.String(), "$/MWh")
	ts := make([]time.Time, len(obs))
	for i, o := range obs {
		ts[i] = o.Timestamp
	}
	line, err := plotter.NewLine(timeXYs(ts, model.Values(obs, c)))
	if err != nil {
		return err
	}
	p.Add(line)
	return p.Save(plotWidth, plotHeight, path)
}

// PlotHistogram draws the distribution of xs in bins buckets.
func PlotHistogram(path, title string, xs []float64, bins int) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "$/MWh"
	h, err := plotter.NewHist(plotter.Values(xs), bins)
	if err != nil {
		return err
	}
	p.Add(h)
	return p.Save(plotWidth/2, plotHeight, path)
}

// PlotCorrelogram draws ACF and PACF bars from lag 1 with the ±band lines.
func PlotCorrelogram(path, title string, c analysis.Correlogram) error {
	if len(c.ACF) < 2 {
		return fmt.Errorf("correlogram needs at least one lag")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "lag"

	w := vg.Points(3)
	acf, err := plotter.NewBarChart(plotter.Values(c.ACF[1:]), w)
	if err != nil {
		return err
	}
	acf.XMin = 1
	acf.Offset = -w / 2
	acf.LineStyle.Width = 0
	acf.Color = plotutil.Color(0)

	pacf, err := plotter.NewBarChart(plotter.Values(c.PACF[1:]), w)
	if err != nil {
		return err
	}
	pacf.XMin = 1
	pacf.Offset = w / 2
	pacf.LineStyle.Width = 0
	pacf.Color = plotutil.Color(1)

	upper := plotter.NewFunction(func(float64) float64 { return c.Band })
	lower := plotter.NewFunction(func(float64) float64 { return -c.Band })
	for _, f := range []*plotter.Function{upper, lower} {
		f.Color = bandColor
		f.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	}

	p.Add(acf, pacf, upper, lower)
	p.Legend.Add("ACF", acf)
	p.Legend.Add("PACF", pacf)
	p.Legend.Add("95% band", upper)
	p.Legend.Top = true
	return p.Save(plotWidth, plotHeight, path)
}

// PlotForecasts draws the realized prices, the model forecasts and the
// Hour 1 predispatch over the evaluation window.
func PlotForecasts(path string, records []backtest.ForecastRecord) error {
	p := newTimePlot("Rolling forecast vs realized HOEP", "$/MWh")
	ts := recordTimes(records)
	err := plotutil.AddLinePoints(p,
		"Realized", timeXYs(ts, backtest.Actuals(records)),
		"ARMA", timeXYs(ts, backtest.Forecasts(records)),
		model.ColumnPredispatchH1.String(), timeXYs(ts, backtest.Competitors(records, model.ColumnPredispatchH1)),
	)
	if err != nil {
		return err
	}
	p.Legend.Top = true
	return p.Save(plotWidth, plotHeight, path)
}

// PlotResiduals draws the model residuals over the evaluation window.
func PlotResiduals(path string, records []backtest.ForecastRecord) error {
	p := newTimePlot("Forecast residuals (realized - forecast)", "$/MWh")
	sc, err := plotter.NewScatter(timeXYs(recordTimes(records), backtest.Residuals(records)))
	if err != nil {
		return err
	}
	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Color = bandColor
	p.Add(sc, zero)
	return p.Save(plotWidth, plotHeight, path)
}

func recordTimes(records []backtest.ForecastRecord) []time.Time {
	ts := make([]time.Time, len(records))
	for i, r := range records {
		ts[i] = r.Timestamp
	}
	return ts
}
