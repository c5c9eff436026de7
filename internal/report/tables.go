package report

import (
	"fmt"
	"io"
	"strings"

	"hoep-forecast/internal/accuracy"
	"hoep-forecast/internal/analysis"
)

// WriteSeriesTable prints one row of descriptive statistics per price column.
func WriteSeriesTable(w io.Writer, series []analysis.SeriesSummary) {
	fmt.Fprintf(w, "%-20s %-6s %-9s %-9s %-9s %-9s %-9s %-9s %-9s %-9s\n",
		"series", "count", "min", "p05", "median", "mean", "p95", "max", "spread", "max-ramp")
	for _, s := range series {
		fmt.Fprintf(w, "%-20s %-6d %-9.2f %-9.2f %-9.2f %-9.2f %-9.2f %-9.2f %-9.2f %-9.2f\n",
			s.Name, s.Count, s.Min, s.P05, s.Median, s.Mean, s.P95, s.Max, s.SpreadP95P05, s.MaxRamp)
	}
}

// WriteMomentsTable prints the four moments of every series and, for the
// forecasters, the Euclidean distance to the realized prices.
func WriteMomentsTable(w io.Writer, s *accuracy.Summary) {
	fmt.Fprintf(w, "%-20s %-10s %-12s %-10s %-10s %-10s\n", "series", "mean", "variance", "skewness", "kurtosis", "distance")
	row := func(name string, m analysis.Moments, dist string) {
		fmt.Fprintf(w, "%-20s %-10.3f %-12.3f %-10.3f %-10.3f %-10s\n", name, m.Mean, m.Variance, m.Skewness, m.Kurtosis, dist)
	}
	row("Realized", s.Realized, "-")
	for _, f := range s.All() {
		row(f.Name, f.Moments, fmt.Sprintf("%.3f", f.Distance))
	}
}

// WriteAccuracyTable prints forecasters ranked by RMSE.
func WriteAccuracyTable(w io.Writer, s *accuracy.Summary) {
	fmt.Fprintf(w, "%-4s %-20s %-10s %-10s\n", "rank", "forecaster", "mae", "rmse")
	for _, r := range s.Ranking {
		fmt.Fprintf(w, "%-4d %-20s %-10.3f %-10.3f\n", r.Rank, r.Name, r.MAE, r.RMSE)
	}
}

// WriteDiagnostics prints the unit-root test on prices and the residual tests.
func WriteDiagnostics(w io.Writer, priceADF *analysis.ADFResult, d accuracy.ResidualDiagnostics) {
	if priceADF != nil {
		fmt.Fprintf(w, "ADF (prices):        stat=%.3f p=%.4f lag=%d crit1%%=%.3f crit5%%=%.3f\n",
			priceADF.Statistic, priceADF.PValue, priceADF.UsedLag, priceADF.Critical["1%"], priceADF.Critical["5%"])
	}
	if d.ADF != nil {
		fmt.Fprintf(w, "ADF (residuals):     stat=%.3f p=%.4f lag=%d\n", d.ADF.Statistic, d.ADF.PValue, d.ADF.UsedLag)
	}
	if pt := d.Portmanteau; pt != nil {
		fmt.Fprintf(w, "Ljung-Box (lag %d):  Q=%.3f p=%.4f\n", pt.LjungBox.DF, pt.LjungBox.Statistic, pt.LjungBox.PValue)
		fmt.Fprintf(w, "Box-Pierce (lag %d): Q=%.3f p=%.4f\n", pt.BoxPierce.DF, pt.BoxPierce.Statistic, pt.BoxPierce.PValue)
	}
	if d.JarqueBera != nil {
		fmt.Fprintf(w, "Jarque-Bera:         JB=%.3f p=%.4f\n", d.JarqueBera.Statistic, d.JarqueBera.PValue)
	}
	if len(d.Notes) > 0 {
		fmt.Fprintf(w, "skipped: %s\n", strings.Join(d.Notes, "; "))
	}
}
