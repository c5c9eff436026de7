package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"time"

	"hoep-forecast/internal/model"
)

// SyntheticParams shapes a generated HOEP-like series: a mean-reverting AR(1)
// around a daily profile, occasional price spikes, and predispatch forecasts
// whose error grows with lead time.
type SyntheticParams struct {
	Start          time.Time
	Hours          int
	Mean           float64
	Phi            float64
	NoiseSD        float64
	DailyAmplitude float64
	SpikeProb      float64
	SpikeSize      float64
	// PredispatchSD is the forecast error spread for leads of 1, 2 and 3 hours.
	PredispatchSD [3]float64
	// PredispatchBias is added to every predispatch price; IESO predispatch runs high.
	PredispatchBias float64
	Seed            int64
}

func DefaultSyntheticParams() SyntheticParams {
	return SyntheticParams{
		Start:           time.Date(2019, 1, 1, 0, 0, 0, 0, MarketZone),
		Hours:           24 * 60,
		Mean:            18,
		Phi:             0.8,
		NoiseSD:         4,
		DailyAmplitude:  6,
		SpikeProb:       0.003,
		SpikeSize:       120,
		PredispatchSD:   [3]float64{5, 6, 7},
		PredispatchBias: 3,
		Seed:            1,
	}
}

// Synthetic generates p.Hours consecutive hourly observations. Same params, same series.
func Synthetic(p SyntheticParams) []model.PriceObservation {
	rng := rand.New(rand.NewSource(p.Seed))
	out := make([]model.PriceObservation, p.Hours)
	dev := 0.0
	for i := range out {
		ts := p.Start.Add(time.Duration(i) * time.Hour)
		dev = p.Phi*dev + p.NoiseSD*rng.NormFloat64()
		profile := p.DailyAmplitude * math.Sin(2*math.Pi*float64(ts.Hour()-6)/24)
		price := p.Mean + profile + dev
		if rng.Float64() < p.SpikeProb {
			price += p.SpikeSize * (0.5 + rng.Float64())
		}
		price = round2(price)

		o := model.PriceObservation{Timestamp: ts, HOEP: price}
		for lead := 0; lead < 3; lead++ {
			f := price + p.PredispatchBias + p.PredispatchSD[lead]*rng.NormFloat64()
			o.Set(model.NumericColumns[lead+1], round2(f))
		}
		out[i] = o
	}
	return out
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// WritePriceCSV writes obs in the IESO report layout (three metadata lines,
// header, hour-ending rows), so generated data goes through the same loader as real files.
func WritePriceCSV(w io.Writer, obs []model.PriceObservation) error {
	meta := []string{
		`\\Hourly Ontario Energy Price (HOEP) and Predispatch Report`,
		`\\Created at ` + time.Now().In(MarketZone).Format("2006-01-02 15:04:05"),
		`\\For ` + yearLabel(obs),
	}
	for _, m := range meta {
		if _, err := fmt.Fprintln(w, m); err != nil {
			return err
		}
	}

	cw := csv.NewWriter(w)
	header := []string{"Date", "Hour"}
	for _, c := range model.NumericColumns {
		header = append(header, c.String())
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, o := range obs {
		ts := o.Timestamp.In(MarketZone)
		row := []string{ts.Format("2006-01-02"), strconv.Itoa(ts.Hour() + 1)}
		for _, c := range model.NumericColumns {
			row = append(row, formatPrice(o.Value(c)))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatPrice(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func yearLabel(obs []model.PriceObservation) string {
	if len(obs) == 0 {
		return "empty"
	}
	return strconv.Itoa(obs[0].Timestamp.In(MarketZone).Year())
}
