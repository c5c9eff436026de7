package backtest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

var resultsHeader = []string{
	"timestamp",
	"forecasted",
	"actual",
	"hour_1_predispatch",
	"hour_2_predispatch",
	"hour_3_predispatch",
	"residual",
	"model",
	"train_len",
}

func WriteResultsCSV(path string, records []ForecastRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteResults(f, records)
}

func WriteResults(out io.Writer, records []ForecastRecord) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write(resultsHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			fmtTime(r.Timestamp),
			fmtFloat(r.Forecasted),
			fmtFloat(r.Actual),
			fmtFloat(r.PredispatchH1),
			fmtFloat(r.PredispatchH2),
			fmtFloat(r.PredispatchH3),
			fmtFloat(r.Residual),
			r.Model,
			strconv.Itoa(r.TrainLen),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadResultsCSV loads a table written by WriteResultsCSV. Residuals are
// recomputed from the actual and forecast columns.
func ReadResultsCSV(path string) ([]ForecastRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadResults(f)
}

func ReadResults(in io.Reader) ([]ForecastRecord, error) {
	r := csv.NewReader(in)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("results header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[h] = i
	}
	for _, h := range resultsHeader {
		if _, ok := col[h]; !ok {
			return nil, fmt.Errorf("results: missing column %q", h)
		}
	}

	var out []ForecastRecord
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		var fr ForecastRecord
		var perr error
		num := func(name string) float64 {
			v, err := strconv.ParseFloat(rec[col[name]], 64)
			if err != nil && perr == nil {
				perr = fmt.Errorf("results line %d column %s: %w", line, name, err)
			}
			return v
		}
		fr.Timestamp, err = time.Parse(time.RFC3339, rec[col["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("results line %d: %w", line, err)
		}
		fr.Forecasted = num("forecasted")
		fr.Actual = num("actual")
		fr.PredispatchH1 = num("hour_1_predispatch")
		fr.PredispatchH2 = num("hour_2_predispatch")
		fr.PredispatchH3 = num("hour_3_predispatch")
		fr.Model = rec[col["model"]]
		if fr.TrainLen, err = strconv.Atoi(rec[col["train_len"]]); err != nil {
			return nil, fmt.Errorf("results line %d column train_len: %w", line, err)
		}
		if perr != nil {
			return nil, perr
		}
		fr.Residual = fr.Actual - fr.Forecasted
		out = append(out, fr)
	}
	return out, nil
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
