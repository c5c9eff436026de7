package data

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"hoep-forecast/internal/model"
)

// MarketZone is the IESO market clock: Eastern Standard Time all year, no DST.
var MarketZone = time.FixedZone("EST", -5*60*60)

// FormatError reports raw input that does not match the expected report layout.
// It is fatal: nothing downstream runs on a malformed file.
type FormatError struct {
	Line   int // 1-based line in the file, 0 when not tied to a line
	Column string
	Reason string
}

func (e *FormatError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("data format: line %d column %q: %s", e.Line, e.Column, e.Reason)
	case e.Line > 0:
		return fmt.Sprintf("data format: line %d: %s", e.Line, e.Reason)
	case e.Column != "":
		return fmt.Sprintf("data format: column %q: %s", e.Column, e.Reason)
	default:
		return "data format: " + e.Reason
	}
}

// LoadReport summarizes what the loader had to fix.
type LoadReport struct {
	Rows    int
	Imputed map[model.Column]int
	Medians map[model.Column]float64
}

// ImputedTotal is the number of cells replaced by a column median.
func (r *LoadReport) ImputedTotal() int {
	n := 0
	for _, v := range r.Imputed {
		n += v
	}
	return n
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "1/2/2006", "01/02/2006", "2-Jan-06"}

// LoadPriceCSV reads an IESO PUB_PriceHOEPPredispOR report from disk.
func LoadPriceCSV(path string, skipRows int) ([]model.PriceObservation, *LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ParsePriceCSV(f, skipRows)
}

// ParsePriceCSV parses the report layout:
//   - skipRows metadata lines, then a header naming Date, Hour, HOEP and the
//     three predispatch columns (extra columns are ignored);
//   - Hour is IESO hour-ending 1..24 and becomes an hour-beginning timestamp;
//   - empty or unparseable price cells are replaced with the column median.
func ParsePriceCSV(r io.Reader, skipRows int) ([]model.PriceObservation, *LoadReport, error) {
	br := bufio.NewReader(r)
	for i := 0; i < skipRows; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil, &FormatError{Line: i + 1, Reason: "file ends before the header row"}
			}
			return nil, nil, err
		}
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, &FormatError{Line: skipRows + 1, Reason: "missing header row"}
		}
		return nil, nil, &FormatError{Line: skipRows + 1, Reason: err.Error()}
	}
	cols, err := mapHeader(header, skipRows+1)
	if err != nil {
		return nil, nil, err
	}

	report := &LoadReport{
		Imputed: map[model.Column]int{},
		Medians: map[model.Column]float64{},
	}
	var out []model.PriceObservation
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, nil, &FormatError{Line: pe.Line + skipRows, Reason: pe.Err.Error()}
			}
			return nil, nil, err
		}
		line, _ := cr.FieldPos(0)
		line += skipRows
		if blankRecord(rec) {
			continue
		}
		obs, err := parseRecord(rec, cols, line)
		if err != nil {
			return nil, nil, err
		}
		if n := len(out); n > 0 && !obs.Timestamp.After(out[n-1].Timestamp) {
			return nil, nil, &FormatError{Line: line, Reason: fmt.Sprintf("timestamp %s is not after %s",
				obs.Timestamp.Format(time.RFC3339), out[n-1].Timestamp.Format(time.RFC3339))}
		}
		out = append(out, obs)
	}
	if len(out) == 0 {
		return nil, nil, &FormatError{Reason: "no data rows"}
	}
	report.Rows = len(out)

	for _, c := range model.NumericColumns {
		med, n, err := imputeMedian(out, c)
		if err != nil {
			return nil, nil, err
		}
		report.Medians[c] = med
		if n > 0 {
			report.Imputed[c] = n
		}
	}
	return out, report, nil
}

type columnIndex struct {
	date, hour int
	values     map[model.Column]int
}

func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func mapHeader(header []string, line int) (columnIndex, error) {
	pos := map[string]int{}
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}
	lookup := func(name string) (int, error) {
		i, ok := pos[normalizeHeader(name)]
		if !ok {
			return 0, &FormatError{Line: line, Column: name, Reason: "required column missing from header"}
		}
		return i, nil
	}

	var ci columnIndex
	var err error
	if ci.date, err = lookup("Date"); err != nil {
		return ci, err
	}
	if ci.hour, err = lookup("Hour"); err != nil {
		return ci, err
	}
	ci.values = map[model.Column]int{}
	for _, c := range model.NumericColumns {
		if ci.values[c], err = lookup(c.String()); err != nil {
			return ci, err
		}
	}
	return ci, nil
}

func blankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseRecord(rec []string, cols columnIndex, line int) (model.PriceObservation, error) {
	var obs model.PriceObservation

	day, err := parseDate(field(rec, cols.date))
	if err != nil {
		return obs, &FormatError{Line: line, Column: "Date", Reason: err.Error()}
	}
	hour, err := strconv.Atoi(field(rec, cols.hour))
	if err != nil || hour < 1 || hour > 24 {
		return obs, &FormatError{Line: line, Column: "Hour", Reason: fmt.Sprintf("hour %q is not in 1..24", field(rec, cols.hour))}
	}
	obs.Timestamp = day.Add(time.Duration(hour-1) * time.Hour)

	for c, i := range cols.values {
		v, err := strconv.ParseFloat(field(rec, i), 64)
		if err != nil || math.IsInf(v, 0) {
			v = math.NaN()
		}
		obs.Set(c, v)
	}
	return obs, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, MarketZone); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// imputeMedian replaces NaN cells of column c with the median of the rest.
func imputeMedian(obs []model.PriceObservation, c model.Column) (float64, int, error) {
	present := make([]float64, 0, len(obs))
	for _, o := range obs {
		if v := o.Value(c); !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return 0, 0, &FormatError{Column: c.String(), Reason: "no numeric values"}
	}
	med := Median(present)
	n := 0
	for i := range obs {
		if math.IsNaN(obs[i].Value(c)) {
			obs[i].Set(c, med)
			n++
		}
	}
	return med, n, nil
}

// Median is the middle order statistic, averaging the two middle values for even lengths.
// xs is not modified.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
