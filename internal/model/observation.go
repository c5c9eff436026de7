package model

import "time"

// PriceObservation is one hour of the IESO HOEP/predispatch report.
// Prices in $/MWh. Timestamp is the start of the delivery hour.
type PriceObservation struct {
	Timestamp time.Time

	// HOEP is the realized Hourly Ontario Energy Price.
	HOEP float64

	// Predispatch prices published 1, 2 and 3 hours before delivery.
	PredispatchH1 float64
	PredispatchH2 float64
	PredispatchH3 float64
}

// Column selects one numeric field of a PriceObservation.
type Column int

const (
	ColumnHOEP Column = iota
	ColumnPredispatchH1
	ColumnPredispatchH2
	ColumnPredispatchH3
)

// NumericColumns lists the columns in report order.
var NumericColumns = []Column{ColumnHOEP, ColumnPredispatchH1, ColumnPredispatchH2, ColumnPredispatchH3}

// Keep these names stable; they are used as CSV headers and metric labels.
func (c Column) String() string {
	switch c {
	case ColumnHOEP:
		return "HOEP"
	case ColumnPredispatchH1:
		return "Hour 1 Predispatch"
	case ColumnPredispatchH2:
		return "Hour 2 Predispatch"
	case ColumnPredispatchH3:
		return "Hour 3 Predispatch"
	default:
		return "unknown"
	}
}

// Value returns the field selected by c.
func (o PriceObservation) Value(c Column) float64 {
	switch c {
	case ColumnPredispatchH1:
		return o.PredispatchH1
	case ColumnPredispatchH2:
		return o.PredispatchH2
	case ColumnPredispatchH3:
		return o.PredispatchH3
	default:
		return o.HOEP
	}
}

// Set writes the field selected by c.
func (o *PriceObservation) Set(c Column, v float64) {
	switch c {
	case ColumnPredispatchH1:
		o.PredispatchH1 = v
	case ColumnPredispatchH2:
		o.PredispatchH2 = v
	case ColumnPredispatchH3:
		o.PredispatchH3 = v
	default:
		o.HOEP = v
	}
}

// Values extracts one column as a new slice.
func Values(obs []PriceObservation, c Column) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.Value(c)
	}
	return out
}

// Prices extracts the HOEP column.
func Prices(obs []PriceObservation) []float64 {
	return Values(obs, ColumnHOEP)
}

// TimeKey is the join key used for timestamp-aligned lookups.
// Unix seconds avoid surprises from monotonic readings and differing locations.
func TimeKey(t time.Time) int64 {
	return t.Unix()
}

// Index builds a timestamp-keyed lookup over obs.
func Index(obs []PriceObservation) map[int64]PriceObservation {
	out := make(map[int64]PriceObservation, len(obs))
	for _, o := range obs {
		out[TimeKey(o.Timestamp)] = o
	}
	return out
}
