package model

import (
	"fmt"
	"math"
	"time"
)

// Field identifies a column of an IndicatorRow.
type Field int

const (
	FieldClose Field = iota
	FieldVolume
	FieldSMA5
	FieldSMA10
	FieldSMA20
	FieldRSI14
	FieldMACD
	FieldMACDSignal
	FieldBBHigh
	FieldBBLow
	FieldATR14
	FieldRet1d
	FieldRet5d
	FieldVolChange
	FieldRollingVol10

	numFields
)

var fieldNames = [numFields]string{
	FieldClose:        "Close",
	FieldVolume:       "Volume",
	FieldSMA5:         "SMA_5",
	FieldSMA10:        "SMA_10",
	FieldSMA20:        "SMA_20",
	FieldRSI14:        "RSI_14",
	FieldMACD:         "MACD",
	FieldMACDSignal:   "MACD_SIGNAL",
	FieldBBHigh:       "BB_HIGH",
	FieldBBLow:        "BB_LOW",
	FieldATR14:        "ATR_14",
	FieldRet1d:        "Ret_1d",
	FieldRet5d:        "Ret_5d",
	FieldVolChange:    "Vol_Change",
	FieldRollingVol10: "Rolling_Volatility_10",
}

func (f Field) String() string {
	if f < 0 || f >= numFields {
		return "UNKNOWN"
	}
	return fieldNames[f]
}

// ParseField maps a column name back to its Field.
func ParseField(name string) (Field, bool) {
	for i, n := range fieldNames {
		if n == name {
			return Field(i), true
		}
	}
	return 0, false
}

// AllFields returns every derived and raw field in declaration order.
func AllFields() []Field {
	out := make([]Field, numFields)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// IndicatorRow is a PricePoint extended with derived indicator fields.
// A field that has not warmed up (or failed to compute) is null.
type IndicatorRow struct {
	PricePoint

	vals  [numFields]float64
	valid [numFields]bool
}

// NewIndicatorRow wraps a bar; Close and Volume are populated immediately.
func NewIndicatorRow(p PricePoint) IndicatorRow {
	r := IndicatorRow{PricePoint: p}
	r.Set(FieldClose, p.Close)
	r.Set(FieldVolume, float64(p.Volume))
	return r
}

// Set stores v for f. Non-finite values are stored as null.
func (r *IndicatorRow) Set(f Field, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		r.Clear(f)
		return
	}
	r.vals[f] = v
	r.valid[f] = true
}

// Clear marks f as null.
func (r *IndicatorRow) Clear(f Field) {
	r.vals[f] = 0
	r.valid[f] = false
}

// Get returns the value of f and whether it is defined.
func (r *IndicatorRow) Get(f Field) (float64, bool) {
	return r.vals[f], r.valid[f]
}

// Has reports whether every listed field is defined.
func (r *IndicatorRow) Has(fields ...Field) bool {
	for _, f := range fields {
		if !r.valid[f] {
			return false
		}
	}
	return true
}

// Vector returns the values of fields in order. ok is false if any is null.
func (r *IndicatorRow) Vector(fields []Field) (vec []float64, ok bool) {
	vec = make([]float64, len(fields))
	for i, f := range fields {
		if !r.valid[f] {
			return nil, false
		}
		vec[i] = r.vals[f]
	}
	return vec, true
}

// Values returns a name→value map of defined fields, for JSON responses.
func (r *IndicatorRow) Values() map[string]float64 {
	out := make(map[string]float64, numFields)
	for i := Field(0); i < numFields; i++ {
		if r.valid[i] {
			out[i.String()] = r.vals[i]
		}
	}
	return out
}

// Direction is the predicted or realised next-day move.
type Direction int

const (
	Down Direction = 0
	Up   Direction = 1
)

func (d Direction) String() string {
	if d == Up {
		return "UP"
	}
	return "DOWN"
}

// MarshalJSON encodes the direction as "UP" or "DOWN".
func (d Direction) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts "UP"/"DOWN" or 1/0.
func (d *Direction) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case `"UP"`, "1":
		*d = Up
	case `"DOWN"`, "0":
		*d = Down
	default:
		return fmt.Errorf("model: invalid direction %s", b)
	}
	return nil
}

// ParseDirection parses "UP"/"DOWN". Anything else is Down with ok=false.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "UP":
		return Up, true
	case "DOWN":
		return Down, true
	}
	return Down, false
}

// Label is the supervised target attached to a training row.
type Label struct {
	NextClose float64   `json:"next_close"`
	Direction Direction `json:"direction"`
}

// FeatureRow is an IndicatorRow projected onto an ordered feature column list.
type FeatureRow struct {
	Symbol   string    `json:"symbol"`
	Date     time.Time `json:"date"`
	Close    float64   `json:"close"`
	Features []float64 `json:"features"`
	Label    *Label    `json:"label,omitempty"`
}
