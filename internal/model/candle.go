package model

import (
	"encoding/json"
	"math"
	"time"
)

// DateLayout is the canonical calendar-date format used for storage keys and JSON.
const DateLayout = "2006-01-02"

// PricePoint is one daily OHLCV bar for a single instrument.
// Date is a calendar date normalised to midnight UTC.
type PricePoint struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Key returns "symbol:YYYY-MM-DD".
func (p *PricePoint) Key() string {
	return p.Symbol + ":" + p.Date.Format(DateLayout)
}

// Valid reports whether the OHLC values are finite and strictly positive and
// the volume is non-negative.
func (p *PricePoint) Valid() bool {
	for _, v := range [4]float64{p.Open, p.High, p.Low, p.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return false
		}
	}
	return p.Volume >= 0
}

// JSON returns the JSON-encoded bar (ignoring errors).
func (p *PricePoint) JSON() []byte {
	b, _ := json.Marshal(p)
	return b
}

// Day truncates t to a calendar date in UTC, keeping the wall-clock date of t.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
