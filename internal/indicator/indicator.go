// Package indicator provides technical indicator calculations over daily bars.
//
// Every indicator is a small streaming state machine: Update feeds one bar,
// Ready reports whether the warm-up window has been satisfied and Value
// returns the current reading. Compute drives a fixed set of indicators over
// a whole series and produces row-aligned IndicatorRows.
package indicator

import "github.com/sharavanan171081/AI-Stock-App/internal/model"

// Indicator is the interface for all technical indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "SMA", "RSI").
	Name() string

	// Update feeds the next bar in chronological order.
	Update(p model.PricePoint)

	// Value returns the current calculated value. Returns 0 if not enough data.
	Value() float64

	// Ready returns true when enough data has been accumulated.
	Ready() bool

	// Reset clears all state for reuse on another series.
	Reset()
}

// Source extracts the scalar an indicator consumes from a bar.
type Source func(p model.PricePoint) float64

// CloseSource feeds the closing price.
func CloseSource(p model.PricePoint) float64 { return p.Close }

// VolumeSource feeds the traded volume.
func VolumeSource(p model.PricePoint) float64 { return float64(p.Volume) }
