package model

import "time"

// PredictionRecord is one instrument's next-day forecast produced by a run.
type PredictionRecord struct {
	Date               time.Time `json:"date"`
	Symbol             string    `json:"symbol"`
	PredictedPrice     float64   `json:"predicted_price"`
	PredictedDirection Direction `json:"predicted_direction"`
	ProbabilityUp      float64   `json:"probability_up"`
	RunTS              time.Time `json:"run_ts,omitempty"`
}

// Key returns the history key "YYYY-MM-DD:symbol".
func (p *PredictionRecord) Key() string {
	return p.Date.Format(DateLayout) + ":" + p.Symbol
}

// DirectionFromProbability applies the UP iff p >= 0.5 convention.
func DirectionFromProbability(p float64) Direction {
	if p >= 0.5 {
		return Up
	}
	return Down
}
