package feature

import (
	"sort"
	"time"
)

// X returns the feature matrix, one row per training row.
func (t TrainingTable) X() [][]float64 {
	x := make([][]float64, len(t.Rows))
	for i, r := range t.Rows {
		x[i] = r.Features
	}
	return x
}

// NextClose returns the regression target.
func (t TrainingTable) NextClose() []float64 {
	y := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		y[i] = r.Label.NextClose
	}
	return y
}

// Directions returns the classification target as 0/1.
func (t TrainingTable) Directions() []float64 {
	y := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		y[i] = float64(r.Label.Direction)
	}
	return y
}

// Split divides the table chronologically: the earliest trainFrac of rows
// (by date, across all instruments) go to train, the rest to test. The cut
// falls on a date boundary so that no calendar date appears on both sides,
// unless every row shares one date.
func (t TrainingTable) Split(trainFrac float64) (train, test TrainingTable) {
	rows := make([]int, len(t.Rows))
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(a, b int) bool {
		ra, rb := t.Rows[rows[a]], t.Rows[rows[b]]
		if !ra.Date.Equal(rb.Date) {
			return ra.Date.Before(rb.Date)
		}
		return ra.Symbol < rb.Symbol
	})

	cut := int(float64(len(rows)) * trainFrac)
	if cut < 0 {
		cut = 0
	}
	if cut > len(rows) {
		cut = len(rows)
	}
	if cut > 0 && cut < len(rows) {
		boundary := t.Rows[rows[cut]].Date
		back := cut
		for back > 0 && t.Rows[rows[back-1]].Date.Equal(boundary) {
			back--
		}
		if back > 0 {
			cut = back
		}
	}

	train = TrainingTable{Columns: t.Columns}
	test = TrainingTable{Columns: t.Columns}
	for i, idx := range rows {
		if i < cut {
			train.Rows = append(train.Rows, t.Rows[idx])
		} else {
			test.Rows = append(test.Rows, t.Rows[idx])
		}
	}
	return train, test
}

// DateRange returns the first and last row dates.
func (t TrainingTable) DateRange() (first, last time.Time) {
	for i, r := range t.Rows {
		if i == 0 || r.Date.Before(first) {
			first = r.Date
		}
		if r.Date.After(last) {
			last = r.Date
		}
	}
	return first, last
}
