// Package csvio reads and writes the dashboard's CSV interchange files:
// the price file (dates as DD-MM-YYYY) and the latest/history prediction
// files (dates as YYYY-MM-DD).
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"
)

// PriceDateLayout is the date format of the price file.
const PriceDateLayout = "02-01-2006"

// RunTSLayout is the run timestamp format of the history file.
const RunTSLayout = "2006-01-02 15:04:05"

var (
	priceHeader      = []string{"Date", "Symbol", "Open", "High", "Low", "Close", "Volume"}
	predictionHeader = []string{"Date", "Symbol", "Predicted_Price", "Predicted_Direction", "Probability_Up"}
)

// ErrHeader is returned when a required column is missing.
var ErrHeader = errors.New("csvio: missing required column")

// columnIndex maps required column names to positions in header.
func columnIndex(header, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, r := range required {
		if _, ok := idx[r]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrHeader, r)
		}
	}
	return idx, nil
}

// ReadPrices parses a price file. Rows that cannot be parsed, or whose
// values are not finite and positive, are dropped and counted.
func ReadPrices(r io.Reader) (points []model.PricePoint, dropped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read price header: %w", err)
	}
	idx, err := columnIndex(header, priceHeader)
	if err != nil {
		return nil, 0, err
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, dropped, fmt.Errorf("read price row: %w", err)
		}
		p, ok := parsePrice(rec, idx)
		if !ok {
			dropped++
			continue
		}
		points = append(points, p)
	}
	if dropped > 0 {
		log.Printf("[csvio] dropped %d malformed price rows", dropped)
	}
	return points, dropped, nil
}

func parsePrice(rec []string, idx map[string]int) (model.PricePoint, bool) {
	get := func(col string) string {
		i := idx[col]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	date, err := parseDate(get("Date"))
	if err != nil {
		return model.PricePoint{}, false
	}
	var f [4]float64
	for i, col := range []string{"Open", "High", "Low", "Close"} {
		if f[i], err = strconv.ParseFloat(get(col), 64); err != nil {
			return model.PricePoint{}, false
		}
	}
	vol, err := parseVolume(get("Volume"))
	if err != nil {
		return model.PricePoint{}, false
	}
	p := model.PricePoint{
		Symbol: strings.ToUpper(get("Symbol")),
		Date:   date,
		Open:   f[0], High: f[1], Low: f[2], Close: f[3],
		Volume: vol,
	}
	if p.Symbol == "" || !p.Valid() {
		return model.PricePoint{}, false
	}
	return p, true
}

// parseDate accepts DD-MM-YYYY and, for files written by other tools, YYYY-MM-DD.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(PriceDateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(model.DateLayout, s)
}

func parseVolume(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("volume %q out of range", s)
	}
	return int64(f), nil
}

// WritePrices writes all series sorted by symbol then date.
func WritePrices(w io.Writer, all map[string][]model.PricePoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(priceHeader); err != nil {
		return err
	}
	symbols := make([]string, 0, len(all))
	for s := range all {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		for _, p := range all[sym] {
			if err := cw.Write([]string{
				p.Date.Format(PriceDateLayout),
				sym,
				formatFloat(p.Open),
				formatFloat(p.High),
				formatFloat(p.Low),
				formatFloat(p.Close),
				strconv.FormatInt(p.Volume, 10),
			}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadPredictions parses a latest-predictions or history file. The
// Run_Timestamp column is optional.
func ReadPredictions(r io.Reader) (recs []model.PredictionRecord, dropped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read prediction header: %w", err)
	}
	idx, err := columnIndex(header, predictionHeader)
	if err != nil {
		return nil, 0, err
	}
	tsCol, hasTS := idx["Run_Timestamp"]

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, dropped, fmt.Errorf("read prediction row: %w", err)
		}
		if len(row) < len(predictionHeader) {
			dropped++
			continue
		}
		date, err1 := time.Parse(model.DateLayout, strings.TrimSpace(row[idx["Date"]]))
		price, err2 := strconv.ParseFloat(strings.TrimSpace(row[idx["Predicted_Price"]]), 64)
		prob, err3 := strconv.ParseFloat(strings.TrimSpace(row[idx["Probability_Up"]]), 64)
		dir, ok := model.ParseDirection(strings.TrimSpace(row[idx["Predicted_Direction"]]))
		if err1 != nil || err2 != nil || err3 != nil || !ok {
			dropped++
			continue
		}
		rec := model.PredictionRecord{
			Date:               date,
			Symbol:             strings.TrimSpace(row[idx["Symbol"]]),
			PredictedPrice:     price,
			PredictedDirection: dir,
			ProbabilityUp:      prob,
		}
		if hasTS && tsCol < len(row) {
			rec.RunTS = parseRunTS(row[tsCol])
		}
		recs = append(recs, rec)
	}
	return recs, dropped, nil
}

func parseRunTS(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{RunTSLayout, "2006-01-02 15:04:05.999999", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// WritePredictions writes recs in the given order. withRunTS adds the
// Run_Timestamp column used by the history file.
func WritePredictions(w io.Writer, recs []model.PredictionRecord, withRunTS bool) error {
	cw := csv.NewWriter(w)
	header := predictionHeader
	if withRunTS {
		header = append(append([]string{}, predictionHeader...), "Run_Timestamp")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range recs {
		row := []string{
			r.Date.Format(model.DateLayout),
			r.Symbol,
			strconv.FormatFloat(r.PredictedPrice, 'f', 2, 64),
			r.PredictedDirection.String(),
			strconv.FormatFloat(r.ProbabilityUp, 'f', 4, 64),
		}
		if withRunTS {
			ts := ""
			if !r.RunTS.IsZero() {
				ts = r.RunTS.Format(RunTSLayout)
			}
			row = append(row, ts)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
