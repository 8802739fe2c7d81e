// Package fetch downloads daily OHLCV bars for NSE instruments from Yahoo
// Finance and cleans them into ascending, de-duplicated series.
package fetch

import (
	"context"
	"fmt"
	"log"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"github.com/sharavanan171081/AI-Stock-App/internal/marketdata/bus"
	"github.com/sharavanan171081/AI-Stock-App/internal/model"
)

// Source returns cleaned daily bars for one instrument in [start, end].
type Source interface {
	FetchDaily(ctx context.Context, inst model.Instrument, start, end time.Time) ([]model.PricePoint, error)
}

// barIterator is the subset of *chart.Iter the source consumes.
type barIterator interface {
	Next() bool
	Bar() *finance.ChartBar
	Err() error
}

// YahooSource fetches bars through the Yahoo chart API.
type YahooSource struct {
	retry RetryConfig
	get   func(*chart.Params) barIterator
}

// NewYahooSource creates a source with the default retry policy.
func NewYahooSource() *YahooSource {
	return &YahooSource{
		retry: DefaultRetryConfig(),
		get:   func(p *chart.Params) barIterator { return chart.Get(p) },
	}
}

// FetchDaily downloads one instrument's daily bars using its provider symbol
// (e.g. "TCS.NS"). Returned bars carry the plain NSE symbol.
func (y *YahooSource) FetchDaily(ctx context.Context, inst model.Instrument, start, end time.Time) ([]model.PricePoint, error) {
	var out []model.PricePoint
	err := WithRetry(ctx, y.retry, func() error {
		params := &chart.Params{
			Symbol:   inst.ProviderSymbol(),
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		}
		iter := y.get(params)

		out = out[:0]
		for iter.Next() {
			out = append(out, barToPoint(inst.Symbol, iter.Bar()))
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("chart %s: %w", inst.ProviderSymbol(), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return Clean(out), nil
}

func barToPoint(symbol string, b *finance.ChartBar) model.PricePoint {
	return model.PricePoint{
		Symbol: symbol,
		Date:   model.Day(time.Unix(int64(b.Timestamp), 0).UTC()),
		Open:   b.Open.InexactFloat64(),
		High:   b.High.InexactFloat64(),
		Low:    b.Low.InexactFloat64(),
		Close:  b.Close.InexactFloat64(),
		Volume: int64(b.Volume),
	}
}

// FetchAll downloads every instrument concurrently. Instruments that fail or
// return no usable bars are logged and left out of the result.
func FetchAll(ctx context.Context, src Source, insts []model.Instrument, start, end time.Time, workers int) map[string][]model.PricePoint {
	parts := make(map[string]model.Instrument, len(insts))
	for _, in := range insts {
		parts[in.Symbol] = in
	}

	type fetched struct {
		points []model.PricePoint
		err    error
	}
	res := bus.Map(ctx, workers, parts, func(sym string, in model.Instrument) fetched {
		pts, err := src.FetchDaily(ctx, in, start, end)
		return fetched{pts, err}
	})

	out := make(map[string][]model.PricePoint, len(res))
	for _, r := range res {
		switch {
		case r.Err != nil:
			log.Printf("[fetch] %s: %v", r.Key, r.Err)
		case r.Value.err != nil:
			log.Printf("[fetch] %s: %v", r.Key, r.Value.err)
		case len(r.Value.points) == 0:
			log.Printf("[fetch] %s: no data", r.Key)
		default:
			out[r.Key] = r.Value.points
		}
	}
	return out
}
