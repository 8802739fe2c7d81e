package model

import "strings"

// Instrument is an NSE cash-market equity tracked by the dashboard.
type Instrument struct {
	Symbol   string `json:"symbol"`   // NSE trading symbol, e.g. "TCS"
	Exchange string `json:"exchange"` // "NSE"
	Suffix   string `json:"suffix"`   // market-data provider suffix, e.g. ".NS"
}

// NewInstrument builds an NSE instrument with the given provider suffix.
func NewInstrument(symbol, suffix string) Instrument {
	return Instrument{
		Symbol:   strings.ToUpper(strings.TrimSpace(symbol)),
		Exchange: "NSE",
		Suffix:   suffix,
	}
}

// Key returns a unique key for this instrument: "exchange:symbol".
func (i *Instrument) Key() string {
	return i.Exchange + ":" + i.Symbol
}

// ProviderSymbol returns the ticker as known to the market-data provider ("TCS.NS").
func (i *Instrument) ProviderSymbol() string {
	return i.Symbol + i.Suffix
}
