package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// MarketData holds chronological daily bars keyed by symbol.
type MarketData map[string][]OHLCV

// Until returns the bars of symbol dated on or before cutoff.
func (m MarketData) Until(symbol string, cutoff time.Time) []OHLCV {
	bars := m[symbol]
	n := len(bars)
	for n > 0 && bars[n-1].Time.After(cutoff) {
		n--
	}
	return bars[:n]
}
