package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"RegimeWatch/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Days  int
	Bars  map[string][]model.OHLCV
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, ticker string) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[ticker]; ok {
		return bars, nil
	}
	return generateMockBars(m.Price, m.Days, time.Now()), nil
}

func generateMockBars(basePrice float64, count int, end time.Time) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	last := tradingDay(end)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   last.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Source binds an internal symbol to the fetcher and ticker that serve it.
type Source struct {
	Symbol  string
	Ticker  string
	Fetcher Fetcher
}

// Collector fetches the daily history of every configured symbol.
type Collector struct {
	Sources []Source
}

// NewCollector creates a new Collector.
func NewCollector(sources ...Source) *Collector {
	return &Collector{Sources: sources}
}

// Collect fetches every source. A failing symbol is logged and left out, so
// its alerts read as not triggered; it is an error only if nothing was fetched.
func (c *Collector) Collect(ctx context.Context) (model.MarketData, error) {
	data := make(model.MarketData, len(c.Sources))
	var errs []error
	for _, src := range c.Sources {
		bars, err := src.Fetcher.FetchDailyBars(ctx, src.Ticker)
		if err != nil {
			log.Warn().Err(err).Str("symbol", src.Symbol).Str("source", src.Fetcher.Name()).
				Msg("fetch failed, skipping symbol")
			errs = append(errs, fmt.Errorf("%s: %w", src.Symbol, err))
			continue
		}
		log.Info().Str("symbol", src.Symbol).Str("source", src.Fetcher.Name()).Int("bars", len(bars)).
			Msg("fetched daily bars")
		data[src.Symbol] = bars
	}
	if len(data) == 0 && len(c.Sources) > 0 {
		return nil, fmt.Errorf("no market data fetched: %w", errors.Join(errs...))
	}
	return data, nil
}
