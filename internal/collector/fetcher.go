package collector

import (
	"context"

	"RegimeWatch/internal/model"
)

// Fetcher defines the interface for fetching daily market data.
type Fetcher interface {
	// FetchDailyBars returns the available daily history for ticker in
	// chronological order.
	FetchDailyBars(ctx context.Context, ticker string) ([]model.OHLCV, error)
	Name() string
}
