// Package feed defines the external market-data source consumed by the data
// cache, plus an HTTP client for REST candle APIs.
package feed

import (
	"context"
	"time"

	"github.com/traderforge/fxbot/market"
)

// Source fetches historical candles for a symbol/timeframe over a date
// range. Implementations return an empty slice (not an error) when the venue
// has no data for the window; transport failures are returned as errors and
// treated as empty results by the cache.
type Source interface {
	FetchHistorical(ctx context.Context, symbol string, tf market.Timeframe, start, end time.Time) ([]market.Candle, error)
}
