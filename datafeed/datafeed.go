// Package datafeed fetches and caches historical market data. It is the
// single source of historical price truth for the backtest engine: data
// already cached is never re-fetched, new data is merged without duplicate
// or out-of-order timestamps, and time-bounded slices are served
// consistently from the merged store.
package datafeed

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/traderforge/fxbot/feed"
	"github.com/traderforge/fxbot/market"
)

// fetchOverlap is how far before the newest cached bar a delta fetch starts,
// to guard against gaps at the cache boundary.
const fetchOverlap = 10 * time.Minute

// Feed serves bar series from a SQLite-backed cache, pulling missing ranges
// from the external source on demand.
type Feed struct {
	src   feed.Source
	store *Store
	log   *zap.Logger
}

// New creates a cached data feed over src and store.
func New(src feed.Source, store *Store, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{src: src, store: store, log: logger}
}

// FetchHistorical returns the bars for (symbol, tf) within [start, end],
// timestamps strictly increasing and unique.
//
// Policy:
//   - nothing cached: fetch the full range, persist, return it. A failed or
//     empty feed result yields an empty series and a logged warning.
//   - cache behind the requested end: fetch only the delta (with a small
//     overlap before the newest cached bar), merge preferring fresh bars at
//     duplicate timestamps, persist the full merged series.
//   - cache already covers the window: serve the slice with no feed I/O.
func (f *Feed) FetchHistorical(ctx context.Context, symbol string, tf market.Timeframe, start, end time.Time) ([]market.Candle, error) {
	cached, err := f.store.Load(symbol, tf)
	if err != nil {
		return nil, err
	}

	if len(cached) == 0 {
		f.log.Info("no cache for series, fetching full range",
			zap.String("symbol", symbol), zap.String("timeframe", string(tf)))

		fresh := f.fetch(ctx, symbol, tf, start, end)
		if len(fresh) == 0 {
			return nil, nil
		}
		if err := f.store.Save(symbol, tf, fresh); err != nil {
			return nil, err
		}
		return market.SliceRange(fresh, start, end), nil
	}

	latest := cached[len(cached)-1].Time
	if latest.Before(end) {
		f.log.Info("cache behind requested window, fetching delta",
			zap.String("symbol", symbol), zap.String("timeframe", string(tf)),
			zap.Time("cached_latest", latest), zap.Time("requested_end", end))

		fresh := f.fetch(ctx, symbol, tf, latest.Add(-fetchOverlap), end)
		if len(fresh) > 0 {
			merged := mergeSeries(cached, fresh)
			if err := f.store.Save(symbol, tf, merged); err != nil {
				return nil, err
			}
			return market.SliceRange(merged, start, end), nil
		}
		// Feed had nothing newer; fall through to the cached slice.
	}

	return market.SliceRange(cached, start, end), nil
}

// fetch wraps the source call, flattening transport failures and empty
// results into an empty series with a warning. Missing market data is a
// data-tier problem, never fatal.
func (f *Feed) fetch(ctx context.Context, symbol string, tf market.Timeframe, start, end time.Time) []market.Candle {
	candles, err := f.src.FetchHistorical(ctx, symbol, tf, start, end)
	if err != nil {
		f.log.Warn("feed fetch failed",
			zap.String("symbol", symbol), zap.String("timeframe", string(tf)), zap.Error(err))
		return nil
	}
	if len(candles) == 0 {
		f.log.Warn("feed returned no data",
			zap.String("symbol", symbol), zap.String("timeframe", string(tf)),
			zap.Time("start", start), zap.Time("end", end))
		return nil
	}
	market.ClampSeries(candles)
	return candles
}

// mergeSeries combines cached and fresh bars into one sorted series with
// unique timestamps. Fresh bars win at duplicate timestamps.
func mergeSeries(cached, fresh []market.Candle) []market.Candle {
	seen := make(map[int64]struct{}, len(fresh))
	for _, c := range fresh {
		seen[c.Time.Unix()] = struct{}{}
	}

	merged := make([]market.Candle, 0, len(cached)+len(fresh))
	for _, c := range cached {
		if _, dup := seen[c.Time.Unix()]; dup {
			continue
		}
		merged = append(merged, c)
	}
	merged = append(merged, fresh...)

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Time.Before(merged[j].Time)
	})
	return merged
}

// Close releases the underlying store.
func (f *Feed) Close() error {
	return f.store.Close()
}
