package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"StockLens/internal/cache"
	"StockLens/internal/model"
)

// DirectoryCacheKey is the cache key of the stock directory.
const DirectoryCacheKey = "validStocks"

// DefaultTTL is how long directory and price-history lookups stay cached.
const DefaultTTL = time.Minute

// DefaultMaxMinutes is the widest window accepted when none is configured.
const DefaultMaxMinutes = 1440

// PriceFetcher validates requests, serves them from the cache when fresh and otherwise
// asks the upstream Fetcher exactly once.
type PriceFetcher struct {
	Fetcher Fetcher
	Cache   *cache.Cache
	TTL     time.Duration

	// MaxMinutes bounds the requested window. Non-positive means DefaultMaxMinutes.
	MaxMinutes int

	log zerolog.Logger
}

// NewPriceFetcher creates a PriceFetcher. A non-positive ttl means DefaultTTL.
func NewPriceFetcher(fetcher Fetcher, c *cache.Cache, ttl time.Duration, log zerolog.Logger) *PriceFetcher {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PriceFetcher{
		Fetcher:    fetcher,
		Cache:      c,
		TTL:        ttl,
		MaxMinutes: DefaultMaxMinutes,
		log:        log.With().Str("component", "price_fetcher").Str("source", fetcher.Name()).Logger(),
	}
}

// SeriesKey is the cache key for a ticker's window.
func SeriesKey(ticker string, minutes int) string {
	return fmt.Sprintf("%s:%d", ticker, minutes)
}

// ResolveDirectory returns the known stocks, from cache if fresh.
func (p *PriceFetcher) ResolveDirectory(ctx context.Context) (model.StockDirectory, error) {
	if v, ok := p.Cache.Get(DirectoryCacheKey); ok {
		if dir, ok := v.(model.StockDirectory); ok {
			p.log.Debug().Msg("cache hit for valid stocks")
			return dir, nil
		}
	}

	return p.RefreshDirectory(ctx)
}

// RefreshDirectory fetches the directory from upstream and replaces the cached copy.
func (p *PriceFetcher) RefreshDirectory(ctx context.Context) (model.StockDirectory, error) {
	p.log.Info().Msg("fetching valid stocks")
	dir, err := p.Fetcher.FetchDirectory(ctx)
	if err != nil {
		p.log.Error().Err(err).Msg("fetch valid stocks failed")
		return nil, fmt.Errorf("fetch valid stocks: %w", err)
	}
	if len(dir) == 0 {
		return nil, fmt.Errorf("fetch valid stocks: %w: empty stock directory", model.ErrUpstream)
	}

	p.Cache.Set(DirectoryCacheKey, dir, p.TTL)
	p.log.Info().Int("stocks", len(dir)).Msg("valid stocks cached")
	return dir, nil
}

// ValidateTicker fails with ErrInvalidArgument for a blank ticker and ErrInvalidTicker
// when the directory does not list it.
func (p *PriceFetcher) ValidateTicker(ctx context.Context, ticker string) error {
	if strings.TrimSpace(ticker) == "" {
		return fmt.Errorf("%w: ticker is required", model.ErrInvalidArgument)
	}
	dir, err := p.ResolveDirectory(ctx)
	if err != nil {
		return err
	}
	if !dir.Contains(ticker) {
		p.log.Warn().Str("ticker", ticker).Msg("invalid ticker")
		return fmt.Errorf("%w: %s", model.ErrInvalidTicker, ticker)
	}
	return nil
}

// ValidateMinutes rejects non-positive windows and windows wider than MaxMinutes.
func (p *PriceFetcher) ValidateMinutes(minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("%w: minutes must be a positive integer, got %d", model.ErrInvalidArgument, minutes)
	}
	limit := p.MaxMinutes
	if limit <= 0 {
		limit = DefaultMaxMinutes
	}
	if minutes > limit {
		return fmt.Errorf("%w: minutes must be at most %d, got %d", model.ErrInvalidArgument, limit, minutes)
	}
	return nil
}

// FetchSeries returns the price history of ticker over the last minutes.
func (p *PriceFetcher) FetchSeries(ctx context.Context, ticker string, minutes int) (model.PriceSeries, error) {
	if err := p.ValidateMinutes(minutes); err != nil {
		return nil, err
	}
	if err := p.ValidateTicker(ctx, ticker); err != nil {
		return nil, err
	}
	return p.FetchValidated(ctx, ticker, minutes)
}

// FetchValidated is FetchSeries without argument checks, for callers that already ran
// ValidateMinutes and ValidateTicker.
func (p *PriceFetcher) FetchValidated(ctx context.Context, ticker string, minutes int) (model.PriceSeries, error) {
	key := SeriesKey(ticker, minutes)
	if v, ok := p.Cache.Get(key); ok {
		if series, ok := v.(model.PriceSeries); ok {
			p.log.Debug().Str("key", key).Msg("cache hit")
			return series, nil
		}
	}

	p.log.Info().Str("ticker", ticker).Int("minutes", minutes).Msg("fetching price history")
	series, err := p.Fetcher.FetchPriceHistory(ctx, ticker, minutes)
	if err != nil {
		p.log.Error().Err(err).Str("ticker", ticker).Msg("fetch price history failed")
		return nil, fmt.Errorf("fetch data for %s: %w", ticker, err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("fetch data for %s: %w: no price samples", ticker, model.ErrInvalidData)
	}

	p.Cache.Set(key, series, p.TTL)
	p.log.Debug().Str("key", key).Int("samples", len(series)).Msg("data cached")
	return series, nil
}

