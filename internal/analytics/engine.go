// Package analytics answers average-price and correlation questions over upstream price history.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"StockLens/internal/calculator"
	"StockLens/internal/collector"
	"StockLens/internal/metrics"
	"StockLens/internal/model"
)

// matrixFetchLimit bounds concurrent upstream fetches while building a matrix.
const matrixFetchLimit = 4

// Engine computes statistics over series resolved through a PriceFetcher.
type Engine struct {
	prices *collector.PriceFetcher
	maxGap time.Duration
	log    zerolog.Logger
}

// NewEngine creates an Engine. maxGap > 0 drops aligned pairs further apart than maxGap.
func NewEngine(prices *collector.PriceFetcher, maxGap time.Duration, log zerolog.Logger) *Engine {
	return &Engine{
		prices: prices,
		maxGap: maxGap,
		log:    log.With().Str("component", "analytics").Logger(),
	}
}

// AveragePrice returns the mean price of ticker over the last minutes with its history.
func (e *Engine) AveragePrice(ctx context.Context, ticker string, minutes int) (*model.SeriesStats, error) {
	series, err := e.prices.FetchSeries(ctx, ticker, minutes)
	metrics.ComputationsTotal.WithLabelValues("average", metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	return &model.SeriesStats{
		AveragePrice: calculator.Average(series),
		PriceHistory: series,
	}, nil
}

// Correlate fetches both histories concurrently and returns their Pearson correlation,
// aligned on tickerA's timestamps, together with each ticker's average.
func (e *Engine) Correlate(ctx context.Context, tickerA, tickerB string, minutes int) (*model.CorrelationResult, error) {
	res, err := e.correlate(ctx, tickerA, tickerB, minutes)
	metrics.ComputationsTotal.WithLabelValues("correlation", metrics.Outcome(err)).Inc()
	if err != nil {
		e.log.Error().Err(err).Str("ticker_a", tickerA).Str("ticker_b", tickerB).Int("minutes", minutes).
			Msg("correlation failed")
		return nil, err
	}
	return res, nil
}

func (e *Engine) correlate(ctx context.Context, tickerA, tickerB string, minutes int) (*model.CorrelationResult, error) {
	if err := e.validate(ctx, minutes, tickerA, tickerB); err != nil {
		return nil, err
	}

	var seriesA, seriesB model.PriceSeries
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := e.prices.FetchValidated(gctx, tickerA, minutes)
		seriesA = s
		return err
	})
	g.Go(func() error {
		s, err := e.prices.FetchValidated(gctx, tickerB, minutes)
		seriesB = s
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	coefficient, err := e.coefficient(seriesA, seriesB)
	if err != nil {
		return nil, fmt.Errorf("correlate %s/%s: %w", tickerA, tickerB, err)
	}

	return &model.CorrelationResult{
		Correlation: coefficient,
		Stocks: map[string]model.SeriesStats{
			tickerA: {AveragePrice: calculator.Average(seriesA), PriceHistory: seriesA},
			tickerB: {AveragePrice: calculator.Average(seriesB), PriceHistory: seriesB},
		},
		TickerA: tickerA,
		TickerB: tickerB,
	}, nil
}

// Matrix computes every pairwise coefficient for tickers. Each history is fetched once.
// A pair without enough aligned samples scores 0.
func (e *Engine) Matrix(ctx context.Context, tickers []string, minutes int) (*model.CorrelationMatrix, error) {
	m, err := e.matrix(ctx, tickers, minutes)
	metrics.ComputationsTotal.WithLabelValues("matrix", metrics.Outcome(err)).Inc()
	if err != nil {
		e.log.Error().Err(err).Strs("tickers", tickers).Int("minutes", minutes).Msg("correlation matrix failed")
		return nil, err
	}
	return m, nil
}

func (e *Engine) matrix(ctx context.Context, tickers []string, minutes int) (*model.CorrelationMatrix, error) {
	tickers = dedupe(tickers)
	if len(tickers) < 2 {
		return nil, fmt.Errorf("%w: need at least two distinct tickers, got %d", model.ErrInvalidArgument, len(tickers))
	}
	if err := e.validate(ctx, minutes, tickers...); err != nil {
		return nil, err
	}

	all := make([]model.PriceSeries, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(matrixFetchLimit)
	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			s, err := e.prices.FetchValidated(gctx, ticker, minutes)
			all[i] = s
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &model.CorrelationMatrix{
		Tickers: tickers,
		Minutes: minutes,
		Values:  make([][]float64, len(tickers)),
		Stats:   make(map[string]model.TickerStats, len(tickers)),
	}
	for i := range tickers {
		row := make([]float64, len(tickers))
		for j := range tickers {
			if i == j {
				row[j] = 1
				continue
			}
			r, err := e.coefficient(all[i], all[j])
			if err != nil && !errors.Is(err, model.ErrInsufficientData) {
				return nil, err
			}
			row[j] = r
		}
		out.Values[i] = row
		out.Stats[tickers[i]] = model.TickerStats{
			Average: calculator.Average(all[i]),
			StdDev:  calculator.StdDev(all[i].Prices()),
		}
	}
	return out, nil
}

func (e *Engine) validate(ctx context.Context, minutes int, tickers ...string) error {
	if err := e.prices.ValidateMinutes(minutes); err != nil {
		return err
	}
	for _, t := range tickers {
		if err := e.prices.ValidateTicker(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) coefficient(a, b model.PriceSeries) (float64, error) {
	x, y, err := calculator.AlignWithinGap(a, b, e.maxGap)
	if err != nil {
		return 0, err
	}
	return calculator.PearsonCorrelation(x, y)
}

func dedupe(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
