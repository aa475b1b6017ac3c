package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"StockLens/internal/cache"
	"StockLens/internal/model"
)

var t0 = time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestPriceFetcher(m *MockFetcher) (*PriceFetcher, *clock) {
	clk := &clock{now: t0}
	c := cache.New(cache.WithClock(clk.Now))
	return NewPriceFetcher(m, c, time.Minute, zerolog.Nop()), clk
}

func fixture() *MockFetcher {
	return &MockFetcher{
		Directory: model.StockDirectory{"Nvidia Corporation": "NVDA", "Apple Inc.": "AAPL"},
		Series: map[string]model.PriceSeries{
			"NVDA": {{Price: 100, ObservedAt: t0}, {Price: 102, ObservedAt: t0.Add(time.Minute)}},
			"AAPL": {{Price: 50, ObservedAt: t0.Add(time.Second)}, {Price: 51, ObservedAt: t0.Add(61 * time.Second)}},
		},
	}
}

func TestFetchSeries_NonPositiveMinutesFailsBeforeNetwork(t *testing.T) {
	for _, minutes := range []int{0, -5} {
		m := fixture()
		p, _ := newTestPriceFetcher(m)
		_, err := p.FetchSeries(context.Background(), "NVDA", minutes)
		if !errors.Is(err, model.ErrInvalidArgument) {
			t.Fatalf("minutes=%d: expected ErrInvalidArgument, got %v", minutes, err)
		}
		if m.DirectoryCalls() != 0 || m.HistoryCalls("NVDA") != 0 {
			t.Fatalf("minutes=%d: no upstream call expected", minutes)
		}
	}
}

func TestFetchSeries_WindowAboveLimitFailsBeforeNetwork(t *testing.T) {
	m := fixture()
	p, _ := newTestPriceFetcher(m)

	for _, minutes := range []int{DefaultMaxMinutes + 1, 288230376151711744} {
		if _, err := p.FetchSeries(context.Background(), "NVDA", minutes); !errors.Is(err, model.ErrInvalidArgument) {
			t.Fatalf("minutes=%d: expected ErrInvalidArgument, got %v", minutes, err)
		}
	}
	if m.DirectoryCalls() != 0 || m.HistoryCalls("NVDA") != 0 {
		t.Fatal("no upstream call expected")
	}

	p.MaxMinutes = 30
	if err := p.ValidateMinutes(30); err != nil {
		t.Errorf("limit itself should be accepted: %v", err)
	}
	if err := p.ValidateMinutes(31); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument above a configured limit, got %v", err)
	}
}

func TestFetchSeries_BlankTicker(t *testing.T) {
	m := fixture()
	p, _ := newTestPriceFetcher(m)
	if _, err := p.FetchSeries(context.Background(), "  ", 10); !errors.Is(err, model.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if m.DirectoryCalls() != 0 {
		t.Fatal("blank ticker should not reach upstream")
	}
}

func TestFetchSeries_UnknownTicker(t *testing.T) {
	m := fixture()
	p, _ := newTestPriceFetcher(m)
	_, err := p.FetchSeries(context.Background(), "TSLA", 10)
	if !errors.Is(err, model.ErrInvalidTicker) {
		t.Fatalf("expected ErrInvalidTicker, got %v", err)
	}
	if m.HistoryCalls("TSLA") != 0 {
		t.Fatal("invalid ticker must not trigger a price-history call")
	}
}

func TestFetchSeries_DisplayNameIsNotATicker(t *testing.T) {
	m := fixture()
	p, _ := newTestPriceFetcher(m)
	if _, err := p.FetchSeries(context.Background(), "Apple Inc.", 10); !errors.Is(err, model.ErrInvalidTicker) {
		t.Fatalf("expected ErrInvalidTicker, got %v", err)
	}
}

func TestFetchSeries_CachesWithinTTL(t *testing.T) {
	m := fixture()
	p, clk := newTestPriceFetcher(m)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s, err := p.FetchSeries(ctx, "NVDA", 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(s) != 2 {
			t.Fatalf("unexpected series %+v", s)
		}
	}
	if m.HistoryCalls("NVDA") != 1 || m.DirectoryCalls() != 1 {
		t.Fatalf("expected one upstream call each, got history=%d directory=%d",
			m.HistoryCalls("NVDA"), m.DirectoryCalls())
	}

	// A different window is a different key.
	if _, err := p.FetchSeries(ctx, "NVDA", 20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.HistoryCalls("NVDA") != 2 {
		t.Fatalf("expected a second call for a new window, got %d", m.HistoryCalls("NVDA"))
	}

	clk.Advance(time.Minute)
	if _, err := p.FetchSeries(ctx, "NVDA", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.HistoryCalls("NVDA") != 3 || m.DirectoryCalls() != 2 {
		t.Fatalf("expected refetch after TTL, got history=%d directory=%d",
			m.HistoryCalls("NVDA"), m.DirectoryCalls())
	}
}

func TestFetchSeries_UpstreamFailureIsNotCached(t *testing.T) {
	m := fixture()
	p, _ := newTestPriceFetcher(m)
	ctx := context.Background()
	if _, err := p.ResolveDirectory(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.Err = errors.Join(model.ErrUpstream, errors.New("connection refused"))
	if _, err := p.FetchSeries(ctx, "NVDA", 10); !errors.Is(err, model.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if m.HistoryCalls("NVDA") != 1 {
		t.Fatalf("expected a single attempt without retries, got %d", m.HistoryCalls("NVDA"))
	}

	m.Err = nil
	if _, err := p.FetchSeries(ctx, "NVDA", 10); err != nil {
		t.Fatalf("expected recovery once upstream is healthy, got %v", err)
	}
}

func TestResolveDirectory_EmptyIsUpstreamError(t *testing.T) {
	m := &MockFetcher{Directory: model.StockDirectory{}}
	p, _ := newTestPriceFetcher(m)
	if _, err := p.ResolveDirectory(context.Background()); !errors.Is(err, model.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestMockFetcher_GeneratesOneSamplePerMinute(t *testing.T) {
	m := &MockFetcher{Now: func() time.Time { return t0 }}
	s, err := m.FetchPriceHistory(context.Background(), "NVDA", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != 5 {
		t.Fatalf("expected 5 samples, got %d", len(s))
	}
	if !s[4].ObservedAt.Equal(t0) || !s[0].ObservedAt.Equal(t0.Add(-4*time.Minute)) {
		t.Errorf("unexpected timestamps %s..%s", s[0].ObservedAt, s[4].ObservedAt)
	}
}

func TestMockFetcher_CapsSamplesForWideWindows(t *testing.T) {
	m := &MockFetcher{Now: func() time.Time { return t0 }}
	minutes := 10 * MockMaxSamples
	s, err := m.FetchPriceHistory(context.Background(), "NVDA", minutes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != MockMaxSamples {
		t.Fatalf("expected %d samples, got %d", MockMaxSamples, len(s))
	}
	if !s[len(s)-1].ObservedAt.Equal(t0) {
		t.Errorf("last sample should be now, got %s", s[len(s)-1].ObservedAt)
	}
	if gap := s[1].ObservedAt.Sub(s[0].ObservedAt); gap != 10*time.Minute {
		t.Errorf("expected samples spread 10m apart, got %s", gap)
	}
}

func TestMockFetcher_TickersGetDistinctSeries(t *testing.T) {
	m := &MockFetcher{Now: func() time.Time { return t0 }}
	series := make(map[string]model.PriceSeries)
	for _, ticker := range DefaultDirectory.Tickers() {
		s, err := m.FetchPriceHistory(context.Background(), ticker, 30)
		if err != nil {
			t.Fatalf("%s: %v", ticker, err)
		}
		for _, p := range s {
			if p.Price <= 0 {
				t.Fatalf("%s: non-positive price %f", ticker, p.Price)
			}
		}
		series[ticker] = s
	}

	tickers := DefaultDirectory.Tickers()
	for i := range tickers {
		for j := i + 1; j < len(tickers); j++ {
			a, b := series[tickers[i]], series[tickers[j]]
			same := true
			for k := range a {
				if a[k].Price != b[k].Price {
					same = false
					break
				}
			}
			if same {
				t.Errorf("%s and %s produced identical series", tickers[i], tickers[j])
			}
		}
	}
}

func TestSeriesKey(t *testing.T) {
	if got := SeriesKey("NVDA", 30); got != "NVDA:30" {
		t.Errorf("expected NVDA:30, got %s", got)
	}
}
