package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"StockLens/internal/model"
)

// MockMaxSamples caps how many samples MockFetcher generates for one window.
const MockMaxSamples = 1440

// DefaultDirectory is served by MockFetcher when none is configured.
var DefaultDirectory = model.StockDirectory{
	"Nvidia Corporation":    "NVDA",
	"PayPal Holdings, Inc.": "PYPL",
	"Apple Inc.":            "AAPL",
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Directory model.StockDirectory
	Series    map[string]model.PriceSeries
	BasePrice float64
	Err       error
	Now       func() time.Time

	mu             sync.Mutex
	directoryCalls int
	historyCalls   map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDirectory(_ context.Context) (model.StockDirectory, error) {
	m.mu.Lock()
	m.directoryCalls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Directory != nil {
		return m.Directory, nil
	}
	return DefaultDirectory, nil
}

func (m *MockFetcher) FetchPriceHistory(ctx context.Context, ticker string, minutes int) (model.PriceSeries, error) {
	m.mu.Lock()
	if m.historyCalls == nil {
		m.historyCalls = make(map[string]int)
	}
	m.historyCalls[ticker]++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if s, ok := m.Series[ticker]; ok {
		return s, nil
	}
	if m.Series != nil {
		return nil, fmt.Errorf("%w: no series for %s", model.ErrUpstream, ticker)
	}
	return m.generate(ticker, minutes), nil
}

// DirectoryCalls reports how many times the directory was requested.
func (m *MockFetcher) DirectoryCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.directoryCalls
}

// HistoryCalls reports how many times ticker's history was requested.
func (m *MockFetcher) HistoryCalls(ticker string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.historyCalls[ticker]
}

// generate produces evenly spaced samples over the window, ending now: one per minute,
// or at most MockMaxSamples spread across wider windows. Level, trend and wiggle are
// derived from a hash of the ticker so each symbol gets its own series.
func (m *MockFetcher) generate(ticker string, minutes int) model.PriceSeries {
	if minutes <= 0 {
		return model.PriceSeries{}
	}
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	base := m.BasePrice
	if base == 0 {
		base = 100
	}

	h := fnv.New32a()
	h.Write([]byte(ticker))
	seed := h.Sum32()
	level := base * (0.5 + float64(seed%100)/100)
	slope := (float64((seed>>8)%201) - 100) / 100000
	period := 3 + float64((seed>>16)%7)
	amplitude := 0.002 + float64((seed>>24)%5)*0.001

	n := min(minutes, MockMaxSamples)
	interval := time.Duration(minutes) * time.Minute / time.Duration(n)
	end := now().UTC()
	series := make(model.PriceSeries, n)
	for i := 0; i < n; i++ {
		offset := float64(i - n/2)
		wave := math.Sin(2 * math.Pi * float64(i) / period)
		series[i] = model.PriceSample{
			Price:      level * (1 + offset*slope + amplitude*wave),
			ObservedAt: end.Add(-time.Duration(n-1-i) * interval),
		}
	}
	return series
}
