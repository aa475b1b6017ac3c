package model

// SeriesStats is the average price of a window together with the history it was computed from.
type SeriesStats struct {
	AveragePrice float64     `json:"averagePrice"`
	PriceHistory PriceSeries `json:"priceHistory"`
}

// CorrelationResult is the answer to a two-ticker correlation request.
type CorrelationResult struct {
	Correlation float64                `json:"correlation"`
	Stocks      map[string]SeriesStats `json:"stocks"`

	TickerA string `json:"-"`
	TickerB string `json:"-"`
}

// TickerStats summarises one ticker's window for the correlation heatmap.
type TickerStats struct {
	Average float64 `json:"avg"`
	StdDev  float64 `json:"std"`
}

// CorrelationMatrix holds pairwise coefficients for a set of tickers.
// Values[i][j] is the correlation of Tickers[i] aligned against Tickers[j].
type CorrelationMatrix struct {
	Tickers []string               `json:"tickers"`
	Minutes int                    `json:"minutes"`
	Values  [][]float64            `json:"values"`
	Stats   map[string]TickerStats `json:"stats"`
}
