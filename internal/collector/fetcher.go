package collector

import (
	"context"

	"StockLens/internal/model"
)

// Fetcher is the upstream price service contract.
type Fetcher interface {
	FetchDirectory(ctx context.Context) (model.StockDirectory, error)
	FetchPriceHistory(ctx context.Context, ticker string, minutes int) (model.PriceSeries, error)
	Name() string
}
