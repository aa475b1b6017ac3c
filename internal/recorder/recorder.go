package recorder

import (
	"time"

	"StockLens/internal/model"
)

// AverageQuery is one answered average-price request.
type AverageQuery struct {
	Ticker   string
	Minutes  int
	Stats    *model.SeriesStats
	Answered time.Time
}

// CorrelationQuery is one answered correlation request.
type CorrelationQuery struct {
	Minutes  int
	Result   *model.CorrelationResult
	Answered time.Time
}

// Recorder keeps an audit trail of computed answers. Nothing is read back from it.
type Recorder interface {
	RecordAverage(q *AverageQuery) error
	RecordCorrelation(q *CorrelationQuery) error
	Close() error
}
