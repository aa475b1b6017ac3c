package calculator

import (
	"fmt"
	"time"

	"StockLens/internal/model"
)

// AlignByNearestTimestamp pairs every sample of a with the price in b whose timestamp is
// closest to it. Ties go to the earliest such sample in b's order. The returned slices are
// index-aligned and always len(a) long.
func AlignByNearestTimestamp(a, b model.PriceSeries) ([]float64, []float64, error) {
	return AlignWithinGap(a, b, 0)
}

// AlignWithinGap is AlignByNearestTimestamp with a cutoff: samples of a whose nearest
// neighbour in b is further than maxGap away are dropped. A non-positive maxGap disables
// the cutoff.
func AlignWithinGap(a, b model.PriceSeries, maxGap time.Duration) ([]float64, []float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, nil, fmt.Errorf("%w: both series need at least one sample (got %d and %d)",
			model.ErrInsufficientData, len(a), len(b))
	}

	pricesA := make([]float64, 0, len(a))
	pricesB := make([]float64, 0, len(a))
	for _, sa := range a {
		price, gap := nearest(sa.ObservedAt, b)
		if maxGap > 0 && gap > maxGap {
			continue
		}
		pricesA = append(pricesA, sa.Price)
		pricesB = append(pricesB, price)
	}

	if len(pricesA) < 2 {
		return nil, nil, fmt.Errorf("%w: %d aligned pairs, need at least 2",
			model.ErrInsufficientData, len(pricesA))
	}
	return pricesA, pricesB, nil
}

// nearest scans all of b for the sample closest to t. Only a strictly smaller distance
// replaces the current best.
func nearest(t time.Time, b model.PriceSeries) (float64, time.Duration) {
	best := b[0].Price
	bestGap := absDuration(t.Sub(b[0].ObservedAt))
	for _, sb := range b[1:] {
		if gap := absDuration(t.Sub(sb.ObservedAt)); gap < bestGap {
			best, bestGap = sb.Price, gap
		}
	}
	return best, bestGap
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
