package calculator

import (
	"math"

	"StockLens/internal/model"
)

// Average returns the arithmetic mean of the sample prices, or 0 for an empty series.
func Average(series model.PriceSeries) float64 {
	return mean(series.Prices())
}

// StdDev returns the population standard deviation of prices, or 0 when there are none.
func StdDev(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	m := mean(prices)
	sum := 0.0
	for _, p := range prices {
		sum += (p - m) * (p - m)
	}
	return math.Sqrt(sum / float64(len(prices)))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
