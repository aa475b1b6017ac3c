package calculator

import (
	"fmt"
	"math"

	"StockLens/internal/model"
)

// PearsonCorrelation computes the sample (n-1) Pearson coefficient of x and y.
// It returns exactly 0 when either series has zero variance, and never NaN.
func PearsonCorrelation(x, y []float64) (float64, error) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, fmt.Errorf("%w: need two equal-length series of at least 2 values (got %d and %d)",
			model.ErrInsufficientData, len(x), len(y))
	}

	n := float64(len(x))
	meanX, meanY := mean(x), mean(y)

	var covariance, varianceX, varianceY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		covariance += dx * dy
		varianceX += dx * dx
		varianceY += dy * dy
	}

	covariance /= n - 1
	stdDevX := math.Sqrt(varianceX / (n - 1))
	stdDevY := math.Sqrt(varianceY / (n - 1))
	if stdDevX == 0 || stdDevY == 0 {
		return 0, nil
	}
	r := covariance / (stdDevX * stdDevY)
	if math.IsNaN(r) {
		// sums overflow to Inf for extreme magnitudes
		return 0, nil
	}
	// rounding can push |r| a hair past 1
	return math.Max(-1, math.Min(1, r)), nil
}
