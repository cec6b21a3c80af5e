// Package indicator computes technical indicators over a close-price series.
// All functions return the value for the most recent sample.
package indicator

import "math"

// RSI returns the Relative Strength Index for the last close in the series.
// Gains and losses are averaged with a simple rolling mean over up to
// `window` trailing deltas; partial windows at the head of the series are
// averaged over what exists. When the average loss is zero, RSI is 100 if
// any gain exists and NaN when the series has not moved at all.
func RSI(closes []float64, window int) float64 {
	n := len(closes)
	if n == 0 || window <= 0 {
		return math.NaN()
	}

	// gains[i] and losses[i] correspond to the move into closes[i]; the
	// first sample has no prior close and contributes zero to both.
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	span := window
	if n < span {
		span = n
	}
	var avgGain, avgLoss float64
	for i := n - span; i < n; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(span)
	avgLoss /= float64(span)

	if avgLoss == 0 {
		if avgGain == 0 {
			return math.NaN()
		}
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// SMA returns the simple moving average of the trailing `window` closes, or
// NaN when fewer than `window` samples exist.
func SMA(closes []float64, window int) float64 {
	if window <= 0 || len(closes) < window {
		return math.NaN()
	}
	var sum float64
	for _, c := range closes[len(closes)-window:] {
		sum += c
	}
	return sum / float64(window)
}
