package calculator

import (
	"errors"
	"math"

	"RegimeWatch/internal/model"
)

// RangeWindow is the rolling window, in trading days, for the from-high and
// from-low alerts (about one quarter).
const RangeWindow = 63

// rollingExtremes scans the last window closes and returns the max and min.
func rollingExtremes(closes []float64, window int) (high, low float64, err error) {
	if window <= 0 {
		return 0, 0, errors.New("window must be positive")
	}
	n := len(closes)
	if n < window {
		return 0, 0, ErrInsufficientData
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := n - window; i < n; i++ {
		if closes[i] > high {
			high = closes[i]
		}
		if closes[i] < low {
			low = closes[i]
		}
	}
	return high, low, nil
}

// PctFromHigh returns how far the last close sits below the rolling max
// close, in percent (0 at the high, negative below it).
func PctFromHigh(bars []model.OHLCV, window int) (float64, error) {
	closes := ExtractCloses(bars)
	high, _, err := rollingExtremes(closes, window)
	if err != nil {
		return 0, err
	}
	if high == 0 {
		return 0, errors.New("rolling high is zero")
	}
	return (closes[len(closes)-1]/high - 1) * 100, nil
}

// PctFromLow returns how far the last close sits above the rolling min
// close, in percent (0 at the low, positive above it).
func PctFromLow(bars []model.OHLCV, window int) (float64, error) {
	closes := ExtractCloses(bars)
	_, low, err := rollingExtremes(closes, window)
	if err != nil {
		return 0, err
	}
	if low == 0 {
		return 0, errors.New("rolling low is zero")
	}
	return (closes[len(closes)-1]/low - 1) * 100, nil
}

// LastClose returns the close of the final bar.
func LastClose(bars []model.OHLCV) (float64, error) {
	if len(bars) == 0 {
		return 0, ErrInsufficientData
	}
	return bars[len(bars)-1].Close, nil
}
