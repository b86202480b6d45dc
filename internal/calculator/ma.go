package calculator

import (
	"errors"

	"RegimeWatch/internal/model"
)

// ErrInsufficientData is returned when a series is shorter than the window.
var ErrInsufficientData = errors.New("not enough data for calculation")

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, ErrInsufficientData
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// LastCloseVsMA returns the latest close and its period-bar simple moving average.
func LastCloseVsMA(bars []model.OHLCV, period int) (last, ma float64, err error) {
	closes := ExtractCloses(bars)
	ma, err = CalculateSMA(closes, period)
	if err != nil {
		return 0, 0, err
	}
	return closes[len(closes)-1], ma, nil
}

// ExtractCloses returns the close of every bar.
func ExtractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
