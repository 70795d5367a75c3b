package formulas

import (
	"github.com/markcheno/go-talib"
)

// CalculateRSI calculates the Relative Strength Index of a value series.
//
// RSI = 100 - (100 / (1 + RS)), RS = Average Gain / Average Loss over
// the period. Returns the latest value, or nil with insufficient data.
func CalculateRSI(values []float64, period int) *float64 {
	if len(values) < period+1 {
		return nil
	}

	rsi := talib.Rsi(values, period)

	if len(rsi) > 0 && !isNaN(rsi[len(rsi)-1]) {
		result := rsi[len(rsi)-1]
		return &result
	}
	return nil
}

func isNaN(f float64) bool {
	return f != f
}
