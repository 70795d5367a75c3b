package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DaysPerYear is the annualization base. Crypto markets trade every day,
// so 365 rather than the 252 trading days used for equities.
const DaysPerYear = 365

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Variance(data, nil)
}

// AnnualizedVolatility calculates annualized volatility from daily returns
// Formula: Std Dev of Daily Returns x sqrt(365)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(DaysPerYear)
}

// CalculateReturns converts a value series to percentage returns
// Returns[i] = (Value[i] - Value[i-1]) / Value[i-1]
func CalculateReturns(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] != 0 {
			returns[i-1] = (values[i] - values[i-1]) / values[i-1]
		}
	}
	return returns
}

// WinRate returns the share of strictly positive returns in the series,
// or nil when the series is empty.
func WinRate(returns []float64) *float64 {
	if len(returns) == 0 {
		return nil
	}

	wins := 0
	for _, ret := range returns {
		if ret > 0 {
			wins++
		}
	}
	rate := float64(wins) / float64(len(returns))
	return &rate
}

// Correlation calculates the Pearson correlation coefficient between two datasets
func Correlation(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 || len(x) != len(y) {
		return 0
	}
	return stat.Correlation(x, y, nil)
}
