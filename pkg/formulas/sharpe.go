package formulas

import (
	"math"
)

// CalculateSharpeRatio calculates the Sharpe ratio of a return series.
//
// Sharpe = (Mean Return - Periodic Risk-free Rate) / Std Dev of Returns,
// annualized by sqrt(periodsPerYear).
//
// riskFreeRate is annual (0.02 for 2%); periodsPerYear is 365 for daily
// crypto data. Returns nil when the series is too short or flat.
func CalculateSharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) *float64 {
	if len(returns) < 2 {
		return nil
	}

	meanReturn := Mean(returns)

	stdDev := StdDev(returns)
	if stdDev == 0 {
		return nil
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)

	sharpe := (meanReturn - periodicRiskFree) / stdDev
	annualized := sharpe * math.Sqrt(float64(periodsPerYear))

	return &annualized
}

// CalculateSharpeFromValues computes the Sharpe ratio directly from a
// daily portfolio value series.
func CalculateSharpeFromValues(values []float64, riskFreeRate float64) *float64 {
	if len(values) < 2 {
		return nil
	}
	return CalculateSharpeRatio(CalculateReturns(values), riskFreeRate, DaysPerYear)
}

// CalculateSortinoRatio calculates the Sortino ratio, the downside-only
// variant of Sharpe: volatility counts only returns below the minimum
// acceptable return.
func CalculateSortinoRatio(returns []float64, riskFreeRate, targetReturn float64, periodsPerYear int) *float64 {
	if len(returns) < 2 {
		return nil
	}

	meanReturn := Mean(returns)
	periodicMAR := targetReturn / float64(periodsPerYear)

	var downsideSquaredSum float64
	downsideCount := 0
	for _, ret := range returns {
		if ret < periodicMAR {
			deviation := ret - periodicMAR
			downsideSquaredSum += deviation * deviation
			downsideCount++
		}
	}
	if downsideCount == 0 {
		return nil
	}

	downsideDeviation := math.Sqrt(downsideSquaredSum / float64(downsideCount))
	if downsideDeviation == 0 {
		return nil
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)

	sortino := (meanReturn - periodicRiskFree) / downsideDeviation
	annualized := sortino * math.Sqrt(float64(periodsPerYear))

	return &annualized
}
