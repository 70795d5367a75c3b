package formulas

import "math"

// DrawdownMetrics represents drawdown analysis results
type DrawdownMetrics struct {
	MaxDrawdown     float64 `json:"max_drawdown"`     // Maximum drawdown as positive fraction (0.25 = 25% off peak)
	CurrentDrawdown float64 `json:"current_drawdown"` // Current drawdown from peak
	PeakValue       float64 `json:"peak_value"`       // Value at peak
	CurrentValue    float64 `json:"current_value"`    // Latest value
}

// CalculateMaxDrawdown calculates the maximum peak-to-trough drawdown of
// a value series. Returns nil with fewer than two points.
func CalculateMaxDrawdown(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}

	maxDrawdown := 0.0
	peak := values[0]

	for _, value := range values {
		if value > peak {
			peak = value
		}
		if peak > 0 {
			drawdown := (peak - value) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return &maxDrawdown
}

// CalculateDrawdownMetrics calculates max and current drawdown together
// with the peak they are measured from.
func CalculateDrawdownMetrics(values []float64) *DrawdownMetrics {
	if len(values) < 2 {
		return nil
	}

	maxDrawdown := 0.0
	peak := values[0]
	current := values[len(values)-1]

	for _, value := range values {
		if value > peak {
			peak = value
		}
		if peak > 0 {
			drawdown := (peak - value) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	currentDrawdown := 0.0
	if peak > 0 {
		currentDrawdown = (peak - current) / peak
	}

	return &DrawdownMetrics{
		MaxDrawdown:     maxDrawdown,
		CurrentDrawdown: currentDrawdown,
		PeakValue:       peak,
		CurrentValue:    current,
	}
}

// CalculateMomentum calculates the percentage change of the series over
// the trailing number of days.
func CalculateMomentum(values []float64, days int) *float64 {
	if len(values) < days+1 {
		return nil
	}

	start := values[len(values)-days-1]
	end := values[len(values)-1]
	if start == 0 {
		return nil
	}

	momentum := (end - start) / start
	return &momentum
}

// CalculateVolatility calculates annualized volatility from a daily
// value series.
func CalculateVolatility(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}

	volatility := AnnualizedVolatility(CalculateReturns(values))
	return &volatility
}

// CalculateUlcerIndex calculates the Ulcer Index over the trailing
// period: the root-mean-square of drawdowns, a depth-and-duration
// downside risk measure.
func CalculateUlcerIndex(values []float64, period int) *float64 {
	if len(values) < period {
		return nil
	}

	window := values[len(values)-period:]

	peak := window[0]
	sumSquaredDrawdowns := 0.0
	for _, value := range window {
		if value > peak {
			peak = value
		}
		if peak > 0 {
			drawdown := (peak - value) / peak
			sumSquaredDrawdowns += drawdown * drawdown
		}
	}

	ulcer := math.Sqrt(sumSquaredDrawdowns / float64(period))
	return &ulcer
}
