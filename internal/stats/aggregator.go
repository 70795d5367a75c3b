// Package stats rolls positions and the valuation history into
// portfolio-level metrics. It is a pure reduction: history persistence
// belongs to internal/history, position math to internal/portfolio.
package stats

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/DREDGV/crypto-portfolio/internal/domain"
	"github.com/DREDGV/crypto-portfolio/internal/history"
	"github.com/DREDGV/crypto-portfolio/pkg/formulas"
)

// rsiPeriod is the lookback for the RSI momentum gauge
const rsiPeriod = 14

// momentumDays is the trailing window for the momentum metric
const momentumDays = 7

// PortfolioStats is the aggregate view over all positions
type PortfolioStats struct {
	TotalMarketValue   decimal.Decimal `json:"total_market_value"`
	TotalUnrealizedPnL decimal.Decimal `json:"total_unrealized_pnl"`
	TotalRealizedPnL   decimal.Decimal `json:"total_realized_pnl"`
	PositionCount      int             `json:"position_count"`

	// Series-derived metrics, nil until the history has enough samples
	DailyPnL    *decimal.Decimal `json:"daily_pnl,omitempty"`
	Volatility  *float64         `json:"volatility,omitempty"`
	MaxDrawdown *float64         `json:"max_drawdown,omitempty"`
	WinRate     *float64         `json:"win_rate,omitempty"`
	SharpeRatio *float64         `json:"sharpe_ratio,omitempty"`
	Momentum    *float64         `json:"momentum,omitempty"`
	RSI         *float64         `json:"rsi,omitempty"`
	SampleCount int              `json:"sample_count"`
}

// Aggregator computes portfolio statistics
type Aggregator struct {
	riskFreeRate float64
	log          zerolog.Logger
}

// NewAggregator creates a stats aggregator. riskFreeRate is annual
// (0.02 for 2%) and feeds the Sharpe calculation.
func NewAggregator(riskFreeRate float64, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		riskFreeRate: riskFreeRate,
		log:          log.With().Str("component", "stats").Logger(),
	}
}

// Compute reduces positions, cumulative realized PnL and the valuation
// history into PortfolioStats. Positions without market data contribute
// nothing to the market-value totals.
func (a *Aggregator) Compute(positions []domain.Position, totalRealized decimal.Decimal, samples []history.Sample) PortfolioStats {
	stats := PortfolioStats{
		TotalMarketValue:   decimal.Zero,
		TotalUnrealizedPnL: decimal.Zero,
		TotalRealizedPnL:   totalRealized,
		PositionCount:      len(positions),
		SampleCount:        len(samples),
	}

	for i := range positions {
		pos := &positions[i]
		if pos.MarketValue != nil {
			stats.TotalMarketValue = stats.TotalMarketValue.Add(*pos.MarketValue)
		}
		if pos.UnrealizedPnL != nil {
			stats.TotalUnrealizedPnL = stats.TotalUnrealizedPnL.Add(*pos.UnrealizedPnL)
		}
	}

	a.applySeriesMetrics(&stats, samples)
	return stats
}

// applySeriesMetrics fills the metrics derived from the daily valuation
// series. Exact decimals are only needed for the daily PnL delta; the
// ratio metrics are float math by nature.
func (a *Aggregator) applySeriesMetrics(stats *PortfolioStats, samples []history.Sample) {
	if len(samples) < 2 {
		return
	}

	last := samples[len(samples)-1].TotalValue
	prev := samples[len(samples)-2].TotalValue
	daily := last.Sub(prev)
	stats.DailyPnL = &daily

	values := make([]float64, len(samples))
	for i := range samples {
		values[i], _ = samples[i].TotalValue.Float64()
	}
	returns := formulas.CalculateReturns(values)

	if vol := formulas.AnnualizedVolatility(returns); len(returns) > 0 {
		stats.Volatility = &vol
	}
	stats.MaxDrawdown = formulas.CalculateMaxDrawdown(values)
	stats.WinRate = formulas.WinRate(returns)
	stats.SharpeRatio = formulas.CalculateSharpeRatio(returns, a.riskFreeRate, formulas.DaysPerYear)
	stats.Momentum = formulas.CalculateMomentum(values, momentumDays)
	stats.RSI = formulas.CalculateRSI(values, rsiPeriod)
}
