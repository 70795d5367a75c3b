package stats

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DREDGV/crypto-portfolio/internal/domain"
	"github.com/DREDGV/crypto-portfolio/internal/history"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pricedPosition(coin string, marketValue, unrealized string) domain.Position {
	mv := dec(marketValue)
	u := dec(unrealized)
	return domain.Position{
		Coin:          coin,
		Strategy:      domain.StrategyLong,
		Quantity:      decimal.NewFromInt(1),
		MarketValue:   &mv,
		UnrealizedPnL: &u,
	}
}

func samplesFrom(values ...string) []history.Sample {
	samples := make([]history.Sample, len(values))
	for i, v := range values {
		samples[i] = history.Sample{Date: "2024-03-01", TotalValue: dec(v)}
	}
	return samples
}

func TestAggregator_ComputeTotals(t *testing.T) {
	agg := NewAggregator(0.02, zerolog.Nop())

	positions := []domain.Position{
		pricedPosition("BTC", "43000", "3000"),
		pricedPosition("ETH", "23000", "-500"),
	}

	got := agg.Compute(positions, dec("1500"), nil)

	assert.Equal(t, 2, got.PositionCount)
	assert.True(t, got.TotalMarketValue.Equal(dec("66000")))
	assert.True(t, got.TotalUnrealizedPnL.Equal(dec("2500")))
	assert.True(t, got.TotalRealizedPnL.Equal(dec("1500")))
	assert.Equal(t, 0, got.SampleCount)
}

func TestAggregator_UnpricedPositionsContributeNothing(t *testing.T) {
	agg := NewAggregator(0.02, zerolog.Nop())

	unpriced := domain.Position{
		Coin:     "BTC",
		Strategy: domain.StrategyLong,
		Quantity: decimal.NewFromInt(1),
	}

	got := agg.Compute([]domain.Position{unpriced}, decimal.Zero, nil)

	assert.Equal(t, 1, got.PositionCount)
	assert.True(t, got.TotalMarketValue.IsZero())
	assert.True(t, got.TotalUnrealizedPnL.IsZero())
}

func TestAggregator_SeriesMetricsNeedTwoSamples(t *testing.T) {
	agg := NewAggregator(0.02, zerolog.Nop())

	got := agg.Compute(nil, decimal.Zero, samplesFrom("1000"))

	assert.Equal(t, 1, got.SampleCount)
	assert.Nil(t, got.DailyPnL)
	assert.Nil(t, got.Volatility)
	assert.Nil(t, got.MaxDrawdown)
	assert.Nil(t, got.WinRate)
}

func TestAggregator_DailyPnL(t *testing.T) {
	agg := NewAggregator(0.02, zerolog.Nop())

	got := agg.Compute(nil, decimal.Zero, samplesFrom("1000", "1100", "1050"))

	require.NotNil(t, got.DailyPnL)
	assert.True(t, got.DailyPnL.Equal(dec("-50")), "daily pnl = %s", got.DailyPnL)
}

func TestAggregator_SeriesMetrics(t *testing.T) {
	agg := NewAggregator(0.02, zerolog.Nop())

	got := agg.Compute(nil, decimal.Zero, samplesFrom("1000", "1100", "990", "1080"))

	require.NotNil(t, got.Volatility)
	assert.Greater(t, *got.Volatility, 0.0)

	require.NotNil(t, got.MaxDrawdown)
	// Peak 1100, trough 990
	assert.InDelta(t, 0.10, *got.MaxDrawdown, 1e-9)

	require.NotNil(t, got.WinRate)
	// Two of three daily moves are up
	assert.InDelta(t, 2.0/3.0, *got.WinRate, 1e-9)

	require.NotNil(t, got.SharpeRatio)

	// Momentum needs 8 samples and RSI needs 15, this series is too short
	assert.Nil(t, got.Momentum)
	assert.Nil(t, got.RSI)
	assert.Equal(t, 4, got.SampleCount)
}

func TestAggregator_Momentum(t *testing.T) {
	agg := NewAggregator(0.02, zerolog.Nop())

	// Flat week, then +10% on the last day: trailing-7 momentum is 10%
	got := agg.Compute(nil, decimal.Zero, samplesFrom(
		"1000", "1000", "1000", "1000", "1000", "1000", "1000", "1100",
	))

	require.NotNil(t, got.Momentum)
	assert.InDelta(t, 0.10, *got.Momentum, 1e-9)
}
