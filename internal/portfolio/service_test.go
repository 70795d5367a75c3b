package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DREDGV/crypto-portfolio/internal/database"
	"github.com/DREDGV/crypto-portfolio/internal/domain"
	"github.com/DREDGV/crypto-portfolio/internal/fifo"
	"github.com/DREDGV/crypto-portfolio/internal/history"
	"github.com/DREDGV/crypto-portfolio/internal/ledger"
	"github.com/DREDGV/crypto-portfolio/internal/pricing"
	"github.com/DREDGV/crypto-portfolio/internal/stats"
)

// testService wires the full pipeline over an in-memory ledger and a
// deterministic synthetic-only resolver.
func testService(t *testing.T) *Service {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	historyStore, err := history.Open(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { historyStore.Close() })

	synthetic := pricing.NewSyntheticProvider("USD", zerolog.Nop())
	synthetic.SetPerturbation(func(string) float64 { return 0 })
	resolver := pricing.NewResolver([]pricing.Provider{synthetic}, time.Minute, time.Second, zerolog.Nop())

	svc := NewService(
		ledger.NewRepository(db.Conn(), zerolog.Nop()),
		resolver,
		historyStore,
		stats.NewAggregator(0.02, zerolog.Nop()),
		zerolog.Nop(),
	)
	return svc
}

func serviceTx(coin string, typ domain.TxType, qty, price string, ts time.Time) *domain.Transaction {
	return &domain.Transaction{
		Coin:      coin,
		Type:      typ,
		Quantity:  decimal.RequireFromString(qty),
		UnitPrice: decimal.RequireFromString(price),
		Strategy:  domain.StrategyLong,
		Timestamp: ts,
	}
}

func TestService_AddAndListPositions(t *testing.T) {
	svc := testService(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.AddTransaction(serviceTx("BTC", domain.TxBuy, "2", "10000", base)))
	require.NoError(t, svc.AddTransaction(serviceTx("BTC", domain.TxBuy, "1", "12000", base.Add(time.Hour))))

	positions, err := svc.ListPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)

	pos := positions[0]
	assert.Equal(t, "BTC", pos.Coin)
	assert.True(t, pos.Quantity.Equal(decimal.NewFromInt(3)))

	// Synthetic quote at zero perturbation prices BTC at its 43000 baseline
	require.NotNil(t, pos.MarketPrice)
	assert.True(t, pos.MarketPrice.Equal(decimal.NewFromInt(43000)))
	require.NotNil(t, pos.MarketValue)
	assert.True(t, pos.MarketValue.Equal(decimal.NewFromInt(129000)))
	require.NotNil(t, pos.UnrealizedPnL)
	// 129000 - (2*10000 + 1*12000)
	assert.True(t, pos.UnrealizedPnL.Equal(decimal.NewFromInt(97000)))
	assert.Equal(t, "synthetic", pos.PriceSource)
}

func TestService_AddRejectsOverdraw(t *testing.T) {
	svc := testService(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.AddTransaction(serviceTx("BTC", domain.TxBuy, "3", "10000", base)))

	err := svc.AddTransaction(serviceTx("BTC", domain.TxSell, "5", "15000", base.Add(time.Hour)))
	var insufficient *domain.InsufficientQuantityError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Shortfall.Equal(decimal.NewFromInt(2)))

	// The rejected sell never reached the ledger
	txs, err := svc.Transactions(ledger.Filter{})
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestService_AddNormalizesCoinBeforeReplay(t *testing.T) {
	svc := testService(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.AddTransaction(serviceTx("BTC", domain.TxBuy, "2", "10000", base)))

	// A lowercase disposal must consume the uppercase lots, not land in
	// a separate empty bucket.
	sell := serviceTx("btc", domain.TxSell, "1", "15000", base.Add(time.Hour))
	require.NoError(t, svc.AddTransaction(sell))
	assert.Equal(t, "BTC", sell.Coin)

	positions, err := svc.ListPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.True(t, positions[0].Quantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, positions[0].RealizedPnL.Equal(decimal.NewFromInt(5000)))
}

func TestService_UpdateNormalizesCoin(t *testing.T) {
	svc := testService(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	buy := serviceTx("BTC", domain.TxBuy, "2", "10000", base)
	require.NoError(t, svc.AddTransaction(buy))

	edited := *buy
	edited.Coin = " btc "
	require.NoError(t, svc.UpdateTransaction(&edited))
	assert.Equal(t, "BTC", edited.Coin)

	got, err := svc.GetTransaction(buy.ID)
	require.NoError(t, err)
	assert.Equal(t, "BTC", got.Coin)
}

func TestService_AddRejectsBackdatedOverdraw(t *testing.T) {
	svc := testService(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.AddTransaction(serviceTx("BTC", domain.TxBuy, "1", "10000", base.Add(48*time.Hour))))

	// Backdated before the only acquisition: replay order puts the sell
	// first, where nothing is held yet.
	err := svc.AddTransaction(serviceTx("BTC", domain.TxSell, "1", "15000", base))
	var insufficient *domain.InsufficientQuantityError
	require.ErrorAs(t, err, &insufficient)
}

func TestService_UpdateRevalidatesLedger(t *testing.T) {
	svc := testService(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	buy := serviceTx("BTC", domain.TxBuy, "5", "10000", base)
	require.NoError(t, svc.AddTransaction(buy))
	require.NoError(t, svc.AddTransaction(serviceTx("BTC", domain.TxSell, "4", "12000", base.Add(time.Hour))))

	// Shrinking the acquisition below the later disposal must fail
	shrunk := *buy
	shrunk.Quantity = decimal.NewFromInt(2)
	err := svc.UpdateTransaction(&shrunk)
	var insufficient *domain.InsufficientQuantityError
	require.ErrorAs(t, err, &insufficient)

	// The stored acquisition is unchanged
	got, err := svc.GetTransaction(buy.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(5)))

	// Shrinking within bounds succeeds
	shrunk.Quantity = decimal.NewFromInt(4)
	require.NoError(t, svc.UpdateTransaction(&shrunk))
}

func TestService_DeleteRevalidatesLedger(t *testing.T) {
	svc := testService(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	buy := serviceTx("BTC", domain.TxBuy, "2", "10000", base)
	require.NoError(t, svc.AddTransaction(buy))
	require.NoError(t, svc.AddTransaction(serviceTx("BTC", domain.TxSell, "1", "12000", base.Add(time.Hour))))

	// The sell depends on the buy; deleting the buy would overdraw
	err := svc.DeleteTransaction(buy.ID)
	var insufficient *domain.InsufficientQuantityError
	require.ErrorAs(t, err, &insufficient)

	got, err := svc.GetTransaction(buy.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestService_DeleteMissing(t *testing.T) {
	svc := testService(t)
	err := svc.DeleteTransaction("no-such-id")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestService_TotalValue(t *testing.T) {
	svc := testService(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.AddTransaction(serviceTx("BTC", domain.TxBuy, "1", "40000", base)))
	require.NoError(t, svc.AddTransaction(serviceTx("ETH", domain.TxBuy, "10", "2000", base)))

	total, err := svc.TotalValue(context.Background())
	require.NoError(t, err)

	// 1*43000 + 10*2300 at baseline synthetic prices
	assert.True(t, total.Equal(decimal.NewFromInt(66000)), "total = %s", total)
}

func TestService_HeldCoinsExcludesClosedPositions(t *testing.T) {
	svc := testService(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.AddTransaction(serviceTx("ETH", domain.TxBuy, "1", "2000", base)))
	require.NoError(t, svc.AddTransaction(serviceTx("BTC", domain.TxBuy, "1", "40000", base)))
	require.NoError(t, svc.AddTransaction(serviceTx("ETH", domain.TxSell, "1", "2500", base.Add(time.Hour))))

	coins, err := svc.HeldCoins()
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC"}, coins, "fully disposed coins are not held")
}

func TestService_GetStats(t *testing.T) {
	svc := testService(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.AddTransaction(serviceTx("BTC", domain.TxBuy, "2", "10000", base)))
	require.NoError(t, svc.AddTransaction(serviceTx("BTC", domain.TxSell, "1", "15000", base.Add(time.Hour))))

	got, err := svc.GetStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, got.PositionCount)
	assert.True(t, got.TotalRealizedPnL.Equal(decimal.NewFromInt(5000)))
	// 1 BTC left at 43000 synthetic baseline, cost basis 10000
	assert.True(t, got.TotalMarketValue.Equal(decimal.NewFromInt(43000)))
	assert.True(t, got.TotalUnrealizedPnL.Equal(decimal.NewFromInt(33000)))
	assert.Nil(t, got.DailyPnL, "series metrics need history samples")
}

func TestService_RecordValuationSnapshot(t *testing.T) {
	svc := testService(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.AddTransaction(serviceTx("BTC", domain.TxBuy, "1", "40000", base)))
	require.NoError(t, svc.RecordValuationSnapshot(context.Background()))

	got, err := svc.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, got.SampleCount)
}

func TestService_SearchSymbols(t *testing.T) {
	svc := testService(t)

	results := svc.SearchSymbols("bitcoin")
	require.Len(t, results, 1)
	assert.Equal(t, "BTC", results[0].Symbol)
}

func TestEnricher_SkipsMissingQuote(t *testing.T) {
	svc := testService(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.AddTransaction(serviceTx("BTC", domain.TxBuy, "1", "40000", base)))

	txs, err := svc.Transactions(ledger.Filter{})
	require.NoError(t, err)

	result, err := fifo.Allocate(txs)
	require.NoError(t, err)

	enricher := NewEnricher(zerolog.Nop())
	positions := enricher.Enrich(result.Buckets, map[string]*domain.Quote{})
	require.Len(t, positions, 1)

	pos := positions[0]
	assert.Nil(t, pos.MarketPrice)
	assert.Nil(t, pos.MarketValue)
	assert.Nil(t, pos.UnrealizedPnL)
	assert.True(t, pos.Quantity.Equal(decimal.NewFromInt(1)), "held quantity is still reported")
}
