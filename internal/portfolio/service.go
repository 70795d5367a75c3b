package portfolio

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/DREDGV/crypto-portfolio/internal/domain"
	"github.com/DREDGV/crypto-portfolio/internal/fifo"
	"github.com/DREDGV/crypto-portfolio/internal/history"
	"github.com/DREDGV/crypto-portfolio/internal/ledger"
	"github.com/DREDGV/crypto-portfolio/internal/pricing"
	"github.com/DREDGV/crypto-portfolio/internal/stats"
	"github.com/DREDGV/crypto-portfolio/internal/universe"
)

// Service orchestrates the valuation pipeline: ledger -> allocator ->
// enricher, with the price resolver supplying quotes and the stats
// aggregator reducing the result.
//
// Ledger mutations are serialized through a single mutex: the ledger is
// single-writer, and every mutation is pre-validated against a full FIFO
// replay so a disposal that would overdraw a bucket never reaches disk.
type Service struct {
	ledger   *ledger.Repository
	resolver *pricing.Resolver
	enricher *Enricher
	history  *history.Store
	agg      *stats.Aggregator
	log      zerolog.Logger

	writeMu sync.Mutex
}

// NewService creates the portfolio service
func NewService(
	ledgerRepo *ledger.Repository,
	resolver *pricing.Resolver,
	historyStore *history.Store,
	aggregator *stats.Aggregator,
	log zerolog.Logger,
) *Service {
	return &Service{
		ledger:   ledgerRepo,
		resolver: resolver,
		enricher: NewEnricher(log),
		history:  historyStore,
		agg:      aggregator,
		log:      log.With().Str("service", "portfolio").Logger(),
	}
}

// AddTransaction validates and stores a transaction. The candidate is
// replayed against the existing ledger first; an overdrawing disposal
// fails with InsufficientQuantityError and nothing is persisted.
func (s *Service) AddTransaction(tx *domain.Transaction) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// Normalize before the replay so the candidate lands in the same
	// bucket as the stored uppercase lots
	tx.Coin = strings.ToUpper(strings.TrimSpace(tx.Coin))

	if err := ledger.Validate(tx); err != nil {
		return err
	}

	txs, err := s.ledger.List(ledger.Filter{})
	if err != nil {
		return err
	}

	candidate := *tx
	candidate.Seq = maxSeq(txs) + 1
	if err := replay(append(txs, candidate)); err != nil {
		return err
	}

	return s.ledger.Append(tx)
}

// UpdateTransaction replaces a transaction by identity after replaying
// the edited ledger.
func (s *Service) UpdateTransaction(tx *domain.Transaction) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx.Coin = strings.ToUpper(strings.TrimSpace(tx.Coin))

	if err := ledger.Validate(tx); err != nil {
		return err
	}

	current, err := s.ledger.Get(tx.ID)
	if err != nil {
		return err
	}

	txs, err := s.ledger.List(ledger.Filter{})
	if err != nil {
		return err
	}

	edited := make([]domain.Transaction, 0, len(txs))
	for i := range txs {
		if txs[i].ID == tx.ID {
			next := *tx
			next.Seq = current.Seq
			edited = append(edited, next)
		} else {
			edited = append(edited, txs[i])
		}
	}
	if err := replay(edited); err != nil {
		return err
	}

	return s.ledger.Update(tx)
}

// DeleteTransaction removes a transaction by identity after replaying
// the remaining ledger. Deleting an acquisition that later disposals
// depend on fails with InsufficientQuantityError.
func (s *Service) DeleteTransaction(id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.ledger.Get(id); err != nil {
		return err
	}

	txs, err := s.ledger.List(ledger.Filter{})
	if err != nil {
		return err
	}

	remaining := make([]domain.Transaction, 0, len(txs))
	for i := range txs {
		if txs[i].ID != id {
			remaining = append(remaining, txs[i])
		}
	}
	if err := replay(remaining); err != nil {
		return err
	}

	return s.ledger.Delete(id)
}

// Transactions lists ledger entries in replay order
func (s *Service) Transactions(f ledger.Filter) ([]domain.Transaction, error) {
	return s.ledger.List(f)
}

// GetTransaction returns one transaction by id
func (s *Service) GetTransaction(id string) (*domain.Transaction, error) {
	return s.ledger.Get(id)
}

// ListPositions rebuilds positions from a full ledger replay and prices
// them with the resolver. Derived state is never cached between calls.
func (s *Service) ListPositions(ctx context.Context) ([]domain.Position, error) {
	result, err := s.allocate()
	if err != nil {
		return nil, err
	}

	quotes := s.resolver.ResolveAll(ctx, heldCoins(result))
	return s.enricher.Enrich(result.Buckets, quotes), nil
}

// GetStats aggregates positions, cumulative realized PnL and the
// valuation history into portfolio statistics.
func (s *Service) GetStats(ctx context.Context) (stats.PortfolioStats, error) {
	result, err := s.allocate()
	if err != nil {
		return stats.PortfolioStats{}, err
	}

	quotes := s.resolver.ResolveAll(ctx, heldCoins(result))
	positions := s.enricher.Enrich(result.Buckets, quotes)

	samples, err := s.history.Samples(0)
	if err != nil {
		return stats.PortfolioStats{}, err
	}

	return s.agg.Compute(positions, result.TotalRealizedPnL, samples), nil
}

// TotalValue prices the open positions and returns the portfolio market
// value. Used by the daily snapshot job.
func (s *Service) TotalValue(ctx context.Context) (decimal.Decimal, error) {
	result, err := s.allocate()
	if err != nil {
		return decimal.Zero, err
	}

	quotes := s.resolver.ResolveAll(ctx, heldCoins(result))
	positions := s.enricher.Enrich(result.Buckets, quotes)

	total := decimal.Zero
	for i := range positions {
		if positions[i].MarketValue != nil {
			total = total.Add(*positions[i].MarketValue)
		}
	}
	return total, nil
}

// RecordValuationSnapshot stores today's portfolio value in the history
func (s *Service) RecordValuationSnapshot(ctx context.Context) error {
	total, err := s.TotalValue(ctx)
	if err != nil {
		return err
	}
	return s.history.RecordSnapshot(time.Now().UTC(), total)
}

// HeldCoins returns the distinct coins with open quantity
func (s *Service) HeldCoins() ([]string, error) {
	result, err := s.allocate()
	if err != nil {
		return nil, err
	}
	return heldCoins(result), nil
}

// GetQuote resolves a single symbol through the provider chain
func (s *Service) GetQuote(ctx context.Context, symbol string) *domain.Quote {
	return s.resolver.Resolve(ctx, symbol)
}

// SearchSymbols performs a case-insensitive catalog search, capped at
// ten results.
func (s *Service) SearchSymbols(query string) []domain.SymbolInfo {
	return universe.Search(query)
}

func (s *Service) allocate() (*fifo.Result, error) {
	txs, err := s.ledger.List(ledger.Filter{})
	if err != nil {
		return nil, err
	}
	return fifo.Allocate(txs)
}

// replay runs a full allocation over a candidate ledger, restoring
// replay order first since edits may move timestamps.
func replay(txs []domain.Transaction) error {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Timestamp.Equal(txs[j].Timestamp) {
			return txs[i].Timestamp.Before(txs[j].Timestamp)
		}
		return txs[i].Seq < txs[j].Seq
	})
	_, err := fifo.Allocate(txs)
	return err
}

func maxSeq(txs []domain.Transaction) int64 {
	var max int64
	for i := range txs {
		if txs[i].Seq > max {
			max = txs[i].Seq
		}
	}
	return max
}

func heldCoins(result *fifo.Result) []string {
	seen := make(map[string]bool)
	var coins []string
	for i := range result.Buckets {
		bucket := &result.Buckets[i]
		if bucket.OpenQuantity().IsZero() || seen[bucket.Coin] {
			continue
		}
		seen[bucket.Coin] = true
		coins = append(coins, bucket.Coin)
	}
	sort.Strings(coins)
	return coins
}
