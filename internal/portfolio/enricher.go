package portfolio

import (
	"github.com/rs/zerolog"

	"github.com/DREDGV/crypto-portfolio/internal/domain"
	"github.com/DREDGV/crypto-portfolio/internal/fifo"
)

// Enricher joins allocation buckets with market quotes to produce live
// positions. Positions are derived values: recomputed on demand, never
// persisted.
type Enricher struct {
	log zerolog.Logger
}

// NewEnricher creates a position enricher
func NewEnricher(log zerolog.Logger) *Enricher {
	return &Enricher{log: log.With().Str("component", "enricher").Logger()}
}

// Enrich builds one position per bucket that still holds quantity.
// quotes is keyed by coin symbol; a missing or nil quote leaves the
// market fields unset rather than poisoning them with zeros. The
// resolver's synthetic tier makes that path mostly theoretical.
func (e *Enricher) Enrich(buckets []fifo.BucketResult, quotes map[string]*domain.Quote) []domain.Position {
	var positions []domain.Position

	for i := range buckets {
		bucket := &buckets[i]

		quantity := bucket.OpenQuantity()
		if quantity.IsZero() {
			continue
		}

		pos := domain.Position{
			Coin:        bucket.Coin,
			Strategy:    bucket.Strategy,
			Quantity:    quantity,
			AvgCost:     bucket.AvgCost(),
			RealizedPnL: bucket.RealizedPnL,
		}

		if quote := quotes[bucket.Coin]; quote != nil {
			price := quote.Price
			marketValue := quantity.Mul(price)
			unrealized := marketValue.Sub(quantity.Mul(pos.AvgCost))
			fetchedAt := quote.FetchedAt

			pos.MarketPrice = &price
			pos.MarketValue = &marketValue
			pos.UnrealizedPnL = &unrealized
			pos.PriceSource = quote.Source
			pos.PricedAt = &fetchedAt
		} else {
			e.log.Warn().
				Str("coin", bucket.Coin).
				Str("strategy", string(bucket.Strategy)).
				Msg("No quote available, market fields omitted")
		}

		positions = append(positions, pos)
	}

	return positions
}
