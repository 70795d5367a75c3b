package pricing

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/DREDGV/crypto-portfolio/internal/domain"
	"github.com/DREDGV/crypto-portfolio/internal/universe"
)

// maxPerturbation bounds the synthetic price to ±5% of baseline
const maxPerturbation = 0.05

const (
	minSyntheticVolume = 100_000
	maxSyntheticVolume = 10_000_000
)

// SyntheticProvider is the terminal tier of the resolver chain. It never
// fails: unknown symbols fall back to a default baseline, so the chain
// as a whole always returns a quote.
type SyntheticProvider struct {
	mu       sync.Mutex
	rng      *rand.Rand
	perturb  func(symbol string) float64 // test seam; nil means rng-driven
	currency string
	log      zerolog.Logger
}

// NewSyntheticProvider creates the guaranteed-success fallback provider
func NewSyntheticProvider(currency string, log zerolog.Logger) *SyntheticProvider {
	return &SyntheticProvider{
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		currency: currency,
		log:      log.With().Str("provider", "synthetic").Logger(),
	}
}

// SetPerturbation overrides the pseudo-random perturbation with a fixed
// function. Values outside ±5% are clamped. Used by tests.
func (p *SyntheticProvider) SetPerturbation(fn func(symbol string) float64) {
	p.mu.Lock()
	p.perturb = fn
	p.mu.Unlock()
}

// Name implements Provider
func (p *SyntheticProvider) Name() string { return "synthetic" }

// Fetch implements Provider. It cannot return an error.
func (p *SyntheticProvider) Fetch(_ context.Context, symbol string) (*domain.Quote, error) {
	baseline := universe.Baseline(symbol)

	p.mu.Lock()
	var factor float64
	if p.perturb != nil {
		factor = p.perturb(symbol)
	} else {
		factor = (p.rng.Float64()*2 - 1) * maxPerturbation
	}
	volume := minSyntheticVolume + p.rng.Int63n(maxSyntheticVolume-minSyntheticVolume)
	p.mu.Unlock()

	if factor > maxPerturbation {
		factor = maxPerturbation
	}
	if factor < -maxPerturbation {
		factor = -maxPerturbation
	}

	price := decimal.NewFromFloat(baseline * (1 + factor)).Round(2)
	change := price.Sub(decimal.NewFromFloat(baseline)).Round(2)
	changePct := decimal.NewFromFloat(factor * 100).Round(2)

	p.log.Debug().
		Str("symbol", symbol).
		Str("price", price.String()).
		Msg("Serving synthetic quote")

	return &domain.Quote{
		Symbol:       symbol,
		Price:        price,
		Change24h:    change,
		ChangePct24h: changePct,
		Volume:       volume,
		Currency:     p.currency,
		Exchange:     "Synthetic",
		Source:       p.Name(),
		FetchedAt:    time.Now().UTC(),
	}, nil
}
