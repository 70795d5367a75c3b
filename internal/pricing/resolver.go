package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/DREDGV/crypto-portfolio/internal/domain"
)

// Resolver tries providers strictly in priority order and caches the
// first success per symbol. Provider failures are logged and swallowed
// here; they never reach a caller. With a synthetic terminal provider
// the resolver is total.
type Resolver struct {
	providers []Provider
	ttl       time.Duration
	timeout   time.Duration
	log       zerolog.Logger

	mu    sync.RWMutex
	cache map[string]*domain.Quote

	now func() time.Time // injectable for TTL tests
}

// NewResolver creates a resolver over an ordered provider chain. The
// last provider is expected to be infallible (the synthetic tier).
func NewResolver(providers []Provider, ttl, timeout time.Duration, log zerolog.Logger) *Resolver {
	return &Resolver{
		providers: providers,
		ttl:       ttl,
		timeout:   timeout,
		cache:     make(map[string]*domain.Quote),
		log:       log.With().Str("component", "price_resolver").Logger(),
		now:       time.Now,
	}
}

// Resolve returns a quote for the symbol. Within the cache TTL the
// cached quote is returned unchanged (identical FetchedAt); otherwise
// the provider chain runs and the winner replaces the stale entry.
func (r *Resolver) Resolve(ctx context.Context, symbol string) *domain.Quote {
	if quote := r.cached(symbol); quote != nil {
		return quote
	}

	for _, provider := range r.providers {
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		quote, err := provider.Fetch(attemptCtx, symbol)
		cancel()

		if err != nil {
			// Fall through to the next tier; the failure stays local
			r.log.Warn().
				Err(err).
				Str("symbol", symbol).
				Str("provider", provider.Name()).
				Msg("Provider attempt failed")
			continue
		}

		r.store(symbol, quote)
		r.log.Debug().
			Str("symbol", symbol).
			Str("source", quote.Source).
			Str("price", quote.Price.String()).
			Msg("Quote resolved")
		return quote
	}

	// Unreachable with a synthetic terminal provider; kept so a
	// misconfigured chain degrades to a stale quote instead of nil.
	r.log.Error().Str("symbol", symbol).Msg("Every provider failed and no synthetic tier is configured")
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache[symbol]
}

// ResolveAll resolves each symbol independently. Rate limiting is per
// provider (the pacer inside each live provider), so one slow symbol
// does not starve the rest beyond the spacing window.
func (r *Resolver) ResolveAll(ctx context.Context, symbols []string) map[string]*domain.Quote {
	quotes := make(map[string]*domain.Quote, len(symbols))
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			break
		}
		quotes[symbol] = r.Resolve(ctx, symbol)
	}
	return quotes
}

// cached returns the quote for symbol if it is still within the TTL
func (r *Resolver) cached(symbol string) *domain.Quote {
	r.mu.RLock()
	defer r.mu.RUnlock()

	quote, ok := r.cache[symbol]
	if !ok {
		return nil
	}
	if r.now().Sub(quote.FetchedAt) >= r.ttl {
		// Stale entries stay in place until overwritten; they do not
		// block the fresh fetch.
		return nil
	}
	return quote
}

func (r *Resolver) store(symbol string, quote *domain.Quote) {
	r.mu.Lock()
	r.cache[symbol] = quote
	r.mu.Unlock()
}

// CacheSize returns the number of cached symbols
func (r *Resolver) CacheSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}
