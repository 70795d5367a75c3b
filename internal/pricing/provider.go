// Package pricing resolves market prices through an ordered provider
// chain with caching. The chain is total: the terminal synthetic tier
// cannot fail, so Resolve always produces a quote.
package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/DREDGV/crypto-portfolio/internal/domain"
)

// Provider is one price source. Fetch returns domain.ErrProviderUnavailable
// for network/timeout/rate-limit failures and domain.ErrProviderParse for
// unexpected response shapes; no other failure modes escape a provider.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbol string) (*domain.Quote, error)
}

// browser-like UA; some public APIs reject default Go clients
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// pacer enforces a minimum spacing between successive network calls made
// by one provider. Politeness toward rate-limited upstreams, not a
// correctness requirement.
type pacer struct {
	mu      sync.Mutex
	spacing time.Duration
	last    time.Time
}

func newPacer(spacing time.Duration) *pacer {
	return &pacer{spacing: spacing}
}

// wait blocks until the spacing since the previous call has elapsed, or
// the context is done.
func (p *pacer) wait(ctx context.Context) error {
	p.mu.Lock()
	now := time.Now()
	next := p.last.Add(p.spacing)
	if next.Before(now) {
		next = now
	}
	p.last = next
	p.mu.Unlock()

	delay := time.Until(next)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
