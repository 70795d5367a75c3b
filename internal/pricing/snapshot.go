package pricing

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/DREDGV/crypto-portfolio/internal/domain"
)

// snapshotEntry is the on-disk form of a cached quote. Decimals travel
// as strings so the encoding stays exact.
type snapshotEntry struct {
	Symbol       string    `msgpack:"symbol"`
	Price        string    `msgpack:"price"`
	Change24h    string    `msgpack:"change_24h"`
	ChangePct24h string    `msgpack:"change_pct_24h"`
	Volume       int64     `msgpack:"volume"`
	Currency     string    `msgpack:"currency"`
	Exchange     string    `msgpack:"exchange"`
	Source       string    `msgpack:"source"`
	FetchedAt    time.Time `msgpack:"fetched_at"`
}

// SaveSnapshot persists the quote cache so a restart can warm-start
// inside the freshness window instead of hammering providers.
func (r *Resolver) SaveSnapshot(path string) error {
	r.mu.RLock()
	entries := make([]snapshotEntry, 0, len(r.cache))
	for _, quote := range r.cache {
		entries = append(entries, snapshotEntry{
			Symbol:       quote.Symbol,
			Price:        quote.Price.String(),
			Change24h:    quote.Change24h.String(),
			ChangePct24h: quote.ChangePct24h.String(),
			Volume:       quote.Volume,
			Currency:     quote.Currency,
			Exchange:     quote.Exchange,
			Source:       quote.Source,
			FetchedAt:    quote.FetchedAt,
		})
	}
	r.mu.RUnlock()

	data, err := msgpack.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode cache snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache snapshot: %w", err)
	}

	r.log.Info().Int("quotes", len(entries)).Str("path", path).Msg("Quote cache snapshot saved")
	return nil
}

// LoadSnapshot restores a previously saved cache. Entries already past
// the TTL are skipped; a missing file is not an error.
func (r *Resolver) LoadSnapshot(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache snapshot: %w", err)
	}

	var entries []snapshotEntry
	if err := msgpack.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to decode cache snapshot: %w", err)
	}

	loaded := 0
	now := r.now()
	r.mu.Lock()
	for _, e := range entries {
		if now.Sub(e.FetchedAt) >= r.ttl {
			continue
		}
		price, err := decimal.NewFromString(e.Price)
		if err != nil || !price.IsPositive() {
			continue
		}
		change, _ := decimal.NewFromString(e.Change24h)
		changePct, _ := decimal.NewFromString(e.ChangePct24h)

		r.cache[e.Symbol] = &domain.Quote{
			Symbol:       e.Symbol,
			Price:        price,
			Change24h:    change,
			ChangePct24h: changePct,
			Volume:       e.Volume,
			Currency:     e.Currency,
			Exchange:     e.Exchange,
			Source:       e.Source,
			FetchedAt:    e.FetchedAt,
		}
		loaded++
	}
	r.mu.Unlock()

	r.log.Info().Int("quotes", loaded).Str("path", path).Msg("Quote cache snapshot loaded")
	return nil
}
