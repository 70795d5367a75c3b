// Package history stores daily portfolio valuation samples. The stats
// aggregator reduces this series into volatility, drawdown, win rate and
// Sharpe; persistence lives here, the math lives in internal/stats.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Sample is one (date, total portfolio value) observation
type Sample struct {
	Date       string          `json:"date"` // YYYY-MM-DD
	TotalValue decimal.Decimal `json:"total_value"`
}

// Store provides access to the valuation history database
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the valuation history database inside dir
func Open(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	path := filepath.Join(dir, "valuations.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS valuation_history (
		date        TEXT PRIMARY KEY,
		total_value TEXT NOT NULL,
		created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{
		db:  db,
		log: log.With().Str("component", "history_store").Logger(),
	}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordSnapshot upserts the valuation for a date. Re-running the daily
// snapshot job on the same date overwrites, keeping one sample per day.
func (s *Store) RecordSnapshot(date time.Time, totalValue decimal.Decimal) error {
	day := date.UTC().Format("2006-01-02")

	_, err := s.db.Exec(`
		INSERT INTO valuation_history (date, total_value) VALUES (?, ?)
		ON CONFLICT(date) DO UPDATE SET total_value = excluded.total_value`,
		day, totalValue.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to record valuation snapshot: %w", err)
	}

	s.log.Debug().Str("date", day).Str("total_value", totalValue.String()).Msg("Valuation snapshot recorded")
	return nil
}

// Samples returns up to limit most recent samples in date-ascending
// order. limit <= 0 returns the full series.
func (s *Store) Samples(limit int) ([]Sample, error) {
	query := `
		SELECT date, total_value FROM (
			SELECT date, total_value FROM valuation_history ORDER BY date DESC %s
		) ORDER BY date ASC`

	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(fmt.Sprintf(query, "LIMIT ?"), limit)
	} else {
		rows, err = s.db.Query(fmt.Sprintf(query, ""))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query valuation history: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var sample Sample
		var value string
		if err := rows.Scan(&sample.Date, &value); err != nil {
			return nil, fmt.Errorf("failed to scan valuation sample: %w", err)
		}
		if sample.TotalValue, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("corrupt total_value %q: %w", value, err)
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}
