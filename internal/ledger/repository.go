// Package ledger is the append-mostly transaction store. It owns
// validation at the write boundary and hands out transactions in
// deterministic replay order for the FIFO allocator.
package ledger

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/DREDGV/crypto-portfolio/internal/domain"
)

// Filter narrows a List call. Zero values mean "no constraint".
type Filter struct {
	Coin     string
	Strategy domain.Strategy
	Type     domain.TxType
	From     time.Time
	To       time.Time
}

// Repository handles transaction database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new transaction repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
	}
}

// Validate checks transaction fields against the ledger contract
func Validate(tx *domain.Transaction) error {
	if strings.TrimSpace(tx.Coin) == "" {
		return domain.NewValidationError("coin", "must not be empty")
	}
	if !tx.Type.Valid() {
		return domain.NewValidationError("type", fmt.Sprintf("unknown variant %q", tx.Type))
	}
	if !tx.Strategy.Valid() {
		return domain.NewValidationError("strategy", fmt.Sprintf("unknown variant %q", tx.Strategy))
	}
	if !tx.Quantity.IsPositive() {
		return domain.NewValidationError("quantity", "must be positive")
	}
	if tx.UnitPrice.IsNegative() {
		return domain.NewValidationError("unit_price", "must not be negative")
	}
	if tx.Timestamp.IsZero() {
		return domain.NewValidationError("timestamp", "must be set")
	}
	return nil
}

// Append validates and stores a new transaction. It assigns an id when
// the caller did not provide one and normalizes the coin symbol.
func (r *Repository) Append(tx *domain.Transaction) error {
	tx.Coin = strings.ToUpper(strings.TrimSpace(tx.Coin))

	if err := Validate(tx); err != nil {
		return err
	}

	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	tx.Revision = 1

	res, err := r.db.Exec(`
		INSERT INTO transactions (id, coin, type, quantity, unit_price, strategy, source, timestamp, notes, revision)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.Coin, string(tx.Type), tx.Quantity.String(), tx.UnitPrice.String(),
		string(tx.Strategy), tx.Source, tx.Timestamp.UTC(), tx.Notes, tx.Revision,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	if seq, err := res.LastInsertId(); err == nil {
		tx.Seq = seq
	}

	r.log.Debug().
		Str("id", tx.ID).
		Str("coin", tx.Coin).
		Str("type", string(tx.Type)).
		Msg("Transaction appended")

	return nil
}

// Update replaces a transaction by identity, bumping its revision.
// Derived lot state must be recomputed by the caller afterwards.
func (r *Repository) Update(tx *domain.Transaction) error {
	tx.Coin = strings.ToUpper(strings.TrimSpace(tx.Coin))

	if err := Validate(tx); err != nil {
		return err
	}

	res, err := r.db.Exec(`
		UPDATE transactions
		SET coin = ?, type = ?, quantity = ?, unit_price = ?, strategy = ?,
		    source = ?, timestamp = ?, notes = ?, revision = revision + 1
		WHERE id = ?`,
		tx.Coin, string(tx.Type), tx.Quantity.String(), tx.UnitPrice.String(),
		string(tx.Strategy), tx.Source, tx.Timestamp.UTC(), tx.Notes, tx.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// Delete removes a transaction by identity
func (r *Repository) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// Get returns a single transaction by id
func (r *Repository) Get(id string) (*domain.Transaction, error) {
	row := r.db.QueryRow(`
		SELECT seq, id, coin, type, quantity, unit_price, strategy, source, timestamp, notes, revision
		FROM transactions WHERE id = ?`, id)

	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// List returns transactions ordered by timestamp ascending, ties broken
// by insertion order. The ordering is what makes FIFO replay deterministic.
func (r *Repository) List(f Filter) ([]domain.Transaction, error) {
	query := `
		SELECT seq, id, coin, type, quantity, unit_price, strategy, source, timestamp, notes, revision
		FROM transactions`

	var conds []string
	var args []interface{}

	if f.Coin != "" {
		conds = append(conds, "coin = ?")
		args = append(args, strings.ToUpper(f.Coin))
	}
	if f.Strategy != "" {
		conds = append(conds, "strategy = ?")
		args = append(args, string(f.Strategy))
	}
	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(f.Type))
	}
	if !f.From.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		conds = append(conds, "timestamp < ?")
		args = append(args, f.To.UTC())
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp ASC, seq ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txs, nil
}

// Coins returns the distinct coin symbols present in the ledger
func (r *Repository) Coins() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT coin FROM transactions ORDER BY coin")
	if err != nil {
		return nil, fmt.Errorf("failed to query coins: %w", err)
	}
	defer rows.Close()

	var coins []string
	for rows.Next() {
		var coin string
		if err := rows.Scan(&coin); err != nil {
			return nil, fmt.Errorf("failed to scan coin: %w", err)
		}
		coins = append(coins, coin)
	}
	return coins, rows.Err()
}

// scanner allows scanTransaction to work with *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var qty, price string

	err := s.Scan(&tx.Seq, &tx.ID, &tx.Coin, &tx.Type, &qty, &price,
		&tx.Strategy, &tx.Source, &tx.Timestamp, &tx.Notes, &tx.Revision)
	if err != nil {
		return nil, err
	}

	if tx.Quantity, err = decimal.NewFromString(qty); err != nil {
		return nil, fmt.Errorf("corrupt quantity %q: %w", qty, err)
	}
	if tx.UnitPrice, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("corrupt unit_price %q: %w", price, err)
	}

	return &tx, nil
}
