package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxType represents the kind of ledger transaction
type TxType string

const (
	TxBuy         TxType = "buy"
	TxSell        TxType = "sell"
	TxExchangeIn  TxType = "exchange_in"
	TxExchangeOut TxType = "exchange_out"
	TxDeposit     TxType = "deposit"
	TxWithdrawal  TxType = "withdrawal"
)

// IsAcquisition reports whether the transaction type opens a lot
func (t TxType) IsAcquisition() bool {
	return t == TxBuy || t == TxDeposit || t == TxExchangeIn
}

// IsDisposal reports whether the transaction type consumes lots
func (t TxType) IsDisposal() bool {
	return t == TxSell || t == TxWithdrawal || t == TxExchangeOut
}

// Valid reports whether the type is a recognized variant
func (t TxType) Valid() bool {
	return t.IsAcquisition() || t.IsDisposal()
}

// Strategy represents the holding strategy bucket for a transaction
type Strategy string

const (
	StrategyLong  Strategy = "long"
	StrategyMid   Strategy = "mid"
	StrategyShort Strategy = "short"
	StrategyScalp Strategy = "scalp"
)

// Valid reports whether the strategy is a recognized variant
func (s Strategy) Valid() bool {
	switch s {
	case StrategyLong, StrategyMid, StrategyShort, StrategyScalp:
		return true
	}
	return false
}

// Transaction is a single immutable ledger entry. Edits create a new
// revision under the same ID; the ledger keeps only the latest revision.
type Transaction struct {
	ID        string          `json:"id"`
	Coin      string          `json:"coin"`
	Type      TxType          `json:"type"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Strategy  Strategy        `json:"strategy"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Notes     string          `json:"notes,omitempty"`
	Revision  int64           `json:"revision"`
	Seq       int64           `json:"-"` // ledger insertion order, FIFO tie-break
}

// Lot is a slice of acquired quantity awaiting disposal
type Lot struct {
	Coin              string          `json:"coin"`
	Strategy          Strategy        `json:"strategy"`
	QuantityRemaining decimal.Decimal `json:"quantity_remaining"`
	OriginalQuantity  decimal.Decimal `json:"original_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	OpenedAt          time.Time       `json:"opened_at"`
	TxID              string          `json:"tx_id"`
	Seq               int64           `json:"-"`
}

// Retired reports whether the lot is fully consumed
func (l *Lot) Retired() bool {
	return l.QuantityRemaining.IsZero()
}

// Quote is a single price observation from one provider
type Quote struct {
	Symbol       string          `json:"symbol"`
	Price        decimal.Decimal `json:"price"`
	Change24h    decimal.Decimal `json:"change_24h"`
	ChangePct24h decimal.Decimal `json:"change_pct_24h"`
	Volume       int64           `json:"volume"`
	Currency     string          `json:"currency"`
	Exchange     string          `json:"exchange"`
	Source       string          `json:"source"`
	FetchedAt    time.Time       `json:"fetched_at"`
}

// Position is the current holding for one (coin, strategy) bucket.
// Market fields are pointers: nil means no usable quote was available.
type Position struct {
	Coin          string           `json:"coin"`
	Strategy      Strategy         `json:"strategy"`
	Quantity      decimal.Decimal  `json:"quantity"`
	AvgCost       decimal.Decimal  `json:"avg_cost"`
	MarketPrice   *decimal.Decimal `json:"market_price,omitempty"`
	MarketValue   *decimal.Decimal `json:"market_value,omitempty"`
	UnrealizedPnL *decimal.Decimal `json:"unrealized_pnl,omitempty"`
	RealizedPnL   decimal.Decimal  `json:"realized_pnl"`
	PriceSource   string           `json:"price_source,omitempty"`
	PricedAt      *time.Time       `json:"priced_at,omitempty"`
}

// SymbolInfo describes a known symbol for search results
type SymbolInfo struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}
