// Package fifo implements the FIFO cost-basis engine. It reduces a
// time-ordered transaction stream into open lots and realized PnL,
// bucketed by (coin, strategy).
//
// The fold is pure and deterministic: the same transaction sequence
// always produces identical lots and PnL. Nothing here touches the
// clock, randomness, or I/O.
package fifo

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DREDGV/crypto-portfolio/internal/domain"
)

// RealizedEvent records one partial or full lot consumption by a disposal
type RealizedEvent struct {
	TxID          string          `json:"tx_id"`
	LotTxID       string          `json:"lot_tx_id"`
	Coin          string          `json:"coin"`
	Strategy      domain.Strategy `json:"strategy"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	DisposalPrice decimal.Decimal `json:"disposal_price"`
	PnL           decimal.Decimal `json:"pnl"`
	Timestamp     time.Time       `json:"timestamp"`
}

// BucketResult holds the allocation outcome for one (coin, strategy) bucket
type BucketResult struct {
	Coin        string          `json:"coin"`
	Strategy    domain.Strategy `json:"strategy"`
	OpenLots    []domain.Lot    `json:"open_lots"`
	RetiredLots []domain.Lot    `json:"retired_lots"`
	RealizedPnL decimal.Decimal `json:"realized_pnl"`
	Events      []RealizedEvent `json:"events"`
}

// OpenQuantity returns the total quantity remaining across open lots
func (b *BucketResult) OpenQuantity() decimal.Decimal {
	total := decimal.Zero
	for i := range b.OpenLots {
		total = total.Add(b.OpenLots[i].QuantityRemaining)
	}
	return total
}

// AvgCost returns the open-lot weighted average unit cost, zero when flat
func (b *BucketResult) AvgCost() decimal.Decimal {
	qty := b.OpenQuantity()
	if qty.IsZero() {
		return decimal.Zero
	}
	cost := decimal.Zero
	for i := range b.OpenLots {
		cost = cost.Add(b.OpenLots[i].QuantityRemaining.Mul(b.OpenLots[i].UnitCost))
	}
	return cost.Div(qty)
}

// Result is a full allocation over the ledger
type Result struct {
	Buckets          []BucketResult  `json:"buckets"`
	TotalRealizedPnL decimal.Decimal `json:"total_realized_pnl"`
	Events           []RealizedEvent `json:"events"`
}

// Bucket returns the result for one (coin, strategy) pair, nil if absent
func (r *Result) Bucket(coin string, strategy domain.Strategy) *BucketResult {
	for i := range r.Buckets {
		if r.Buckets[i].Coin == coin && r.Buckets[i].Strategy == strategy {
			return &r.Buckets[i]
		}
	}
	return nil
}

type bucketKey struct {
	coin     string
	strategy domain.Strategy
}

// bucketState carries lots in FIFO order during the fold. Acquisitions
// arrive in ledger order, so append order is oldest-first.
type bucketState struct {
	open    []domain.Lot
	retired []domain.Lot
	pnl     decimal.Decimal
	events  []RealizedEvent
}

func (s *bucketState) openQuantity() decimal.Decimal {
	total := decimal.Zero
	for i := range s.open {
		total = total.Add(s.open[i].QuantityRemaining)
	}
	return total
}

// Allocate folds the transaction sequence into per-bucket lots and
// realized PnL. Transactions must already be in ledger order (timestamp
// ascending, insertion order on ties), which the ledger's List guarantees.
//
// Allocation is atomic: a disposal exceeding the open quantity of its
// bucket fails the whole call with *domain.InsufficientQuantityError and
// no partial result is returned. Clamping would silently corrupt the
// realized-PnL accounting.
func Allocate(txs []domain.Transaction) (*Result, error) {
	states := make(map[bucketKey]*bucketState)

	for i := range txs {
		tx := &txs[i]
		key := bucketKey{coin: tx.Coin, strategy: tx.Strategy}
		state := states[key]
		if state == nil {
			state = &bucketState{pnl: decimal.Zero}
			states[key] = state
		}

		switch {
		case tx.Type.IsAcquisition():
			state.open = append(state.open, domain.Lot{
				Coin:              tx.Coin,
				Strategy:          tx.Strategy,
				QuantityRemaining: tx.Quantity,
				OriginalQuantity:  tx.Quantity,
				UnitCost:          tx.UnitPrice,
				OpenedAt:          tx.Timestamp,
				TxID:              tx.ID,
				Seq:               tx.Seq,
			})

		case tx.Type.IsDisposal():
			if err := consume(state, tx); err != nil {
				return nil, err
			}
		}
	}

	return buildResult(states), nil
}

// consume walks open lots oldest-first, taking min(remaining, lot) from
// each until the disposal is exhausted. Each consumption emits a
// realized-PnL event against that lot's cost basis.
func consume(state *bucketState, tx *domain.Transaction) error {
	available := state.openQuantity()
	if available.LessThan(tx.Quantity) {
		return &domain.InsufficientQuantityError{
			Coin:      tx.Coin,
			Strategy:  tx.Strategy,
			TxID:      tx.ID,
			Requested: tx.Quantity,
			Available: available,
			Shortfall: tx.Quantity.Sub(available),
		}
	}

	remaining := tx.Quantity
	consumedUpTo := 0

	for i := range state.open {
		if remaining.IsZero() {
			break
		}
		lot := &state.open[i]

		consumed := decimal.Min(remaining, lot.QuantityRemaining)
		lot.QuantityRemaining = lot.QuantityRemaining.Sub(consumed)
		remaining = remaining.Sub(consumed)

		state.events = append(state.events, RealizedEvent{
			TxID:          tx.ID,
			LotTxID:       lot.TxID,
			Coin:          tx.Coin,
			Strategy:      tx.Strategy,
			Quantity:      consumed,
			UnitCost:      lot.UnitCost,
			DisposalPrice: tx.UnitPrice,
			PnL:           tx.UnitPrice.Sub(lot.UnitCost).Mul(consumed),
			Timestamp:     tx.Timestamp,
		})
		state.pnl = state.pnl.Add(tx.UnitPrice.Sub(lot.UnitCost).Mul(consumed))

		if lot.Retired() {
			consumedUpTo = i + 1
		}
	}

	// Move fully consumed lots to the retired list, keeping them for audit
	if consumedUpTo > 0 {
		state.retired = append(state.retired, state.open[:consumedUpTo]...)
		state.open = state.open[consumedUpTo:]
	}

	return nil
}

// buildResult flattens the fold state into a deterministically ordered
// result: buckets sorted by (coin, strategy), events in ledger order.
func buildResult(states map[bucketKey]*bucketState) *Result {
	keys := make([]bucketKey, 0, len(states))
	for key := range states {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].coin != keys[j].coin {
			return keys[i].coin < keys[j].coin
		}
		return keys[i].strategy < keys[j].strategy
	})

	result := &Result{TotalRealizedPnL: decimal.Zero}
	for _, key := range keys {
		state := states[key]

		open := make([]domain.Lot, 0, len(state.open))
		for i := range state.open {
			if !state.open[i].Retired() {
				open = append(open, state.open[i])
			}
		}

		result.Buckets = append(result.Buckets, BucketResult{
			Coin:        key.coin,
			Strategy:    key.strategy,
			OpenLots:    open,
			RetiredLots: state.retired,
			RealizedPnL: state.pnl,
			Events:      state.events,
		})
		result.TotalRealizedPnL = result.TotalRealizedPnL.Add(state.pnl)
		result.Events = append(result.Events, state.events...)
	}

	// Cross-bucket event list in chronological order, stable on ties
	sort.SliceStable(result.Events, func(i, j int) bool {
		return result.Events[i].Timestamp.Before(result.Events[j].Timestamp)
	})

	return result
}
