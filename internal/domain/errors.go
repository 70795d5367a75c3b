package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrProviderUnavailable is returned by a price provider when the
	// upstream cannot be reached, times out, or answers non-2xx.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderParse is returned by a price provider when the upstream
	// response does not have the expected shape.
	ErrProviderParse = errors.New("provider response parse error")

	// ErrTransactionNotFound is returned when a transaction id is unknown
	ErrTransactionNotFound = errors.New("transaction not found")
)

// ValidationError rejects a transaction at the ledger boundary.
// The transaction is never partially applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid transaction: %s %s", e.Field, e.Reason)
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientQuantityError reports a FIFO disposal that exceeds the open
// quantity of its (coin, strategy) bucket. Lot state is left untouched.
type InsufficientQuantityError struct {
	Coin      string
	Strategy  Strategy
	TxID      string
	Requested decimal.Decimal
	Available decimal.Decimal
	Shortfall decimal.Decimal
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("insufficient quantity for %s/%s: requested %s, available %s (shortfall %s, tx %s)",
		e.Coin, e.Strategy, e.Requested, e.Available, e.Shortfall, e.TxID)
}
