package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrReturnAmountInvalid    = errors.New("return amount must be positive")
	ErrReturnExceedsRemaining = errors.New("return amount exceeds remaining balance")
	ErrFullSettlementBlocked  = errors.New("full settlement is not allowed once partial returns exist")
)

// ReturnEntry is one partial repayment recorded against a LendBorrowRecord.
// AccountID is set only when this specific payment moved money through an
// account.
type ReturnEntry struct {
	ID           uuid.UUID       `json:"id"`
	LendBorrowID uuid.UUID       `json:"lendBorrowId"`
	Amount       decimal.Decimal `json:"amount"`
	ReturnDate   time.Time       `json:"returnDate"`
	AccountID    *uuid.UUID      `json:"accountId,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// TotalReturned sums the per-entry return history and folds in the legacy
// cumulative field. Entry ordering has no bearing on the sum.
func TotalReturned(record *LendBorrowRecord, returns []*ReturnEntry) decimal.Decimal {
	total := record.PartialReturnAmount
	for _, entry := range returns {
		total = total.Add(entry.Amount)
	}
	return total
}

// RemainingBalance is the principal minus everything returned so far,
// clamped to zero so decision logic never acts on a negative balance.
func RemainingBalance(record *LendBorrowRecord, returns []*ReturnEntry) decimal.Decimal {
	remaining := record.Amount.Sub(TotalReturned(record, returns))
	if remaining.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return remaining
}

// IsFullSettlementAllowed reports whether the one-shot full settlement path
// is still open. Once any partial repayment exists the record must be closed
// out via partials, and an effectively-cleared record cannot be settled
// again.
func IsFullSettlementAllowed(record *LendBorrowRecord, returns []*ReturnEntry) bool {
	if len(returns) > 0 {
		return false
	}
	if record.PartialReturnAmount.GreaterThan(decimal.Zero) {
		return false
	}
	return RemainingBalance(record, returns).GreaterThan(decimal.Zero)
}

type ReturnRepository interface {
	Create(entry *ReturnEntry) (*ReturnEntry, error)
	GetByRecord(lendBorrowID uuid.UUID) ([]*ReturnEntry, error)
	TotalsByUser(userID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}
