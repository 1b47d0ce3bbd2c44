package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrRecordNotFound      = errors.New("lend/borrow record not found")
	ErrPersonNameEmpty     = errors.New("person name is required")
	ErrPersonNameTooLong   = errors.New("person name must be 200 characters or less")
	ErrRecordAmountInvalid = errors.New("record amount must be positive")
	ErrRecordTypeInvalid   = errors.New("record type must be lend or borrow")
	ErrCurrencyRequired    = errors.New("currency is required")
	ErrCurrencyMismatch    = errors.New("account currency does not match record currency")
	ErrAccountRequired     = errors.New("an account is required for this operation")
	ErrRecordSettled       = errors.New("record is already settled")
)

type RecordType string

const (
	RecordTypeLend   RecordType = "lend"
	RecordTypeBorrow RecordType = "borrow"
)

type RecordStatus string

const (
	RecordStatusActive  RecordStatus = "active"
	RecordStatusOverdue RecordStatus = "overdue"
	RecordStatusSettled RecordStatus = "settled"
)

// DefaultDueDays is how far out the due date defaults when none is given.
const DefaultDueDays = 7

// LendBorrowRecord tracks money lent to or borrowed from a third party.
// PartialReturnAmount is a legacy cumulative field predating per-entry
// return history; it must be folded into every remaining-balance
// computation alongside the ReturnEntry rows.
type LendBorrowRecord struct {
	ID                   uuid.UUID       `json:"id"`
	UserID               uuid.UUID       `json:"userId"`
	Type                 RecordType      `json:"type"`
	PersonName           string          `json:"personName"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	DueDate              time.Time       `json:"dueDate"`
	Status               RecordStatus    `json:"status"`
	AccountID            *uuid.UUID      `json:"accountId,omitempty"`
	AffectAccountBalance bool            `json:"affectAccountBalance"`
	TransactionID        *string         `json:"transactionId,omitempty"`
	PartialReturnAmount  decimal.Decimal `json:"partialReturnAmount"`
	PartialReturnDate    *time.Time      `json:"partialReturnDate,omitempty"`
	Notes                *string         `json:"notes,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

func (r *LendBorrowRecord) Validate() error {
	if r.PersonName == "" {
		return ErrPersonNameEmpty
	}
	if len(r.PersonName) > 200 {
		return ErrPersonNameTooLong
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrRecordAmountInvalid
	}
	if r.Type != RecordTypeLend && r.Type != RecordTypeBorrow {
		return ErrRecordTypeInvalid
	}
	if r.AffectAccountBalance && r.AccountID == nil {
		return ErrAccountRequired
	}
	if !r.AffectAccountBalance && r.Currency == "" {
		return ErrCurrencyRequired
	}
	return nil
}

// IsSettled returns true once the record has reached its terminal status.
func (r *LendBorrowRecord) IsSettled() bool {
	return r.Status == RecordStatusSettled
}

// IsOverdue returns true if an unsettled record's due date has passed.
// Comparison is date-only; a record is not overdue on its due date.
func (r *LendBorrowRecord) IsOverdue(now time.Time) bool {
	if r.Status == RecordStatusSettled {
		return false
	}
	due := time.Date(r.DueDate.Year(), r.DueDate.Month(), r.DueDate.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return due.Before(today)
}

// MarkSettledIfCleared transitions the record to settled when the remaining
// balance has been fully repaid. It reports whether a transition happened,
// so the same boundary-crossing write never settles twice.
func (r *LendBorrowRecord) MarkSettledIfCleared(remaining decimal.Decimal) bool {
	if r.Status == RecordStatusSettled {
		return false
	}
	if remaining.GreaterThan(decimal.Zero) {
		return false
	}
	r.Status = RecordStatusSettled
	return true
}

type RecordRepository interface {
	Create(record *LendBorrowRecord) (*LendBorrowRecord, error)
	GetByID(userID uuid.UUID, id uuid.UUID) (*LendBorrowRecord, error)
	GetAllByUser(userID uuid.UUID) ([]*LendBorrowRecord, error)
	Update(record *LendBorrowRecord) (*LendBorrowRecord, error)
	Delete(userID uuid.UUID, id uuid.UUID) error
	MarkOverdue(userID uuid.UUID, before time.Time) (int64, error)
}
