package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrTransactionNotFound = errors.New("transaction not found")

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// CategoryLendBorrow is the fixed ledger category for all transactions
// created by the lend/borrow subsystem.
const CategoryLendBorrow = "Lend/Borrow"

// Transaction is an account-balance-affecting record in the external ledger
// subsystem. Lend/borrow records reference it only through Code, a short
// generated identifier; the ledger enforces its uniqueness.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	Code        string          `json:"code"`
	UserID      uuid.UUID       `json:"userId"`
	AccountID   uuid.UUID       `json:"accountId"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Tags        []string        `json:"tags"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// TransactionRepository is the bridge to the ledger store. It persists
// exactly what it is given; description, category, and tag formatting is
// owned by the callers.
type TransactionRepository interface {
	Create(transaction *Transaction) (*Transaction, error)
	UpdateByCode(userID uuid.UUID, code string, transaction *Transaction) (*Transaction, error)
	DeleteByCode(userID uuid.UUID, code string) error
	FindByCode(userID uuid.UUID, code string) (*Transaction, error)
}
