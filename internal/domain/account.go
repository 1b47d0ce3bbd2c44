package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is a read-only collaborator owned by the accounts subsystem.
// The lend/borrow core uses it to derive currencies and to verify that a
// chosen account can carry a ledger write.
type Account struct {
	ID                uuid.UUID       `json:"id"`
	UserID            uuid.UUID       `json:"userId"`
	Name              string          `json:"name"`
	Currency          string          `json:"currency"`
	CalculatedBalance decimal.Decimal `json:"calculatedBalance"`
	IsActive          bool            `json:"isActive"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

type AccountRepository interface {
	GetByID(userID uuid.UUID, id uuid.UUID) (*Account, error)
	GetAllByUser(userID uuid.UUID) ([]*Account, error)
}
