package postgres

import (
	"context"

	"github.com/ShalConnects/Balanze-sub003/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepository implements domain.TransactionRepository against the
// ledger subsystem's transactions table. Transactions are keyed externally
// by their short code; the table's unique index on code enforces
// uniqueness.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, code, user_id, account_id, type, amount, currency,
	category, description, tags, date, created_at, updated_at`

// Create inserts a ledger transaction exactly as given
func (r *TransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO transactions
			(code, user_id, account_id, type, amount, currency, category, description, tags, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+transactionColumns,
		transaction.Code,
		pgUUID(transaction.UserID),
		pgUUID(transaction.AccountID),
		string(transaction.Type),
		amount,
		transaction.Currency,
		transaction.Category,
		transaction.Description,
		transaction.Tags,
		pgtype.Timestamptz{Time: transaction.Date, Valid: true},
	)
	return scanTransaction(row)
}

// UpdateByCode updates the mutable fields of a transaction identified by code
func (r *TransactionRepository) UpdateByCode(userID uuid.UUID, code string, transaction *domain.Transaction) (*domain.Transaction, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE transactions
		SET account_id = $3, type = $4, amount = $5, currency = $6,
			description = $7, tags = $8, updated_at = now()
		WHERE code = $1 AND user_id = $2
		RETURNING `+transactionColumns,
		code,
		pgUUID(userID),
		pgUUID(transaction.AccountID),
		string(transaction.Type),
		amount,
		transaction.Currency,
		transaction.Description,
		transaction.Tags,
	)
	updated, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return updated, nil
}

// DeleteByCode removes a transaction identified by code
func (r *TransactionRepository) DeleteByCode(userID uuid.UUID, code string) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM transactions WHERE code = $1 AND user_id = $2`,
		code, pgUUID(userID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// FindByCode retrieves a transaction by its code
func (r *TransactionRepository) FindByCode(userID uuid.UUID, code string) (*domain.Transaction, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE code = $1 AND user_id = $2`,
		code, pgUUID(userID))
	transaction, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		id          pgtype.UUID
		userID      pgtype.UUID
		accountID   pgtype.UUID
		txType      string
		amount      pgtype.Numeric
		date        pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
		transaction domain.Transaction
	)
	err := row.Scan(&id, &transaction.Code, &userID, &accountID, &txType, &amount,
		&transaction.Currency, &transaction.Category, &transaction.Description,
		&transaction.Tags, &date, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	transaction.ID = uuid.UUID(id.Bytes)
	transaction.UserID = uuid.UUID(userID.Bytes)
	transaction.AccountID = uuid.UUID(accountID.Bytes)
	transaction.Type = domain.TransactionType(txType)
	transaction.Amount = pgNumericToDecimal(amount)
	transaction.Date = date.Time
	transaction.CreatedAt = createdAt.Time
	transaction.UpdatedAt = updatedAt.Time

	return &transaction, nil
}
