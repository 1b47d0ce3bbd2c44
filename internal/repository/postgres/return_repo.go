package postgres

import (
	"context"

	"github.com/ShalConnects/Balanze-sub003/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ReturnRepository implements domain.ReturnRepository using PostgreSQL
type ReturnRepository struct {
	pool *pgxpool.Pool
}

// NewReturnRepository creates a new ReturnRepository
func NewReturnRepository(pool *pgxpool.Pool) *ReturnRepository {
	return &ReturnRepository{pool: pool}
}

const returnColumns = `id, lend_borrow_id, amount, return_date, account_id, created_at`

// Create appends a return entry to a record's history
func (r *ReturnRepository) Create(entry *domain.ReturnEntry) (*domain.ReturnEntry, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(entry.Amount)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO lend_borrow_returns (lend_borrow_id, amount, return_date, account_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+returnColumns,
		pgUUID(entry.LendBorrowID),
		amount,
		pgtype.Date{Time: entry.ReturnDate, Valid: true},
		pgUUIDPtr(entry.AccountID),
	)
	return scanReturnEntry(row)
}

// GetByRecord retrieves a record's return history, most recent first
func (r *ReturnRepository) GetByRecord(lendBorrowID uuid.UUID) ([]*domain.ReturnEntry, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT `+returnColumns+` FROM lend_borrow_returns
		 WHERE lend_borrow_id = $1 ORDER BY return_date DESC, created_at DESC`,
		pgUUID(lendBorrowID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.ReturnEntry
	for rows.Next() {
		entry, err := scanReturnEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// TotalsByUser aggregates returned amounts per record for all of a user's
// records in one query
func (r *ReturnRepository) TotalsByUser(userID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT ret.lend_borrow_id, SUM(ret.amount)
		FROM lend_borrow_returns ret
		JOIN lend_borrow_records rec ON rec.id = ret.lend_borrow_id
		WHERE rec.user_id = $1
		GROUP BY ret.lend_borrow_id`,
		pgUUID(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[uuid.UUID]decimal.Decimal)
	for rows.Next() {
		var recordID pgtype.UUID
		var total pgtype.Numeric
		if err := rows.Scan(&recordID, &total); err != nil {
			return nil, err
		}
		totals[uuid.UUID(recordID.Bytes)] = pgNumericToDecimal(total)
	}
	return totals, rows.Err()
}

func scanReturnEntry(row pgx.Row) (*domain.ReturnEntry, error) {
	var (
		id           pgtype.UUID
		lendBorrowID pgtype.UUID
		amount       pgtype.Numeric
		returnDate   pgtype.Date
		accountID    pgtype.UUID
		createdAt    pgtype.Timestamptz
		entry        domain.ReturnEntry
	)
	err := row.Scan(&id, &lendBorrowID, &amount, &returnDate, &accountID, &createdAt)
	if err != nil {
		return nil, err
	}

	entry.ID = uuid.UUID(id.Bytes)
	entry.LendBorrowID = uuid.UUID(lendBorrowID.Bytes)
	entry.Amount = pgNumericToDecimal(amount)
	entry.ReturnDate = returnDate.Time
	entry.CreatedAt = createdAt.Time
	if accountID.Valid {
		aid := uuid.UUID(accountID.Bytes)
		entry.AccountID = &aid
	}

	return &entry, nil
}
