package postgres

import (
	"context"
	"time"

	"github.com/ShalConnects/Balanze-sub003/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RecordRepository implements domain.RecordRepository using PostgreSQL
type RecordRepository struct {
	pool *pgxpool.Pool
}

// NewRecordRepository creates a new RecordRepository
func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

const recordColumns = `id, user_id, type, person_name, amount, currency, due_date, status,
	account_id, affect_account_balance, transaction_id, partial_return_amount,
	partial_return_date, notes, created_at, updated_at`

// Create inserts a new lend/borrow record
func (r *RecordRepository) Create(record *domain.LendBorrowRecord) (*domain.LendBorrowRecord, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(record.Amount)
	if err != nil {
		return nil, err
	}
	partialReturn, err := decimalToPgNumeric(record.PartialReturnAmount)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO lend_borrow_records
			(user_id, type, person_name, amount, currency, due_date, status,
			 account_id, affect_account_balance, transaction_id, partial_return_amount,
			 partial_return_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+recordColumns,
		pgUUID(record.UserID),
		string(record.Type),
		record.PersonName,
		amount,
		record.Currency,
		pgtype.Date{Time: record.DueDate, Valid: true},
		string(record.Status),
		pgUUIDPtr(record.AccountID),
		record.AffectAccountBalance,
		pgTextPtr(record.TransactionID),
		partialReturn,
		pgDatePtr(record.PartialReturnDate),
		pgTextPtr(record.Notes),
	)
	return scanRecord(row)
}

// GetByID retrieves a record by ID for a user
func (r *RecordRepository) GetByID(userID uuid.UUID, id uuid.UUID) (*domain.LendBorrowRecord, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM lend_borrow_records WHERE id = $1 AND user_id = $2`,
		pgUUID(id), pgUUID(userID))
	record, err := scanRecord(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return record, nil
}

// GetAllByUser retrieves all records for a user, most recent first
func (r *RecordRepository) GetAllByUser(userID uuid.UUID) ([]*domain.LendBorrowRecord, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM lend_borrow_records WHERE user_id = $1 ORDER BY created_at DESC`,
		pgUUID(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.LendBorrowRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Update persists all mutable fields of a record
func (r *RecordRepository) Update(record *domain.LendBorrowRecord) (*domain.LendBorrowRecord, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(record.Amount)
	if err != nil {
		return nil, err
	}
	partialReturn, err := decimalToPgNumeric(record.PartialReturnAmount)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE lend_borrow_records
		SET type = $3, person_name = $4, amount = $5, currency = $6, due_date = $7,
			status = $8, account_id = $9, affect_account_balance = $10,
			transaction_id = $11, partial_return_amount = $12, partial_return_date = $13,
			notes = $14, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+recordColumns,
		pgUUID(record.ID),
		pgUUID(record.UserID),
		string(record.Type),
		record.PersonName,
		amount,
		record.Currency,
		pgtype.Date{Time: record.DueDate, Valid: true},
		string(record.Status),
		pgUUIDPtr(record.AccountID),
		record.AffectAccountBalance,
		pgTextPtr(record.TransactionID),
		partialReturn,
		pgDatePtr(record.PartialReturnDate),
		pgTextPtr(record.Notes),
	)
	updated, err := scanRecord(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a record; its return entries cascade
func (r *RecordRepository) Delete(userID uuid.UUID, id uuid.UUID) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM lend_borrow_records WHERE id = $1 AND user_id = $2`,
		pgUUID(id), pgUUID(userID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// MarkOverdue flips active records with a due date before the given day to
// overdue. Idempotent; safe to run on every list load.
func (r *RecordRepository) MarkOverdue(userID uuid.UUID, before time.Time) (int64, error) {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `
		UPDATE lend_borrow_records
		SET status = 'overdue', updated_at = now()
		WHERE user_id = $1 AND status = 'active' AND due_date < $2`,
		pgUUID(userID), pgtype.Date{Time: before, Valid: true})
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanRecord(row pgx.Row) (*domain.LendBorrowRecord, error) {
	var (
		id                pgtype.UUID
		userID            pgtype.UUID
		recordType        string
		amount            pgtype.Numeric
		dueDate           pgtype.Date
		status            string
		accountID         pgtype.UUID
		transactionID     pgtype.Text
		partialReturn     pgtype.Numeric
		partialReturnDate pgtype.Date
		notes             pgtype.Text
		createdAt         pgtype.Timestamptz
		updatedAt         pgtype.Timestamptz
		record            domain.LendBorrowRecord
	)
	err := row.Scan(&id, &userID, &recordType, &record.PersonName, &amount, &record.Currency,
		&dueDate, &status, &accountID, &record.AffectAccountBalance, &transactionID,
		&partialReturn, &partialReturnDate, &notes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	record.ID = uuid.UUID(id.Bytes)
	record.UserID = uuid.UUID(userID.Bytes)
	record.Type = domain.RecordType(recordType)
	record.Amount = pgNumericToDecimal(amount)
	record.Status = domain.RecordStatus(status)
	record.PartialReturnAmount = pgNumericToDecimal(partialReturn)
	record.CreatedAt = createdAt.Time
	record.UpdatedAt = updatedAt.Time

	if dueDate.Valid {
		record.DueDate = dueDate.Time
	}
	if accountID.Valid {
		aid := uuid.UUID(accountID.Bytes)
		record.AccountID = &aid
	}
	if transactionID.Valid {
		record.TransactionID = &transactionID.String
	}
	if partialReturnDate.Valid {
		record.PartialReturnDate = &partialReturnDate.Time
	}
	if notes.Valid {
		record.Notes = &notes.String
	}

	return &record, nil
}

func pgDatePtr(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: *t, Valid: true}
}
