package service

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/ShalConnects/Balanze-sub003/internal/domain"
	"github.com/ShalConnects/Balanze-sub003/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// RecordService handles lend/borrow record lifecycle logic
type RecordService struct {
	recordRepo      domain.RecordRepository
	returnRepo      domain.ReturnRepository
	transactionRepo domain.TransactionRepository
	accountRepo     domain.AccountRepository
	eventPublisher  websocket.EventPublisher
}

// NewRecordService creates a new RecordService
func NewRecordService(recordRepo domain.RecordRepository, returnRepo domain.ReturnRepository, transactionRepo domain.TransactionRepository, accountRepo domain.AccountRepository) *RecordService {
	return &RecordService{
		recordRepo:      recordRepo,
		returnRepo:      returnRepo,
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *RecordService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *RecordService) publishEvent(userID uuid.UUID, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// CreateRecordInput contains input for creating a lend/borrow record
type CreateRecordInput struct {
	Type                 domain.RecordType
	PersonName           string
	Amount               decimal.Decimal
	Currency             string
	DueDate              *time.Time
	AccountID            *uuid.UUID
	AffectAccountBalance bool
	Notes                *string
}

// CreateRecord creates a new lend/borrow record. For account-linked records
// the currency is derived from the account and an initial ledger transaction
// is created for the principal; the record insert and the ledger write are
// not atomic, so a ledger failure leaves the record in place and surfaces
// domain.ErrLedgerWrite.
func (s *RecordService) CreateRecord(userID uuid.UUID, input CreateRecordInput) (*domain.LendBorrowRecord, error) {
	record := &domain.LendBorrowRecord{
		UserID:               userID,
		Type:                 input.Type,
		PersonName:           strings.TrimSpace(input.PersonName),
		Amount:               input.Amount,
		Currency:             input.Currency,
		Status:               domain.RecordStatusActive,
		AccountID:            input.AccountID,
		AffectAccountBalance: input.AffectAccountBalance,
		PartialReturnAmount:  decimal.Zero,
		Notes:                input.Notes,
	}

	// Due date defaults to a week out, date-only
	if input.DueDate != nil {
		record.DueDate = *input.DueDate
	} else {
		now := time.Now().UTC()
		record.DueDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, domain.DefaultDueDays)
	}

	// Account-linked records take their currency from the account
	if input.AffectAccountBalance {
		if input.AccountID == nil {
			return nil, domain.ErrAccountRequired
		}
		account, err := s.accountRepo.GetByID(userID, *input.AccountID)
		if err != nil {
			return nil, err
		}
		record.Currency = account.Currency
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	created, err := s.recordRepo.Create(record)
	if err != nil {
		return nil, err
	}

	// The initial ledger transaction moves the principal out of (lend) or
	// into (borrow) the linked account.
	if created.AffectAccountBalance {
		code := mintTransactionCode()
		_, err := s.transactionRepo.Create(&domain.Transaction{
			Code:        code,
			UserID:      userID,
			AccountID:   *created.AccountID,
			Type:        loanTransactionType(created.Type),
			Amount:      created.Amount,
			Currency:    created.Currency,
			Category:    domain.CategoryLendBorrow,
			Description: loanDescription(created),
			Tags:        []string{"lend_borrow", "loan"},
			Date:        time.Now().UTC(),
		})
		if err != nil {
			log.Error().Err(err).Str("record_id", created.ID.String()).Msg("Failed to create initial ledger transaction")
			return created, ledgerWriteError(err)
		}

		created.TransactionID = &code
		created, err = s.recordRepo.Update(created)
		if err != nil {
			return created, err
		}
	}

	s.publishEvent(userID, websocket.RecordCreated(created))

	return created, nil
}

// UpdateRecordInput contains the patch for updating a record. Nil fields are
// left unchanged.
type UpdateRecordInput struct {
	PersonName *string
	Amount     *decimal.Decimal
	Type       *domain.RecordType
	Currency   *string
	DueDate    *time.Time
	AccountID  *uuid.UUID
	Notes      *string
}

// UpdateRecord applies a patch to an unsettled record. For account-linked
// records, changes to amount, person, type, or account keep the linked
// ledger transaction in sync, minting a transaction code if the record has
// none. The record write and the ledger write are not atomic.
func (s *RecordService) UpdateRecord(userID uuid.UUID, id uuid.UUID, input UpdateRecordInput) (*domain.LendBorrowRecord, error) {
	record, err := s.recordRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	if record.IsSettled() {
		return nil, domain.ErrRecordSettled
	}

	syncLedger := false
	if input.PersonName != nil {
		name := strings.TrimSpace(*input.PersonName)
		if name != record.PersonName {
			record.PersonName = name
			syncLedger = true
		}
	}
	if input.Amount != nil && !input.Amount.Equal(record.Amount) {
		record.Amount = *input.Amount
		syncLedger = true
	}
	if input.Type != nil && *input.Type != record.Type {
		record.Type = *input.Type
		syncLedger = true
	}
	if input.AccountID != nil && (record.AccountID == nil || *input.AccountID != *record.AccountID) {
		account, err := s.accountRepo.GetByID(userID, *input.AccountID)
		if err != nil {
			return nil, err
		}
		record.AccountID = input.AccountID
		if record.AffectAccountBalance {
			record.Currency = account.Currency
			syncLedger = true
		}
	}
	if input.Currency != nil && !record.AffectAccountBalance {
		record.Currency = *input.Currency
	}
	if input.DueDate != nil {
		record.DueDate = *input.DueDate
	}
	if input.Notes != nil {
		record.Notes = input.Notes
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	syncLedger = syncLedger && record.AffectAccountBalance
	if syncLedger && record.TransactionID == nil {
		code := mintTransactionCode()
		record.TransactionID = &code
	}

	updated, err := s.recordRepo.Update(record)
	if err != nil {
		return nil, err
	}

	if syncLedger {
		if err := s.syncLinkedTransaction(userID, updated); err != nil {
			log.Error().Err(err).Str("record_id", updated.ID.String()).Msg("Failed to sync linked ledger transaction")
			return updated, ledgerWriteError(err)
		}
	}

	s.publishEvent(userID, websocket.RecordUpdated(updated))

	return updated, nil
}

// syncLinkedTransaction creates or updates the ledger transaction that
// mirrors an account-linked record's principal.
func (s *RecordService) syncLinkedTransaction(userID uuid.UUID, record *domain.LendBorrowRecord) error {
	tx := &domain.Transaction{
		Code:        *record.TransactionID,
		UserID:      userID,
		AccountID:   *record.AccountID,
		Type:        loanTransactionType(record.Type),
		Amount:      record.Amount,
		Currency:    record.Currency,
		Category:    domain.CategoryLendBorrow,
		Description: loanDescription(record),
		Tags:        []string{"lend_borrow", "loan"},
		Date:        time.Now().UTC(),
	}

	_, err := s.transactionRepo.FindByCode(userID, *record.TransactionID)
	if errors.Is(err, domain.ErrTransactionNotFound) {
		_, err = s.transactionRepo.Create(tx)
		return err
	}
	if err != nil {
		return err
	}
	_, err = s.transactionRepo.UpdateByCode(userID, *record.TransactionID, tx)
	return err
}

// DeleteRecord removes an unsettled record. The deletion is two-phase and
// fail-closed: the linked ledger transaction is deleted first and any
// failure there aborts the whole operation, so a ledger transaction is
// never left referencing a missing record.
func (s *RecordService) DeleteRecord(userID uuid.UUID, id uuid.UUID) error {
	record, err := s.recordRepo.GetByID(userID, id)
	if err != nil {
		return err
	}
	if record.IsSettled() {
		return domain.ErrRecordSettled
	}

	// Phase 1: remove the linked transaction. A missing transaction is
	// fine; anything else aborts.
	if record.TransactionID != nil && record.AffectAccountBalance {
		if err := s.transactionRepo.DeleteByCode(userID, *record.TransactionID); err != nil {
			if !errors.Is(err, domain.ErrTransactionNotFound) {
				log.Error().Err(err).Str("record_id", id.String()).Msg("Failed to delete linked ledger transaction, aborting record deletion")
				return ledgerWriteError(err)
			}
		}
	}

	// Phase 2: detach the record from the account before removal so a
	// failed delete cannot leave a live link behind.
	record.AffectAccountBalance = false
	record.TransactionID = nil
	if _, err := s.recordRepo.Update(record); err != nil {
		return err
	}

	// Phase 3: delete the record; its return history cascades.
	if err := s.recordRepo.Delete(userID, id); err != nil {
		return err
	}

	log.Info().Str("record_id", id.String()).Msg("Lend/borrow record deleted")
	s.publishEvent(userID, websocket.RecordDeleted(record))

	return nil
}

// ListRecords runs the overdue sweep and returns the user's records,
// most recent first. The sweep is idempotent and performs no ledger writes.
func (s *RecordService) ListRecords(userID uuid.UUID) ([]*domain.LendBorrowRecord, error) {
	if err := s.sweepOverdue(userID); err != nil {
		return nil, err
	}
	return s.recordRepo.GetAllByUser(userID)
}

// GetRecord retrieves a single record
func (s *RecordService) GetRecord(userID uuid.UUID, id uuid.UUID) (*domain.LendBorrowRecord, error) {
	return s.recordRepo.GetByID(userID, id)
}

// ListReturns returns a record's partial repayment history, most recent
// first. Ordering is for display only and has no bearing on balance math.
func (s *RecordService) ListReturns(userID uuid.UUID, recordID uuid.UUID) ([]*domain.ReturnEntry, error) {
	record, err := s.recordRepo.GetByID(userID, recordID)
	if err != nil {
		return nil, err
	}
	return s.returnRepo.GetByRecord(record.ID)
}

// GetSummary aggregates the user's records per currency after running the
// overdue sweep.
func (s *RecordService) GetSummary(userID uuid.UUID) (*domain.LendBorrowSummary, error) {
	if err := s.sweepOverdue(userID); err != nil {
		return nil, err
	}
	records, err := s.recordRepo.GetAllByUser(userID)
	if err != nil {
		return nil, err
	}
	totals, err := s.returnRepo.TotalsByUser(userID)
	if err != nil {
		return nil, err
	}
	return buildSummary(records, totals), nil
}

// sweepOverdue moves active records whose due date has passed to overdue.
func (s *RecordService) sweepOverdue(userID uuid.UUID) error {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	swept, err := s.recordRepo.MarkOverdue(userID, today)
	if err != nil {
		return err
	}
	if swept > 0 {
		log.Debug().Int64("count", swept).Msg("Records marked overdue")
	}
	return nil
}

// buildSummary folds records and their return totals into per-currency
// aggregates. Settled records contribute to totals but carry no
// outstanding balance.
func buildSummary(records []*domain.LendBorrowRecord, returnTotals map[uuid.UUID]decimal.Decimal) *domain.LendBorrowSummary {
	summary := &domain.LendBorrowSummary{}
	byCurrency := make(map[string]*domain.CurrencySummary)

	for _, record := range records {
		switch record.Status {
		case domain.RecordStatusOverdue:
			summary.OverdueCount++
		case domain.RecordStatusSettled:
			summary.SettledCount++
		default:
			summary.ActiveCount++
		}

		cs, ok := byCurrency[record.Currency]
		if !ok {
			cs = &domain.CurrencySummary{
				Currency:            record.Currency,
				TotalLent:           decimal.Zero,
				TotalBorrowed:       decimal.Zero,
				OutstandingLent:     decimal.Zero,
				OutstandingBorrowed: decimal.Zero,
			}
			byCurrency[record.Currency] = cs
		}

		outstanding := decimal.Zero
		if !record.IsSettled() {
			outstanding = record.Amount.Sub(returnTotals[record.ID].Add(record.PartialReturnAmount))
			if outstanding.LessThan(decimal.Zero) {
				outstanding = decimal.Zero
			}
		}

		if record.Type == domain.RecordTypeLend {
			cs.TotalLent = cs.TotalLent.Add(record.Amount)
			cs.OutstandingLent = cs.OutstandingLent.Add(outstanding)
		} else {
			cs.TotalBorrowed = cs.TotalBorrowed.Add(record.Amount)
			cs.OutstandingBorrowed = cs.OutstandingBorrowed.Add(outstanding)
		}
	}

	currencies := make([]string, 0, len(byCurrency))
	for currency := range byCurrency {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)
	for _, currency := range currencies {
		summary.ByCurrency = append(summary.ByCurrency, *byCurrency[currency])
	}

	return summary
}

// mintTransactionCode generates a short ledger transaction code. Uniqueness
// is enforced by the ledger store's unique index on the code column.
func mintTransactionCode() string {
	return fmt.Sprintf("LB%06d", rand.Intn(1000000))
}

// loanTransactionType is the ledger direction of the principal: lending
// moves money out of the account, borrowing moves money in.
func loanTransactionType(t domain.RecordType) domain.TransactionType {
	if t == domain.RecordTypeLend {
		return domain.TransactionTypeExpense
	}
	return domain.TransactionTypeIncome
}

func loanDescription(record *domain.LendBorrowRecord) string {
	if record.Type == domain.RecordTypeLend {
		return "Lend to " + record.PersonName
	}
	return "Borrow from " + record.PersonName
}

// ledgerWriteError tags a collaborator failure so handlers can report the
// operation as partially applied.
func ledgerWriteError(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrLedgerWrite, err)
}
